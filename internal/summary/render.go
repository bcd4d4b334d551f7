package summary

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/AbdulWasayUl/country-currency-api/internal/logger"
	"github.com/AbdulWasayUl/country-currency-api/models"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	width      = 800
	height     = 600
	margin     = 40
	lineHeight = 28
)

var (
	background = color.RGBA{R: 0xf7, G: 0xf7, B: 0xf2, A: 0xff}
	ink        = color.RGBA{R: 0x20, G: 0x20, B: 0x28, A: 0xff}
	accent     = color.RGBA{R: 0x1f, G: 0x6f, B: 0xb2, A: 0xff}
	muted      = color.RGBA{R: 0x70, G: 0x70, B: 0x78, A: 0xff}
)

type Source interface {
	Summary(ctx context.Context) (models.Summary, error)
}

// Renderer draws the summary PNG and replaces the cached file atomically.
type Renderer struct {
	source Source
	path   string
	mu     sync.Mutex
}

func NewRenderer(source Source, path string) *Renderer {
	return &Renderer{source: source, path: path}
}

func (r *Renderer) Path() string {
	return r.path
}

// Render holds the lock from read to rename so an older snapshot can never
// replace a newer one.
func (r *Renderer) Render(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sum, err := r.source.Summary(ctx)
	if err != nil {
		return fmt.Errorf("failed to load summary: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, Draw(sum)); err != nil {
		return fmt.Errorf("failed to encode summary image: %w", err)
	}

	if err := writeAtomic(r.path, buf.Bytes()); err != nil {
		return err
	}

	logger.Info("[summary] Summary image written to %s (%d bytes).", r.path, buf.Len())
	return nil
}

// Draw lays out title, total, top countries by GDP and the refresh time.
func Draw(sum models.Summary) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: background}, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(0, 0, width, 6), &image.Uniform{C: accent}, image.Point{}, draw.Src)

	p := message.NewPrinter(language.English)
	y := margin + lineHeight

	drawText(img, margin, y, accent, "Country Summary")
	y += lineHeight * 2

	drawText(img, margin, y, ink, p.Sprintf("Total countries: %d", sum.TotalCountries))
	y += lineHeight * 2

	drawText(img, margin, y, ink, "Top 5 countries by estimated GDP:")
	y += lineHeight

	if len(sum.Top) == 0 {
		drawText(img, margin+20, y, muted, "No data yet")
		y += lineHeight
	}
	for i, c := range sum.Top {
		drawText(img, margin+20, y, ink, fmt.Sprintf("%d. %s - %s", i+1, c.Name, formatGDP(p, c.EstimatedGDP)))
		y += lineHeight
	}

	y += lineHeight
	drawText(img, margin, y, muted, "Last refreshed: "+formatTime(sum.LastRefresh))

	return img
}

func drawText(img draw.Image, x, y int, c color.Color, s string) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func formatGDP(p *message.Printer, gdp *float64) string {
	if gdp == nil {
		return "N/A"
	}
	return p.Sprintf("%.2f", *gdp)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.UTC().Format(time.RFC3339)
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".summary-*.png")
	if err != nil {
		return fmt.Errorf("failed to create temp image: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp image: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
