package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/AbdulWasayUl/country-currency-api/internal/db"
	"github.com/AbdulWasayUl/country-currency-api/models"
	"github.com/AbdulWasayUl/country-currency-api/services/refresh"
	"github.com/gin-gonic/gin"
)

type Refresher interface {
	Refresh(ctx context.Context) (refresh.Result, error)
}

type CountryStore interface {
	List(ctx context.Context, q models.ListQuery) (models.CountryPage, error)
	GetByName(ctx context.Context, name string) (models.Country, error)
	DeleteByName(ctx context.Context, name string) error
	Status(ctx context.Context) (models.Status, error)
}

type Handler struct {
	refresher Refresher
	store     CountryStore
	imagePath string
}

func NewHandler(refresher Refresher, store CountryStore, imagePath string) *Handler {
	return &Handler{refresher: refresher, store: store, imagePath: imagePath}
}

// RefreshCountries runs the full fetch, merge and upsert cycle.
func (h *Handler) RefreshCountries(c *gin.Context) {
	res, err := h.refresher.Refresh(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      fmt.Sprintf("Saved/updated %d countries successfully, summary image refresh queued", res.Total),
		"created":      res.Created,
		"updated":      res.Updated,
		"total":        res.Total,
		"refreshed_at": res.RefreshedAt,
	})
}

func (h *Handler) ListCountries(c *gin.Context) {
	q := models.ListQuery{
		Name:     c.Query("name"),
		Region:   c.Query("region"),
		Currency: c.Query("currency"),
		Sort:     models.SortKey(c.Query("sort")),
		Limit:    db.DefaultLimit,
	}

	var err error
	if q.Skip, err = intQuery(c, "skip", 0); err != nil {
		abortWithError(c, err)
		return
	}
	if q.Limit, err = intQuery(c, "limit", db.DefaultLimit); err != nil {
		abortWithError(c, err)
		return
	}
	if q.Limit <= 0 {
		abortWithError(c, fmt.Errorf("%w: limit must be > 0", db.ErrInvalidPagination))
		return
	}

	page, err := h.store.List(c.Request.Context(), q)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *Handler) GetCountry(c *gin.Context) {
	country, err := h.store.GetByName(c.Request.Context(), c.Param("name"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, country)
}

func (h *Handler) DeleteCountry(c *gin.Context) {
	name := c.Param("name")
	if err := h.store.DeleteByName(c.Request.Context(), name); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Country '%s' deleted successfully", name)})
}

func (h *Handler) GetSummaryImage(c *gin.Context) {
	info, err := os.Stat(h.imagePath)
	if err != nil || info.IsDir() {
		c.JSON(http.StatusNotFound, gin.H{"error": "Summary image not found"})
		return
	}

	c.Header("Content-Type", "image/png")
	c.File(h.imagePath)
}

func (h *Handler) Status(c *gin.Context) {
	st, err := h.store.Status(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func intQuery(c *gin.Context, key string, fallback int64) (int64, error) {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", db.ErrInvalidPagination, key)
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: %s must be >= 0", db.ErrInvalidPagination, key)
	}
	return n, nil
}
