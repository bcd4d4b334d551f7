package refresh

import (
	"math"
	"math/rand"
	"strings"

	"github.com/AbdulWasayUl/country-currency-api/models"
)

const (
	minPerCapita = 1000.0
	maxPerCapita = 2000.0
)

// FactorFunc returns the per-capita multiplier used for estimated GDP.
// Production draws uniformly from [1000, 2000), so estimated GDP is not
// reproducible between runs unless the factor is pinned.
type FactorFunc func() float64

func RandomFactor() float64 {
	return minPerCapita + rand.Float64()*(maxPerCapita-minPerCapita)
}

// Derive joins raw countries to the rate table and computes estimated GDP.
//
// GDP outcome:
//   - no currency code: 0 (not applicable)
//   - code but no usable rate, or no population: nil (unknown)
//   - otherwise population * factor / rate, rounded to 2 decimals
func Derive(raw []models.RawCountry, rates models.RateTable, factor FactorFunc) []models.Country {
	if factor == nil {
		factor = RandomFactor
	}

	out := make([]models.Country, 0, len(raw))
	for _, rc := range raw {
		name := strings.TrimSpace(rc.Name)
		if name == "" {
			continue
		}

		c := models.Country{
			Name:    name,
			NameKey: models.NameKey(name),
			Capital: rc.Capital,
			Region:  rc.Region,
			FlagURL: rc.Flag,
		}
		if rc.Population != nil {
			c.Population = *rc.Population
		}

		code := currencyCode(rc.Currencies)
		if code == nil {
			zero := 0.0
			c.EstimatedGDP = &zero
			out = append(out, c)
			continue
		}
		c.CurrencyCode = code

		rate, ok := rates[*code]
		if !ok || !usableRate(rate) {
			out = append(out, c)
			continue
		}
		c.ExchangeRate = &rate

		if c.Population != 0 {
			gdp := estimateGDP(c.Population, factor(), rate)
			c.EstimatedGDP = &gdp
		}
		out = append(out, c)
	}
	return out
}

// usableRate rejects zero, negative and non-finite rates.
func usableRate(rate float64) bool {
	return rate > 0 && !math.IsInf(rate, 1)
}

func currencyCode(currencies []models.RawCurrency) *string {
	if len(currencies) == 0 {
		return nil
	}
	code := strings.TrimSpace(currencies[0].Code)
	if code == "" {
		return nil
	}
	return &code
}

func estimateGDP(population int64, factor, rate float64) float64 {
	return math.Round(float64(population)*factor/rate*100) / 100
}
