package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RawCountry is one record of the restcountries v2 payload.
type RawCountry struct {
	Name       string        `json:"name"`
	Capital    *string       `json:"capital"`
	Region     *string       `json:"region"`
	Population *int64        `json:"population"`
	Flag       *string       `json:"flag"`
	Currencies []RawCurrency `json:"currencies"`
}

type RawCurrency struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

// RateTable maps a currency code to its units per 1 USD.
type RateTable map[string]float64

// Country is the persisted, derived country record.
type Country struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name            string             `json:"name" bson:"name"`
	NameKey         string             `json:"-" bson:"name_key"`
	Capital         *string            `json:"capital" bson:"capital"`
	Region          *string            `json:"region" bson:"region"`
	Population      int64              `json:"population" bson:"population"`
	CurrencyCode    *string            `json:"currency_code" bson:"currency_code"`
	ExchangeRate    *float64           `json:"exchange_rate" bson:"exchange_rate"`
	EstimatedGDP    *float64           `json:"estimated_gdp" bson:"estimated_gdp"`
	FlagURL         *string            `json:"flag_url" bson:"flag_url"`
	LastRefreshedAt time.Time          `json:"last_refreshed_at" bson:"last_refreshed_at"`
}

type UpsertResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

type SortKey string

const (
	SortNameAsc        SortKey = "name_asc"
	SortNameDesc       SortKey = "name_desc"
	SortPopulationAsc  SortKey = "population_asc"
	SortPopulationDesc SortKey = "population_desc"
	SortGDPAsc         SortKey = "gdp_asc"
	SortGDPDesc        SortKey = "gdp_desc"
)

// Valid reports whether k is empty (no ordering) or one of the known keys.
func (k SortKey) Valid() bool {
	switch k {
	case "", SortNameAsc, SortNameDesc, SortPopulationAsc, SortPopulationDesc, SortGDPAsc, SortGDPDesc:
		return true
	}
	return false
}

type ListQuery struct {
	Name     string
	Region   string
	Currency string
	Sort     SortKey
	Skip     int64
	Limit    int64
}

type CountryPage struct {
	Data       []Country `json:"data"`
	TotalCount int64     `json:"total_count"`
}

type Status struct {
	TotalCountries int64      `json:"total_countries"`
	LastRefresh    *time.Time `json:"last_refresh"`
}

// Summary feeds the rendered summary image.
type Summary struct {
	Status
	Top []Country
}
