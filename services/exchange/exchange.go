package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/AbdulWasayUl/country-currency-api/internal/api"
	"github.com/AbdulWasayUl/country-currency-api/internal/config"
	"github.com/AbdulWasayUl/country-currency-api/internal/logger"
	"github.com/AbdulWasayUl/country-currency-api/models"
)

var ErrEmptyRates = errors.New("exchange rate API returned no rates")

type Service struct {
	Client *api.Client
	URL    string
}

func NewService(cfg *config.Config, client *api.Client) *Service {
	return &Service{
		Client: client,
		URL:    cfg.ExchangeRateAPIBaseURL,
	}
}

func (s *Service) FetchData(ctx context.Context) ([]byte, error) {
	return s.Client.Do(ctx, s.URL, nil)
}

func (s *Service) ParseData(data []byte) (models.RateTable, error) {
	var resp ExchangeRateAPIResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse exchange rate data: %w", err)
	}

	if resp.Result != "" && resp.Result != "success" {
		return nil, fmt.Errorf("exchange rate API result %q", resp.Result)
	}

	if len(resp.Rates) == 0 {
		return nil, ErrEmptyRates
	}

	return models.RateTable(resp.Rates), nil
}

// Fetch downloads and parses the USD rate table.
func (s *Service) Fetch(ctx context.Context) (models.RateTable, error) {
	data, err := s.FetchData(ctx)
	if err != nil {
		return nil, err
	}

	rates, err := s.ParseData(data)
	if err != nil {
		return nil, err
	}

	logger.Info("[exchange] Fetched %d exchange rates from API.", len(rates))
	return rates, nil
}
