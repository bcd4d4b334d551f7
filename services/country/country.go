package country

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

var ErrEmptyResponse = errors.New("empty response from countries API")

type Service struct {
	Client *api.Client
	URL    string
}

func NewService(cfg *config.Config, client *api.Client) *Service {
	return &Service{
		Client: client,
		URL:    cfg.RestCountriesAPIBaseURL,
	}
}

func (s *Service) FetchData(ctx context.Context) ([]byte, error) {
	return s.Client.Do(ctx, s.URL, nil)
}

func (s *Service) ParseData(data []byte) ([]models.RawCountry, error) {
	var resp []models.RawCountry

	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse country data: %w", err)
	}

	if len(resp) == 0 {
		return nil, ErrEmptyResponse
	}

	return resp, nil
}

// Fetch downloads and parses the full country list.
func (s *Service) Fetch(ctx context.Context) ([]models.RawCountry, error) {
	data, err := s.FetchData(ctx)
	if err != nil {
		return nil, err
	}

	countries, err := s.ParseData(data)
	if err != nil {
		return nil, err
	}

	logger.Info("[countries] Fetched %d countries from API.", len(countries))
	return countries, nil
}
