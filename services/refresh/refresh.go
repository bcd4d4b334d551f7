package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/AbdulWasayUl/country-currency-api/internal/logger"
	"github.com/AbdulWasayUl/country-currency-api/models"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

var ErrUpstreamUnavailable = errors.New("external data source unavailable")

type CountryFetcher interface {
	Fetch(ctx context.Context) ([]models.RawCountry, error)
}

type RateFetcher interface {
	Fetch(ctx context.Context) (models.RateTable, error)
}

// Store persists one refresh batch atomically.
type Store interface {
	UpsertAll(ctx context.Context, countries []models.Country, refreshedAt time.Time) (models.UpsertResult, error)
}

// Dispatcher hands post-commit work to the background pool.
type Dispatcher interface {
	Submit(job models.Job) error
}

// PostCommitHook runs after a successful upsert. Its error never reaches the
// refresh caller.
type PostCommitHook struct {
	Name string
	Run  func(ctx context.Context) error
}

type Result struct {
	RunID       string    `json:"run_id"`
	Created     int       `json:"created"`
	Updated     int       `json:"updated"`
	Total       int       `json:"total"`
	RefreshedAt time.Time `json:"refreshed_at"`
}

type Service struct {
	Factor FactorFunc
	Now    func() time.Time

	countries  CountryFetcher
	rates      RateFetcher
	store      Store
	dispatcher Dispatcher
	hooks      []PostCommitHook

	mu          sync.Mutex
	lastRefresh time.Time
}

func NewService(countries CountryFetcher, rates RateFetcher, store Store, dispatcher Dispatcher) *Service {
	return &Service{
		Factor:     RandomFactor,
		Now:        time.Now,
		countries:  countries,
		rates:      rates,
		store:      store,
		dispatcher: dispatcher,
	}
}

func (s *Service) AddPostCommitHook(hook PostCommitHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, hook)
}

// Refresh fetches both upstreams, derives the country set and upserts it in
// one transaction. Concurrent calls are serialized.
func (s *Service) Refresh(ctx context.Context) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	runID := uuid.NewString()
	logger.Info("[refresh %s] Starting refresh...", runID)

	raw, rates, err := s.fetch(ctx)
	if err != nil {
		logger.Error("[refresh %s] Upstream fetch failed: %v", runID, err)
		return Result{}, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}

	derived := Derive(raw, rates, s.Factor)
	refreshedAt := s.nextTimestamp()

	res, err := s.store.UpsertAll(ctx, derived, refreshedAt)
	if err != nil {
		logger.Error("[refresh %s] Upsert failed, transaction rolled back: %v", runID, err)
		return Result{}, fmt.Errorf("failed to upsert countries: %w", err)
	}
	s.lastRefresh = refreshedAt

	logger.Info("[refresh %s] Saved %d countries (%d created, %d updated).", runID, len(derived), res.Created, res.Updated)

	s.runHooks(runID)

	return Result{
		RunID:       runID,
		Created:     res.Created,
		Updated:     res.Updated,
		Total:       len(derived),
		RefreshedAt: refreshedAt,
	}, nil
}

// RunBatchJob lets the scheduler trigger the same serialized refresh.
func (s *Service) RunBatchJob(ctx context.Context) error {
	_, err := s.Refresh(ctx)
	return err
}

func (s *Service) fetch(ctx context.Context) ([]models.RawCountry, models.RateTable, error) {
	var (
		raw   []models.RawCountry
		rates models.RateTable
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		raw, err = s.countries.Fetch(gctx)
		if err == nil && len(raw) == 0 {
			err = errors.New("no countries returned")
		}
		return err
	})
	g.Go(func() error {
		var err error
		rates, err = s.rates.Fetch(gctx)
		if err == nil && len(rates) == 0 {
			err = errors.New("no exchange rates returned")
		}
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return raw, rates, nil
}

// nextTimestamp is truncated to Mongo's millisecond precision and always
// moves past the previous refresh.
func (s *Service) nextTimestamp() time.Time {
	now := s.Now().UTC().Truncate(time.Millisecond)
	if !now.After(s.lastRefresh) {
		now = s.lastRefresh.Add(time.Millisecond)
	}
	return now
}

func (s *Service) runHooks(runID string) {
	for _, hook := range s.hooks {
		job := models.Job{ID: runID, Service: hook.Name, RunFunc: hook.Run}

		if s.dispatcher == nil {
			runInline(job)
			continue
		}
		if err := s.dispatcher.Submit(job); err != nil {
			logger.Warn("[refresh %s] Could not queue %s: %v", runID, hook.Name, err)
		}
	}
}

func runInline(job models.Job) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			logger.Error("[%s] Post-commit job panicked: %v", job.Service, r)
		}
	}()

	if err := job.RunFunc(ctx); err != nil {
		logger.Error("[%s] Post-commit job failed for run %s: %v", job.Service, job.ID, err)
	}
}
