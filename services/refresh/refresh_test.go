package refresh

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AbdulWasayUl/country-currency-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type stubCountries struct {
	raw []models.RawCountry
	err error
}

func (s *stubCountries) Fetch(ctx context.Context) ([]models.RawCountry, error) {
	return s.raw, s.err
}

type stubRates struct {
	rates models.RateTable
	err   error
}

func (s *stubRates) Fetch(ctx context.Context) (models.RateTable, error) {
	return s.rates, s.err
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) UpsertAll(ctx context.Context, countries []models.Country, refreshedAt time.Time) (models.UpsertResult, error) {
	args := m.Called(ctx, countries, refreshedAt)
	return args.Get(0).(models.UpsertResult), args.Error(1)
}

// memStore mimics the repository's case-insensitive upsert.
type memStore struct {
	mu    sync.Mutex
	rows  map[string]models.Country
	calls int32
}

func newMemStore() *memStore {
	return &memStore{rows: map[string]models.Country{}}
}

func (m *memStore) UpsertAll(ctx context.Context, countries []models.Country, refreshedAt time.Time) (models.UpsertResult, error) {
	atomic.AddInt32(&m.calls, 1)
	m.mu.Lock()
	defer m.mu.Unlock()

	var res models.UpsertResult
	for _, c := range countries {
		c.LastRefreshedAt = refreshedAt
		if _, ok := m.rows[c.NameKey]; ok {
			res.Updated++
		} else {
			res.Created++
		}
		m.rows[c.NameKey] = c
	}
	return res, nil
}

type recordingDispatcher struct {
	mu   sync.Mutex
	jobs []models.Job
	err  error
}

func (d *recordingDispatcher) Submit(job models.Job) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.jobs = append(d.jobs, job)
	return d.err
}

func sampleRaw() []models.RawCountry {
	return []models.RawCountry{
		{Name: "Nigeria", Population: intPtr(200), Currencies: []models.RawCurrency{{Code: "NGN"}}},
		{Name: "Ghana", Population: intPtr(30), Currencies: []models.RawCurrency{{Code: "GHS"}}},
		{Name: "Wakanda", Population: intPtr(1000)},
	}
}

func sampleRates() models.RateTable {
	return models.RateTable{"NGN": 1600, "GHS": 15}
}

func TestRefresh_UpstreamFailures(t *testing.T) {
	tests := []struct {
		name      string
		countries *stubCountries
		rates     *stubRates
	}{
		{"countries error", &stubCountries{err: errors.New("dial tcp")}, &stubRates{rates: sampleRates()}},
		{"countries empty", &stubCountries{}, &stubRates{rates: sampleRates()}},
		{"rates error", &stubCountries{raw: sampleRaw()}, &stubRates{err: errors.New("503")}},
		{"rates empty", &stubCountries{raw: sampleRaw()}, &stubRates{rates: models.RateTable{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockStore{}
			svc := NewService(tt.countries, tt.rates, store, nil)

			_, err := svc.Refresh(context.Background())

			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUpstreamUnavailable))
			store.AssertNotCalled(t, "UpsertAll", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestRefresh_StoreFailure(t *testing.T) {
	store := &mockStore{}
	store.On("UpsertAll", mock.Anything, mock.Anything, mock.Anything).
		Return(models.UpsertResult{}, errors.New("transaction aborted"))

	dispatcher := &recordingDispatcher{}
	svc := NewService(&stubCountries{raw: sampleRaw()}, &stubRates{rates: sampleRates()}, store, dispatcher)
	svc.AddPostCommitHook(PostCommitHook{Name: "summary", Run: func(ctx context.Context) error { return nil }})

	_, err := svc.Refresh(context.Background())

	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUpstreamUnavailable))
	assert.Empty(t, dispatcher.jobs, "hooks must not run when the upsert fails")
	store.AssertExpectations(t)
}

func TestRefresh_Success(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 678901234, time.UTC)

	store := &mockStore{}
	store.On("UpsertAll", mock.Anything, mock.MatchedBy(func(cs []models.Country) bool {
		return len(cs) == 3
	}), now.Truncate(time.Millisecond)).Return(models.UpsertResult{Created: 2, Updated: 1}, nil)

	dispatcher := &recordingDispatcher{}
	svc := NewService(&stubCountries{raw: sampleRaw()}, &stubRates{rates: sampleRates()}, store, dispatcher)
	svc.Factor = fixedFactor(1000)
	svc.Now = func() time.Time { return now }
	svc.AddPostCommitHook(PostCommitHook{Name: "summary", Run: func(ctx context.Context) error { return nil }})

	res, err := svc.Refresh(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, now.Truncate(time.Millisecond), res.RefreshedAt)
	assert.NotEmpty(t, res.RunID)

	require.Len(t, dispatcher.jobs, 1)
	assert.Equal(t, "summary", dispatcher.jobs[0].Service)
	assert.Equal(t, res.RunID, dispatcher.jobs[0].ID)
	store.AssertExpectations(t)
}

func TestRefresh_HookFailureDoesNotFailRefresh(t *testing.T) {
	var ran int32
	svc := NewService(&stubCountries{raw: sampleRaw()}, &stubRates{rates: sampleRates()}, newMemStore(), nil)
	svc.AddPostCommitHook(PostCommitHook{Name: "summary", Run: func(ctx context.Context) error {
		atomic.AddInt32(&ran, 1)
		return errors.New("font missing")
	}})
	svc.AddPostCommitHook(PostCommitHook{Name: "panicky", Run: func(ctx context.Context) error {
		panic("boom")
	}})

	_, err := svc.Refresh(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&ran))
}

func TestRefresh_DispatcherFullDoesNotFailRefresh(t *testing.T) {
	dispatcher := &recordingDispatcher{err: errors.New("queue full")}
	svc := NewService(&stubCountries{raw: sampleRaw()}, &stubRates{rates: sampleRates()}, newMemStore(), dispatcher)
	svc.AddPostCommitHook(PostCommitHook{Name: "summary", Run: func(ctx context.Context) error { return nil }})

	_, err := svc.Refresh(context.Background())
	require.NoError(t, err)
}

func TestRefresh_Idempotent(t *testing.T) {
	store := newMemStore()
	fixed := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	svc := NewService(&stubCountries{raw: sampleRaw()}, &stubRates{rates: sampleRates()}, store, nil)
	svc.Factor = fixedFactor(1500)
	svc.Now = func() time.Time { return fixed }

	first, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	snapshot := map[string]models.Country{}
	for k, v := range store.rows {
		snapshot[k] = v
	}

	second, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, first.Created)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 3, second.Updated)
	assert.True(t, second.RefreshedAt.After(first.RefreshedAt), "timestamp must strictly advance")
	require.Len(t, store.rows, len(snapshot))

	for k, before := range snapshot {
		after := store.rows[k]
		assert.True(t, after.LastRefreshedAt.After(before.LastRefreshedAt))
		after.LastRefreshedAt = before.LastRefreshedAt
		assert.Equal(t, before, after)
	}
}

func TestRefresh_WakandaScenario(t *testing.T) {
	store := newMemStore()
	raw := []models.RawCountry{{Name: "Wakanda", Population: intPtr(1000), Currencies: []models.RawCurrency{}}}
	svc := NewService(&stubCountries{raw: raw}, &stubRates{rates: sampleRates()}, store, nil)

	_, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	row := store.rows[models.NameKey("wakanda")]
	assert.Nil(t, row.CurrencyCode)
	assert.Nil(t, row.ExchangeRate)
	require.NotNil(t, row.EstimatedGDP)
	assert.Equal(t, 0.0, *row.EstimatedGDP)
}

type blockingStore struct {
	active  int32
	maxSeen int32
}

func (b *blockingStore) UpsertAll(ctx context.Context, countries []models.Country, refreshedAt time.Time) (models.UpsertResult, error) {
	n := atomic.AddInt32(&b.active, 1)
	for {
		m := atomic.LoadInt32(&b.maxSeen)
		if n <= m || atomic.CompareAndSwapInt32(&b.maxSeen, m, n) {
			break
		}
	}
	time.Sleep(20 * time.Millisecond)
	atomic.AddInt32(&b.active, -1)
	return models.UpsertResult{Updated: len(countries)}, nil
}

func TestRefresh_Serialized(t *testing.T) {
	store := &blockingStore{}
	svc := NewService(&stubCountries{raw: sampleRaw()}, &stubRates{rates: sampleRates()}, store, nil)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Refresh(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&store.maxSeen))
}

func TestRunBatchJob(t *testing.T) {
	store := newMemStore()
	svc := NewService(&stubCountries{raw: sampleRaw()}, &stubRates{rates: sampleRates()}, store, nil)

	require.NoError(t, svc.RunBatchJob(context.Background()))
	assert.Equal(t, int32(1), atomic.LoadInt32(&store.calls))
}
