package workpool_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AbdulWasayUl/country-currency-api/internal/channels"
	"github.com/AbdulWasayUl/country-currency-api/internal/workpool"
	"github.com/AbdulWasayUl/country-currency-api/models"
)

func waitOrFail(t *testing.T, ch *channels.Channels) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		ch.WG.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for jobs to complete")
	}
}

func TestWorkerPool_New(t *testing.T) {
	ch := channels.New()

	wp := workpool.New(ch, 3)
	if wp.WorkerCount != 3 {
		t.Errorf("Expected WorkerCount 3, got %d", wp.WorkerCount)
	}
	if wp.Channels != ch {
		t.Error("Expected Channels to match")
	}

	if workpool.New(ch, 0).WorkerCount != 1 {
		t.Error("Expected at least one worker")
	}
}

func TestWorkerPool_RunsJobs(t *testing.T) {
	ch := channels.New()
	wp := workpool.New(ch, 3)
	wp.Start(context.Background())
	defer wp.Stop()

	var count int32
	for i := 0; i < 20; i++ {
		err := ch.Submit(models.Job{
			ID:      "run",
			Service: "test",
			RunFunc: func(ctx context.Context) error {
				atomic.AddInt32(&count, 1)
				return nil
			},
		})
		if err != nil {
			t.Fatalf("submit failed: %v", err)
		}
	}

	waitOrFail(t, ch)

	if got := atomic.LoadInt32(&count); got != 20 {
		t.Fatalf("expected 20 jobs, got %d", got)
	}
}

func TestWorkerPool_ErrorsAndPanicsAreContained(t *testing.T) {
	ch := channels.New()
	wp := workpool.New(ch, 1)
	wp.Start(context.Background())
	defer wp.Stop()

	var after int32
	jobs := []models.Job{
		{ID: "1", Service: "test", RunFunc: func(ctx context.Context) error { return errors.New("render failed") }},
		{ID: "2", Service: "test", RunFunc: func(ctx context.Context) error { panic("boom") }},
		{ID: "3", Service: "test", RunFunc: func(ctx context.Context) error {
			atomic.AddInt32(&after, 1)
			return nil
		}},
	}
	for _, j := range jobs {
		if err := ch.Submit(j); err != nil {
			t.Fatalf("submit failed: %v", err)
		}
	}

	waitOrFail(t, ch)

	if atomic.LoadInt32(&after) != 1 {
		t.Fatal("worker should keep running after a failed or panicking job")
	}
}

func TestWorkerPool_JobContextSurvivesParentCancel(t *testing.T) {
	ch := channels.New()
	ctx, cancel := context.WithCancel(context.Background())
	wp := workpool.New(ch, 1)
	wp.Start(ctx)
	defer wp.Stop()
	cancel()

	var ctxErr atomic.Value
	err := ch.Submit(models.Job{ID: "x", Service: "test", RunFunc: func(jobCtx context.Context) error {
		ctxErr.Store(jobCtx.Err() == nil)
		return nil
	}})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	waitOrFail(t, ch)

	if ok, _ := ctxErr.Load().(bool); !ok {
		t.Fatal("job context should not inherit parent cancellation")
	}
}
