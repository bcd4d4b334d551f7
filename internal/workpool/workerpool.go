package workpool

import (
	"context"
	"time"

	"github.com/AbdulWasayUl/country-currency-api/internal/channels"
	"github.com/AbdulWasayUl/country-currency-api/internal/logger"
	"github.com/AbdulWasayUl/country-currency-api/models"
)

const jobTimeout = 30 * time.Second

type WorkerPool struct {
	WorkerCount int
	Channels    *channels.Channels
}

func New(channels *channels.Channels, workerCount int) *WorkerPool {
	if workerCount < 1 {
		workerCount = 1
	}
	return &WorkerPool{
		WorkerCount: workerCount,
		Channels:    channels,
	}
}

func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.WorkerCount; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	logger.Info("Worker %d started.", id)
	for job := range wp.Channels.Jobs {
		wp.run(ctx, id, job)
	}
	logger.Info("Worker %d stopped.", id)
}

// run executes one job. Failures and panics are logged and go no further.
func (wp *WorkerPool) run(ctx context.Context, id int, job models.Job) {
	defer wp.Channels.WG.Done()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("[%s] Worker %d recovered from panic for %s: %v", job.Service, id, job.ID, r)
		}
	}()

	opCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), jobTimeout)
	defer cancel()

	logger.Info("[%s] Worker %d processing job %s", job.Service, id, job.ID)

	if err := job.RunFunc(opCtx); err != nil {
		logger.Error("[%s] Worker %d failed job %s: %v", job.Service, id, job.ID, err)
		return
	}

	logger.Info("[%s] Worker %d successfully completed job %s", job.Service, id, job.ID)
}

func (wp *WorkerPool) Stop() {
	wp.Channels.Close()
}
