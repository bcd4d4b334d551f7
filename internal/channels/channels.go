package channels

import (
	"errors"
	"sync"

	"github.com/AbdulWasayUl/country-currency-api/models"
)

var (
	ErrQueueFull   = errors.New("job queue is full")
	ErrQueueClosed = errors.New("job queue is closed")
)

type Channels struct {
	Jobs chan models.Job
	WG   *sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func New() *Channels {
	const bufferSize = 100
	return &Channels{
		Jobs: make(chan models.Job, bufferSize),
		WG:   &sync.WaitGroup{},
	}
}

// Submit queues a job without blocking. WG is incremented here so Wait
// covers jobs that are queued but not yet picked up.
func (c *Channels) Submit(job models.Job) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrQueueClosed
	}

	c.WG.Add(1)
	select {
	case c.Jobs <- job:
		return nil
	default:
		c.WG.Done()
		return ErrQueueFull
	}
}

// Close stops accepting jobs and lets workers drain the queue.
func (c *Channels) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.Jobs)
}
