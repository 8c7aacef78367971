// Package worker delivers live events off the request path.
package worker

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"namaz-tracker/internal/models"
)

const (
	maxAttempts    = 3
	publishTimeout = 5 * time.Second
)

var (
	ErrQueueFull = errors.New("event queue is full")
	ErrStopped   = errors.New("event pool is stopped")
)

// Publisher is the synchronous sink the pool drains into.
type Publisher interface {
	Publish(ctx context.Context, userID uuid.UUID, event models.SessionEvent) error
}

type job struct {
	userID uuid.UUID
	event  models.SessionEvent
}

// Pool queues events and publishes them from a fixed set of workers.
// Every user is pinned to one worker, so a user's events keep their order.
type Pool struct {
	sink        Publisher
	queues      []chan job
	workerCount int
	backoff     time.Duration

	mu       sync.RWMutex
	stopped  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewPool(sink Publisher, workerCount, queueSize int) *Pool {
	if workerCount <= 0 {
		workerCount = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	p := &Pool{
		sink:        sink,
		queues:      make([]chan job, workerCount),
		workerCount: workerCount,
		backoff:     200 * time.Millisecond,
		stopChan:    make(chan struct{}),
	}
	for i := range p.queues {
		p.queues[i] = make(chan job, queueSize)
	}
	return p
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	log.Info().Int("workers", p.workerCount).Msg("event workers started")
}

// Stop refuses new events, publishes what is already queued and waits for
// the workers to exit.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.stopChan)
	p.mu.Unlock()

	p.wg.Wait()
}

// Publish enqueues event for userID without waiting for delivery. ctx is
// not carried into the worker; a request may finish before its event goes
// out.
func (p *Pool) Publish(_ context.Context, userID uuid.UUID, event models.SessionEvent) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return ErrStopped
	}

	select {
	case p.queues[p.shard(userID)] <- job{userID: userID, event: event}:
		return nil
	default:
		return ErrQueueFull
	}
}

func (p *Pool) shard(userID uuid.UUID) int {
	h := fnv.New32a()
	h.Write(userID[:])
	return int(h.Sum32() % uint32(p.workerCount))
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	queue := p.queues[id]

	for {
		select {
		case j := <-queue:
			p.deliver(id, j)
		case <-p.stopChan:
			for {
				select {
				case j := <-queue:
					p.deliver(id, j)
				default:
					log.Debug().Int("worker", id).Msg("event worker shutting down")
					return
				}
			}
		}
	}
}

func (p *Pool) deliver(id int, j job) {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		err = p.sink.Publish(ctx, j.userID, j.event)
		cancel()
		if err == nil {
			return
		}
		if attempt < maxAttempts {
			time.Sleep(time.Duration(1<<uint(attempt-1)) * p.backoff)
		}
	}
	log.Error().Err(err).
		Int("worker", id).
		Str("user_id", j.userID.String()).
		Str("type", j.event.Type).
		Msg("event dropped after retries")
}
