package worker

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Priya8975/guildlog/internal/domain"
)

const (
	DefaultWorkers = 2
	DefaultBuffer  = 256
)

// Pool copies stored events to a Publisher on a fixed number of goroutines.
// Submissions never block the caller: when the buffer is full the event is
// dropped and a warning is logged.
type Pool struct {
	numWorkers int
	jobs       chan domain.EventRecord
	publisher  *Publisher
	log        *slog.Logger
	wg         sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func NewPool(numWorkers, buffer int, publisher *Publisher, log *slog.Logger) *Pool {
	if numWorkers <= 0 {
		numWorkers = DefaultWorkers
	}
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Pool{
		numWorkers: numWorkers,
		jobs:       make(chan domain.EventRecord, buffer),
		publisher:  publisher,
		log:        log,
	}
}

// Start launches the workers. They run until Stop is called or ctx ends.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
	p.log.Info("event mirror started", slog.Int("workers", p.numWorkers))
}

// Submit queues rec for publishing and reports whether it was accepted.
func (p *Pool) Submit(rec domain.EventRecord) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return false
	}

	select {
	case p.jobs <- rec:
		return true
	default:
		p.log.Warn("event mirror buffer full, dropping event",
			slog.String("event_id", rec.ID),
			slog.String("event_type", rec.EventType),
		)
		return false
	}
}

// Stop refuses further submissions and waits for queued events to drain.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()

	p.wg.Wait()
	p.log.Info("event mirror stopped")
}

func (p *Pool) worker(ctx context.Context) {
	defer p.wg.Done()

	for rec := range p.jobs {
		select {
		case <-ctx.Done():
			return
		default:
			p.publisher.Publish(ctx, rec)
		}
	}
}
