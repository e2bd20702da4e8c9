// Package worker runs side effects (email, search indexing, metric
// persistence) off the request path on a bounded pool with retry.
package worker

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"realty-listings/internal/metrics"
	"realty-listings/internal/models"

	"github.com/rs/zerolog/log"
)

// TaskFunc is one unit of background work
type TaskFunc func(ctx context.Context) error

// TaskName joins a task kind and the id of the entity it works on, for
// example "inquiry_email:42". Only the kind is used as a metric label.
func TaskName(kind string, id uint) string {
	return fmt.Sprintf("%s:%d", kind, id)
}

// Kind returns the part of a task name before the first ':'
func Kind(name string) string {
	kind, _, _ := strings.Cut(name, ":")
	return kind
}

type task struct {
	name string
	run  TaskFunc
}

// Failure describes a task that exhausted its attempts
type Failure struct {
	Task     string
	Attempts int
	Err      error
	FailedAt time.Time
}

// DeadLetterFunc persists a failure; errors are logged and otherwise ignored
type DeadLetterFunc func(ctx context.Context, f Failure) error

// Options configures a Pool
type Options struct {
	Workers     int
	QueueSize   int
	MaxAttempts int
	// Backoff returns the wait before retry number attempt+1; defaults to
	// models.GetNextRetryDelay
	Backoff    func(attempt int) time.Duration
	DeadLetter DeadLetterFunc
}

// Pool is a fixed set of goroutines consuming a bounded queue
type Pool struct {
	opts     Options
	queue    chan task
	failures chan Failure

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.RWMutex
	isRunning bool
	closed    bool
}

// NewPool creates a pool; call Start to launch the workers
func NewPool(opts Options) *Pool {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = models.DefaultMaxAttempts
	}
	if opts.Backoff == nil {
		opts.Backoff = models.GetNextRetryDelay
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		opts:     opts,
		queue:    make(chan task, opts.QueueSize),
		failures: make(chan Failure, opts.QueueSize),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start launches the workers
func (p *Pool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.isRunning || p.closed {
		return
	}
	p.isRunning = true

	for i := 0; i < p.opts.Workers; i++ {
		p.wg.Add(1)
		go p.run(i)
	}
	log.Info().Int("workers", p.opts.Workers).Int("queue_size", p.opts.QueueSize).Msg("worker pool started")
}

// Submit enqueues fn without blocking. It returns false when the queue is
// full or the pool is stopped; the task is then dropped.
func (p *Pool) Submit(name string, fn TaskFunc) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		log.Warn().Str("task", name).Msg("worker pool stopped, task dropped")
		metrics.TasksTotal.WithLabelValues(Kind(name), "dropped").Inc()
		return false
	}

	select {
	case p.queue <- task{name: name, run: fn}:
		metrics.TaskQueueDepth.Set(float64(len(p.queue)))
		return true
	default:
		log.Warn().Str("task", name).Int("queue_size", p.opts.QueueSize).Msg("worker queue full, task dropped")
		metrics.TasksTotal.WithLabelValues(Kind(name), "dropped").Inc()
		return false
	}
}

// Failures publishes tasks that exhausted their retries. Sends never block;
// when nobody drains the channel new failures are only logged and persisted.
func (p *Pool) Failures() <-chan Failure {
	return p.failures
}

// QueueDepth returns the number of queued tasks
func (p *Pool) QueueDepth() int {
	return len(p.queue)
}

// Stop stops accepting tasks and waits for queued work to finish. When ctx
// expires first, in-flight retries are abandoned.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	wasRunning := p.isRunning
	p.mu.Unlock()

	if !wasRunning {
		p.cancel()
		return nil
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		log.Info().Msg("worker pool drained")
		return nil
	case <-ctx.Done():
		p.cancel()
		<-done
		return fmt.Errorf("worker pool drain: %w", ctx.Err())
	}
}

func (p *Pool) run(id int) {
	defer p.wg.Done()
	for t := range p.queue {
		metrics.TaskQueueDepth.Set(float64(len(p.queue)))
		p.process(id, t)
	}
}

func (p *Pool) process(workerID int, t task) {
	var err error
	for attempt := 1; attempt <= p.opts.MaxAttempts; attempt++ {
		err = p.attempt(t)
		if err == nil {
			metrics.TasksTotal.WithLabelValues(Kind(t.name), "succeeded").Inc()
			return
		}

		log.Warn().Err(err).Str("task", t.name).Int("worker", workerID).
			Int("attempt", attempt).Int("max_attempts", p.opts.MaxAttempts).Msg("background task failed")

		if attempt == p.opts.MaxAttempts {
			break
		}
		metrics.TasksTotal.WithLabelValues(Kind(t.name), "retried").Inc()

		select {
		case <-time.After(p.opts.Backoff(attempt - 1)):
		case <-p.ctx.Done():
			err = fmt.Errorf("abandoned during shutdown: %w", err)
			attempt = p.opts.MaxAttempts
		}
	}

	p.fail(Failure{Task: t.name, Attempts: p.opts.MaxAttempts, Err: err, FailedAt: time.Now().UTC()})
}

func (p *Pool) attempt(t task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return t.run(p.ctx)
}

func (p *Pool) fail(f Failure) {
	metrics.TasksTotal.WithLabelValues(Kind(f.Task), "failed").Inc()
	log.Error().Err(f.Err).Str("task", f.Task).Int("attempts", f.Attempts).Msg("background task exhausted retries")

	if p.opts.DeadLetter != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := p.opts.DeadLetter(ctx, f); err != nil {
			log.Error().Err(err).Str("task", f.Task).Msg("failed to store dead-letter record")
		}
		cancel()
	}

	select {
	case p.failures <- f:
	default:
	}
}
