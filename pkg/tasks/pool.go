package tasks

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
)

var ErrPoolClosed = errors.New("task pool is closed")

// Task is a unit of fire-and-forget background work. The context passed to
// Run is the pool's lifecycle context, not the submitting request's: by
// design a submitted task outlives the request that created it.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Pool is a bounded worker pool. Submit blocks when the queue is full,
// giving natural backpressure instead of unbounded goroutine growth.
// Task failures are logged, counted and otherwise swallowed.
type Pool struct {
	name   string
	log    *logrus.Entry
	queue  chan Task
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// PoolOption adjusts pool construction.
type PoolOption func(*poolConfig)

type poolConfig struct {
	baseCtx context.Context
}

// WithBaseContext sets the context tasks run under. Values attached to it
// (database pool, logger) become visible to every task; cancellation is
// still controlled by the pool itself.
func WithBaseContext(ctx context.Context) PoolOption {
	return func(c *poolConfig) {
		c.baseCtx = ctx
	}
}

func NewPool(name string, workers, queueSize int, log *logrus.Entry, opts ...PoolOption) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	cfg := poolConfig{baseCtx: context.Background()}
	for _, opt := range opts {
		opt(&cfg)
	}
	ctx, cancel := context.WithCancel(cfg.baseCtx)
	p := &Pool{
		name:   name,
		log:    log.WithField("pool", name),
		queue:  make(chan Task, queueSize),
		ctx:    ctx,
		cancel: cancel,
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.queue {
		p.run(task)
	}
}

func (p *Pool) run(task Task) {
	defer func() {
		if r := recover(); r != nil {
			p.log.WithField("task", task.Name).Errorf("task panicked: %v", r)
		}
	}()
	if err := task.Run(p.ctx); err != nil {
		p.log.WithField("task", task.Name).WithError(err).Warn("task failed")
	}
}

// Submit enqueues a task. It blocks while the queue is full and returns
// ErrPoolClosed after Shutdown.
func (p *Pool) Submit(task Task) error {
	// The lock is held across the enqueue so a concurrent Shutdown cannot
	// close the queue between the closed check and the send.
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.queue <- task:
		return nil
	case <-p.ctx.Done():
		return ErrPoolClosed
	}
}

// Shutdown stops accepting tasks and waits for in-flight ones until ctx
// expires; after that, remaining tasks are cancelled through the pool
// context.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		return nil
	case <-ctx.Done():
		p.cancel()
		return ctx.Err()
	}
}
