package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrPoolClosed is reported when a task is submitted after Shutdown.
var ErrPoolClosed = errors.New("worker pool closed")

// Task is a unit of background work. Its context is detached from any
// request and bounded by the pool's task timeout.
type Task func(ctx context.Context) error

// Observer is notified about task outcomes.
type Observer interface {
	TaskFinished(name string, err error)
	TaskDropped(name string)
}

type nopObserver struct{}

func (nopObserver) TaskFinished(string, error) {}
func (nopObserver) TaskDropped(string)         {}

// Config sizes a pool.
type Config struct {
	Workers     int
	QueueSize   int
	TaskTimeout time.Duration
}

type job struct {
	name string
	task Task
}

// Pool runs submitted tasks on a fixed number of goroutines. Submit never
// blocks: when the queue is full the task is dropped.
type Pool struct {
	cfg      Config
	jobs     chan job
	observer Observer
	logger   *zap.Logger

	mu      sync.RWMutex
	closed  bool
	started bool
	group   *errgroup.Group
	cancel  context.CancelFunc
}

// NewPool creates a pool. Call Start before submitting tasks.
func NewPool(cfg Config, observer Observer, logger *zap.Logger) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}

	if cfg.QueueSize <= 0 {
		cfg.QueueSize = cfg.Workers
	}

	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = 5 * time.Second
	}

	if observer == nil {
		observer = nopObserver{}
	}

	return &Pool{
		cfg:      cfg,
		jobs:     make(chan job, cfg.QueueSize),
		observer: observer,
		logger:   logger,
	}
}

// Start launches the workers. ctx bounds the lifetime of running tasks; it
// is not cancelled by Shutdown until the queue has drained.
func (p *Pool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPoolClosed
	}

	if p.started {
		return nil
	}

	ctx, p.cancel = context.WithCancel(context.WithoutCancel(ctx))
	p.group = &errgroup.Group{}
	p.started = true

	for range p.cfg.Workers {
		p.group.Go(func() error {
			for j := range p.jobs {
				p.run(ctx, j)
			}

			return nil
		})
	}

	p.logger.Info("worker pool started",
		zap.Int("workers", p.cfg.Workers),
		zap.Int("queueSize", p.cfg.QueueSize),
	)

	return nil
}

// Submit enqueues a task. It reports false when the task was dropped.
func (p *Pool) Submit(name string, task Task) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.drop(name, ErrPoolClosed)

		return false
	}

	select {
	case p.jobs <- job{name: name, task: task}:
		return true
	default:
		p.drop(name, errors.New("queue full"))

		return false
	}
}

func (p *Pool) drop(name string, reason error) {
	p.observer.TaskDropped(name)
	p.logger.Warn("background task dropped", zap.String("task", name), zap.Error(reason))
}

func (p *Pool) run(ctx context.Context, j job) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.TaskTimeout)
	defer cancel()

	err := p.safeCall(ctx, j)
	p.observer.TaskFinished(j.name, err)

	if err != nil {
		p.logger.Error("background task failed", zap.String("task", j.name), zap.Error(err))
	}
}

func (p *Pool) safeCall(ctx context.Context, j job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task %s panicked: %v", j.name, r)
		}
	}()

	return j.task(ctx)
}

// Shutdown stops accepting tasks and waits for queued ones to finish.
func (p *Pool) Shutdown() error {
	p.mu.Lock()

	if p.closed {
		p.mu.Unlock()

		return nil
	}

	p.closed = true
	close(p.jobs)
	started := p.started
	p.mu.Unlock()

	if !started {
		return nil
	}

	err := p.group.Wait()
	p.cancel()

	p.logger.Info("worker pool stopped")

	return err
}
