package background

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	airlock "github.com/goliatone/go-airlock"
)

var (
	// ErrClosed is returned when an intent arrives after Close.
	ErrClosed = errors.New("background: pool is closed")
	// ErrQueueFull is returned when the buffered queue cannot take
	// another intent without blocking the flush.
	ErrQueueFull = errors.New("background: queue is full")
)

const (
	defaultWorkers   = 4
	defaultQueueSize = 256
)

// Option configures a Pool.
type Option func(*Pool)

// WithWorkers sets the number of worker goroutines.
func WithWorkers(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithQueueSize bounds the dispatch queue.
func WithQueueSize(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.size = n
		}
	}
}

// WithLogger sets the logger used for failed dispatches.
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Pool) {
		p.logger = logger
	}
}

// WithOnError registers a callback invoked from worker goroutines when a
// dispatch fails or panics.
func WithOnError(fn func(*airlock.Intent, error)) Option {
	return func(p *Pool) {
		p.onError = fn
	}
}

// Pool runs approved intents on a fixed set of worker goroutines. A flush
// hands intents off and returns immediately; execution outcomes surface
// through the logger and the optional error callback, never back to the
// flushing scope.
type Pool struct {
	next    airlock.Executor
	queue   chan *airlock.Intent
	workers int
	size    int
	logger  zerolog.Logger
	onError func(*airlock.Intent, error)

	wg   sync.WaitGroup
	once sync.Once

	mu     sync.RWMutex
	closed bool
}

// New starts a pool that executes intents via next, or SyncExecutor when
// next is nil.
func New(next airlock.Executor, opts ...Option) *Pool {
	p := &Pool{
		next:    next,
		workers: defaultWorkers,
		size:    defaultQueueSize,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	if p.next == nil {
		p.next = airlock.SyncExecutor
	}
	p.queue = make(chan *airlock.Intent, p.size)
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// Executor adapts the pool for scope wiring. The returned executor never
// blocks: it queues the intent or reports ErrQueueFull / ErrClosed.
func (p *Pool) Executor() airlock.Executor {
	return func(_ context.Context, intent *airlock.Intent) error {
		return p.dispatch(intent)
	}
}

// Close stops intake and waits for queued intents to finish.
func (p *Pool) Close() {
	p.once.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()
		close(p.queue)
		p.wg.Wait()
	})
}

func (p *Pool) dispatch(intent *airlock.Intent) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	select {
	case p.queue <- intent:
		return nil
	default:
		return ErrQueueFull
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for intent := range p.queue {
		p.run(intent)
	}
}

// run executes one intent with a fresh context because dispatch outlives
// the flushing scope and its request context.
func (p *Pool) run(intent *airlock.Intent) {
	defer func() {
		if r := recover(); r != nil {
			p.report(intent, fmt.Errorf("background: %s panicked: %v", intent.Name(), r))
		}
	}()
	if err := p.next(context.Background(), intent); err != nil {
		p.report(intent, err)
	}
}

func (p *Pool) report(intent *airlock.Intent, err error) {
	p.logger.Error().
		Err(err).
		Str("task", intent.Name()).
		Str("intent_id", intent.ID().String()).
		Msg("background dispatch failed")
	if p.onError != nil {
		p.onError(intent, err)
	}
}
