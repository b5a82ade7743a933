package sandbox

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	ErrPoolClosed     = errors.New("sandbox pool is closed")
	ErrAcquireTimeout = errors.New("sandbox acquisition timeout")
)

// Pool manages a pool of reusable runtimes. Each runtime gets a fresh VM
// before it goes back into the pool.
type Pool struct {
	config       Config
	services     Services
	logger       *zap.Logger
	runtimes     chan *Runtime
	size         int
	acquireAfter time.Duration

	mu     sync.RWMutex
	closed bool
}

// NewPool creates a runtime pool
func NewPool(config Config, services Services, size int, logger *zap.Logger) (*Pool, error) {
	if size <= 0 {
		size = 4
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	pool := &Pool{
		config:       config,
		services:     services,
		logger:       logger,
		runtimes:     make(chan *Runtime, size),
		size:         size,
		acquireAfter: config.Timeout + 5*time.Second,
	}

	for i := 0; i < size; i++ {
		rt, err := New(config, services, logger)
		if err != nil {
			pool.Close()
			return nil, err
		}
		pool.runtimes <- rt
	}

	return pool, nil
}

// Acquire gets a runtime from the pool
func (p *Pool) Acquire(ctx context.Context) (*Runtime, error) {
	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()
	if closed {
		return nil, ErrPoolClosed
	}

	timer := time.NewTimer(p.acquireAfter)
	defer timer.Stop()

	select {
	case rt, ok := <-p.runtimes:
		if !ok {
			return nil, ErrPoolClosed
		}
		return rt, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, ErrAcquireTimeout
	}
}

// Release resets the runtime and returns it to the pool
func (p *Pool) Release(rt *Runtime) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return rt.Close()
	}

	if err := rt.Reset(); err != nil {
		p.logger.Warn("sandbox reset failed, replacing runtime", zap.Error(err))
		rt.Close()
		replacement, newErr := New(p.config, p.services, p.logger)
		if newErr != nil {
			return newErr
		}
		rt = replacement
	}

	select {
	case p.runtimes <- rt:
		return nil
	default:
		return rt.Close()
	}
}

// Execute runs code on a pooled runtime
func (p *Pool) Execute(ctx context.Context, code, pageURL string) (*Result, error) {
	rt, err := p.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer p.Release(rt)

	return rt.Execute(ctx, code, pageURL)
}

// Evaluate runs code and returns only its output
func (p *Pool) Evaluate(ctx context.Context, code, pageURL string) (any, error) {
	res, err := p.Execute(ctx, code, pageURL)
	if err != nil {
		return nil, err
	}
	for _, entry := range res.Console {
		p.logger.Debug("generated code console",
			zap.String("level", entry.Level),
			zap.String("message", entry.Message))
	}
	return res.Output, nil
}

// Close closes the pool and all idle runtimes
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}

	p.closed = true
	close(p.runtimes)
	for rt := range p.runtimes {
		rt.Close()
	}
	return nil
}

// PoolStats describes pool occupancy
type PoolStats struct {
	Size      int  `json:"size"`
	Available int  `json:"available"`
	InUse     int  `json:"in_use"`
	Closed    bool `json:"closed"`
}

// Stats returns pool statistics
func (p *Pool) Stats() PoolStats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	available := len(p.runtimes)
	return PoolStats{
		Size:      p.size,
		Available: available,
		InUse:     p.size - available,
		Closed:    p.closed,
	}
}
