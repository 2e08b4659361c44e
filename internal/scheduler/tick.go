// Package scheduler drives registered tickers at a fixed interval, fanning
// each tick out across a bounded worker pool.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

// Ticker is advanced once per tick. A Ticker is never ticked concurrently
// with itself.
type Ticker interface {
	Tick(dt time.Duration) error
}

// TickerFunc adapts a function to Ticker.
type TickerFunc func(dt time.Duration) error

func (f TickerFunc) Tick(dt time.Duration) error { return f(dt) }

// TickManager runs every registered Ticker once per interval.
//
// Invariant: within one tick the pre-tick hook completes before any ticker
// starts, and every ticker finishes before the next tick begins.
type TickManager struct {
	interval time.Duration
	pool     *ants.Pool
	logger   *zap.Logger

	mu      sync.Mutex
	tickers map[string]Ticker
	preTick func(dt time.Duration)

	tickMu sync.Mutex
	ticks  atomic.Int64
}

// NewTickManager returns a manager that ticks every interval using up to
// workers goroutines.
//
// Precondition: interval > 0; workers >= 1; logger must not be nil.
func NewTickManager(interval time.Duration, workers int, logger *zap.Logger) (*TickManager, error) {
	if logger == nil {
		panic("scheduler.NewTickManager: logger must not be nil")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("scheduler.NewTickManager: interval must be > 0, got %v", interval)
	}
	if workers < 1 {
		return nil, fmt.Errorf("scheduler.NewTickManager: workers must be >= 1, got %d", workers)
	}
	pool, err := ants.NewPool(workers,
		ants.WithExpiryDuration(10*time.Second),
		ants.WithPreAlloc(true),
		ants.WithNonblocking(false),
		ants.WithPanicHandler(func(p interface{}) {
			logger.Error("scheduler: ticker panic recovered", zap.Any("panic", p))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("scheduler.NewTickManager: creating pool: %w", err)
	}
	return &TickManager{
		interval: interval,
		pool:     pool,
		logger:   logger,
		tickers:  make(map[string]Ticker),
	}, nil
}

// Register adds t under id, replacing any existing ticker.
func (m *TickManager) Register(id string, t Ticker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickers[id] = t
}

// Unregister removes the ticker for id.
func (m *TickManager) Unregister(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tickers, id)
}

// SetPreTick installs fn to run at the start of every tick. nil clears it.
func (m *TickManager) SetPreTick(fn func(dt time.Duration)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.preTick = fn
}

// Workers returns the pool capacity.
func (m *TickManager) Workers() int { return m.pool.Cap() }

// Ticks returns how many ticks have completed.
func (m *TickManager) Ticks() int64 { return m.ticks.Load() }

// TickOnce runs the pre-tick hook and then every registered ticker with dt,
// waiting for all of them. Ticker errors and panics are logged and do not
// stop other tickers.
func (m *TickManager) TickOnce(dt time.Duration) {
	m.tickMu.Lock()
	defer m.tickMu.Unlock()

	m.mu.Lock()
	pre := m.preTick
	ids := make([]string, 0, len(m.tickers))
	for id := range m.tickers {
		ids = append(ids, id)
	}
	tickers := make(map[string]Ticker, len(m.tickers))
	for k, v := range m.tickers {
		tickers[k] = v
	}
	m.mu.Unlock()
	sort.Strings(ids)

	if pre != nil {
		pre(dt)
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		id, t := id, tickers[id]
		wg.Add(1)
		err := m.pool.Submit(func() {
			defer wg.Done()
			if err := t.Tick(dt); err != nil {
				m.logger.Warn("scheduler: tick failed", zap.String("agent", id), zap.Error(err))
			}
		})
		if err != nil {
			wg.Done()
			m.logger.Warn("scheduler: submit failed", zap.String("agent", id), zap.Error(err))
		}
	}
	wg.Wait()
	m.ticks.Add(1)
}

// Run ticks every interval until ctx is cancelled, passing the interval as dt.
func (m *TickManager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.TickOnce(m.interval)
		}
	}
}

// Start runs the tick loop in a new goroutine until ctx is cancelled.
func (m *TickManager) Start(ctx context.Context) {
	go m.Run(ctx)
}

// Release stops the worker pool. The manager must not be ticked afterwards.
func (m *TickManager) Release() {
	m.pool.Release()
}
