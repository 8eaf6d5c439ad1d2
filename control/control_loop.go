// Package control implements the feedback blocks and the fixed-rate loop of the lock-on core.
package control

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"github.com/fieldbot/lockon/logging"
)

// A Tickable is advanced once per control cycle. Tick must not block; dt is the time since
// the previous tick.
type Tickable interface {
	Tick(ctx context.Context, dt time.Duration) error
}

// LoopConfig configures a Loop.
type LoopConfig struct {
	Frequency float64 `json:"frequency_hz"`
}

// Validate checks the loop frequency.
func (cfg LoopConfig) Validate() error {
	if cfg.Frequency <= 0 || cfg.Frequency > 200 {
		return errors.Errorf("loop frequency shouldn't be 0 or above 200Hz, got %v", cfg.Frequency)
	}
	return nil
}

// Period returns the time between ticks.
func (cfg LoopConfig) Period() time.Duration {
	return time.Duration(float64(time.Second) / cfg.Frequency)
}

// Loop drives a single Tickable from one goroutine at a fixed rate, so everything reachable
// from Tick runs single threaded.
type Loop struct {
	cfg    LoopConfig
	logger logging.Logger
	clock  clock.Clock
	dt     time.Duration
	target Tickable

	mu                      sync.Mutex
	running                 bool
	cancel                  context.CancelFunc
	activeBackgroundWorkers sync.WaitGroup
	errorCount              uint64
}

// NewLoop constructs a new control loop for a target.
func NewLoop(logger logging.Logger, cfg LoopConfig, clk clock.Clock, target Tickable) (*Loop, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Loop{
		cfg:    cfg,
		logger: logger,
		clock:  clk,
		dt:     cfg.Period(),
		target: target,
	}, nil
}

// Start starts the loop.
func (l *Loop) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		return errors.New("control loop is already running")
	}
	l.logger.Infof("running loop on %1.4fHz (%v)", l.cfg.Frequency, l.dt)

	cancelCtx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	l.running = true
	ticker := l.clock.Ticker(l.dt)

	l.activeBackgroundWorkers.Add(1)
	go func() {
		defer l.activeBackgroundWorkers.Done()
		defer ticker.Stop()
		l.run(cancelCtx, ticker)
	}()
	return nil
}

func (l *Loop) run(ctx context.Context, ticker *clock.Ticker) {
	last := l.clock.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now
			if dt <= 0 {
				dt = l.dt
			}
			if err := l.target.Tick(ctx, dt); err != nil {
				l.mu.Lock()
				l.errorCount++
				l.mu.Unlock()
				l.logger.Warnw("control cycle failed", "error", err)
			}
		}
	}
}

// Stop stops the loop and waits for the current tick to finish.
func (l *Loop) Stop() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	l.running = false
	l.cancel()
	l.mu.Unlock()
	l.activeBackgroundWorkers.Wait()
}

// Running reports whether the loop is started.
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// ErrorCount returns how many ticks returned an error.
func (l *Loop) ErrorCount() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.errorCount
}

// Period returns the time between ticks.
func (l *Loop) Period() time.Duration {
	return l.dt
}
