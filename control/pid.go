package control

import (
	"math"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// PIDConfig is the configuration of a PID block.
type PIDConfig struct {
	P float64 `json:"p"`
	I float64 `json:"i"`
	D float64 `json:"d"`
	// IntegralLimit bounds the magnitude of the accumulated integral contribution; 0 leaves it unbounded.
	IntegralLimit float64 `json:"integral_limit"`
	// OutputLimit bounds the magnitude of the output; 0 leaves it unbounded.
	OutputLimit float64 `json:"output_limit"`
}

// Validate checks the gains and limits.
func (conf PIDConfig) Validate() error {
	var errs error
	if conf.P == 0 && conf.I == 0 && conf.D == 0 {
		errs = multierr.Append(errs, errors.New("pid block should have at least one non-zero p, i or d gain"))
	}
	if conf.IntegralLimit < 0 {
		errs = multierr.Append(errs, errors.Errorf("pid integral_limit must be non-negative, got %v", conf.IntegralLimit))
	}
	if conf.OutputLimit < 0 {
		errs = multierr.Append(errs, errors.Errorf("pid output_limit must be non-negative, got %v", conf.OutputLimit))
	}
	return errs
}

// PIDState is the memory a PID carries between steps.
type PIDState struct {
	Integral  float64
	PrevError float64
	// Primed is false until the first step after construction or Reset; the derivative term is
	// skipped on that step.
	Primed bool
}

// PID is the standard implementation of a PID controller.
type PID struct {
	mu    sync.Mutex
	cfg   PIDConfig
	state PIDState
}

// NewPID returns a PID block with zeroed memory.
func NewPID(cfg PIDConfig) (*PID, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &PID{cfg: cfg}, nil
}

// Next returns the discrete step of the PID controller. err is the current error (process value minus
// setpoint, in whatever sign convention the caller uses) and dt the time since the previous call.
func (p *PID) Next(err float64, dt time.Duration) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	dtS := dt.Seconds()
	if dtS > 0 {
		p.state.Integral += p.cfg.I * err * dtS
		if p.cfg.IntegralLimit > 0 {
			p.state.Integral = clampAbs(p.state.Integral, p.cfg.IntegralLimit)
		}
	}

	var deriv float64
	if p.state.Primed && dtS > 0 {
		deriv = (err - p.state.PrevError) / dtS
	}

	output := p.cfg.P*err + p.state.Integral + p.cfg.D*deriv
	p.state.PrevError = err
	p.state.Primed = true

	if p.cfg.OutputLimit > 0 {
		output = clampAbs(output, p.cfg.OutputLimit)
	}
	return output
}

// Reset zeroes the integral and derivative memory.
func (p *PID) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = PIDState{}
}

// State returns a copy of the controller memory.
func (p *PID) State() PIDState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Config returns the underlying config for the block.
func (p *PID) Config() PIDConfig {
	return p.cfg
}

func clampAbs(v, limit float64) float64 {
	return math.Max(-limit, math.Min(limit, v))
}
