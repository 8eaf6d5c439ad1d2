// Package lockon implements the heading-lock behavior: while active it turns the robot toward a
// target bearing with a PID loop and bounds the operator's translation speed.
package lockon

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"

	"github.com/fieldbot/lockon/control"
	"github.com/fieldbot/lockon/drive"
	"github.com/fieldbot/lockon/input"
	"github.com/fieldbot/lockon/logging"
	"github.com/fieldbot/lockon/units"
)

// Config configures a Controller. Speeds are in meters per second and rates in radians per second.
type Config struct {
	PID control.PIDConfig `json:"pid"`
	// ScaleFactor multiplies the PID output into a yaw rate.
	ScaleFactor float64 `json:"scale_factor"`
	// MaxAngularRate bounds the commanded yaw rate.
	MaxAngularRate float64 `json:"max_angular_rate_rads_per_sec"`
	// MaxAngularAcceleration bounds how fast the yaw rate may change; 0 disables the limit.
	MaxAngularAcceleration float64 `json:"max_angular_acceleration_rads_per_sec_per_sec,omitempty"`
	// MaxSpeed is the translation speed of a full-scale operator deflection.
	MaxSpeed float64 `json:"max_speed_meters_per_sec"`
	// LockedOnMaxSpeed bounds each translation component while locked on.
	LockedOnMaxSpeed float64 `json:"locked_on_max_speed_meters_per_sec"`
	FieldRelative    bool    `json:"field_relative"`
}

// DefaultConfig returns gains tuned for a swerve base turning toward a speaker.
func DefaultConfig() Config {
	return Config{
		PID:              control.PIDConfig{P: 1.0, I: 0.05, D: 0.02, IntegralLimit: 0.5},
		ScaleFactor:      2.0,
		MaxAngularRate:   units.DegreesPerSecond(360).RadiansPerSecond(),
		MaxSpeed:         4.5,
		LockedOnMaxSpeed: 0.3,
		FieldRelative:    true,
	}
}

// Validate ensures all parts of the config are valid.
func (cfg Config) Validate() error {
	errs := cfg.PID.Validate()
	if cfg.ScaleFactor == 0 {
		errs = multierr.Append(errs, errors.New("scale_factor must be non-zero"))
	}
	if cfg.MaxAngularRate <= 0 {
		errs = multierr.Append(errs, errors.Errorf("max_angular_rate_rads_per_sec must be positive, got %v", cfg.MaxAngularRate))
	}
	if cfg.MaxAngularAcceleration < 0 {
		errs = multierr.Append(errs,
			errors.Errorf("max_angular_acceleration_rads_per_sec_per_sec must be non-negative, got %v", cfg.MaxAngularAcceleration))
	}
	if cfg.MaxSpeed <= 0 {
		errs = multierr.Append(errs, errors.Errorf("max_speed_meters_per_sec must be positive, got %v", cfg.MaxSpeed))
	}
	if cfg.LockedOnMaxSpeed <= 0 {
		errs = multierr.Append(errs, errors.Errorf("locked_on_max_speed_meters_per_sec must be positive, got %v", cfg.LockedOnMaxSpeed))
	}
	return errs
}

// Output is the result of one controller step.
type Output struct {
	Command    drive.Command
	HasBearing bool
	// Bearing is the error the PID acted on; zero when HasBearing is false.
	Bearing units.Angle
}

// Controller is the heading-lock behavior. It is level triggered: every Step while active produces a
// command, and it never deactivates itself.
type Controller struct {
	cfg     Config
	pid     *control.PID
	limiter *control.RateLimiter
	logger  logging.Logger

	mu           sync.Mutex
	active       bool
	activationID uuid.UUID
}

// NewController returns an inactive controller.
func NewController(cfg Config, logger logging.Logger) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	pid, err := control.NewPID(cfg.PID)
	if err != nil {
		return nil, err
	}
	c := &Controller{cfg: cfg, pid: pid, logger: logger}
	if cfg.MaxAngularAcceleration > 0 {
		if c.limiter, err = control.NewRateLimiter(cfg.MaxAngularAcceleration); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Activate engages the lock with cleared controller memory. It returns the id of the activation;
// calling it while already active keeps the current activation and its memory.
func (c *Controller) Activate() uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active {
		return c.activationID
	}
	c.resetMemory()
	c.active = true
	c.activationID = uuid.New()
	c.logger.Infow("heading lock engaged", "activation", c.activationID)
	return c.activationID
}

// Deactivate releases the lock.
func (c *Controller) Deactivate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		return
	}
	c.logger.Infow("heading lock released", "activation", c.activationID)
	c.active = false
	c.activationID = uuid.Nil
	c.resetMemory()
}

// IsActive reports whether the lock is engaged.
func (c *Controller) IsActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// ActivationID returns the id of the current activation, uuid.Nil when inactive.
func (c *Controller) ActivationID() uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activationID
}

// State returns a copy of the PID memory.
func (c *Controller) State() control.PIDState {
	return c.pid.State()
}

// Config returns the controller configuration.
func (c *Controller) Config() Config {
	return c.cfg
}

// Step computes the drive command for one cycle from the bearing to the target (if any), the
// operator's axes and the time since the previous step. With no bearing the yaw rate is zero and the
// PID memory is cleared so that reacquiring the target starts fresh.
func (c *Controller) Step(bearing units.Angle, ok bool, axes input.Axes, dt time.Duration) Output {
	out := Output{HasBearing: ok}

	var yawRate float64
	if ok {
		out.Bearing = bearing
		// error = bearing - setpoint, with the setpoint at zero
		yawRate = c.pid.Next(bearing.Radians(), dt) * c.cfg.ScaleFactor
		yawRate = lo.Clamp(yawRate, -c.cfg.MaxAngularRate, c.cfg.MaxAngularRate)
		if c.limiter != nil {
			yawRate = c.limiter.Next(yawRate, dt)
		}
	} else {
		c.resetMemory()
	}

	forward, sideways := axes.Scaled(units.MetersPerSecond(c.cfg.MaxSpeed))
	limit := c.cfg.LockedOnMaxSpeed
	out.Command = drive.Command{
		Forward:       units.MetersPerSecond(lo.Clamp(forward.MetersPerSecond(), -limit, limit)),
		Sideways:      units.MetersPerSecond(lo.Clamp(sideways.MetersPerSecond(), -limit, limit)),
		AngularRate:   units.RadiansPerSecond(yawRate),
		FieldRelative: c.cfg.FieldRelative,
	}
	return out
}

func (c *Controller) resetMemory() {
	c.pid.Reset()
	if c.limiter != nil {
		c.limiter.Reset()
	}
}
