package lockon

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.viam.com/test"

	"github.com/fieldbot/lockon/control"
	"github.com/fieldbot/lockon/input"
	"github.com/fieldbot/lockon/logging"
	"github.com/fieldbot/lockon/units"
)

const cycle = 20 * time.Millisecond

func newTestController(t *testing.T, cfg Config) *Controller {
	t.Helper()
	c, err := NewController(cfg, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	return c
}

func TestConfigValidate(t *testing.T) {
	test.That(t, DefaultConfig().Validate(), test.ShouldBeNil)

	err := Config{MaxAngularAcceleration: -1}.Validate()
	test.That(t, err, test.ShouldNotBeNil)
	for _, s := range []string{
		"non-zero p, i or d gain",
		"scale_factor",
		"max_angular_rate_rads_per_sec",
		"max_angular_acceleration",
		"max_speed_meters_per_sec",
		"locked_on_max_speed_meters_per_sec",
	} {
		test.That(t, err.Error(), test.ShouldContainSubstring, s)
	}
}

func TestLockedOnSpeedClamp(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxSpeed = 4.5
	cfg.LockedOnMaxSpeed = 0.3
	c := newTestController(t, cfg)
	c.Activate()

	out := c.Step(0, true, input.Axes{Forward: 1.0}, cycle)
	test.That(t, out.Command.Forward.MetersPerSecond(), test.ShouldEqual, 0.3)
	test.That(t, out.Command.Sideways.MetersPerSecond(), test.ShouldEqual, 0.)

	out = c.Step(0, false, input.Axes{Forward: -1.0, Sideways: 0.05}, cycle)
	test.That(t, out.Command.Forward.MetersPerSecond(), test.ShouldEqual, -0.3)
	test.That(t, out.Command.Sideways.MetersPerSecond(), test.ShouldAlmostEqual, 0.225)
	test.That(t, out.Command.FieldRelative, test.ShouldBeTrue)
}

func TestPositiveBearingTurnsLeft(t *testing.T) {
	c := newTestController(t, DefaultConfig())
	c.Activate()
	out := c.Step(units.Radians(math.Pi/4), true, input.Axes{}, cycle)
	test.That(t, out.HasBearing, test.ShouldBeTrue)
	test.That(t, out.Bearing.Radians(), test.ShouldAlmostEqual, math.Pi/4)
	test.That(t, out.Command.AngularRate.RadiansPerSecond(), test.ShouldBeGreaterThan, 0)

	out = c.Step(units.Radians(-math.Pi/4), true, input.Axes{}, cycle)
	test.That(t, out.Command.AngularRate.RadiansPerSecond(), test.ShouldBeLessThan, 0)
}

func TestYawRateClamp(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxAngularRate = 1
	c := newTestController(t, cfg)
	c.Activate()
	out := c.Step(units.Radians(3), true, input.Axes{}, cycle)
	test.That(t, out.Command.AngularRate.RadiansPerSecond(), test.ShouldEqual, 1.)
	out = c.Step(units.Radians(-3), true, input.Axes{}, cycle)
	test.That(t, out.Command.AngularRate.RadiansPerSecond(), test.ShouldEqual, -1.)
}

func TestResetOnLoss(t *testing.T) {
	c := newTestController(t, DefaultConfig())
	c.Activate()
	for i := 0; i < 10; i++ {
		c.Step(units.Radians(0.5), true, input.Axes{}, cycle)
	}
	test.That(t, c.State().Integral, test.ShouldNotEqual, 0.)

	out := c.Step(0, false, input.Axes{Forward: 0.5}, cycle)
	test.That(t, out.HasBearing, test.ShouldBeFalse)
	test.That(t, out.Command.AngularRate, test.ShouldEqual, units.AngularVelocity(0))
	test.That(t, c.State(), test.ShouldResemble, control.PIDState{})

	// reacquisition behaves like a fresh activation
	fresh := newTestController(t, DefaultConfig())
	fresh.Activate()
	a := c.Step(units.Radians(0.2), true, input.Axes{}, cycle)
	b := fresh.Step(units.Radians(0.2), true, input.Axes{}, cycle)
	test.That(t, a.Command, test.ShouldResemble, b.Command)
}

func TestActivationClearsWindup(t *testing.T) {
	cfg := DefaultConfig()
	used := newTestController(t, cfg)
	first := used.Activate()
	test.That(t, first, test.ShouldNotEqual, uuid.Nil)
	for i := 0; i < 50; i++ {
		used.Step(units.Radians(1), true, input.Axes{}, cycle)
	}
	test.That(t, used.State().Integral, test.ShouldNotEqual, 0.)

	// activating again mid-lock keeps the running activation
	test.That(t, used.Activate(), test.ShouldEqual, first)
	test.That(t, used.State().Integral, test.ShouldNotEqual, 0.)

	used.Deactivate()
	test.That(t, used.IsActive(), test.ShouldBeFalse)
	test.That(t, used.ActivationID(), test.ShouldEqual, uuid.Nil)
	second := used.Activate()
	test.That(t, second, test.ShouldNotEqual, first)
	test.That(t, used.ActivationID(), test.ShouldEqual, second)

	fresh := newTestController(t, cfg)
	fresh.Activate()
	for _, b := range []float64{0.3, 0.25, 0.1, -0.05, 0} {
		a := used.Step(units.Radians(b), true, input.Axes{Sideways: 0.1}, cycle)
		f := fresh.Step(units.Radians(b), true, input.Axes{Sideways: 0.1}, cycle)
		test.That(t, a.Command, test.ShouldResemble, f.Command)
	}
}

func TestZeroBearingHoldsZero(t *testing.T) {
	c := newTestController(t, DefaultConfig())
	c.Activate()
	for i := 0; i < 100; i++ {
		out := c.Step(0, true, input.Axes{}, cycle)
		test.That(t, out.Command.AngularRate.RadiansPerSecond(), test.ShouldEqual, 0.)
	}
}

func TestClosedLoopConvergence(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PID.I = 0
	cfg.MaxAngularRate = 2
	c := newTestController(t, cfg)
	c.Activate()

	// the plant turns at the commanded rate, so the bearing shrinks by rate*dt each cycle
	bearing := 1.2
	var rate float64
	for i := 0; i < 750; i++ {
		out := c.Step(units.Radians(bearing), true, input.Axes{}, cycle)
		rate = out.Command.AngularRate.RadiansPerSecond()
		test.That(t, math.Abs(rate), test.ShouldBeLessThanOrEqualTo, cfg.MaxAngularRate)
		bearing -= rate * cycle.Seconds()
	}
	test.That(t, math.Abs(bearing), test.ShouldBeLessThan, 1e-3)
	test.That(t, math.Abs(rate), test.ShouldBeLessThan, 1e-2)
}

func TestAngularAccelerationLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxAngularAcceleration = 10
	c := newTestController(t, cfg)
	c.Activate()

	out := c.Step(units.Radians(1), true, input.Axes{}, cycle)
	test.That(t, out.Command.AngularRate.RadiansPerSecond(), test.ShouldAlmostEqual, 0.2)
	out = c.Step(units.Radians(1), true, input.Axes{}, cycle)
	test.That(t, out.Command.AngularRate.RadiansPerSecond(), test.ShouldAlmostEqual, 0.4)

	c.Step(0, false, input.Axes{}, cycle)
	out = c.Step(units.Radians(1), true, input.Axes{}, cycle)
	test.That(t, out.Command.AngularRate.RadiansPerSecond(), test.ShouldAlmostEqual, 0.2)
}
