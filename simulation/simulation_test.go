package simulation

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.viam.com/test"

	"github.com/fieldbot/lockon/config"
	"github.com/fieldbot/lockon/logging"
	"github.com/fieldbot/lockon/spatialmath"
	"github.com/fieldbot/lockon/units"
	visionfake "github.com/fieldbot/lockon/vision/fake"
)

func speakerConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.InitialPose = config.PoseConfig{XMeters: 3, YMeters: 4.5, YawDegrees: 140}
	return cfg
}

func TestLockConvergesOnSpeaker(t *testing.T) {
	logger := logging.NewTestLogger(t)
	s, err := NewSession(speakerConfig(), Options{
		Duration: 5 * time.Second,
		Vision: visionfake.Config{
			Period:  100 * time.Millisecond,
			Latency: 40 * time.Millisecond,
			Seed:    1,
		},
	}, clock.NewMock(), logger)
	test.That(t, err, test.ShouldBeNil)

	res, err := s.Run(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.HasTrueBearing, test.ShouldBeTrue)
	test.That(t, math.Abs(res.TrueBearing.Degrees()), test.ShouldBeLessThan, 2)
	test.That(t, res.Fusion.Accepted, test.ShouldBeGreaterThan, 10)
	test.That(t, res.Fusion.RejectedStale, test.ShouldBeGreaterThan, 0)
	test.That(t, res.PositionError.Meters(), test.ShouldBeLessThan, 0.05)
	test.That(t, res.Summary.Locked, test.ShouldEqual, 250)
	test.That(t, res.Summary.MaxAbsYawRate, test.ShouldBeLessThanOrEqualTo,
		units.RadiansPerSecond(config.DefaultConfig().Lock.MaxAngularRate).DegreesPerSecond()+1e-9)

	// the lock was released and the base told to stop
	test.That(t, s.Robot().Locked(), test.ShouldBeFalse)
	test.That(t, s.Base().LastCommand().IsZero(), test.ShouldBeTrue)
}

func TestNoVisionNeverTurns(t *testing.T) {
	logger := logging.NewTestLogger(t)
	s, err := NewSession(speakerConfig(), Options{
		Duration:      2 * time.Second,
		Vision:        visionfake.Config{DropoutRate: 1, Seed: 3},
		OdometryScale: 1.05,
		TruthStart:    spatialmath.NewPlanarPose(units.Meters(3), units.Meters(4.5), units.Degrees(140)),
	}, clock.NewMock(), logger)
	test.That(t, err, test.ShouldBeNil)

	res, err := s.Run(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Fusion.Accepted, test.ShouldEqual, 0)
	test.That(t, res.Summary.WithBearing, test.ShouldEqual, 0)
	test.That(t, res.Summary.MaxAbsYawRate, test.ShouldEqual, 0.)
	test.That(t, res.HeadingError.Degrees(), test.ShouldAlmostEqual, 0., 1e-6)
}

func TestNewSessionErrors(t *testing.T) {
	logger := logging.NewTestLogger(t)
	_, err := NewSession(nil, Options{}, clock.NewMock(), logger)
	test.That(t, err, test.ShouldNotBeNil)

	s, err := NewSession(nil, Options{Duration: time.Second}, clock.New(), logger)
	test.That(t, err, test.ShouldBeNil)
	_, err = s.Run(context.Background())
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "mock clock")

	s, err = NewSession(nil, Options{Duration: 100 * time.Millisecond}, clock.NewMock(), nil)
	test.That(t, err, test.ShouldBeNil)
	res, err := s.Run(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Summary.Cycles, test.ShouldBeGreaterThan, 0)
}
