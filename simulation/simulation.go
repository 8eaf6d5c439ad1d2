// Package simulation runs the lock-on core against a simulated base and fiducial pipeline.
package simulation

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"github.com/fieldbot/lockon/config"
	"github.com/fieldbot/lockon/control"
	drivefake "github.com/fieldbot/lockon/drive/fake"
	"github.com/fieldbot/lockon/input"
	"github.com/fieldbot/lockon/logging"
	"github.com/fieldbot/lockon/posefusion"
	"github.com/fieldbot/lockon/robot"
	"github.com/fieldbot/lockon/spatialmath"
	"github.com/fieldbot/lockon/targeting"
	"github.com/fieldbot/lockon/telemetry"
	"github.com/fieldbot/lockon/units"
	"github.com/fieldbot/lockon/vision"
	visionfake "github.com/fieldbot/lockon/vision/fake"
)

// Options configure a simulated session.
type Options struct {
	Duration time.Duration
	// Axes are held by the operator for the whole session.
	Axes   input.Axes
	Vision visionfake.Config
	// OdometryScale over-reports translation; 0 is perfect odometry.
	OdometryScale float64
	// TruthStart is where the base really is; nil uses the configured initial pose.
	TruthStart spatialmath.Pose
	// Realtime runs the cycles through a control.Loop on the wall clock instead of as fast as possible.
	Realtime bool
}

// Result describes how a session ended.
type Result struct {
	Summary  telemetry.Summary
	Fusion   posefusion.Stats
	Truth    spatialmath.Pose
	Estimate spatialmath.Pose
	// PositionError is the planar distance between the estimate and the truth.
	PositionError units.Distance
	HeadingError  units.Angle
	// TrueBearing is the bearing from the true pose to the target, false if the layout lacks it.
	TrueBearing    units.Angle
	HasTrueBearing bool
}

// Session is a robot wired to simulated collaborators.
type Session struct {
	cfg      *config.Config
	opts     Options
	logger   logging.Logger
	clock    clock.Clock
	base     *drivefake.Base
	pipeline *visionfake.Pipeline
	robot    *robot.Robot
	recorder *telemetry.Recorder
	target   *targeting.Calculator
}

// NewSession builds a session. The clock drives both the control cycles and the simulated camera.
func NewSession(cfg *config.Config, opts Options, clk clock.Clock, logger logging.Logger) (*Session, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = logging.Global().Sublogger("simulation")
	}
	if opts.Duration <= 0 {
		return nil, errors.Errorf("session duration must be positive, got %v", opts.Duration)
	}
	layout, err := cfg.FieldLayout()
	if err != nil {
		return nil, err
	}
	truthStart := opts.TruthStart
	if truthStart == nil {
		truthStart = cfg.InitialPose.Pose()
	}
	base := drivefake.NewBase(truthStart, opts.OdometryScale)
	if err := base.ResetPose(context.Background(), cfg.InitialPose.Pose()); err != nil {
		return nil, err
	}

	visionCfg := opts.Vision
	if visionCfg.RobotToCamera == nil {
		visionCfg.RobotToCamera = cfg.CameraMount.Pose()
	}
	pipeline := visionfake.NewPipeline(visionCfg, layout, layout.IDs(), clk)
	camera := vision.NewCamera(pipeline, cfg.CameraMount.Pose(), cfg.TargetFiducials, logger.Sublogger("camera"))

	recorder := telemetry.NewRecorder()
	r, err := robot.New(cfg, robot.Dependencies{
		Actuator: base,
		Vision:   camera,
		Layout:   layout,
		Operator: input.NewConstant(opts.Axes),
		Publisher: telemetry.MultiPublisher{
			recorder,
			telemetry.NewLogPublisher(logger.Sublogger("telemetry"), cfg.Log.PublishEvery),
		},
		Clock: clk,
	}, logger)
	if err != nil {
		return nil, err
	}
	return &Session{
		cfg:      cfg,
		opts:     opts,
		logger:   logger,
		clock:    clk,
		base:     base,
		pipeline: pipeline,
		robot:    r,
		recorder: recorder,
		target:   targeting.NewCalculator(layout, cfg.TargetID),
	}, nil
}

// Robot returns the simulated robot.
func (s *Session) Robot() *robot.Robot {
	return s.robot
}

// Base returns the simulated base.
func (s *Session) Base() *drivefake.Base {
	return s.base
}

// Snapshots returns every cycle recorded so far.
func (s *Session) Snapshots() []telemetry.Snapshot {
	return s.recorder.Snapshots()
}

// Tick lets the camera see the true pose, runs one robot cycle, then moves the base for dt.
func (s *Session) Tick(ctx context.Context, dt time.Duration) error {
	s.pipeline.Observe(s.base.Truth())
	err := s.robot.Tick(ctx, dt)
	s.base.Step(dt)
	return err
}

// Run engages the lock and runs the session to completion. With a mock clock and Realtime unset the
// clock is advanced one period per cycle.
func (s *Session) Run(ctx context.Context) (Result, error) {
	s.robot.EngageLock()
	if s.opts.Realtime {
		if err := s.runLoop(ctx); err != nil {
			return Result{}, err
		}
	} else if err := s.runStepped(ctx); err != nil {
		return Result{}, err
	}
	s.robot.ReleaseLock()
	if err := s.Tick(ctx, s.cfg.Loop.Period()); err != nil {
		s.logger.Warnw("final stop cycle failed", "error", err)
	}
	return s.result()
}

func (s *Session) runStepped(ctx context.Context) error {
	mock, ok := s.clock.(*clock.Mock)
	if !ok {
		return errors.New("stepped sessions need a mock clock")
	}
	period := s.cfg.Loop.Period()
	for elapsed := time.Duration(0); elapsed < s.opts.Duration; elapsed += period {
		if err := ctx.Err(); err != nil {
			return err
		}
		mock.Add(period)
		if err := s.Tick(ctx, period); err != nil {
			s.logger.Warnw("control cycle failed", "error", err)
		}
	}
	return nil
}

func (s *Session) runLoop(ctx context.Context) error {
	loop, err := control.NewLoop(s.logger.Sublogger("loop"), s.cfg.Loop, s.clock, s)
	if err != nil {
		return err
	}
	if err := loop.Start(); err != nil {
		return err
	}
	defer loop.Stop()

	timer := s.clock.Timer(s.opts.Duration)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *Session) result() (Result, error) {
	summary, err := s.recorder.Summary()
	if err != nil {
		return Result{}, err
	}
	truth := s.base.Truth()
	estimate := s.robot.CurrentPoseEstimate()
	res := Result{
		Summary:       summary,
		Fusion:        s.robot.FusionStats(),
		Truth:         truth,
		Estimate:      estimate,
		PositionError: spatialmath.PlanarDistance(spatialmath.Difference(estimate, truth)),
		HeadingError:  (spatialmath.Yaw(estimate) - spatialmath.Yaw(truth)).Normalize(),
	}
	res.TrueBearing, res.HasTrueBearing = s.target.Bearing(truth)
	return res, nil
}
