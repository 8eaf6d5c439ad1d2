// Package robot wires the lock-on core together and runs one control cycle per Tick.
package robot

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"github.com/fieldbot/lockon/config"
	"github.com/fieldbot/lockon/drive"
	"github.com/fieldbot/lockon/fieldlayout"
	"github.com/fieldbot/lockon/input"
	"github.com/fieldbot/lockon/lockon"
	"github.com/fieldbot/lockon/logging"
	"github.com/fieldbot/lockon/posefusion"
	"github.com/fieldbot/lockon/spatialmath"
	"github.com/fieldbot/lockon/targeting"
	"github.com/fieldbot/lockon/telemetry"
	"github.com/fieldbot/lockon/units"
	"github.com/fieldbot/lockon/vision"
)

// Dependencies are the collaborators a Robot is built from.
type Dependencies struct {
	Actuator drive.Actuator
	// Vision may be nil, in which case the robot runs on odometry alone.
	Vision   vision.Source
	Layout   fieldlayout.Layout
	Operator input.Operator
	// Publisher may be nil.
	Publisher telemetry.Publisher
	// Clock defaults to the wall clock.
	Clock clock.Clock
}

// Robot owns the fused pose estimate and the heading lock, and drives the actuator while locked.
// Tick must be called from one goroutine; every other method is safe to call concurrently with it.
type Robot struct {
	cfg       *config.Config
	actuator  drive.Actuator
	vision    vision.Source
	operator  input.Operator
	publisher telemetry.Publisher
	clock     clock.Clock
	logger    logging.Logger

	estimator  *posefusion.Estimator
	calculator *targeting.Calculator
	controller *lockon.Controller

	// cycleMu serializes whole cycles against pose resets.
	cycleMu    sync.Mutex
	cycle      uint64
	wasLocked  bool
	lastTickAt time.Time

	snapshot atomic.Pointer[telemetry.Snapshot]
}

// New returns a Robot seeded at the configured initial pose.
func New(cfg *config.Config, deps Dependencies, logger logging.Logger) (*Robot, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate("config"); err != nil {
		return nil, err
	}
	if deps.Actuator == nil {
		return nil, errors.New("robot requires a drive actuator")
	}
	if logger == nil {
		logger = logging.Global().Sublogger("robot")
	}
	if deps.Operator == nil {
		deps.Operator = input.NewConstant(input.Axes{})
	}
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}

	estimator, err := posefusion.NewEstimator(cfg.Fusion, deps.Actuator, deps.Vision, cfg.InitialPose.Pose(), logger.Sublogger("fusion"))
	if err != nil {
		return nil, errors.Wrap(err, "cannot build pose estimator")
	}
	controller, err := lockon.NewController(cfg.Lock, logger.Sublogger("lockon"))
	if err != nil {
		return nil, errors.Wrap(err, "cannot build heading lock")
	}
	if deps.Layout != nil {
		if _, ok := deps.Layout.PoseOf(cfg.TargetID); !ok {
			logger.Warnw("field layout has no pose for the target; the lock will only turn on direct vision bearings",
				"target_id", cfg.TargetID)
		}
	}

	return &Robot{
		cfg:        cfg,
		actuator:   deps.Actuator,
		vision:     deps.Vision,
		operator:   deps.Operator,
		publisher:  deps.Publisher,
		clock:      deps.Clock,
		logger:     logger,
		estimator:  estimator,
		calculator: targeting.NewCalculator(deps.Layout, cfg.TargetID),
		controller: controller,
	}, nil
}

// Tick runs one control cycle: odometry advance, vision correction, bearing, heading control,
// drive command, then telemetry. A dt of zero uses the time since the previous Tick, or the
// configured loop period on the first. Observation problems never fail a cycle; the returned error
// is the actuator's.
func (r *Robot) Tick(ctx context.Context, dt time.Duration) error {
	r.cycleMu.Lock()
	defer r.cycleMu.Unlock()

	now := r.clock.Now()
	if dt <= 0 {
		dt = r.cfg.Loop.Period()
		if !r.lastTickAt.IsZero() && now.After(r.lastTickAt) {
			dt = now.Sub(r.lastTickAt)
		}
	}
	r.lastTickAt = now
	r.cycle++
	ctx = logging.WithCycle(ctx, r.cycle)

	fused := r.estimator.Step(ctx)
	snap := telemetry.Snapshot{
		Cycle:         r.cycle,
		Time:          now,
		DT:            dt,
		Pose:          fused.Pose,
		VisionOutcome: fused.Outcome,
		Anchored:      r.anchored(now),
		OdometryErr:   fused.OdometryErr,
	}

	snap.Bearing, snap.BearingSource = r.bearing(ctx, fused.Pose, snap.Anchored)
	snap.HasBearing = snap.BearingSource != telemetry.BearingNone
	if snap.Anchored {
		snap.Range, snap.HasRange = r.calculator.Range(fused.Pose)
	}

	locked := r.controller.IsActive()
	snap.Locked = locked
	switch {
	case locked:
		out := r.controller.Step(snap.Bearing, snap.HasBearing, r.operator.Axes(ctx), dt)
		snap.ActivationID = r.controller.ActivationID()
		snap.Command = out.Command
		snap.CommandSent = true
		snap.DriveErr = r.actuator.Drive(ctx, out.Command)
	case r.wasLocked:
		// leave no yaw rate behind once released
		snap.CommandSent = true
		snap.DriveErr = r.actuator.Drive(ctx, drive.Command{})
	}
	r.wasLocked = locked

	r.snapshot.Store(&snap)
	if r.publisher != nil {
		if err := r.publisher.Publish(ctx, snap); err != nil {
			r.logger.CDebugw(ctx, "telemetry publish failed", "error", err)
		}
	}
	if snap.DriveErr != nil {
		return errors.Wrap(snap.DriveErr, "drive command failed")
	}
	return nil
}

// anchored reports whether the fused pose has been corrected by vision recently enough to aim from.
// Odometry alone drifts, and the layout target is only as good as the pose it is measured from.
func (r *Robot) anchored(now time.Time) bool {
	last, ok := r.estimator.LastCorrection()
	if !ok {
		return false
	}
	timeout := r.cfg.Bearing.AnchorTimeout
	return timeout == 0 || now.Sub(last) <= timeout
}

func (r *Robot) bearing(ctx context.Context, pose spatialmath.Pose, anchored bool) (units.Angle, telemetry.BearingSource) {
	if anchored {
		if b, ok := r.calculator.Bearing(pose); ok {
			return b, telemetry.BearingPose
		}
	}
	if r.cfg.Bearing.UseDirectBearing && r.vision != nil {
		if b, ok := r.vision.LatestBearingToTarget(ctx); ok {
			return b, telemetry.BearingVision
		}
	}
	return 0, telemetry.BearingNone
}

// CurrentPoseEstimate returns the fused pose as of the last completed cycle.
func (r *Robot) CurrentPoseEstimate() spatialmath.Pose {
	return r.estimator.Pose()
}

// EngageLock starts the heading lock from the next cycle and returns the activation id. Engaging
// while already locked keeps the running activation.
func (r *Robot) EngageLock() uuid.UUID {
	return r.controller.Activate()
}

// ReleaseLock stops the heading lock; the next cycle sends a single stop command.
func (r *Robot) ReleaseLock() {
	r.controller.Deactivate()
}

// Locked reports whether the heading lock is engaged.
func (r *Robot) Locked() bool {
	return r.controller.IsActive()
}

// ResetPose seeds the fused pose and the actuator's odometry with pose between cycles.
func (r *Robot) ResetPose(ctx context.Context, pose spatialmath.Pose) error {
	r.cycleMu.Lock()
	defer r.cycleMu.Unlock()
	r.logger.CInfof(ctx, "resetting pose to %v", pose)
	return r.estimator.Reset(ctx, pose)
}

// Snapshot returns the last completed cycle's snapshot, false before the first cycle.
func (r *Robot) Snapshot() (telemetry.Snapshot, bool) {
	s := r.snapshot.Load()
	if s == nil {
		return telemetry.Snapshot{}, false
	}
	return *s, true
}

// Range returns the planar distance from the fused pose to the target, for consumers such as
// shot-speed calculators; false if the layout does not know the target.
func (r *Robot) Range() (units.Distance, bool) {
	return r.calculator.Range(r.estimator.Pose())
}

// FusionStats returns the pose estimator's counters.
func (r *Robot) FusionStats() posefusion.Stats {
	return r.estimator.Stats()
}

// Stop stops the actuator.
func (r *Robot) Stop(ctx context.Context) error {
	return r.actuator.Stop(ctx)
}
