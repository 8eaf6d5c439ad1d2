// Package posefusion maintains the robot's field-relative pose estimate by integrating odometry every
// cycle and replacing selected axes with vision solves when they are fresh and confident enough.
package posefusion

import (
	"context"
	"sync"
	"time"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"

	"github.com/fieldbot/lockon/drive"
	"github.com/fieldbot/lockon/logging"
	"github.com/fieldbot/lockon/spatialmath"
	"github.com/fieldbot/lockon/vision"
)

// Axis names one degree of freedom of a pose.
type Axis string

// The pose axes a vision correction may replace.
const (
	AxisX     Axis = "x"
	AxisY     Axis = "y"
	AxisZ     Axis = "z"
	AxisRoll  Axis = "roll"
	AxisPitch Axis = "pitch"
	AxisYaw   Axis = "yaw"
)

var allAxes = []Axis{AxisX, AxisY, AxisZ, AxisRoll, AxisPitch, AxisYaw}

// DefaultCorrectedAxes are the axes a ground robot's camera constrains well.
var DefaultCorrectedAxes = []Axis{AxisX, AxisY, AxisYaw}

// Config configures an Estimator.
type Config struct {
	// MinConfidence is the lowest candidate confidence accepted as a correction.
	MinConfidence float64 `json:"min_confidence"`
	// CorrectedAxes are replaced by accepted corrections; the rest keep their odometry value.
	// Empty means DefaultCorrectedAxes.
	CorrectedAxes []Axis `json:"corrected_axes,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (cfg Config) Validate() error {
	var errs error
	if cfg.MinConfidence < 0 || cfg.MinConfidence > 1 {
		errs = multierr.Append(errs, errors.Errorf("min_confidence must be within [0, 1], got %v", cfg.MinConfidence))
	}
	for _, a := range cfg.CorrectedAxes {
		if !lo.Contains(allAxes, a) {
			errs = multierr.Append(errs, errors.Errorf("unknown corrected axis %q", a))
		}
	}
	if dups := lo.FindDuplicates(cfg.CorrectedAxes); len(dups) > 0 {
		errs = multierr.Append(errs, errors.Errorf("corrected axes listed more than once: %v", dups))
	}
	return errs
}

// Outcome is what happened to the vision candidate in a step.
type Outcome int

// Outcomes of a step's vision correction.
const (
	NoCandidate Outcome = iota
	Accepted
	RejectedStale
	RejectedConfidence
)

func (o Outcome) String() string {
	switch o {
	case NoCandidate:
		return "no_candidate"
	case Accepted:
		return "accepted"
	case RejectedStale:
		return "rejected_stale"
	case RejectedConfidence:
		return "rejected_confidence"
	default:
		return "unknown"
	}
}

// Result is the outcome of one Step.
type Result struct {
	Pose    spatialmath.Pose
	Outcome Outcome
	// OdometryErr is set when the odometry advance was skipped this step.
	OdometryErr error
}

// Stats are running counters of an Estimator.
type Stats struct {
	Cycles             uint64
	Accepted           uint64
	Missing            uint64
	RejectedStale      uint64
	RejectedConfidence uint64
	OdometryErrors     uint64
}

// Estimator owns the fused pose. Step and Reset are serialized, so a reset is never lost under a
// step in flight; Pose and Stats may be read from anywhere and always see a whole step.
type Estimator struct {
	cfg    Config
	axes   map[Axis]bool
	odom   drive.Odometer
	src    vision.Source
	logger logging.Logger

	// stepMu serializes Step and Reset; mu guards the fields below for readers.
	stepMu       sync.Mutex
	mu           sync.Mutex
	pose         spatialmath.Pose
	lastAccepted time.Time
	hasAccepted  bool
	stats        Stats
}

// NewEstimator returns an estimator seeded at seed. A nil src disables vision correction.
func NewEstimator(cfg Config, odom drive.Odometer, src vision.Source, seed spatialmath.Pose, logger logging.Logger) (*Estimator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if odom == nil {
		return nil, errors.New("pose estimator requires an odometer")
	}
	if seed == nil {
		seed = spatialmath.NewZeroPose()
	}
	corrected := cfg.CorrectedAxes
	if len(corrected) == 0 {
		corrected = DefaultCorrectedAxes
	}
	return &Estimator{
		cfg:    cfg,
		axes:   lo.SliceToMap(corrected, func(a Axis) (Axis, bool) { return a, true }),
		odom:   odom,
		src:    src,
		logger: logger,
		pose:   seed,
	}, nil
}

// Step advances the estimate by the odometry delta since the last step, then considers the latest
// vision candidate. The estimate is replaced once, at the end.
func (e *Estimator) Step(ctx context.Context) Result {
	e.stepMu.Lock()
	defer e.stepMu.Unlock()

	e.mu.Lock()
	current := e.pose
	lastAccepted, hasAccepted := e.lastAccepted, e.hasAccepted
	e.mu.Unlock()

	var res Result
	next := current
	delta, err := e.odom.OdometryDelta(ctx)
	switch {
	case err != nil:
		res.OdometryErr = errors.Wrap(err, "odometry advance skipped")
		e.logger.CWarnw(ctx, "odometry delta unavailable", "error", err)
	case delta != nil:
		next = spatialmath.Compose(current, delta)
	}

	var candidate vision.TimestampedPose
	var ok bool
	if e.src != nil {
		candidate, ok = e.src.LatestPoseCandidate(ctx)
	}
	switch {
	case !ok || candidate.Pose == nil:
		res.Outcome = NoCandidate
	case hasAccepted && !candidate.Timestamp.After(lastAccepted):
		res.Outcome = RejectedStale
	case candidate.Confidence < e.cfg.MinConfidence:
		res.Outcome = RejectedConfidence
		e.logger.CDebugw(ctx, "vision candidate below confidence threshold",
			"confidence", candidate.Confidence, "min", e.cfg.MinConfidence)
	default:
		res.Outcome = Accepted
		next = e.replaceAxes(next, candidate.Pose)
	}
	res.Pose = next

	e.mu.Lock()
	defer e.mu.Unlock()
	e.pose = next
	e.stats.Cycles++
	if res.OdometryErr != nil {
		e.stats.OdometryErrors++
	}
	switch res.Outcome {
	case NoCandidate:
		e.stats.Missing++
	case Accepted:
		e.stats.Accepted++
		e.lastAccepted = candidate.Timestamp
		e.hasAccepted = true
	case RejectedStale:
		e.stats.RejectedStale++
	case RejectedConfidence:
		e.stats.RejectedConfidence++
	}
	return res
}

// replaceAxes takes the corrected axes from vision and the rest from odometry.
func (e *Estimator) replaceAxes(odometry, vision spatialmath.Pose) spatialmath.Pose {
	if len(e.axes) == len(allAxes) {
		return vision
	}
	op, vp := odometry.Point(), vision.Point()
	oe, ve := odometry.Orientation().EulerAngles(), vision.Orientation().EulerAngles()
	pick := func(axis Axis, o, v float64) float64 {
		if e.axes[axis] {
			return v
		}
		return o
	}
	return spatialmath.NewPose(
		r3.Vector{
			X: pick(AxisX, op.X, vp.X),
			Y: pick(AxisY, op.Y, vp.Y),
			Z: pick(AxisZ, op.Z, vp.Z),
		},
		&spatialmath.EulerAngles{
			Roll:  pick(AxisRoll, oe.Roll, ve.Roll),
			Pitch: pick(AxisPitch, oe.Pitch, ve.Pitch),
			Yaw:   pick(AxisYaw, oe.Yaw, ve.Yaw),
		},
	)
}

// Pose returns the current estimate.
func (e *Estimator) Pose() spatialmath.Pose {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pose
}

// Reset seeds the estimate and the odometer with pose. The monotonic acceptance history is kept, so
// a replayed frame older than the last accepted correction still cannot overwrite the new seed.
func (e *Estimator) Reset(ctx context.Context, pose spatialmath.Pose) error {
	e.stepMu.Lock()
	defer e.stepMu.Unlock()
	if err := e.odom.ResetPose(ctx, pose); err != nil {
		return errors.Wrap(err, "cannot reset odometry pose")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pose = pose
	return nil
}

// LastCorrection returns the capture time of the last accepted vision correction, false if none was
// ever accepted.
func (e *Estimator) LastCorrection() (time.Time, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastAccepted, e.hasAccepted
}

// Stats returns a copy of the running counters.
func (e *Estimator) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}
