// Package telemetry holds per-cycle snapshots of the lock-on core and the sinks they are published to.
// Snapshots are plain values; publishing is a separate step after a cycle's computation.
package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/fieldbot/lockon/drive"
	"github.com/fieldbot/lockon/logging"
	"github.com/fieldbot/lockon/posefusion"
	"github.com/fieldbot/lockon/spatialmath"
	"github.com/fieldbot/lockon/units"
)

// BearingSource names where a cycle's bearing came from.
type BearingSource string

// Bearing sources.
const (
	BearingNone   BearingSource = "none"
	BearingPose   BearingSource = "pose"
	BearingVision BearingSource = "vision"
)

// Snapshot is the state of one control cycle.
type Snapshot struct {
	Cycle uint64
	Time  time.Time
	DT    time.Duration

	Pose          spatialmath.Pose
	VisionOutcome posefusion.Outcome
	// Anchored is true when the pose has been corrected by vision recently enough to aim from.
	Anchored bool

	HasBearing    bool
	Bearing       units.Angle
	BearingSource BearingSource
	HasRange      bool
	Range         units.Distance

	Locked       bool
	ActivationID uuid.UUID
	Command      drive.Command
	// CommandSent is false when no command was sent to the actuator this cycle.
	CommandSent bool

	OdometryErr error
	DriveErr    error
}

// A Publisher receives each cycle's snapshot. Publish is called from the control goroutine and must
// not block.
type Publisher interface {
	Publish(ctx context.Context, s Snapshot) error
}

// MultiPublisher publishes to every publisher in order.
type MultiPublisher []Publisher

// Publish publishes to all and combines their errors.
func (m MultiPublisher) Publish(ctx context.Context, s Snapshot) error {
	var errs error
	for _, p := range m {
		errs = multierr.Append(errs, p.Publish(ctx, s))
	}
	return errs
}

// LogPublisher writes snapshots as structured debug logs, decimated to one every n cycles.
type LogPublisher struct {
	logger logging.Logger
	every  uint64
}

// NewLogPublisher returns a publisher logging every nth cycle; n of 0 logs every cycle.
func NewLogPublisher(logger logging.Logger, n uint64) *LogPublisher {
	if n == 0 {
		n = 1
	}
	return &LogPublisher{logger: logger, every: n}
}

// Publish logs the snapshot if it falls on the decimation interval.
func (p *LogPublisher) Publish(ctx context.Context, s Snapshot) error {
	if s.Cycle%p.every != 0 {
		return nil
	}
	keysAndValues := []interface{}{
		"vision", s.VisionOutcome.String(),
		"anchored", s.Anchored,
		"locked", s.Locked,
		"command", s.Command.String(),
	}
	if s.Pose != nil {
		pt := s.Pose.Point()
		keysAndValues = append(keysAndValues, "x", pt.X, "y", pt.Y, "yaw_deg", spatialmath.Yaw(s.Pose).Degrees())
	}
	if s.HasBearing {
		keysAndValues = append(keysAndValues, "bearing_deg", s.Bearing.Degrees(), "bearing_source", string(s.BearingSource))
	}
	if s.HasRange {
		keysAndValues = append(keysAndValues, "range_m", s.Range.Meters())
	}
	if s.OdometryErr != nil {
		keysAndValues = append(keysAndValues, "odometry_error", s.OdometryErr)
	}
	if s.DriveErr != nil {
		keysAndValues = append(keysAndValues, "drive_error", s.DriveErr)
	}
	p.logger.CDebugw(ctx, "cycle", keysAndValues...)
	return nil
}

// Recorder keeps every published snapshot in memory.
type Recorder struct {
	mu        sync.Mutex
	snapshots []Snapshot
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Publish records the snapshot.
func (r *Recorder) Publish(ctx context.Context, s Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, s)
	return nil
}

// Snapshots returns a copy of the recorded snapshots.
func (r *Recorder) Snapshots() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Snapshot, len(r.snapshots))
	copy(out, r.snapshots)
	return out
}

// Len returns the number of recorded snapshots.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snapshots)
}
