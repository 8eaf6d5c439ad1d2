// Package vision defines the contract of the external perception pipeline as the
// lock-on core consumes it: timestamped global pose candidates and direct bearings
// to the best tracked target. Both queries are non-blocking and only ever reflect
// the latest frame the pipeline has produced.
package vision

import (
	"context"
	"time"

	"github.com/fieldbot/lockon/spatialmath"
	"github.com/fieldbot/lockon/units"
)

// TimestampedPose is a field-relative robot pose solved from a single camera frame.
type TimestampedPose struct {
	Pose spatialmath.Pose
	// Confidence of the solve in [0, 1]; 1 is an unambiguous multi-fiducial solve.
	Confidence float64
	// Timestamp is the capture time of the frame, not the time it was received.
	Timestamp time.Time
	// FiducialIDs are the fiducials that contributed to the solve.
	FiducialIDs []int
}

// A Source provides the latest vision observations. Consecutive non-empty results may
// repeat the same frame if the pipeline has not produced a new one, so callers must not
// assume timestamps increase.
type Source interface {
	// LatestPoseCandidate returns the most recent globally consistent pose solve, or false if no
	// valid solve exists for the latest frame.
	LatestPoseCandidate(ctx context.Context) (TimestampedPose, bool)
	// LatestBearingToTarget returns the robot-frame bearing (counter-clockwise positive) to the best
	// currently tracked target, or false if nothing is tracked. It needs fewer data points than a full
	// pose solve and may be available when LatestPoseCandidate is not.
	LatestBearingToTarget(ctx context.Context) (units.Angle, bool)
}
