package vision

import (
	"context"
	"time"

	"github.com/samber/lo"

	"github.com/fieldbot/lockon/logging"
	"github.com/fieldbot/lockon/spatialmath"
	"github.com/fieldbot/lockon/units"
)

// Target is a single fiducial tracked in a frame.
type Target struct {
	FiducialID int
	// CameraToTarget is the target pose in the camera frame.
	CameraToTarget spatialmath.Pose
	// Ambiguity of the single-target solve in [0, 1]; lower is better.
	Ambiguity float64
}

// Frame is one processed camera frame as reported by the perception pipeline.
type Frame struct {
	Timestamp time.Time
	Targets   []Target
	// CameraPose is the field-relative camera pose solved from every visible fiducial, nil if the
	// pipeline could not produce (or rejected) a global solve for this frame.
	CameraPose spatialmath.Pose
	Confidence float64
}

// A Pipeline is the external fiducial detection and pose solving pipeline. LatestFrame must not
// block; it returns false until a first frame exists.
type Pipeline interface {
	LatestFrame(ctx context.Context) (Frame, bool)
}

// Camera adapts a Pipeline for a camera mounted on the robot into a Source, moving solves and
// target transforms from the camera frame into the robot frame.
type Camera struct {
	pipeline      Pipeline
	robotToCamera spatialmath.Pose
	cameraToRobot spatialmath.Pose
	targetIDs     map[int]struct{}
	logger        logging.Logger
}

// NewCamera returns a Source for a pipeline whose camera sits at robotToCamera in the robot frame.
// If targetIDs is not empty, LatestBearingToTarget only considers those fiducials.
func NewCamera(pipeline Pipeline, robotToCamera spatialmath.Pose, targetIDs []int, logger logging.Logger) *Camera {
	if robotToCamera == nil {
		robotToCamera = spatialmath.NewZeroPose()
	}
	ids := make(map[int]struct{}, len(targetIDs))
	for _, id := range targetIDs {
		ids[id] = struct{}{}
	}
	return &Camera{
		pipeline:      pipeline,
		robotToCamera: robotToCamera,
		cameraToRobot: spatialmath.PoseInverse(robotToCamera),
		targetIDs:     ids,
		logger:        logger,
	}
}

// LatestPoseCandidate returns the robot pose implied by the latest global camera solve.
func (c *Camera) LatestPoseCandidate(ctx context.Context) (TimestampedPose, bool) {
	frame, ok := c.pipeline.LatestFrame(ctx)
	if !ok || frame.CameraPose == nil {
		return TimestampedPose{}, false
	}
	return TimestampedPose{
		Pose:        spatialmath.Compose(frame.CameraPose, c.cameraToRobot),
		Confidence:  frame.Confidence,
		Timestamp:   frame.Timestamp,
		FiducialIDs: fiducialIDs(frame.Targets),
	}, true
}

// LatestBearingToTarget returns the robot-frame bearing to the least ambiguous tracked target.
func (c *Camera) LatestBearingToTarget(ctx context.Context) (units.Angle, bool) {
	frame, ok := c.pipeline.LatestFrame(ctx)
	if !ok {
		return 0, false
	}
	candidates := frame.Targets
	if len(c.targetIDs) > 0 {
		candidates = lo.Filter(candidates, func(t Target, _ int) bool {
			_, wanted := c.targetIDs[t.FiducialID]
			return wanted
		})
	}
	if len(candidates) == 0 {
		return 0, false
	}
	best := lo.MinBy(candidates, func(a, b Target) bool {
		return a.Ambiguity < b.Ambiguity
	})
	if best.CameraToTarget == nil {
		c.logger.Debugw("tracked target has no transform", "fiducial", best.FiducialID)
		return 0, false
	}
	return spatialmath.PlanarBearing(spatialmath.Compose(c.robotToCamera, best.CameraToTarget)), true
}

// VisibleFiducialIDs returns the ids of every fiducial in the latest frame, in pipeline order.
// It is empty when nothing is tracked.
func (c *Camera) VisibleFiducialIDs(ctx context.Context) []int {
	frame, ok := c.pipeline.LatestFrame(ctx)
	if !ok {
		return nil
	}
	return fiducialIDs(frame.Targets)
}

// TargetTransforms returns the robot-frame pose of every fiducial in the latest frame, keyed by id.
func (c *Camera) TargetTransforms(ctx context.Context) map[int]spatialmath.Pose {
	frame, ok := c.pipeline.LatestFrame(ctx)
	if !ok {
		return nil
	}
	out := make(map[int]spatialmath.Pose, len(frame.Targets))
	for _, t := range frame.Targets {
		if t.CameraToTarget == nil {
			continue
		}
		out[t.FiducialID] = spatialmath.Compose(c.robotToCamera, t.CameraToTarget)
	}
	return out
}

func fiducialIDs(targets []Target) []int {
	return lo.Map(targets, func(t Target, _ int) int { return t.FiducialID })
}
