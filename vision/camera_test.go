package vision_test

import (
	"context"
	"math"
	"testing"
	"time"

	"go.viam.com/test"

	"github.com/fieldbot/lockon/logging"
	"github.com/fieldbot/lockon/spatialmath"
	"github.com/fieldbot/lockon/testutils/inject"
	"github.com/fieldbot/lockon/units"
	"github.com/fieldbot/lockon/vision"
)

func staticPipeline(frame vision.Frame, ok bool) *inject.Pipeline {
	return &inject.Pipeline{
		LatestFrameFunc: func(ctx context.Context) (vision.Frame, bool) {
			return frame, ok
		},
	}
}

func TestCameraNoFrame(t *testing.T) {
	ctx := context.Background()
	cam := vision.NewCamera(staticPipeline(vision.Frame{}, false), nil, nil, logging.NewTestLogger(t))
	_, ok := cam.LatestPoseCandidate(ctx)
	test.That(t, ok, test.ShouldBeFalse)
	_, ok = cam.LatestBearingToTarget(ctx)
	test.That(t, ok, test.ShouldBeFalse)
	test.That(t, cam.VisibleFiducialIDs(ctx), test.ShouldBeEmpty)
	test.That(t, cam.TargetTransforms(ctx), test.ShouldBeNil)
}

func TestCameraPoseCandidate(t *testing.T) {
	ctx := context.Background()
	// camera 0.3m behind the robot center, facing forward
	robotToCamera := spatialmath.NewPlanarPose(units.Meters(-0.3), 0, 0)
	at := time.Unix(42, 0)
	frame := vision.Frame{
		Timestamp:  at,
		CameraPose: spatialmath.NewPlanarPose(units.Meters(2.7), units.Meters(1), 0),
		Confidence: 0.9,
		Targets:    []vision.Target{{FiducialID: 7}, {FiducialID: 8}},
	}
	cam := vision.NewCamera(staticPipeline(frame, true), robotToCamera, nil, logging.NewTestLogger(t))

	candidate, ok := cam.LatestPoseCandidate(ctx)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, candidate.Pose.Point().X, test.ShouldAlmostEqual, 3.)
	test.That(t, candidate.Pose.Point().Y, test.ShouldAlmostEqual, 1.)
	test.That(t, candidate.Confidence, test.ShouldEqual, 0.9)
	test.That(t, candidate.Timestamp, test.ShouldEqual, at)
	test.That(t, candidate.FiducialIDs, test.ShouldResemble, []int{7, 8})

	frame.CameraPose = nil
	cam = vision.NewCamera(staticPipeline(frame, true), robotToCamera, nil, logging.NewTestLogger(t))
	_, ok = cam.LatestPoseCandidate(ctx)
	test.That(t, ok, test.ShouldBeFalse)
	test.That(t, cam.VisibleFiducialIDs(ctx), test.ShouldResemble, []int{7, 8})
}

func TestCameraBearingPicksLeastAmbiguous(t *testing.T) {
	ctx := context.Background()
	frame := vision.Frame{
		Timestamp: time.Unix(1, 0),
		Targets: []vision.Target{
			{FiducialID: 3, CameraToTarget: spatialmath.NewPlanarPose(units.Meters(2), units.Meters(-2), 0), Ambiguity: 0.1},
			{FiducialID: 7, CameraToTarget: spatialmath.NewPlanarPose(units.Meters(2), units.Meters(2), 0), Ambiguity: 0.3},
			{FiducialID: 8, CameraToTarget: spatialmath.NewPlanarPose(units.Meters(3), 0, 0), Ambiguity: 0.5},
		},
	}
	logger := logging.NewTestLogger(t)

	cam := vision.NewCamera(staticPipeline(frame, true), nil, nil, logger)
	b, ok := cam.LatestBearingToTarget(ctx)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, b.Radians(), test.ShouldAlmostEqual, -math.Pi/4)

	cam = vision.NewCamera(staticPipeline(frame, true), nil, []int{7, 8}, logger)
	b, ok = cam.LatestBearingToTarget(ctx)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, b.Radians(), test.ShouldAlmostEqual, math.Pi/4)

	cam = vision.NewCamera(staticPipeline(frame, true), nil, []int{4}, logger)
	_, ok = cam.LatestBearingToTarget(ctx)
	test.That(t, ok, test.ShouldBeFalse)

	// a camera turned 90 degrees left sees everything 90 degrees further left
	turned := spatialmath.NewPlanarPose(0, 0, units.Degrees(90))
	cam = vision.NewCamera(staticPipeline(frame, true), turned, []int{8}, logger)
	b, ok = cam.LatestBearingToTarget(ctx)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, b.Degrees(), test.ShouldAlmostEqual, 90.)

	transforms := cam.TargetTransforms(ctx)
	test.That(t, transforms, test.ShouldHaveLength, 3)
	test.That(t, transforms[8].Point().Y, test.ShouldAlmostEqual, 3.)
}
