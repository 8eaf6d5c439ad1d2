package telemetry

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/fieldbot/lockon/drive"
	"github.com/fieldbot/lockon/logging"
	"github.com/fieldbot/lockon/posefusion"
	"github.com/fieldbot/lockon/spatialmath"
	"github.com/fieldbot/lockon/units"
)

type failingPublisher struct{}

func (failingPublisher) Publish(ctx context.Context, s Snapshot) error {
	return errors.New("dashboard offline")
}

func TestLogPublisherDecimates(t *testing.T) {
	ctx := context.Background()
	logger, logs := logging.NewObservedTestLogger(t)
	pub := NewLogPublisher(logger, 5)
	for i := uint64(0); i < 12; i++ {
		test.That(t, pub.Publish(ctx, Snapshot{
			Cycle:      i,
			Pose:       spatialmath.NewPlanarPose(units.Meters(1), 0, 0),
			HasBearing: true,
			Bearing:    units.Degrees(10),
		}), test.ShouldBeNil)
	}
	entries := logs.FilterMessage("cycle").All()
	test.That(t, entries, test.ShouldHaveLength, 3)
	test.That(t, entries[0].ContextMap()["bearing_deg"], test.ShouldAlmostEqual, 10.)
}

func TestMultiPublisher(t *testing.T) {
	rec := NewRecorder()
	multi := MultiPublisher{rec, failingPublisher{}, rec}
	err := multi.Publish(context.Background(), Snapshot{Cycle: 1})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "dashboard offline")
	test.That(t, rec.Len(), test.ShouldEqual, 2)
}

func TestSummary(t *testing.T) {
	ctx := context.Background()
	rec := NewRecorder()
	sum, err := rec.Summary()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sum, test.ShouldResemble, Summary{})

	snaps := []Snapshot{
		{VisionOutcome: posefusion.Accepted, Locked: true, HasBearing: true, Bearing: units.Degrees(-20),
			CommandSent: true, Command: drive.Command{AngularRate: units.DegreesPerSecond(-90)}},
		{VisionOutcome: posefusion.RejectedStale, Locked: true, HasBearing: true, Bearing: units.Degrees(10),
			CommandSent: true, Command: drive.Command{AngularRate: units.DegreesPerSecond(45)}},
		{VisionOutcome: posefusion.NoCandidate, Locked: true, CommandSent: true},
		{VisionOutcome: posefusion.RejectedConfidence, HasBearing: true, Bearing: units.Degrees(170),
			DriveErr: errors.New("brownout")},
	}
	for _, s := range snaps {
		test.That(t, rec.Publish(ctx, s), test.ShouldBeNil)
	}
	sum, err = rec.Summary()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sum.Cycles, test.ShouldEqual, 4)
	test.That(t, sum.Locked, test.ShouldEqual, 3)
	test.That(t, sum.Accepted, test.ShouldEqual, 1)
	test.That(t, sum.Missing, test.ShouldEqual, 1)
	test.That(t, sum.RejectedStale, test.ShouldEqual, 1)
	test.That(t, sum.RejectedConfidence, test.ShouldEqual, 1)
	test.That(t, sum.WithBearing, test.ShouldEqual, 2)
	test.That(t, sum.DriveErrors, test.ShouldEqual, 1)
	test.That(t, sum.MeanAbsBearing, test.ShouldAlmostEqual, 15.)
	test.That(t, sum.MaxAbsBearing, test.ShouldAlmostEqual, 20.)
	test.That(t, sum.MaxAbsYawRate, test.ShouldAlmostEqual, 90.)
	test.That(t, rec.Snapshots(), test.ShouldHaveLength, 4)
}
