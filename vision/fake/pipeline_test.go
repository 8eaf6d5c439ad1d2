package fake

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.viam.com/test"

	"github.com/fieldbot/lockon/fieldlayout"
	"github.com/fieldbot/lockon/spatialmath"
	"github.com/fieldbot/lockon/units"
)

func TestPipelineLatencyAndRepeats(t *testing.T) {
	ctx := context.Background()
	mock := clock.NewMock()
	layout := fieldlayout.Default()
	p := NewPipeline(Config{Period: 100 * time.Millisecond, Latency: 40 * time.Millisecond}, layout, layout.IDs(), mock)

	// facing the blue speaker from three meters out
	truth := spatialmath.NewPlanarPose(units.Meters(3), units.Meters(5.5), units.Degrees(180))
	p.Observe(truth)
	_, ok := p.LatestFrame(ctx)
	test.That(t, ok, test.ShouldBeFalse)

	mock.Add(40 * time.Millisecond)
	p.Observe(truth)
	frame, ok := p.LatestFrame(ctx)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, frame.Timestamp, test.ShouldEqual, mock.Now().Add(-40*time.Millisecond))
	test.That(t, frame.CameraPose, test.ShouldNotBeNil)
	test.That(t, spatialmath.PoseAlmostEqual(frame.CameraPose, truth), test.ShouldBeTrue)
	test.That(t, frame.Confidence, test.ShouldEqual, 0.9)
	test.That(t, len(frame.Targets), test.ShouldEqual, 2)

	// no new capture is due yet, so the same frame repeats
	mock.Add(40 * time.Millisecond)
	p.Observe(truth)
	again, _ := p.LatestFrame(ctx)
	test.That(t, again.Timestamp, test.ShouldEqual, frame.Timestamp)
}

func TestPipelineFieldOfView(t *testing.T) {
	ctx := context.Background()
	mock := clock.NewMock()
	layout := fieldlayout.Default()
	p := NewPipeline(Config{}, layout, layout.IDs(), mock)

	// facing away from both speakers' fiducials
	p.Observe(spatialmath.NewPlanarPose(units.Meters(8), units.Meters(4), units.Degrees(90)))
	frame, ok := p.LatestFrame(ctx)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, frame.Targets, test.ShouldBeEmpty)
	test.That(t, frame.CameraPose, test.ShouldBeNil)
}

func TestPipelineDropout(t *testing.T) {
	ctx := context.Background()
	mock := clock.NewMock()
	layout := fieldlayout.Default()
	p := NewPipeline(Config{DropoutRate: 1}, layout, []int{7}, mock)

	p.Observe(spatialmath.NewPlanarPose(units.Meters(3), units.Meters(5.5), units.Degrees(180)))
	frame, ok := p.LatestFrame(ctx)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, frame.Targets, test.ShouldHaveLength, 1)
	test.That(t, frame.CameraPose, test.ShouldBeNil)
}
