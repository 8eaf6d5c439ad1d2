// Package fake implements a simulated fiducial pipeline for tests and the simulator.
package fake

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r3"

	"github.com/fieldbot/lockon/fieldlayout"
	"github.com/fieldbot/lockon/spatialmath"
	"github.com/fieldbot/lockon/units"
	"github.com/fieldbot/lockon/vision"
)

// Config configures the simulated pipeline.
type Config struct {
	// Period between captured frames.
	Period time.Duration
	// Latency between capture and the frame becoming visible through LatestFrame.
	Latency time.Duration
	// DropoutRate is the probability that a frame has tracked targets but no global solve.
	DropoutRate float64
	// PositionNoise and YawNoise are the standard deviations of the solve error.
	PositionNoise units.Distance
	YawNoise      units.Angle
	// FieldOfView is the full horizontal field of view of the camera.
	FieldOfView units.Angle
	// MaxRange beyond which fiducials are not detected.
	MaxRange      units.Distance
	RobotToCamera spatialmath.Pose
	Seed          int64
}

type pendingFrame struct {
	publishAt time.Time
	frame     vision.Frame
}

// Pipeline produces frames from the true robot pose it is fed with Observe.
type Pipeline struct {
	mu     sync.Mutex
	cfg    Config
	layout fieldlayout.Layout
	tagIDs []int
	clock  clock.Clock
	rnd    *rand.Rand

	captured    bool
	lastCapture time.Time
	pending     []pendingFrame
	latest      vision.Frame
	hasLatest   bool
}

// NewPipeline returns a simulated pipeline that can see the given fiducials of the layout.
func NewPipeline(cfg Config, layout fieldlayout.Layout, tagIDs []int, clk clock.Clock) *Pipeline {
	if cfg.Period <= 0 {
		cfg.Period = 100 * time.Millisecond
	}
	if cfg.FieldOfView <= 0 {
		cfg.FieldOfView = units.Degrees(70)
	}
	if cfg.MaxRange <= 0 {
		cfg.MaxRange = units.Meters(8)
	}
	if cfg.RobotToCamera == nil {
		cfg.RobotToCamera = spatialmath.NewZeroPose()
	}
	return &Pipeline{
		cfg:    cfg,
		layout: layout,
		tagIDs: tagIDs,
		clock:  clk,
		rnd:    rand.New(rand.NewSource(cfg.Seed)),
	}
}

// Observe records the true robot pose at the current clock time, capturing a frame when one is due
// and publishing every frame whose latency has elapsed.
func (p *Pipeline) Observe(truth spatialmath.Pose) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.clock.Now()
	if !p.captured || now.Sub(p.lastCapture) >= p.cfg.Period {
		p.captured = true
		p.lastCapture = now
		p.pending = append(p.pending, pendingFrame{
			publishAt: now.Add(p.cfg.Latency),
			frame:     p.capture(now, truth),
		})
	}

	for len(p.pending) > 0 && !p.pending[0].publishAt.After(now) {
		p.latest = p.pending[0].frame
		p.hasLatest = true
		p.pending = p.pending[1:]
	}
}

// LatestFrame returns the most recently published frame, repeating it until a newer one is published.
func (p *Pipeline) LatestFrame(ctx context.Context) (vision.Frame, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.latest, p.hasLatest
}

func (p *Pipeline) capture(now time.Time, truth spatialmath.Pose) vision.Frame {
	cameraTruth := spatialmath.Compose(truth, p.cfg.RobotToCamera)
	frame := vision.Frame{Timestamp: now}

	for _, id := range p.tagIDs {
		tagPose, ok := p.layout.PoseOf(id)
		if !ok {
			continue
		}
		cameraToTag := spatialmath.PoseBetween(cameraTruth, tagPose)
		rng := spatialmath.PlanarDistance(cameraToTag)
		if rng > p.cfg.MaxRange {
			continue
		}
		if spatialmath.PlanarBearing(cameraToTag).Abs() > p.cfg.FieldOfView/2 {
			continue
		}
		frame.Targets = append(frame.Targets, vision.Target{
			FiducialID:     id,
			CameraToTarget: cameraToTag,
			Ambiguity:      math.Min(1, rng.Meters()/p.cfg.MaxRange.Meters()),
		})
	}

	if len(frame.Targets) == 0 || p.rnd.Float64() < p.cfg.DropoutRate {
		return frame
	}

	noise := spatialmath.NewPose(
		r3.Vector{
			X: p.rnd.NormFloat64() * p.cfg.PositionNoise.Meters(),
			Y: p.rnd.NormFloat64() * p.cfg.PositionNoise.Meters(),
		},
		&spatialmath.EulerAngles{Yaw: p.rnd.NormFloat64() * p.cfg.YawNoise.Radians()},
	)
	frame.CameraPose = spatialmath.Compose(cameraTruth, noise)
	frame.Confidence = 0.6
	if len(frame.Targets) > 1 {
		frame.Confidence = 0.9
	}
	return frame
}
