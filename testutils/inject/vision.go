package inject

import (
	"context"

	"github.com/fieldbot/lockon/units"
	"github.com/fieldbot/lockon/vision"
)

// VisionSource is an injectable vision source. Unset funcs defer to the embedded Source, or report
// nothing if none is embedded.
type VisionSource struct {
	vision.Source
	LatestPoseCandidateFunc   func(ctx context.Context) (vision.TimestampedPose, bool)
	LatestBearingToTargetFunc func(ctx context.Context) (units.Angle, bool)
}

// LatestPoseCandidate calls the injected LatestPoseCandidate or the real version.
func (s *VisionSource) LatestPoseCandidate(ctx context.Context) (vision.TimestampedPose, bool) {
	if s.LatestPoseCandidateFunc == nil {
		if s.Source == nil {
			return vision.TimestampedPose{}, false
		}
		return s.Source.LatestPoseCandidate(ctx)
	}
	return s.LatestPoseCandidateFunc(ctx)
}

// LatestBearingToTarget calls the injected LatestBearingToTarget or the real version.
func (s *VisionSource) LatestBearingToTarget(ctx context.Context) (units.Angle, bool) {
	if s.LatestBearingToTargetFunc == nil {
		if s.Source == nil {
			return 0, false
		}
		return s.Source.LatestBearingToTarget(ctx)
	}
	return s.LatestBearingToTargetFunc(ctx)
}

// Pipeline is an injectable perception pipeline.
type Pipeline struct {
	vision.Pipeline
	LatestFrameFunc func(ctx context.Context) (vision.Frame, bool)
}

// LatestFrame calls the injected LatestFrame or the real version.
func (p *Pipeline) LatestFrame(ctx context.Context) (vision.Frame, bool) {
	if p.LatestFrameFunc == nil {
		if p.Pipeline == nil {
			return vision.Frame{}, false
		}
		return p.Pipeline.LatestFrame(ctx)
	}
	return p.LatestFrameFunc(ctx)
}
