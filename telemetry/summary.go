package telemetry

import (
	"math"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"

	"github.com/fieldbot/lockon/posefusion"
)

// Summary aggregates a recorded session.
type Summary struct {
	Cycles             int
	Locked             int
	Accepted           int
	Missing            int
	RejectedStale      int
	RejectedConfidence int
	WithBearing        int
	DriveErrors        int
	OdometryErrors     int

	// Bearing statistics are over locked cycles with a bearing, in degrees.
	MeanAbsBearing float64
	MaxAbsBearing  float64
	P95AbsBearing  float64
	// MaxAbsYawRate is over every sent command, in degrees per second.
	MaxAbsYawRate float64
}

// Summary computes statistics over the recorded snapshots.
func (r *Recorder) Summary() (Summary, error) {
	return Summarize(r.Snapshots())
}

// Summarize computes statistics over snapshots.
func Summarize(snapshots []Snapshot) (Summary, error) {
	var sum Summary
	var bearings, rates stats.Float64Data
	for _, s := range snapshots {
		sum.Cycles++
		switch s.VisionOutcome {
		case posefusion.Accepted:
			sum.Accepted++
		case posefusion.NoCandidate:
			sum.Missing++
		case posefusion.RejectedStale:
			sum.RejectedStale++
		case posefusion.RejectedConfidence:
			sum.RejectedConfidence++
		}
		if s.DriveErr != nil {
			sum.DriveErrors++
		}
		if s.OdometryErr != nil {
			sum.OdometryErrors++
		}
		if s.CommandSent {
			rates = append(rates, math.Abs(s.Command.AngularRate.DegreesPerSecond()))
		}
		if !s.Locked {
			continue
		}
		sum.Locked++
		if s.HasBearing {
			sum.WithBearing++
			bearings = append(bearings, math.Abs(s.Bearing.Degrees()))
		}
	}

	if len(bearings) > 0 {
		var err error
		if sum.MeanAbsBearing, err = stats.Mean(bearings); err != nil {
			return Summary{}, errors.Wrap(err, "bearing mean")
		}
		if sum.MaxAbsBearing, err = stats.Max(bearings); err != nil {
			return Summary{}, errors.Wrap(err, "bearing max")
		}
		if sum.P95AbsBearing, err = stats.Percentile(bearings, 95); err != nil {
			return Summary{}, errors.Wrap(err, "bearing percentile")
		}
	}
	if len(rates) > 0 {
		maxRate, err := stats.Max(rates)
		if err != nil {
			return Summary{}, errors.Wrap(err, "yaw rate max")
		}
		sum.MaxAbsYawRate = maxRate
	}
	return sum, nil
}
