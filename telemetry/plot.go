package telemetry

import (
	"image/color"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var (
	bearingColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	yawRateColor = color.RGBA{R: 214, G: 39, B: 40, A: 255}
)

// WritePlot renders the bearing error and commanded yaw rate of a session over time. The format
// follows the extension of path (png, svg, pdf...).
func WritePlot(snapshots []Snapshot, path string) error {
	if len(snapshots) == 0 {
		return errors.New("no snapshots to plot")
	}
	start := snapshots[0].Time

	bearingPts := make(plotter.XYs, 0, len(snapshots))
	ratePts := make(plotter.XYs, 0, len(snapshots))
	for _, s := range snapshots {
		x := s.Time.Sub(start).Seconds()
		if s.Locked && s.HasBearing {
			bearingPts = append(bearingPts, plotter.XY{X: x, Y: s.Bearing.Degrees()})
		}
		if s.CommandSent {
			ratePts = append(ratePts, plotter.XY{X: x, Y: s.Command.AngularRate.DegreesPerSecond()})
		}
	}

	p := plot.New()
	p.Title.Text = "Heading lock"
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "deg, deg/s"
	p.Add(plotter.NewGrid())

	if err := addLine(p, bearingPts, "bearing (deg)", bearingColor); err != nil {
		return err
	}
	if err := addLine(p, ratePts, "yaw rate (deg/s)", yawRateColor); err != nil {
		return err
	}
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if err := p.Save(10*vg.Inch, 4*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "save plot %q", path)
	}
	return nil
}

func addLine(p *plot.Plot, pts plotter.XYs, label string, c color.Color) error {
	if len(pts) == 0 {
		return nil
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return errors.Wrap(err, label)
	}
	line.Color = c
	line.Width = vg.Points(1)
	p.Add(line)
	p.Legend.Add(label, line)
	return nil
}
