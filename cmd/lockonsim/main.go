// Package main runs a simulated lock-on session.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/benbjohnson/clock"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/fieldbot/lockon/config"
	"github.com/fieldbot/lockon/input"
	"github.com/fieldbot/lockon/logging"
	"github.com/fieldbot/lockon/simulation"
	"github.com/fieldbot/lockon/spatialmath"
	"github.com/fieldbot/lockon/telemetry"
	"github.com/fieldbot/lockon/units"
	visionfake "github.com/fieldbot/lockon/vision/fake"
)

const (
	// Flags.
	flagConfig        = "config"
	flagDebug         = "debug"
	flagLogFile       = "log-file"
	flagDuration      = "duration"
	flagForward       = "forward"
	flagSideways      = "sideways"
	flagVisionPeriod  = "vision-period"
	flagVisionLatency = "vision-latency"
	flagDropout       = "dropout"
	flagPositionNoise = "position-noise"
	flagYawNoise      = "yaw-noise"
	flagOdometryScale = "odometry-scale"
	flagStartOffset   = "start-offset"
	flagSeed          = "seed"
	flagRealtime      = "realtime"
	flagPlot          = "plot"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	if err := newApp(os.Stdout).RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:      "lockonsim",
		Usage:     "simulate the heading lock against a fiducial-tracking camera",
		Writer:    out,
		ErrWriter: out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "load configuration from `FILE`",
			},
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
			&cli.StringFlag{
				Name:  flagLogFile,
				Usage: "also write JSON logs to `PATH`, rotated",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "engage the lock and run a session",
				Flags: []cli.Flag{
					&cli.DurationFlag{Name: flagDuration, Value: defaultDuration, Usage: "length of the session"},
					&cli.Float64Flag{Name: flagForward, Usage: "operator forward axis in [-1, 1]"},
					&cli.Float64Flag{Name: flagSideways, Usage: "operator sideways axis in [-1, 1]"},
					&cli.DurationFlag{Name: flagVisionPeriod, Value: defaultVisionPeriod, Usage: "time between camera frames"},
					&cli.DurationFlag{Name: flagVisionLatency, Value: defaultVisionLatency, Usage: "capture to publish latency"},
					&cli.Float64Flag{Name: flagDropout, Usage: "probability a frame has no pose solve"},
					&cli.Float64Flag{Name: flagPositionNoise, Value: 0.02, Usage: "standard deviation of solve position noise in meters"},
					&cli.Float64Flag{Name: flagYawNoise, Value: 0.5, Usage: "standard deviation of solve yaw noise in degrees"},
					&cli.Float64Flag{Name: flagOdometryScale, Value: 1, Usage: "odometry over-reporting factor"},
					&cli.Float64Flag{Name: flagStartOffset, Usage: "meters the true start is offset in x from the configured initial pose"},
					&cli.Int64Flag{Name: flagSeed, Value: 1, Usage: "seed of the simulated camera noise"},
					&cli.BoolFlag{Name: flagRealtime, Usage: "run cycles on the wall clock through the control loop"},
					&cli.StringFlag{Name: flagPlot, Usage: "write the bearing and yaw rate traces to `FILE` (png, svg or pdf)"},
				},
				Action: runAction,
			},
			{
				Name:  "config",
				Usage: "print the effective configuration",
				Action: func(c *cli.Context) error {
					cfg, err := loadConfig(c)
					if err != nil {
						return err
					}
					return printConfig(c.App.Writer, cfg)
				},
			},
		},
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	path := c.String(flagConfig)
	if path == "" {
		return config.DefaultConfig(), nil
	}
	return config.Read(path)
}

func newLogger(c *cli.Context, cfg *config.Config) logging.Logger {
	level := cfg.Log.Level
	if c.Bool(flagDebug) {
		level = logging.DEBUG
	}
	path := c.String(flagLogFile)
	if path == "" {
		path = cfg.Log.File
	}
	var logger logging.Logger
	if path != "" {
		logger = logging.NewFileLogger("lockonsim", path, level, logging.FileOptions{
			MaxSizeMB:  cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
		})
	} else {
		logger = logging.NewLogger("lockonsim")
		logger.SetLevel(level)
	}
	logging.ReplaceGlobal(logger)
	return logger
}

func runAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger := newLogger(c, cfg)
	defer func() {
		//nolint:errcheck
		_ = logger.Sync()
	}()

	opts := simulation.Options{
		Duration: c.Duration(flagDuration),
		Axes:     input.Axes{Forward: c.Float64(flagForward), Sideways: c.Float64(flagSideways)},
		Vision: visionfake.Config{
			Period:        c.Duration(flagVisionPeriod),
			Latency:       c.Duration(flagVisionLatency),
			DropoutRate:   c.Float64(flagDropout),
			PositionNoise: units.Meters(c.Float64(flagPositionNoise)),
			YawNoise:      units.Degrees(c.Float64(flagYawNoise)),
			Seed:          c.Int64(flagSeed),
		},
		OdometryScale: c.Float64(flagOdometryScale),
		Realtime:      c.Bool(flagRealtime),
	}
	if offset := c.Float64(flagStartOffset); offset != 0 {
		opts.TruthStart = spatialmath.Compose(spatialmath.NewPlanarPose(units.Meters(offset), 0, 0), cfg.InitialPose.Pose())
	}

	var clk clock.Clock = clock.NewMock()
	if opts.Realtime {
		clk = clock.New()
	}
	session, err := simulation.NewSession(cfg, opts, clk, logger)
	if err != nil {
		return errors.Wrap(err, "cannot build simulation")
	}
	res, err := session.Run(c.Context)
	if err != nil {
		return err
	}
	printResult(c.App.Writer, res)
	if path := c.String(flagPlot); path != "" {
		if err := telemetry.WritePlot(session.Snapshots(), path); err != nil {
			return err
		}
		logger.Infow("wrote plot", "path", path)
	}
	return nil
}

func printResult(w io.Writer, res simulation.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"metric", "value"})
	t.AppendRows([]table.Row{
		{"cycles", res.Summary.Cycles},
		{"locked cycles", res.Summary.Locked},
		{"cycles with bearing", res.Summary.WithBearing},
		{"corrections accepted", res.Fusion.Accepted},
		{"candidates missing", res.Fusion.Missing},
		{"candidates stale", res.Fusion.RejectedStale},
		{"candidates low confidence", res.Fusion.RejectedConfidence},
		{"drive errors", res.Summary.DriveErrors},
		{"mean |bearing| (deg)", fmt.Sprintf("%.2f", res.Summary.MeanAbsBearing)},
		{"p95 |bearing| (deg)", fmt.Sprintf("%.2f", res.Summary.P95AbsBearing)},
		{"max |bearing| (deg)", fmt.Sprintf("%.2f", res.Summary.MaxAbsBearing)},
		{"max |yaw rate| (deg/s)", fmt.Sprintf("%.2f", res.Summary.MaxAbsYawRate)},
		{"position error (m)", fmt.Sprintf("%.3f", res.PositionError.Meters())},
		{"heading error (deg)", fmt.Sprintf("%.2f", res.HeadingError.Degrees())},
	})
	if res.HasTrueBearing {
		t.AppendRow(table.Row{"final true bearing (deg)", fmt.Sprintf("%.2f", res.TrueBearing.Degrees())})
	}
	t.Render()
}
