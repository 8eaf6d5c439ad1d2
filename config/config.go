// Package config defines the whole-system configuration of the lock-on core and how it is read.
package config

import (
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/fieldbot/lockon/control"
	"github.com/fieldbot/lockon/fieldlayout"
	"github.com/fieldbot/lockon/lockon"
	"github.com/fieldbot/lockon/logging"
	"github.com/fieldbot/lockon/posefusion"
	"github.com/fieldbot/lockon/spatialmath"
	"github.com/fieldbot/lockon/units"
)

// PoseConfig is a pose written with explicit units.
type PoseConfig struct {
	XMeters      float64 `json:"x_m"`
	YMeters      float64 `json:"y_m"`
	ZMeters      float64 `json:"z_m"`
	RollDegrees  float64 `json:"roll_degs"`
	PitchDegrees float64 `json:"pitch_degs"`
	YawDegrees   float64 `json:"yaw_degs"`
}

// Pose converts the config to a pose.
func (p PoseConfig) Pose() spatialmath.Pose {
	return spatialmath.NewPoseFromEuler(
		units.Meters(p.XMeters), units.Meters(p.YMeters), units.Meters(p.ZMeters),
		units.Degrees(p.RollDegrees), units.Degrees(p.PitchDegrees), units.Degrees(p.YawDegrees),
	)
}

// BearingConfig selects where the lock's bearing comes from.
type BearingConfig struct {
	// UseDirectBearing falls back to the vision pipeline's own bearing to the best tracked target
	// when the fused pose cannot be aimed from.
	UseDirectBearing bool `json:"use_direct_bearing"`
	// AnchorTimeout is how long after the last accepted vision correction the fused pose is still
	// trusted for aiming; 0 trusts it forever once corrected.
	AnchorTimeout time.Duration `json:"anchor_timeout"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level logging.Level `json:"level"`
	// File, if set, additionally writes JSON logs to a rotated file.
	File       string `json:"file,omitempty"`
	MaxSizeMB  int    `json:"max_size_mb,omitempty"`
	MaxBackups int    `json:"max_backups,omitempty"`
	// PublishEvery decimates per-cycle telemetry logs.
	PublishEvery uint64 `json:"publish_every"`
}

// Config is the configuration of the lock-on core.
type Config struct {
	Loop control.LoopConfig `json:"loop"`
	// TargetID is the fiducial id of the landmark to lock on to.
	TargetID int `json:"target_id"`
	// TargetFiducials restricts the vision source's direct bearing to these fiducials.
	TargetFiducials []int      `json:"target_fiducials,omitempty"`
	InitialPose     PoseConfig `json:"initial_pose"`
	// CameraMount is the camera's pose in the robot frame.
	CameraMount PoseConfig `json:"camera_mount"`
	// FieldLayoutPath points at an AprilTag field layout; empty uses the built-in layout.
	FieldLayoutPath string            `json:"field_layout_path,omitempty"`
	Fusion          posefusion.Config `json:"fusion"`
	Lock            lockon.Config     `json:"lock"`
	Bearing         BearingConfig     `json:"bearing"`
	Log             LogConfig         `json:"log"`

	// ConfigFilePath is where the config was read from, if anywhere.
	ConfigFilePath string `json:"-"`
}

// DefaultConfig returns the configuration used for keys a config file leaves out.
func DefaultConfig() *Config {
	return &Config{
		Loop:            control.LoopConfig{Frequency: 50},
		TargetID:        7,
		TargetFiducials: []int{7, 8},
		CameraMount: PoseConfig{
			XMeters: -0.33655,
			YMeters: -0.01016,
			ZMeters: 0.0889,
		},
		Fusion: posefusion.Config{
			MinConfidence: 0.5,
			CorrectedAxes: append([]posefusion.Axis(nil), posefusion.DefaultCorrectedAxes...),
		},
		Lock:    lockon.DefaultConfig(),
		Bearing: BearingConfig{AnchorTimeout: 2 * time.Second},
		Log:     LogConfig{Level: logging.INFO, PublishEvery: 10},
	}
}

// Validate returns every problem with the config, attributed to the config path.
func (c *Config) Validate(path string) error {
	var errs error
	if err := c.Loop.Validate(); err != nil {
		errs = multierr.Append(errs, NewValidationError(path+".loop", err))
	}
	if c.TargetID < 0 {
		errs = multierr.Append(errs, NewValidationError(path+".target_id", errors.Errorf("must be non-negative, got %d", c.TargetID)))
	}
	if err := c.Fusion.Validate(); err != nil {
		errs = multierr.Append(errs, NewValidationError(path+".fusion", err))
	}
	if err := c.Lock.Validate(); err != nil {
		errs = multierr.Append(errs, NewValidationError(path+".lock", err))
	}
	if c.Bearing.AnchorTimeout < 0 {
		errs = multierr.Append(errs, NewValidationError(path+".bearing.anchor_timeout",
			errors.Errorf("must be non-negative, got %v", c.Bearing.AnchorTimeout)))
	}
	if c.Log.MaxSizeMB < 0 || c.Log.MaxBackups < 0 {
		errs = multierr.Append(errs, NewValidationError(path+".log", errors.New("max_size_mb and max_backups must be non-negative")))
	}
	return errs
}

// FieldLayout loads the configured field layout.
func (c *Config) FieldLayout() (*fieldlayout.Static, error) {
	if c.FieldLayoutPath == "" {
		return fieldlayout.Default(), nil
	}
	return fieldlayout.Read(c.FieldLayoutPath)
}

// NewValidationError returns an error specific to a failure at a config path.
func NewValidationError(path string, err error) error {
	return errors.Wrapf(err, "error validating %q", path)
}
