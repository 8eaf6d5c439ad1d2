package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.viam.com/test"

	"github.com/fieldbot/lockon/logging"
	"github.com/fieldbot/lockon/posefusion"
	"github.com/fieldbot/lockon/spatialmath"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	test.That(t, cfg.Validate("config"), test.ShouldBeNil)
	layout, err := cfg.FieldLayout()
	test.That(t, err, test.ShouldBeNil)
	_, ok := layout.PoseOf(cfg.TargetID)
	test.That(t, ok, test.ShouldBeTrue)
}

func TestFromReaderOverridesDefaults(t *testing.T) {
	doc := `{
		// speaker on the far side
		"loop": {"frequency_hz": 100},
		"target_id": 4,
		"initial_pose": {"x_m": 1.5, "y_m": 5.5, "yaw_degs": 180},
		"fusion": {"min_confidence": 0.8, "corrected_axes": ["x", "y"]},
		"lock": {"pid": {"p": 2, "d": 0.1}, "locked_on_max_speed_meters_per_sec": 0.5},
		"bearing": {"use_direct_bearing": true, "anchor_timeout": "750ms"},
		"log": {"level": "debug"},
	}`
	cfg, err := FromReader("robot.json", strings.NewReader(doc))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.ConfigFilePath, test.ShouldEqual, "robot.json")
	test.That(t, cfg.Loop.Frequency, test.ShouldEqual, 100.)
	test.That(t, cfg.TargetID, test.ShouldEqual, 4)
	test.That(t, cfg.Fusion.MinConfidence, test.ShouldEqual, 0.8)
	test.That(t, cfg.Fusion.CorrectedAxes, test.ShouldResemble, []posefusion.Axis{posefusion.AxisX, posefusion.AxisY})
	test.That(t, cfg.Lock.PID.P, test.ShouldEqual, 2.)
	test.That(t, cfg.Lock.PID.I, test.ShouldEqual, DefaultConfig().Lock.PID.I)
	test.That(t, cfg.Lock.LockedOnMaxSpeed, test.ShouldEqual, 0.5)
	test.That(t, cfg.Lock.ScaleFactor, test.ShouldEqual, DefaultConfig().Lock.ScaleFactor)
	test.That(t, cfg.Bearing.UseDirectBearing, test.ShouldBeTrue)
	test.That(t, cfg.Bearing.AnchorTimeout, test.ShouldEqual, 750*time.Millisecond)
	test.That(t, cfg.Log.Level, test.ShouldEqual, logging.DEBUG)
	test.That(t, cfg.Log.PublishEvery, test.ShouldEqual, 10)

	pose := cfg.InitialPose.Pose()
	test.That(t, pose.Point().X, test.ShouldAlmostEqual, 1.5)
	test.That(t, spatialmath.Yaw(pose).Degrees(), test.ShouldAlmostEqual, 180.)

	test.That(t, DefaultConfig().Fusion.CorrectedAxes, test.ShouldResemble, posefusion.DefaultCorrectedAxes)
	test.That(t, posefusion.DefaultCorrectedAxes, test.ShouldHaveLength, 3)
}

func TestFromReaderErrors(t *testing.T) {
	_, err := FromReader("", strings.NewReader(`{"loop":`))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "cannot parse config")

	_, err = FromReader("", strings.NewReader(`{"target": 7}`))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "cannot decode config")

	_, err = FromReader("", strings.NewReader(`{"log": {"level": "loud"}}`))
	test.That(t, err, test.ShouldNotBeNil)

	_, err = FromReader("", strings.NewReader(`{
		"loop": {"frequency_hz": 500},
		"fusion": {"min_confidence": 2},
		"lock": {"max_speed_meters_per_sec": -1},
		"bearing": {"anchor_timeout": "-1s"}
	}`))
	test.That(t, err, test.ShouldNotBeNil)
	for _, path := range []string{`"config.loop"`, `"config.fusion"`, `"config.lock"`, `"config.bearing.anchor_timeout"`} {
		test.That(t, err.Error(), test.ShouldContainSubstring, path)
	}
}

func TestReadExpandsEnvironment(t *testing.T) {
	t.Setenv("LOCKON_TARGET_ID", "8")
	path := filepath.Join(t.TempDir(), "robot.json")
	test.That(t, os.WriteFile(path, []byte(`{"target_id": ${LOCKON_TARGET_ID}}`), 0o600), test.ShouldBeNil)

	cfg, err := Read(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.TargetID, test.ShouldEqual, 8)
	test.That(t, cfg.ConfigFilePath, test.ShouldEqual, path)

	_, err = Read(filepath.Join(t.TempDir(), "missing.json"))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestFieldLayoutFromPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FieldLayoutPath = filepath.Join(t.TempDir(), "missing.json")
	_, err := cfg.FieldLayout()
	test.That(t, err, test.ShouldNotBeNil)
}
