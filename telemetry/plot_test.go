package telemetry

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.viam.com/test"

	"github.com/fieldbot/lockon/drive"
	"github.com/fieldbot/lockon/units"
)

func TestWritePlot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lock.svg")
	test.That(t, WritePlot(nil, path), test.ShouldNotBeNil)

	start := time.Unix(0, 0)
	var snaps []Snapshot
	for i := 0; i < 50; i++ {
		bearing := units.Degrees(30 - float64(i))
		snaps = append(snaps, Snapshot{
			Cycle:       uint64(i),
			Time:        start.Add(time.Duration(i) * 20 * time.Millisecond),
			Locked:      true,
			HasBearing:  i%7 != 0,
			Bearing:     bearing,
			CommandSent: true,
			Command:     drive.Command{AngularRate: units.DegreesPerSecond(2 * bearing.Degrees())},
		})
	}
	test.That(t, WritePlot(snaps, path), test.ShouldBeNil)
	info, err := os.Stat(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, info.Size(), test.ShouldBeGreaterThan, 0)

	test.That(t, WritePlot(snaps, filepath.Join(t.TempDir(), "lock.unknown")), test.ShouldNotBeNil)
}
