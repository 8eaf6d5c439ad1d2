// Package fake implements a simulated holonomic base.
package fake

import (
	"context"
	"sync"
	"time"

	"github.com/fieldbot/lockon/drive"
	"github.com/fieldbot/lockon/spatialmath"
	"github.com/fieldbot/lockon/units"
)

// Base integrates commanded velocities into a true pose and an odometry pose. The odometry
// over-reports translation by OdometryScale so it drifts away from the truth the way real wheels do.
type Base struct {
	mu sync.Mutex

	truth     spatialmath.Pose
	odometry  spatialmath.Pose
	lastQuery spatialmath.Pose
	odomScale float64

	cmd        drive.Command
	DriveCount int
	StopCount  int
}

// NewBase returns a base standing at start. An odometryScale of 0 means perfect odometry.
func NewBase(start spatialmath.Pose, odometryScale float64) *Base {
	if odometryScale == 0 {
		odometryScale = 1
	}
	return &Base{
		truth:     start,
		odometry:  start,
		lastQuery: start,
		odomScale: odometryScale,
	}
}

// OdometryDelta returns the odometry displacement since the last call.
func (b *Base) OdometryDelta(ctx context.Context) (spatialmath.Pose, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delta := spatialmath.PoseBetween(b.lastQuery, b.odometry)
	b.lastQuery = b.odometry
	return delta, nil
}

// ResetPose seeds the odometry pose; the simulated truth is unaffected.
func (b *Base) ResetPose(ctx context.Context, pose spatialmath.Pose) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.odometry = pose
	b.lastQuery = pose
	return nil
}

// Drive stores the command to be integrated by Step.
func (b *Base) Drive(ctx context.Context, cmd drive.Command) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cmd = cmd
	b.DriveCount++
	return nil
}

// Stop zeroes the command.
func (b *Base) Stop(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cmd = drive.Command{}
	b.StopCount++
	return nil
}

// LastCommand returns the most recent command.
func (b *Base) LastCommand() drive.Command {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cmd
}

// Truth returns the simulated true pose.
func (b *Base) Truth() spatialmath.Pose {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.truth
}

// Step advances the simulation by dt under the current command.
func (b *Base) Step(dt time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	seconds := dt.Seconds()
	forward, sideways := b.cmd.Forward.Over(seconds), b.cmd.Sideways.Over(seconds)
	if b.cmd.FieldRelative {
		// rotate the field displacement into the robot frame
		fieldDelta := spatialmath.NewPlanarPose(forward, sideways, 0)
		heading := spatialmath.NewPoseFromOrientation(b.truth.Orientation())
		robotDelta := spatialmath.Compose(spatialmath.PoseInverse(heading), fieldDelta).Point()
		forward, sideways = units.Meters(robotDelta.X), units.Meters(robotDelta.Y)
	}
	turn := b.cmd.AngularRate.Over(seconds)

	b.truth = spatialmath.Compose(b.truth, spatialmath.NewPlanarPose(forward, sideways, turn))
	b.odometry = spatialmath.Compose(b.odometry, spatialmath.NewPlanarPose(
		units.Meters(forward.Meters()*b.odomScale),
		units.Meters(sideways.Meters()*b.odomScale),
		turn,
	))
}
