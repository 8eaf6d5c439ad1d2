// Package drive defines the drive actuator the lock-on core commands: a holonomic base
// that reports odometry and accepts velocity commands. Motor-level control lives behind it.
package drive

import (
	"context"
	"fmt"

	"github.com/fieldbot/lockon/spatialmath"
	"github.com/fieldbot/lockon/units"
)

// Command is a velocity command for a holonomic base.
type Command struct {
	Forward     units.LinearVelocity
	Sideways    units.LinearVelocity
	AngularRate units.AngularVelocity
	// FieldRelative interprets Forward and Sideways along the field axes rather than the robot's.
	FieldRelative bool
}

// IsZero reports whether the command asks for no motion at all.
func (c Command) IsZero() bool {
	return c.Forward == 0 && c.Sideways == 0 && c.AngularRate == 0
}

func (c Command) String() string {
	return fmt.Sprintf("{fwd:%v side:%v rate:%v field:%t}", c.Forward, c.Sideways, c.AngularRate, c.FieldRelative)
}

// An Odometer reports local motion inferred from wheel and gyro sensing.
type Odometer interface {
	// OdometryDelta returns the robot-frame displacement since the previous call.
	OdometryDelta(ctx context.Context) (spatialmath.Pose, error)
	// ResetPose seeds the odometer's own field-relative pose.
	ResetPose(ctx context.Context, pose spatialmath.Pose) error
}

// An Actuator is an Odometer that can also be driven.
type Actuator interface {
	Odometer
	Drive(ctx context.Context, cmd Command) error
	Stop(ctx context.Context) error
}
