// Package inject provides function-field fakes of the lock-on collaborators for tests.
package inject

import (
	"context"

	"github.com/fieldbot/lockon/drive"
	"github.com/fieldbot/lockon/spatialmath"
)

// Actuator is an injectable drive actuator. Unset funcs defer to the embedded Actuator, or do nothing
// if none is embedded.
type Actuator struct {
	drive.Actuator
	OdometryDeltaFunc func(ctx context.Context) (spatialmath.Pose, error)
	ResetPoseFunc     func(ctx context.Context, pose spatialmath.Pose) error
	DriveFunc         func(ctx context.Context, cmd drive.Command) error
	StopFunc          func(ctx context.Context) error
}

// OdometryDelta calls the injected OdometryDelta or the real version.
func (a *Actuator) OdometryDelta(ctx context.Context) (spatialmath.Pose, error) {
	if a.OdometryDeltaFunc == nil {
		if a.Actuator == nil {
			return spatialmath.NewZeroPose(), nil
		}
		return a.Actuator.OdometryDelta(ctx)
	}
	return a.OdometryDeltaFunc(ctx)
}

// ResetPose calls the injected ResetPose or the real version.
func (a *Actuator) ResetPose(ctx context.Context, pose spatialmath.Pose) error {
	if a.ResetPoseFunc == nil {
		if a.Actuator == nil {
			return nil
		}
		return a.Actuator.ResetPose(ctx, pose)
	}
	return a.ResetPoseFunc(ctx, pose)
}

// Drive calls the injected Drive or the real version.
func (a *Actuator) Drive(ctx context.Context, cmd drive.Command) error {
	if a.DriveFunc == nil {
		if a.Actuator == nil {
			return nil
		}
		return a.Actuator.Drive(ctx, cmd)
	}
	return a.DriveFunc(ctx, cmd)
}

// Stop calls the injected Stop or the real version.
func (a *Actuator) Stop(ctx context.Context) error {
	if a.StopFunc == nil {
		if a.Actuator == nil {
			return nil
		}
		return a.Actuator.Stop(ctx)
	}
	return a.StopFunc(ctx)
}
