// Package targeting computes the heading from the robot to a fixed field landmark.
//
// Sign convention, used by every consumer in this module: a bearing is expressed in the robot frame,
// measured from the robot's forward (+x) axis, and is positive counter-clockwise, so a positive bearing
// means the target is to the robot's left and turning at a positive yaw rate reduces it. Bearings lie
// in (-π, π].
package targeting

import (
	"github.com/fieldbot/lockon/fieldlayout"
	"github.com/fieldbot/lockon/spatialmath"
	"github.com/fieldbot/lockon/units"
)

// BearingTo returns the bearing of target as seen from robot. It is ill-conditioned when the two
// poses are at the same planar position.
func BearingTo(robot, target spatialmath.Pose) units.Angle {
	return spatialmath.PlanarBearing(spatialmath.Difference(target, robot))
}

// RangeTo returns the planar distance from robot to target.
func RangeTo(robot, target spatialmath.Pose) units.Distance {
	return spatialmath.PlanarDistance(spatialmath.Difference(target, robot))
}

// Calculator resolves a fixed target id against a field layout.
type Calculator struct {
	layout   fieldlayout.Layout
	targetID int
}

// NewCalculator returns a Calculator for the target with the given fiducial id.
func NewCalculator(layout fieldlayout.Layout, targetID int) *Calculator {
	return &Calculator{layout: layout, targetID: targetID}
}

// TargetID returns the id of the target.
func (c *Calculator) TargetID() int {
	return c.targetID
}

// Bearing returns the bearing from robot to the target, false if the layout does not know the target.
func (c *Calculator) Bearing(robot spatialmath.Pose) (units.Angle, bool) {
	target, ok := c.target()
	if !ok || robot == nil {
		return 0, false
	}
	return BearingTo(robot, target), true
}

// Range returns the planar distance from robot to the target, false if the layout does not know the
// target.
func (c *Calculator) Range(robot spatialmath.Pose) (units.Distance, bool) {
	target, ok := c.target()
	if !ok || robot == nil {
		return 0, false
	}
	return RangeTo(robot, target), true
}

func (c *Calculator) target() (spatialmath.Pose, bool) {
	if c.layout == nil {
		return nil, false
	}
	return c.layout.PoseOf(c.targetID)
}
