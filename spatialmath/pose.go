// Package spatialmath defines spatial mathematical operations.
// Poses are field-relative positions (meters) and orientations (radians). The same
// Pose type is used for relative displacements between frames (camera mount, odometry
// deltas, target offsets); all values are immutable.
package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/fieldbot/lockon/units"
)

// Pose represents a 6dof pose, position and orientation, with respect to the origin.
// The Point() method returns the position in (x,y,z) meters.
type Pose interface {
	Point() r3.Vector
	Orientation() Orientation
}

// NewZeroPose returns a pose at (0,0,0) with same orientation as whatever frame it is placed in.
func NewZeroPose() Pose {
	return newDualQuaternion()
}

// NewPose takes in a position and orientation and returns a Pose.
func NewPose(p r3.Vector, o Orientation) Pose {
	if o == nil {
		return NewPoseFromPoint(p)
	}
	q := newDualQuaternion()
	q.Real = Normalize(o.Quaternion())
	q.setTranslation(p)
	return q
}

// NewPoseFromPoint takes in a cartesian (x,y,z) and stores it as a vector.
// It will have the same orientation as the frame it is in.
func NewPoseFromPoint(point r3.Vector) Pose {
	q := newDualQuaternion()
	q.setTranslation(point)
	return q
}

// NewPoseFromOrientation returns a pose with no translation and the given orientation.
func NewPoseFromOrientation(o Orientation) Pose {
	return NewPose(r3.Vector{}, o)
}

// NewPlanarPose returns a pose on the ground plane at (x, y) facing yaw.
func NewPlanarPose(x, y units.Distance, yaw units.Angle) Pose {
	return NewPose(r3.Vector{X: x.Meters(), Y: y.Meters()}, &EulerAngles{Yaw: yaw.Radians()})
}

// NewPoseFromEuler returns a pose from a typed translation and roll, pitch, yaw.
func NewPoseFromEuler(x, y, z units.Distance, roll, pitch, yaw units.Angle) Pose {
	return NewPose(
		r3.Vector{X: x.Meters(), Y: y.Meters(), Z: z.Meters()},
		NewEulerAnglesFromUnits(roll, pitch, yaw),
	)
}

// Compose treats Poses as functions A(x) and B(x), and produces a new function C(x) = A(B(x)).
// It converts the poses to dual quaternions and multiplies them together, normalizes the result and returns
// it as a Pose. Composition is associative but not commutative: Compose(base, delta) applies delta in the
// frame of base.
func Compose(a, b Pose) Pose {
	result := &dualQuaternion{newDualQuaternionFromPose(a).transformation(newDualQuaternionFromPose(b).Number)}
	return result.normalized()
}

// PoseInverse will return the inverse of a pose. So if a given pose p is the pose of A relative to B, PoseInverse(p) will give
// the pose of B relative to A.
func PoseInverse(p Pose) Pose {
	return newDualQuaternionFromPose(p).inverse()
}

// PoseBetween returns the difference between two dualQuaternions, that is, the dq which if multiplied by one will give
// the other: Compose(from, PoseBetween(from, to)) == to.
func PoseBetween(from, to Pose) Pose {
	return Compose(PoseInverse(from), to)
}

// Difference returns the transform from b to a, expressed in b's frame, so that
// Compose(b, Difference(a, b)) == a.
func Difference(a, b Pose) Pose {
	return PoseBetween(b, a)
}

// PlanarBearing returns atan2(y, x) of the transform's translation: the angle, measured counter-clockwise
// from the transform's +x axis, toward its translation vector. The result lies in (-π, π].
// The bearing is ill-conditioned when the translation is near zero and undefined at exactly (0, 0);
// callers must not rely on it there.
func PlanarBearing(t Pose) units.Angle {
	pt := t.Point()
	return units.Radians(math.Atan2(pt.Y, pt.X)).Normalize()
}

// PlanarDistance returns the length of the transform's translation projected on the ground plane.
func PlanarDistance(t Pose) units.Distance {
	pt := t.Point()
	return units.Meters(math.Hypot(pt.X, pt.Y))
}

// Yaw returns the heading of the pose about the z axis.
func Yaw(p Pose) units.Angle {
	return p.Orientation().EulerAngles().YawAngle()
}

// PoseAlmostEqual will return a bool describing whether 2 poses are approximately the same.
func PoseAlmostEqual(a, b Pose) bool {
	return PoseAlmostEqualEps(a, b, 1e-6)
}

// PoseAlmostEqualEps will return a bool describing whether 2 poses are approximately the same.
func PoseAlmostEqualEps(a, b Pose, epsilon float64) bool {
	return PoseAlmostCoincidentEps(a, b, epsilon) && OrientationAlmostEqual(a.Orientation(), b.Orientation())
}

// PoseAlmostCoincidentEps will return a bool describing whether 2 poses approximately are at the same 3D coordinate location.
func PoseAlmostCoincidentEps(a, b Pose, epsilon float64) bool {
	return a.Point().Sub(b.Point()).Norm() <= epsilon
}
