package spatialmath

import (
	"fmt"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/dualquat"
	"gonum.org/v1/gonum/num/quat"
)

// dualQuaternion defines functions to perform rigid dualQuaternion transformations in 3D.
// The real part is the unit rotation quaternion; the dual part is half the translation
// (as a pure quaternion) multiplied by the rotation.
type dualQuaternion struct {
	dualquat.Number
}

// newDualQuaternion returns a pointer to a new dualQuaternion object whose Quaternion is an identity Quaternion.
// Since the real part of a dual quaternion should be a unit quaternion, not all zeroes, this should be used
// instead of &dualQuaternion{}.
func newDualQuaternion() *dualQuaternion {
	return &dualQuaternion{dualquat.Number{
		Real: quat.Number{Real: 1},
		Dual: quat.Number{},
	}}
}

// newDualQuaternionFromPose takes any pose, checks if it is already a DQ and returns that if so, otherwise creates a
// new one.
func newDualQuaternionFromPose(p Pose) *dualQuaternion {
	if q, ok := p.(*dualQuaternion); ok {
		return q
	}
	q := newDualQuaternion()
	q.Real = Normalize(p.Orientation().Quaternion())
	q.setTranslation(p.Point())
	return q
}

// Point multiplies the dual quaternion by its own conjugate to recover the translation.
func (q *dualQuaternion) Point() r3.Vector {
	t := quat.Scale(2, quat.Mul(q.Dual, quat.Conj(q.Real)))
	return r3.Vector{X: t.Imag, Y: t.Jmag, Z: t.Kmag}
}

// Orientation returns the rotation quaternion as an Orientation.
func (q *dualQuaternion) Orientation() Orientation {
	o := quaternion(q.Real)
	return &o
}

// setTranslation correctly sets the translation quaternion against the rotation.
func (q *dualQuaternion) setTranslation(pt r3.Vector) {
	q.Dual = quat.Scale(0.5, quat.Mul(quat.Number{Imag: pt.X, Jmag: pt.Y, Kmag: pt.Z}, q.Real))
}

// normalized returns a copy whose rotation is a unit quaternion again. Repeated composition
// accumulates floating point error in the real part; the translation is preserved.
func (q *dualQuaternion) normalized() *dualQuaternion {
	pt := q.Point()
	n := &dualQuaternion{dualquat.Number{Real: Normalize(q.Real)}}
	n.setTranslation(pt)
	return n
}

// transformation multiplies the dual quat contained in this dualQuaternion by another dual quat.
func (q *dualQuaternion) transformation(by dualquat.Number) dualquat.Number {
	return dualquat.Mul(q.Number, by)
}

// inverse returns the rigid transform which undoes q.
func (q *dualQuaternion) inverse() *dualQuaternion {
	return &dualQuaternion{dualquat.Number{
		Real: quat.Conj(q.Real),
		Dual: quat.Conj(q.Dual),
	}}
}

func (q *dualQuaternion) String() string {
	pt := q.Point()
	ea := q.Orientation().EulerAngles()
	return fmt.Sprintf("{X:%.4f Y:%.4f Z:%.4f Roll:%.4f Pitch:%.4f Yaw:%.4f}",
		pt.X, pt.Y, pt.Z, ea.Roll, ea.Pitch, ea.Yaw)
}
