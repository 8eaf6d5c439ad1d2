package spatialmath

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

type quaternion quat.Number

// NewQuaternion returns an orientation backed by the given quaternion after normalizing it.
func NewQuaternion(q quat.Number) Orientation {
	n := quaternion(Normalize(q))
	return &n
}

// Quaternion returns orientation in quaternion representation.
func (q *quaternion) Quaternion() quat.Number {
	return quat.Number(*q)
}

// EulerAngles converts the quaternion to roll, pitch, yaw using the ZYX (yaw, then pitch, then roll)
// convention. See https://en.wikipedia.org/wiki/Conversion_between_quaternions_and_Euler_angles
func (q *quaternion) EulerAngles() *EulerAngles {
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag

	roll := math.Atan2(2*(w*x+y*z), 1-2*(x*x+y*y))

	sinp := 2 * (w*y - z*x)
	var pitch float64
	// use 90 degrees if out of range
	if math.Abs(sinp) >= 1 {
		pitch = math.Copysign(math.Pi/2, sinp)
	} else {
		pitch = math.Asin(sinp)
	}

	yaw := math.Atan2(2*(w*z+x*y), 1-2*(y*y+z*z))

	return &EulerAngles{Roll: roll, Pitch: pitch, Yaw: yaw}
}
