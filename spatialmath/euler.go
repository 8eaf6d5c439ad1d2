package spatialmath

import (
	"math"

	"gonum.org/v1/gonum/num/quat"

	"github.com/fieldbot/lockon/units"
)

// EulerAngles are three angles (in radians) used to represent the rotation of an object in 3D Euclidean space.
// The Tait–Bryan angle formalism is used, with the yaw (z), then pitch (y), then roll (x) rotation order.
type EulerAngles struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// NewEulerAnglesFromUnits builds an EulerAngles from typed angles.
func NewEulerAnglesFromUnits(roll, pitch, yaw units.Angle) *EulerAngles {
	return &EulerAngles{Roll: roll.Radians(), Pitch: pitch.Radians(), Yaw: yaw.Radians()}
}

// EulerAngles returns orientation in Euler angle representation.
func (ea *EulerAngles) EulerAngles() *EulerAngles {
	return ea
}

// Quaternion returns orientation in quaternion representation.
func (ea *EulerAngles) Quaternion() quat.Number {
	cy := math.Cos(ea.Yaw * 0.5)
	sy := math.Sin(ea.Yaw * 0.5)
	cp := math.Cos(ea.Pitch * 0.5)
	sp := math.Sin(ea.Pitch * 0.5)
	cr := math.Cos(ea.Roll * 0.5)
	sr := math.Sin(ea.Roll * 0.5)

	return quat.Number{
		Real: cr*cp*cy + sr*sp*sy,
		Imag: sr*cp*cy - cr*sp*sy,
		Jmag: cr*sp*cy + sr*cp*sy,
		Kmag: cr*cp*sy - sr*sp*cy,
	}
}

// YawAngle returns the yaw component as a typed angle.
func (ea *EulerAngles) YawAngle() units.Angle {
	return units.Radians(ea.Yaw)
}
