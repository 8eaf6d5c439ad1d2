// Package units defines typed physical quantities so that angles, lengths and
// velocities can never be mixed up silently. Every value is stored in SI units
// and only enters or leaves the type through a named constructor or accessor.
package units

import (
	"fmt"
	"math"
)

// Angle is a planar angle, stored in radians.
type Angle float64

// Radians returns an Angle of r radians.
func Radians(r float64) Angle {
	return Angle(r)
}

// Degrees returns an Angle of d degrees.
func Degrees(d float64) Angle {
	return Angle(d * math.Pi / 180)
}

// Radians returns the angle in radians.
func (a Angle) Radians() float64 {
	return float64(a)
}

// Degrees returns the angle in degrees.
func (a Angle) Degrees() float64 {
	return float64(a) * 180 / math.Pi
}

// Normalize wraps the angle into (-π, π].
func (a Angle) Normalize() Angle {
	r := math.Mod(float64(a), 2*math.Pi)
	if r <= -math.Pi {
		r += 2 * math.Pi
	} else if r > math.Pi {
		r -= 2 * math.Pi
	}
	return Angle(r)
}

// Abs returns the magnitude of the angle.
func (a Angle) Abs() Angle {
	return Angle(math.Abs(float64(a)))
}

func (a Angle) String() string {
	return fmt.Sprintf("%.4frad", float64(a))
}

// Distance is a length, stored in meters.
type Distance float64

// Meters returns a Distance of m meters.
func Meters(m float64) Distance {
	return Distance(m)
}

// Millimeters returns a Distance of mm millimeters.
func Millimeters(mm float64) Distance {
	return Distance(mm / 1000)
}

// Inches returns a Distance of in inches.
func Inches(in float64) Distance {
	return Distance(in * 0.0254)
}

// Meters returns the distance in meters.
func (d Distance) Meters() float64 {
	return float64(d)
}

// Millimeters returns the distance in millimeters.
func (d Distance) Millimeters() float64 {
	return float64(d) * 1000
}

// Inches returns the distance in inches.
func (d Distance) Inches() float64 {
	return float64(d) / 0.0254
}

func (d Distance) String() string {
	return fmt.Sprintf("%.4fm", float64(d))
}

// LinearVelocity is a speed, stored in meters per second.
type LinearVelocity float64

// MetersPerSecond returns a LinearVelocity of v m/s.
func MetersPerSecond(v float64) LinearVelocity {
	return LinearVelocity(v)
}

// FeetPerSecond returns a LinearVelocity of v ft/s.
func FeetPerSecond(v float64) LinearVelocity {
	return LinearVelocity(v * 0.3048)
}

// MetersPerSecond returns the velocity in m/s.
func (v LinearVelocity) MetersPerSecond() float64 {
	return float64(v)
}

// FeetPerSecond returns the velocity in ft/s.
func (v LinearVelocity) FeetPerSecond() float64 {
	return float64(v) / 0.3048
}

// Over returns the distance covered at this velocity over dt seconds.
func (v LinearVelocity) Over(seconds float64) Distance {
	return Distance(float64(v) * seconds)
}

func (v LinearVelocity) String() string {
	return fmt.Sprintf("%.4fm/s", float64(v))
}

// AngularVelocity is a rotation rate, stored in radians per second.
type AngularVelocity float64

// RadiansPerSecond returns an AngularVelocity of w rad/s.
func RadiansPerSecond(w float64) AngularVelocity {
	return AngularVelocity(w)
}

// DegreesPerSecond returns an AngularVelocity of w deg/s.
func DegreesPerSecond(w float64) AngularVelocity {
	return AngularVelocity(w * math.Pi / 180)
}

// RPM returns an AngularVelocity of w revolutions per minute.
func RPM(w float64) AngularVelocity {
	return AngularVelocity(w * 2 * math.Pi / 60)
}

// RadiansPerSecond returns the rate in rad/s.
func (w AngularVelocity) RadiansPerSecond() float64 {
	return float64(w)
}

// DegreesPerSecond returns the rate in deg/s.
func (w AngularVelocity) DegreesPerSecond() float64 {
	return float64(w) * 180 / math.Pi
}

// RPM returns the rate in revolutions per minute.
func (w AngularVelocity) RPM() float64 {
	return float64(w) * 60 / (2 * math.Pi)
}

// Over returns the angle swept at this rate over dt seconds.
func (w AngularVelocity) Over(seconds float64) Angle {
	return Angle(float64(w) * seconds)
}

func (w AngularVelocity) String() string {
	return fmt.Sprintf("%.4frad/s", float64(w))
}

// WheelSpeedToRotation converts the tangential speed of a point on a wheel's
// circumference into the wheel's rotation rate.
func WheelSpeedToRotation(speed LinearVelocity, radius Distance) AngularVelocity {
	return AngularVelocity(speed.MetersPerSecond() / radius.Meters())
}

// WheelRotationToSpeed converts a wheel's rotation rate into the tangential
// speed of a point on its circumference.
func WheelRotationToSpeed(rate AngularVelocity, radius Distance) LinearVelocity {
	return LinearVelocity(rate.RadiansPerSecond() * radius.Meters())
}
