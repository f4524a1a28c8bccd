package spatialmath

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// EulerAngles are three angles (in radians) used to represent the rotation of an object in 3D
// Euclidean space. They follow the URDF "rpy" convention: a roll about the fixed X axis, then a
// pitch about fixed Y, then a yaw about fixed Z.
type EulerAngles struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// NewEulerAngles creates an empty EulerAngles struct.
func NewEulerAngles() *EulerAngles {
	return &EulerAngles{}
}

// EulerAngles returns orientation in Euler angle representation.
func (ea *EulerAngles) EulerAngles() *EulerAngles {
	return ea
}

// Quaternion returns orientation in quaternion representation.
func (ea *EulerAngles) Quaternion() quat.Number {
	cr, sr := math.Cos(ea.Roll/2), math.Sin(ea.Roll/2)
	cp, sp := math.Cos(ea.Pitch/2), math.Sin(ea.Pitch/2)
	cy, sy := math.Cos(ea.Yaw/2), math.Sin(ea.Yaw/2)

	return quat.Number{
		Real: cr*cp*cy + sr*sp*sy,
		Imag: sr*cp*cy - cr*sp*sy,
		Jmag: cr*sp*cy + sr*cp*sy,
		Kmag: cr*cp*sy - sr*sp*cy,
	}
}

// AxisAngles returns the orientation in axis angle representation.
func (ea *EulerAngles) AxisAngles() *R4AA {
	return QuatToR4AA(ea.Quaternion())
}
