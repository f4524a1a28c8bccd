package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// R4AA represents an R4 axis angle: a unit axis and a rotation in radians about it.
type R4AA struct {
	Theta float64 `json:"th"`
	RX    float64 `json:"x"`
	RY    float64 `json:"y"`
	RZ    float64 `json:"z"`
}

// NewR4AA creates an empty R4AA struct.
func NewR4AA() *R4AA {
	return &R4AA{Theta: 0, RX: 1, RY: 0, RZ: 0}
}

// NewR4AAFromAxis builds an axis angle from an arbitrary (not necessarily unit) axis. A zero axis
// yields no rotation.
func NewR4AAFromAxis(theta float64, axis r3.Vector) *R4AA {
	if axis.Norm() == 0 {
		return NewR4AA()
	}
	n := axis.Normalize()
	return &R4AA{Theta: theta, RX: n.X, RY: n.Y, RZ: n.Z}
}

// AxisAngles returns the orientation in axis angle representation.
func (r4 *R4AA) AxisAngles() *R4AA {
	return r4
}

// Quaternion returns orientation in quaternion representation.
func (r4 *R4AA) Quaternion() quat.Number {
	sinA := math.Sin(r4.Theta / 2)
	return Normalize(quat.Number{
		Real: math.Cos(r4.Theta / 2),
		Imag: r4.RX * sinA,
		Jmag: r4.RY * sinA,
		Kmag: r4.RZ * sinA,
	})
}

// EulerAngles returns orientation in Euler angle representation.
func (r4 *R4AA) EulerAngles() *EulerAngles {
	q := Quaternion(r4.Quaternion())
	return q.EulerAngles()
}

// QuatToR4AA converts a quat to an R4 axis angle in the same way the C++ Eigen library does.
// https://eigen.tuxfamily.org/dox/AngleAxis_8h_source.html
func QuatToR4AA(q quat.Number) *R4AA {
	denom := math.Sqrt(q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag)

	angle := 2 * math.Atan2(denom, math.Abs(q.Real))
	if q.Real < 0 {
		angle *= -1
	}

	if denom < 1e-6 {
		return &R4AA{angle, 1, 0, 0}
	}
	return &R4AA{angle, q.Imag / denom, q.Jmag / denom, q.Kmag / denom}
}
