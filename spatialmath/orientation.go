package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Orientation is an interface used to express the different parameterizations of the orientation
// of a rigid object or a frame of reference in 3D Euclidean space.
type Orientation interface {
	Quaternion() quat.Number
	EulerAngles() *EulerAngles
	AxisAngles() *R4AA
}

// NewZeroOrientation returns an orientation which signifies no rotation.
func NewZeroOrientation() Orientation {
	return &Quaternion{Real: 1}
}

// OrientationAlmostEqual will return a bool describing whether 2 poses have approximately the same orientation.
func OrientationAlmostEqual(o1, o2 Orientation) bool {
	return QuaternionAlmostEqual(o1.Quaternion(), o2.Quaternion(), 1e-5)
}

// QuaternionAlmostEqual compares two quaternions, treating q and -q as the same rotation.
func QuaternionAlmostEqual(a, b quat.Number, tol float64) bool {
	same := abs(a.Real-b.Real) < tol && abs(a.Imag-b.Imag) < tol &&
		abs(a.Jmag-b.Jmag) < tol && abs(a.Kmag-b.Kmag) < tol
	flipped := abs(a.Real+b.Real) < tol && abs(a.Imag+b.Imag) < tol &&
		abs(a.Jmag+b.Jmag) < tol && abs(a.Kmag+b.Kmag) < tol
	return same || flipped
}

// Normalize scales a quaternion to unit length. The zero quaternion becomes the identity.
func Normalize(q quat.Number) quat.Number {
	norm := quat.Abs(q)
	if norm == 0 {
		return quat.Number{Real: 1}
	}
	return quat.Scale(1/norm, q)
}

// RotateVector rotates v by the unit quaternion q.
func RotateVector(q quat.Number, v r3.Vector) r3.Vector {
	rotated := quat.Mul(quat.Mul(q, quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}), quat.Conj(q))
	return r3.Vector{X: rotated.Imag, Y: rotated.Jmag, Z: rotated.Kmag}
}

// Quaternion is an orientation expressed as a gonum quaternion. Real is the scalar (w) part.
type Quaternion quat.Number

// NewQuaternion builds an orientation from w, x, y, z components. The result is normalized.
func NewQuaternion(w, x, y, z float64) *Quaternion {
	q := Quaternion(Normalize(quat.Number{Real: w, Imag: x, Jmag: y, Kmag: z}))
	return &q
}

// Quaternion returns orientation in quaternion representation.
func (q *Quaternion) Quaternion() quat.Number {
	return quat.Number(*q)
}

// EulerAngles returns orientation in fixed-axis roll, pitch, yaw representation.
func (q *Quaternion) EulerAngles() *EulerAngles {
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag

	sinPitch := 2 * (w*y - z*x)
	if sinPitch > 1 {
		sinPitch = 1
	} else if sinPitch < -1 {
		sinPitch = -1
	}
	return &EulerAngles{
		Roll:  math.Atan2(2*(w*x+y*z), 1-2*(x*x+y*y)),
		Pitch: math.Asin(sinPitch),
		Yaw:   math.Atan2(2*(w*z+x*y), 1-2*(y*y+z*z)),
	}
}

// AxisAngles returns the orientation in axis angle representation.
func (q *Quaternion) AxisAngles() *R4AA {
	return QuatToR4AA(quat.Number(*q))
}

// XYZW returns the components in the x, y, z, w order most viewers expect.
func (q *Quaternion) XYZW() [4]float64 {
	return [4]float64{q.Imag, q.Jmag, q.Kmag, q.Real}
}
