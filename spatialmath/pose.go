// Package spatialmath defines the rigid transforms, orientations and spatial velocities that flow
// from a physics host into a recording.
package spatialmath

import (
	"fmt"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Pose represents a 6dof pose, position and orientation, with respect to the origin. Positions
// are in meters.
type Pose interface {
	Point() r3.Vector
	Orientation() Orientation
}

type pose struct {
	point       r3.Vector
	orientation quat.Number
}

// NewZeroPose returns a pose at (0,0,0) with same orientation as whatever frame it is placed in.
func NewZeroPose() Pose {
	return &pose{orientation: quat.Number{Real: 1}}
}

// NewPose takes in a position and orientation and returns a Pose. A nil orientation means no
// rotation.
func NewPose(p r3.Vector, o Orientation) Pose {
	if o == nil {
		return NewPoseFromPoint(p)
	}
	return &pose{point: p, orientation: Normalize(o.Quaternion())}
}

// NewPoseFromPoint takes in a cartesian (x,y,z) and stores it as a vector.
// It will have the same orientation as the frame it is in.
func NewPoseFromPoint(point r3.Vector) Pose {
	return &pose{point: point, orientation: quat.Number{Real: 1}}
}

func (p *pose) Point() r3.Vector {
	return p.point
}

func (p *pose) Orientation() Orientation {
	q := Quaternion(p.orientation)
	return &q
}

func (p *pose) String() string {
	ea := p.Orientation().EulerAngles()
	return fmt.Sprintf("{X:%.4f Y:%.4f Z:%.4f Roll:%.4f Pitch:%.4f Yaw:%.4f}",
		p.point.X, p.point.Y, p.point.Z, ea.Roll, ea.Pitch, ea.Yaw)
}

// Compose takes two poses, converts them to transforms and multiplies them together (a * b),
// i.e. expresses b, given in a's frame, in the frame a is expressed in.
func Compose(a, b Pose) Pose {
	aq := a.Orientation().Quaternion()
	return &pose{
		point:       a.Point().Add(RotateVector(aq, b.Point())),
		orientation: Normalize(quat.Mul(aq, b.Orientation().Quaternion())),
	}
}

// PoseInverse returns the inverse of a pose.
func PoseInverse(p Pose) Pose {
	inv := quat.Conj(Normalize(p.Orientation().Quaternion()))
	return &pose{
		point:       RotateVector(inv, p.Point()).Mul(-1),
		orientation: inv,
	}
}

// PoseBetween returns the transformation between two poses, a⁻¹·b, so that
// Compose(a, PoseBetween(a, b)) == b.
func PoseBetween(a, b Pose) Pose {
	return Compose(PoseInverse(a), b)
}

// PoseAlmostEqual will return a bool describing whether 2 poses are approximately the same.
func PoseAlmostEqual(a, b Pose) bool {
	return PoseAlmostEqualEps(a, b, 1e-6)
}

// PoseAlmostEqualEps will return a bool describing whether 2 poses are approximately the same
// within the given translation epsilon.
func PoseAlmostEqualEps(a, b Pose, epsilon float64) bool {
	return R3VectorAlmostEqual(a.Point(), b.Point(), epsilon) &&
		OrientationAlmostEqual(a.Orientation(), b.Orientation())
}

// R3VectorAlmostEqual compares two r3.Vector objects and returns if the all elementwise
// differences are less than epsilon.
func R3VectorAlmostEqual(a, b r3.Vector, epsilon float64) bool {
	d := a.Sub(b)
	return abs(d.X) < epsilon && abs(d.Y) < epsilon && abs(d.Z) < epsilon
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
