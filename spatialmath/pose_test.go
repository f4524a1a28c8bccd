package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestComposeAndInverse(t *testing.T) {
	a := NewPose(r3.Vector{X: 1, Y: 2, Z: 3}, &EulerAngles{Yaw: math.Pi / 2})
	b := NewPose(r3.Vector{X: 1}, &EulerAngles{Roll: 0.3})

	ab := Compose(a, b)
	// x axis of b rotated by a's 90 degree yaw lands on +y.
	test.That(t, R3VectorAlmostEqual(ab.Point(), r3.Vector{X: 1, Y: 3, Z: 3}, 1e-9), test.ShouldBeTrue)

	identity := Compose(a, PoseInverse(a))
	test.That(t, PoseAlmostEqual(identity, NewZeroPose()), test.ShouldBeTrue)

	test.That(t, PoseAlmostEqual(Compose(a, PoseBetween(a, ab)), ab), test.ShouldBeTrue)
	test.That(t, PoseAlmostEqual(PoseBetween(a, ab), b), test.ShouldBeTrue)
}

func TestNilOrientation(t *testing.T) {
	p := NewPose(r3.Vector{Z: 1}, nil)
	test.That(t, OrientationAlmostEqual(p.Orientation(), NewZeroOrientation()), test.ShouldBeTrue)
}

func TestEulerRoundTrip(t *testing.T) {
	for _, ea := range []EulerAngles{
		{Roll: 0.1, Pitch: 0.2, Yaw: 0.3},
		{Roll: -1.2, Pitch: 0.5, Yaw: 2.9},
		{},
	} {
		q := Quaternion(ea.Quaternion())
		back := q.EulerAngles()
		test.That(t, back.Roll, test.ShouldAlmostEqual, ea.Roll)
		test.That(t, back.Pitch, test.ShouldAlmostEqual, ea.Pitch)
		test.That(t, back.Yaw, test.ShouldAlmostEqual, ea.Yaw)
	}
}

func TestAxisAngle(t *testing.T) {
	aa := NewR4AAFromAxis(math.Pi/2, r3.Vector{Z: 2})
	v := RotateVector(aa.Quaternion(), r3.Vector{X: 1})
	test.That(t, R3VectorAlmostEqual(v, r3.Vector{Y: 1}, 1e-9), test.ShouldBeTrue)

	back := QuatToR4AA(aa.Quaternion())
	test.That(t, back.Theta, test.ShouldAlmostEqual, math.Pi/2)
	test.That(t, back.RZ, test.ShouldAlmostEqual, 1)

	zero := NewR4AAFromAxis(1, r3.Vector{})
	test.That(t, OrientationAlmostEqual(zero, NewZeroOrientation()), test.ShouldBeTrue)
}

func TestQuaternionSignAmbiguity(t *testing.T) {
	q := NewQuaternion(0.5, 0.5, 0.5, 0.5)
	neg := NewQuaternion(-0.5, -0.5, -0.5, -0.5)
	test.That(t, OrientationAlmostEqual(q, neg), test.ShouldBeTrue)
	test.That(t, q.XYZW(), test.ShouldResemble, [4]float64{0.5, 0.5, 0.5, 0.5})
}

func TestVelocity(t *testing.T) {
	v := NewVelocity(r3.Vector{X: 1, Y: 2, Z: 3}, r3.Vector{X: 4, Y: 5, Z: 6})
	test.That(t, v.Linear(), test.ShouldResemble, r3.Vector{X: 1, Y: 2, Z: 3})
	test.That(t, v.Angular(), test.ShouldResemble, r3.Vector{X: 4, Y: 5, Z: 6})
	s := v.Slice()
	s[0] = 100
	test.That(t, v[0], test.ShouldEqual, 1.0)
}
