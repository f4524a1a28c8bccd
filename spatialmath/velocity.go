package spatialmath

import "github.com/golang/geo/r3"

// Velocity is a six component spatial velocity: linear x, y, z (m/s) followed by angular
// x, y, z (rad/s), matching the layout physics engines report for base and link velocities.
type Velocity [6]float64

// NewVelocity assembles a Velocity from its linear and angular parts.
func NewVelocity(linear, angular r3.Vector) Velocity {
	return Velocity{linear.X, linear.Y, linear.Z, angular.X, angular.Y, angular.Z}
}

// Linear returns the linear component.
func (v Velocity) Linear() r3.Vector {
	return r3.Vector{X: v[0], Y: v[1], Z: v[2]}
}

// Angular returns the angular component.
func (v Velocity) Angular() r3.Vector {
	return r3.Vector{X: v[3], Y: v[4], Z: v[5]}
}

// Slice returns the components as a fresh slice.
func (v Velocity) Slice() []float64 {
	out := make([]float64, len(v))
	copy(out, v[:])
	return out
}
