// Package sim defines the contract between a physics host and the code that records it: state
// queries, per-body step callbacks, and a fixed-rate step loop.
package sim

import (
	"context"

	"github.com/pkg/errors"

	"go.viam.com/simrecord/spatialmath"
)

var (
	// ErrBodyNotFound is returned when a query names a body the host does not know.
	ErrBodyNotFound = errors.New("body not found")
	// ErrLinkIndexOutOfRange is returned for a link index the body does not have.
	ErrLinkIndexOutOfRange = errors.New("link index out of range")
	// ErrJointIndexOutOfRange is returned for a joint index the body does not have.
	ErrJointIndexOutOfRange = errors.New("joint index out of range")
	// ErrVelocityUnavailable is returned when the host cannot report a velocity.
	ErrVelocityUnavailable = errors.New("velocity unavailable")
)

// Velocity is a linear plus angular world velocity.
type Velocity = spatialmath.Velocity

// JointState is the state of one joint after a step.
type JointState struct {
	Position    float64
	Velocity    float64
	MotorTorque float64
}

// LinkState is the world state of one link.
type LinkState struct {
	WorldLinkFrame spatialmath.Pose
	// WorldVelocity is nil when it was not requested or the host could not compute it.
	WorldVelocity *Velocity
}

// BodyID identifies a body loaded in the host.
type BodyID int

// Client queries the state of a physics host.
type Client interface {
	// JointStates returns one state per index, in the order given.
	JointStates(ctx context.Context, body BodyID, jointIndices []int) ([]JointState, error)
	BasePositionAndOrientation(ctx context.Context, body BodyID) (spatialmath.Pose, error)
	BaseVelocity(ctx context.Context, body BodyID) (Velocity, error)
	// LinkState returns the state of a non-root link; link index 0 is the first child of the base.
	LinkState(ctx context.Context, body BodyID, linkIndex int, computeVelocity, computeForwardKinematics bool) (LinkState, error)
}

// StepFunc is called by the host after every simulation step. Returning detach removes it from
// the host's queue.
type StepFunc func(ctx context.Context, client Client) (detach bool, err error)

// CallbackID identifies an enqueued StepFunc.
type CallbackID uint64

// Body is one simulated body together with the step queue of its host.
type Body interface {
	BodyID() BodyID
	// JointIndices are the engine joints tracked for this body, fixed at load.
	JointIndices() []int
	Enqueue(fn StepFunc) (CallbackID, error)
	Dequeue(id CallbackID) bool
}

// Stepper advances a simulation by one step.
type Stepper interface {
	Step(ctx context.Context) error
}
