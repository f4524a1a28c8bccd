package inject

import (
	"context"

	"go.viam.com/simrecord/sim"
	"go.viam.com/simrecord/spatialmath"
)

// SimClient is an injected physics host client.
type SimClient struct {
	sim.Client
	JointStatesFunc                func(ctx context.Context, body sim.BodyID, jointIndices []int) ([]sim.JointState, error)
	BasePositionAndOrientationFunc func(ctx context.Context, body sim.BodyID) (spatialmath.Pose, error)
	BaseVelocityFunc               func(ctx context.Context, body sim.BodyID) (sim.Velocity, error)
	LinkStateFunc                  func(
		ctx context.Context, body sim.BodyID, linkIndex int, computeVelocity, computeForwardKinematics bool,
	) (sim.LinkState, error)
}

// JointStates calls the injected JointStatesFunc or the real version.
func (c *SimClient) JointStates(ctx context.Context, body sim.BodyID, jointIndices []int) ([]sim.JointState, error) {
	if c.JointStatesFunc == nil {
		return c.Client.JointStates(ctx, body, jointIndices)
	}
	return c.JointStatesFunc(ctx, body, jointIndices)
}

// BasePositionAndOrientation calls the injected BasePositionAndOrientationFunc or the real version.
func (c *SimClient) BasePositionAndOrientation(ctx context.Context, body sim.BodyID) (spatialmath.Pose, error) {
	if c.BasePositionAndOrientationFunc == nil {
		return c.Client.BasePositionAndOrientation(ctx, body)
	}
	return c.BasePositionAndOrientationFunc(ctx, body)
}

// BaseVelocity calls the injected BaseVelocityFunc or the real version.
func (c *SimClient) BaseVelocity(ctx context.Context, body sim.BodyID) (sim.Velocity, error) {
	if c.BaseVelocityFunc == nil {
		return c.Client.BaseVelocity(ctx, body)
	}
	return c.BaseVelocityFunc(ctx, body)
}

// LinkState calls the injected LinkStateFunc or the real version.
func (c *SimClient) LinkState(
	ctx context.Context, body sim.BodyID, linkIndex int, computeVelocity, computeForwardKinematics bool,
) (sim.LinkState, error) {
	if c.LinkStateFunc == nil {
		return c.Client.LinkState(ctx, body, linkIndex, computeVelocity, computeForwardKinematics)
	}
	return c.LinkStateFunc(ctx, body, linkIndex, computeVelocity, computeForwardKinematics)
}

// Body is an injected simulated body.
type Body struct {
	sim.Body
	BodyIDFunc       func() sim.BodyID
	JointIndicesFunc func() []int
	EnqueueFunc      func(fn sim.StepFunc) (sim.CallbackID, error)
	DequeueFunc      func(id sim.CallbackID) bool
}

// BodyID calls the injected BodyIDFunc or the real version.
func (b *Body) BodyID() sim.BodyID {
	if b.BodyIDFunc == nil {
		return b.Body.BodyID()
	}
	return b.BodyIDFunc()
}

// JointIndices calls the injected JointIndicesFunc or the real version.
func (b *Body) JointIndices() []int {
	if b.JointIndicesFunc == nil {
		return b.Body.JointIndices()
	}
	return b.JointIndicesFunc()
}

// Enqueue calls the injected EnqueueFunc or the real version.
func (b *Body) Enqueue(fn sim.StepFunc) (sim.CallbackID, error) {
	if b.EnqueueFunc == nil {
		return b.Body.Enqueue(fn)
	}
	return b.EnqueueFunc(fn)
}

// Dequeue calls the injected DequeueFunc or the real version.
func (b *Body) Dequeue(id sim.CallbackID) bool {
	if b.DequeueFunc == nil {
		return b.Body.Dequeue(id)
	}
	return b.DequeueFunc(id)
}
