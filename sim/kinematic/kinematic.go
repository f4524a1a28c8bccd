// Package kinematic is a physics host without dynamics. Joints follow a prescribed motion and
// link poses come from forward kinematics over the robot description, which is enough to drive
// recorders in demos, replays and tests.
package kinematic

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/simrecord/logging"
	"go.viam.com/simrecord/sim"
	"go.viam.com/simrecord/spatialmath"
	"go.viam.com/simrecord/urdf"
	"go.viam.com/simrecord/utils"
)

// DefaultTimeStep matches the usual 240 Hz physics rate.
const DefaultTimeStep = time.Second / 240

// Motion gives a joint's position at simulated time t.
type Motion func(joint *urdf.Joint, t time.Duration) float64

// SinusoidMotion swings every joint around the middle of its limits.
func SinusoidMotion(amplitude float64, period time.Duration) Motion {
	return func(joint *urdf.Joint, t time.Duration) float64 {
		center, amp := 0.0, amplitude
		if joint.Limits != nil && joint.Type != urdf.ContinuousJoint && joint.Limits.Upper > joint.Limits.Lower {
			center = (joint.Limits.Lower + joint.Limits.Upper) / 2
			amp = math.Min(amp, (joint.Limits.Upper-joint.Limits.Lower)/2)
		}
		return center + amp*math.Sin(2*math.Pi*t.Seconds()/period.Seconds())
	}
}

// Config configures a Host.
type Config struct {
	TimeStep time.Duration
	// Kp and Kd are the gains of the PD torque estimate, which tracks the commanded motion:
	// Kp*(target-q) - Kd*qdot. The P term only acts where a joint limit keeps q off target.
	Kp float64
	Kd float64
}

// BodyOptions configure a body when it is loaded.
type BodyOptions struct {
	Base   spatialmath.Pose
	Motion Motion
}

// Host is a kinematic physics host. It implements sim.Client and sim.Stepper.
type Host struct {
	cfg    Config
	logger logging.Logger
	queue  sim.Queue

	mu      sync.Mutex
	bodies  map[sim.BodyID]*Body
	nextID  sim.BodyID
	elapsed time.Duration
}

// NewHost returns an empty host.
func NewHost(cfg Config, logger logging.Logger) *Host {
	if cfg.TimeStep <= 0 {
		cfg.TimeStep = DefaultTimeStep
	}
	return &Host{cfg: cfg, logger: logger, bodies: map[sim.BodyID]*Body{}}
}

// Body is a robot loaded into a Host.
type Body struct {
	host   *Host
	id     sim.BodyID
	desc   *urdf.Description
	base   spatialmath.Pose
	motion Motion

	// engine link j is links[j]; engine joint j is the joint attaching links[j]
	links   []*urdf.Link
	tracked []int

	q, target, qdot, tau []float64
	world        []spatialmath.Pose // root first, then engine links
	velocity     []sim.Velocity
}

// LoadBody adds a robot to the host. The tracked joints are the actuated ones.
func (h *Host) LoadBody(desc *urdf.Description, opts BodyOptions) (*Body, error) {
	if desc == nil {
		return nil, errors.New("cannot load a body without a description")
	}
	if opts.Base == nil {
		opts.Base = spatialmath.NewZeroPose()
	}
	if opts.Motion == nil {
		opts.Motion = SinusoidMotion(0.5, 4*time.Second)
	}
	links := desc.Links()[1:]
	b := &Body{
		host:   h,
		desc:   desc,
		base:   opts.Base,
		motion: opts.Motion,
		links:  links,
		q:      make([]float64, len(links)),
		target: make([]float64, len(links)),
		qdot:   make([]float64, len(links)),
		tau:    make([]float64, len(links)),
	}
	for j, l := range links {
		if l.Joint.Actuated() {
			b.tracked = append(b.tracked, j)
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	b.id = h.nextID
	b.update(h.elapsed, 0, h.cfg)
	h.bodies[b.id] = b
	h.logger.Debugw("loaded body", "body", b.id, "robot", desc.Name(), "links", len(links)+1, "tracked_joints", len(b.tracked))
	return b, nil
}

// RemoveBody deletes a body. Later queries for it fail with sim.ErrBodyNotFound.
func (h *Host) RemoveBody(id sim.BodyID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.bodies[id]
	delete(h.bodies, id)
	return ok
}

// Elapsed returns the simulated time.
func (h *Host) Elapsed() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.elapsed
}

// Step advances every body by one time step and then runs the step callbacks.
func (h *Host) Step(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.mu.Lock()
	h.elapsed += h.cfg.TimeStep
	for _, b := range h.bodies {
		b.update(h.elapsed, h.cfg.TimeStep, h.cfg)
	}
	h.mu.Unlock()
	return h.queue.Step(ctx, h)
}

// update recomputes the body state at time t. dt is zero for the initial state.
func (b *Body) update(t, dt time.Duration, cfg Config) {
	joints := make(map[string]float64, len(b.tracked))
	prevQ := make([]float64, len(b.q))
	copy(prevQ, b.q)
	for _, j := range b.tracked {
		joint := b.links[j].Joint
		q := b.motion(joint, t)
		b.target[j] = q
		if joint.Limits != nil && joint.Type != urdf.ContinuousJoint && joint.Limits.Upper > joint.Limits.Lower {
			q = utils.Clamp(q, joint.Limits.Lower, joint.Limits.Upper)
		}
		b.q[j] = q
		joints[joint.Name] = q
	}

	poses := b.desc.WorldPoses(b.base, joints)
	world := make([]spatialmath.Pose, 0, len(b.links)+1)
	world = append(world, poses[b.desc.Root().Name])
	for _, l := range b.links {
		world = append(world, poses[l.Name])
	}

	velocity := make([]sim.Velocity, len(world))
	if dt > 0 && b.world != nil {
		secs := dt.Seconds()
		for i := range world {
			velocity[i] = finiteDifference(b.world[i], world[i], secs)
		}
		for _, j := range b.tracked {
			qdot := (b.q[j] - prevQ[j]) / secs
			tau := cfg.Kp*(b.target[j]-b.q[j]) - cfg.Kd*qdot
			if lim := b.links[j].Joint.Limits; lim != nil && lim.Effort > 0 {
				tau = utils.Clamp(tau, -lim.Effort, lim.Effort)
			}
			b.qdot[j] = qdot
			b.tau[j] = tau
		}
	}
	b.world = world
	b.velocity = velocity
}

func finiteDifference(from, to spatialmath.Pose, secs float64) sim.Velocity {
	linear := to.Point().Sub(from.Point()).Mul(1 / secs)
	dq := spatialmath.Normalize(quat.Mul(to.Orientation().Quaternion(), quat.Conj(from.Orientation().Quaternion())))
	if dq.Real < 0 {
		dq = quat.Scale(-1, dq)
	}
	aa := spatialmath.QuatToR4AA(dq)
	angular := r3.Vector{X: aa.RX, Y: aa.RY, Z: aa.RZ}.Mul(aa.Theta / secs)
	return spatialmath.NewVelocity(linear, angular)
}

func (h *Host) body(id sim.BodyID) (*Body, error) {
	b, ok := h.bodies[id]
	if !ok {
		return nil, errors.Wrapf(sim.ErrBodyNotFound, "body %d", id)
	}
	return b, nil
}

// JointStates implements sim.Client.
func (h *Host) JointStates(ctx context.Context, id sim.BodyID, jointIndices []int) ([]sim.JointState, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	b, err := h.body(id)
	if err != nil {
		return nil, err
	}
	states := make([]sim.JointState, 0, len(jointIndices))
	for _, j := range jointIndices {
		if j < 0 || j >= len(b.q) {
			return nil, errors.Wrapf(sim.ErrJointIndexOutOfRange, "joint %d of body %d", j, id)
		}
		states = append(states, sim.JointState{Position: b.q[j], Velocity: b.qdot[j], MotorTorque: b.tau[j]})
	}
	return states, nil
}

// BasePositionAndOrientation implements sim.Client.
func (h *Host) BasePositionAndOrientation(ctx context.Context, id sim.BodyID) (spatialmath.Pose, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	b, err := h.body(id)
	if err != nil {
		return nil, err
	}
	return b.world[0], nil
}

// BaseVelocity implements sim.Client.
func (h *Host) BaseVelocity(ctx context.Context, id sim.BodyID) (sim.Velocity, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	b, err := h.body(id)
	if err != nil {
		return sim.Velocity{}, err
	}
	return b.velocity[0], nil
}

// LinkState implements sim.Client.
func (h *Host) LinkState(
	ctx context.Context,
	id sim.BodyID,
	linkIndex int,
	computeVelocity, computeForwardKinematics bool,
) (sim.LinkState, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	b, err := h.body(id)
	if err != nil {
		return sim.LinkState{}, err
	}
	if linkIndex < 0 || linkIndex >= len(b.links) {
		return sim.LinkState{}, errors.Wrapf(sim.ErrLinkIndexOutOfRange, "link %d of body %d", linkIndex, id)
	}
	state := sim.LinkState{WorldLinkFrame: b.world[linkIndex+1]}
	if computeVelocity {
		v := b.velocity[linkIndex+1]
		state.WorldVelocity = &v
	}
	return state, nil
}

// BodyID implements sim.Body.
func (b *Body) BodyID() sim.BodyID {
	return b.id
}

// JointIndices implements sim.Body.
func (b *Body) JointIndices() []int {
	out := make([]int, len(b.tracked))
	copy(out, b.tracked)
	return out
}

// Enqueue implements sim.Body.
func (b *Body) Enqueue(fn sim.StepFunc) (sim.CallbackID, error) {
	return b.host.queue.Enqueue(fn)
}

// Dequeue implements sim.Body.
func (b *Body) Dequeue(id sim.CallbackID) bool {
	return b.host.queue.Dequeue(id)
}

// Description returns the description the body was loaded from.
func (b *Body) Description() *urdf.Description {
	return b.desc
}
