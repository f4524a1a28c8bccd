package recorder

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"go.viam.com/simrecord/logging"
	"go.viam.com/simrecord/recording"
	"go.viam.com/simrecord/sim"
	"go.viam.com/simrecord/spatialmath"
	"go.viam.com/simrecord/urdf"
)

// TimelineRealtime is the sequence timeline frames are recorded on.
const TimelineRealtime = "realtime"

type attachState int

const (
	stateNew attachState = iota
	stateAttached
	stateDetached
)

// Robot records one robot instance. It logs a frame after every step of the body it is attached
// to. Detaching is final.
type Robot struct {
	name         string
	prefix       string
	desc         *urdf.Description
	stream       *recording.Stream
	logger       logging.Logger
	baseFixed    bool
	linkVelocity bool

	frame atomic.Uint64
	// serializes frames
	stepMu sync.Mutex

	mu       sync.Mutex
	state    attachState
	body     sim.Body
	callback sim.CallbackID
	bodyID   sim.BodyID
	joints   []int
}

// Name returns the robot instance name.
func (r *Robot) Name() string {
	return r.name
}

// Prefix returns the entity path every channel of the robot is logged under.
func (r *Robot) Prefix() string {
	return r.prefix
}

// Description returns the loaded robot description.
func (r *Robot) Description() *urdf.Description {
	return r.desc
}

// BaseFixed reports the base-fixed flag the robot was built with.
func (r *Robot) BaseFixed() bool {
	return r.baseFixed
}

// Frame returns the index the next frame will be logged at.
func (r *Robot) Frame() uint64 {
	return r.frame.Load()
}

// Attached reports whether the robot is subscribed to a body's steps.
func (r *Robot) Attached() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == stateAttached
}

// AttachTo subscribes the robot to body's step queue. The body id and tracked joint indices are
// captured now.
func (r *Robot) AttachTo(ctx context.Context, body sim.Body) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch r.state {
	case stateAttached:
		return ErrAlreadyAttached
	case stateDetached:
		return ErrDetached
	case stateNew:
	}

	bodyID := body.BodyID()
	joints := append([]int(nil), body.JointIndices()...)
	id, err := body.Enqueue(func(ctx context.Context, client sim.Client) (bool, error) {
		return r.onStep(ctx, client)
	})
	if err != nil {
		return errors.Wrapf(err, "failed to attach robot %q to body %d", r.name, bodyID)
	}
	r.state = stateAttached
	r.body = body
	r.callback = id
	r.bodyID = bodyID
	r.joints = joints
	r.logger.CDebugw(ctx, "robot attached", "body", bodyID, "joints", joints)
	return nil
}

// Detach unsubscribes the robot. It reports whether the robot was attached.
func (r *Robot) Detach() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	wasAttached := r.state == stateAttached
	if wasAttached {
		r.body.Dequeue(r.callback)
		r.body = nil
	}
	r.state = stateDetached
	return wasAttached
}

// Close detaches the robot and releases its handle on the recording session.
func (r *Robot) Close() error {
	r.Detach()
	return r.stream.Close()
}

func (r *Robot) target() (sim.BodyID, []int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch r.state {
	case stateNew:
		return 0, nil, ErrNotAttached
	case stateDetached:
		return 0, nil, ErrDetached
	case stateAttached:
	}
	return r.bodyID, r.joints, nil
}

func (r *Robot) onStep(ctx context.Context, client sim.Client) (bool, error) {
	err := r.Step(ctx, client)
	if errors.Is(err, ErrDetached) {
		return true, nil
	}
	return false, err
}

type pending struct {
	path string
	data recording.Archetype
}

// Step records one frame from client for the attached body: joint scalars, base and link
// velocities on cartesian_vel, and one transform per link. If the joint states, the base pose or
// any link pose cannot be fetched, a *FrameError is returned, nothing is logged and the frame
// counter does not advance. Velocities are optional. Once emission has started the counter
// advances even if a write fails, so a frame index is never logged twice; emission stops at the
// first failed write.
func (r *Robot) Step(ctx context.Context, client sim.Client) error {
	bodyID, joints, err := r.target()
	if err != nil {
		return err
	}
	r.stepMu.Lock()
	defer r.stepMu.Unlock()
	frame := r.frame.Load()

	states, err := client.JointStates(ctx, bodyID, joints)
	if err != nil {
		return &FrameError{Frame: frame, Stage: StageJointStates, Err: err}
	}
	logs := make([]pending, 0, 3*len(states)+1)
	for i, s := range states {
		logs = append(logs,
			pending{fmt.Sprintf("%s/joint/%d", r.prefix, i), recording.NewScalars(s.Position)},
			pending{fmt.Sprintf("%s/joint_vel/%d", r.prefix, i), recording.NewScalars(s.Velocity)},
			pending{fmt.Sprintf("%s/torque/%d", r.prefix, i), recording.NewScalars(s.MotorTorque)},
		)
	}

	links, err := r.desc.OrderedLinks()
	if err != nil {
		return &FrameError{Frame: frame, Stage: StageLinkState, Err: err}
	}
	poses := make(map[string]spatialmath.Pose, len(links))
	for i, link := range links {
		if i == 0 {
			base, err := client.BasePositionAndOrientation(ctx, bodyID)
			if err != nil {
				return &FrameError{Frame: frame, Stage: StageBasePose, Link: link, Err: err}
			}
			poses[link] = base
			if v, err := client.BaseVelocity(ctx, bodyID); err == nil {
				logs = r.appendVelocity(logs, link, v)
			} else {
				r.logger.CDebugw(ctx, "no base velocity this frame", "frame", frame, "error", err)
			}
			continue
		}

		state, err := client.LinkState(ctx, bodyID, i-1, true, true)
		if err == nil && state.WorldLinkFrame == nil {
			err = errors.New("host returned no link frame")
		}
		if err != nil {
			return &FrameError{Frame: frame, Stage: StageLinkState, Link: link, Err: err}
		}
		r.logger.CDebugw(ctx, "link world pose", "link", link, "pose", state.WorldLinkFrame)
		poses[link] = state.WorldLinkFrame
		if state.WorldVelocity != nil {
			logs = r.appendVelocity(logs, link, *state.WorldVelocity)
		}
	}

	// From here on entries reach the session, so the frame index is spent even on failure.
	defer r.frame.Inc()
	r.stream.SetTimeSequence(TimelineRealtime, int64(frame))
	for _, l := range logs {
		if err := r.stream.Log(ctx, l.path, l.data); err != nil {
			return &FrameError{Frame: frame, Stage: StageLog, Err: errors.Wrapf(err, "logging %s", l.path)}
		}
	}
	if err := r.desc.LogFrame(ctx, r.stream, int64(frame), poses, TimelineRealtime); err != nil {
		return &FrameError{Frame: frame, Stage: StageLogFrame, Err: err}
	}
	return nil
}

func (r *Robot) appendVelocity(logs []pending, link string, v sim.Velocity) []pending {
	logs = append(logs, pending{r.prefix + "/cartesian_vel", recording.NewScalars(v.Slice()...)})
	if r.linkVelocity {
		logs = append(logs, pending{r.prefix + "/link_vel/" + link, recording.NewScalars(v.Slice()...)})
	}
	return logs
}
