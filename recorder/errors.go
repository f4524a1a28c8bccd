package recorder

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrDescriptionNotFound is returned by Load when the description file does not exist.
	ErrDescriptionNotFound = errors.New("robot description not found")
	// ErrBuilderConsumed is returned by a second Load on the same builder.
	ErrBuilderConsumed = errors.New("robot builder already loaded")
	// ErrMissingName is returned by Load when no robot name was set.
	ErrMissingName = errors.New("robot name is required")
	// ErrAlreadyAttached is returned by AttachTo on an attached robot.
	ErrAlreadyAttached = errors.New("robot is already attached")
	// ErrDetached is returned by AttachTo and Step once a robot has been detached.
	ErrDetached = errors.New("robot has been detached")
	// ErrNotAttached is returned by Step before the robot is attached.
	ErrNotAttached = errors.New("robot is not attached")
)

// Stages of the per-step pipeline reported in a FrameError.
const (
	StageJointStates = "joint_states"
	StageBasePose    = "base_pose"
	StageLinkState   = "link_state"
	StageLog         = "log"
	StageLogFrame    = "log_frame"
)

// FrameError is returned when a step could not produce a frame. Nothing from the frame was logged
// unless Stage is StageLog or StageLogFrame; in those cases the frame index is still consumed.
type FrameError struct {
	Frame uint64
	Stage string
	// Link is set for pose stages.
	Link string
	Err  error
}

func (e *FrameError) Error() string {
	if e.Link != "" {
		return fmt.Sprintf("frame %d: %s for link %q: %v", e.Frame, e.Stage, e.Link, e.Err)
	}
	return fmt.Sprintf("frame %d: %s: %v", e.Frame, e.Stage, e.Err)
}

func (e *FrameError) Unwrap() error {
	return e.Err
}
