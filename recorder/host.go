// Package recorder records robots simulated by a physics host: a Host owns the recording session
// and description search paths, a Builder loads one robot description, and the resulting Robot
// logs joint scalars and link transforms after every simulation step.
package recorder

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/simrecord/logging"
	"go.viam.com/simrecord/recording"
	"go.viam.com/simrecord/recording/memory"
	"go.viam.com/simrecord/robots"
	"go.viam.com/simrecord/spatialmath"
	"go.viam.com/simrecord/utils"
)

// Host owns a recording session and the directories robot descriptions are searched in.
type Host struct {
	name   string
	logger logging.Logger
	stream *recording.Stream

	mu          sync.Mutex
	searchPaths []string
	robots      []*Robot
	closed      bool
}

// NewHost opens a recording session named sessionName writing to sinks. Without sinks the session
// records into memory.
func NewHost(ctx context.Context, sessionName string, logger logging.Logger, sinks ...recording.Sink) (*Host, error) {
	if sessionName == "" {
		return nil, errors.New("session name is required")
	}
	if len(sinks) == 0 {
		sinks = []recording.Sink{memory.NewStore()}
	}
	stream := recording.New(sessionName, sinks...)
	logger.CDebugw(ctx, "recording session opened", "session", sessionName, "recording_id", stream.RecordingID(), "sinks", len(sinks))
	return &Host{name: sessionName, logger: logger, stream: stream}, nil
}

// Name returns the session name.
func (h *Host) Name() string {
	return h.name
}

// Stream returns the host's handle on the recording session.
func (h *Host) Stream() *recording.Stream {
	return h.stream
}

// AddSearchPath appends a directory to search for robot descriptions. Paths are not checked
// until a robot is begun.
func (h *Host) AddSearchPath(path string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.searchPaths = append(h.searchPaths, path)
}

// SearchPaths returns the search paths in order.
func (h *Host) SearchPaths() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.searchPaths))
	copy(out, h.searchPaths)
	return out
}

// BeginRobot starts building a recorder for one instance of a robot type. The description path
// defaults to the first search path holding the type's description file, or the bare file name
// when none does, and meshes resolve against that search path.
func (h *Host) BeginRobot(robotType robots.Type, name string) *Builder {
	b := &Builder{
		host:            h,
		name:            name,
		descriptionPath: robotType.Description,
		base:            spatialmath.NewZeroPose(),
		scaling:         1,
	}
	if dir, ok := Resolve(h.SearchPaths(), robotType.Description); ok {
		b.descriptionPath = filepath.Join(dir, robotType.Description)
		b.meshPath = dir
	}
	return b
}

// BeginRobotByName is BeginRobot for a registered robot type name.
func (h *Host) BeginRobotByName(typeName, name string) (*Builder, error) {
	t, ok := robots.Lookup(typeName)
	if !ok {
		return nil, errors.Errorf("unknown robot type %q", typeName)
	}
	return h.BeginRobot(t, name), nil
}

func (h *Host) track(r *Robot) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return recording.ErrStreamClosed
	}
	h.robots = append(h.robots, r)
	return nil
}

// Close detaches every robot built by the host and closes the session. Sinks are flushed and
// closed once the last handle on the session is released.
func (h *Host) Close(ctx context.Context) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	built := h.robots
	h.robots = nil
	h.mu.Unlock()

	done := utils.SlowLogger(ctx, h.logger, "waiting for recording session to close", "session", h.name)
	defer done()

	var errs error
	for _, r := range built {
		errs = multierr.Combine(errs, r.Close())
	}
	errs = multierr.Combine(errs, h.stream.Close())
	h.logger.CDebugw(ctx, "recording session closed", "session", h.name)
	return errs
}
