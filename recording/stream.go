// Package recording implements recording sessions: cheap, cloneable stream handles that stamp
// logged archetypes with entity paths and timeline positions and hand them to one or more sinks
// for storage, playback or live viewing.
package recording

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// ErrStreamClosed is returned when logging through a handle that was closed, or whose session has
// been torn down.
var ErrStreamClosed = errors.New("recording stream is closed")

// Sink receives every entry of a recording in sequence order. Write is never called concurrently
// for the same session.
type Sink interface {
	Write(ctx context.Context, e Entry) error
	Flush(ctx context.Context) error
	Close() error
}

// session is the state shared by every clone of a Stream.
type session struct {
	id  string
	app string

	mu     sync.Mutex
	sinks  []Sink
	seq    uint64
	refs   int
	closed bool
}

func (s *session) write(ctx context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStreamClosed
	}
	s.seq++
	e.Seq = s.seq
	e.RecordingID = s.id
	e.App = s.app

	var errs error
	for _, sink := range s.sinks {
		errs = multierr.Combine(errs, sink.Write(ctx, e))
	}
	return errs
}

func (s *session) flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStreamClosed
	}
	var errs error
	for _, sink := range s.sinks {
		errs = multierr.Combine(errs, sink.Flush(ctx))
	}
	return errs
}

func (s *session) release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refs--
	if s.refs > 0 || s.closed {
		return nil
	}
	s.closed = true
	var errs error
	for _, sink := range s.sinks {
		errs = multierr.Combine(errs, sink.Flush(context.Background()), sink.Close())
	}
	return errs
}

// Stream is a handle to a recording session. Handles are safe for concurrent use; each clone has
// its own timeline cursor but writes into the same session and sinks.
type Stream struct {
	session *session

	mu     sync.Mutex
	times  map[string]int64
	closed bool
}

// New starts a new recording session for the named application, delivering to sinks in order.
func New(appName string, sinks ...Sink) *Stream {
	return &Stream{
		session: &session{
			id:    uuid.NewString(),
			app:   appName,
			sinks: sinks,
			refs:  1,
		},
		times: map[string]int64{},
	}
}

// Clone returns an independent handle to the same session. The clone starts with a copy of this
// handle's timeline cursor. Cloning a closed handle returns a closed handle.
func (s *Stream) Clone() *Stream {
	s.mu.Lock()
	times := maps.Clone(s.times)
	closed := s.closed
	s.mu.Unlock()

	clone := &Stream{session: s.session, times: times, closed: closed}
	if closed {
		return clone
	}

	s.session.mu.Lock()
	defer s.session.mu.Unlock()
	if s.session.closed {
		clone.closed = true
		return clone
	}
	s.session.refs++
	return clone
}

// RecordingID identifies the session.
func (s *Stream) RecordingID() string {
	return s.session.id
}

// AppName is the application name the session was started with.
func (s *Stream) AppName() string {
	return s.session.app
}

// SetTimeSequence sets this handle's position on a sequence timeline. Subsequent non-static logs
// through this handle are stamped with it.
func (s *Stream) SetTimeSequence(timeline string, seq int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.times[timeline] = seq
}

// DisableTimeline removes a timeline from this handle's cursor.
func (s *Stream) DisableTimeline(timeline string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.times, timeline)
}

// Log logs data at the entity path, stamped with the current timeline cursor.
func (s *Stream) Log(ctx context.Context, path string, data Archetype) error {
	return s.log(ctx, path, data, false)
}

// LogStatic logs data that holds for the entire recording, regardless of timelines.
func (s *Stream) LogStatic(ctx context.Context, path string, data Archetype) error {
	return s.log(ctx, path, data, true)
}

func (s *Stream) log(ctx context.Context, path string, data Archetype, static bool) error {
	if path == "" {
		return errors.New("entity path must not be empty")
	}
	if data == nil {
		return errors.Errorf("nil data logged at %q", path)
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStreamClosed
	}
	var times map[string]int64
	if !static {
		times = maps.Clone(s.times)
	}
	s.mu.Unlock()

	return s.session.write(ctx, Entry{
		Path:      path,
		Timelines: times,
		Static:    static,
		Data:      data,
		LoggedAt:  time.Now(),
	})
}

// Flush asks every sink to persist or send what it has buffered.
func (s *Stream) Flush(ctx context.Context) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ErrStreamClosed
	}
	return s.session.flush(ctx)
}

// Close releases this handle. Releasing the last handle of a session flushes and closes its
// sinks. Closing twice is a no-op.
func (s *Stream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	return s.session.release()
}
