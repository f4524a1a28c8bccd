// Package memory implements an in-process recording sink that keeps every entry and answers
// simple playback queries. It backs the default session of a recorder host and most tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/samber/lo"

	"go.viam.com/simrecord/recording"
)

// Store is a recording.Sink holding entries in memory.
type Store struct {
	mu      sync.RWMutex
	entries []recording.Entry
	closed  bool
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Write implements recording.Sink.
func (s *Store) Write(_ context.Context, e recording.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return recording.ErrStreamClosed
	}
	s.entries = append(s.entries, e)
	return nil
}

// Flush implements recording.Sink.
func (s *Store) Flush(context.Context) error {
	return nil
}

// Close implements recording.Sink. A closed store stays queryable.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Entries returns a copy of every entry in arrival order.
func (s *Store) Entries() []recording.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]recording.Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Path returns every entry logged exactly at path, in arrival order.
func (s *Store) Path(path string) []recording.Entry {
	return s.filter(func(e recording.Entry) bool { return e.Path == path })
}

// Prefix returns every entry whose path is prefix or lies below it.
func (s *Store) Prefix(prefix string) []recording.Entry {
	return s.filter(func(e recording.Entry) bool {
		return e.Path == prefix || strings.HasPrefix(e.Path, prefix+"/")
	})
}

// AtTime returns the entries logged at the given position of a timeline.
func (s *Store) AtTime(timeline string, t int64) []recording.Entry {
	return s.filter(func(e recording.Entry) bool {
		v, ok := e.Time(timeline)
		return ok && v == t
	})
}

// Latest returns the most recent entry at path.
func (s *Store) Latest(path string) (recording.Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].Path == path {
			return s.entries[i], true
		}
	}
	return recording.Entry{}, false
}

// Frames returns the distinct positions seen on a timeline, ascending.
func (s *Store) Frames(timeline string) []int64 {
	s.mu.RLock()
	frames := lo.Uniq(lo.FilterMap(s.entries, func(e recording.Entry, _ int) (int64, bool) {
		return e.Time(timeline)
	}))
	s.mu.RUnlock()
	sort.Slice(frames, func(i, j int) bool { return frames[i] < frames[j] })
	return frames
}

// Paths returns the distinct entity paths logged so far, sorted.
func (s *Store) Paths() []string {
	s.mu.RLock()
	paths := lo.Uniq(lo.Map(s.entries, func(e recording.Entry, _ int) string { return e.Path }))
	s.mu.RUnlock()
	sort.Strings(paths)
	return paths
}

func (s *Store) filter(keep func(recording.Entry) bool) []recording.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lo.Filter(s.entries, func(e recording.Entry, _ int) bool { return keep(e) })
}
