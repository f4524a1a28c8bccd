package recording

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// Entry is one logged datum as delivered to sinks.
type Entry struct {
	RecordingID string `json:"recording_id"`
	App         string `json:"app"`
	// Seq is strictly increasing within a recording.
	Seq       uint64           `json:"seq"`
	Path      string           `json:"path"`
	Timelines map[string]int64 `json:"timelines,omitempty"`
	Static    bool             `json:"static,omitempty"`
	Data      Archetype        `json:"-"`
	LoggedAt  time.Time        `json:"logged_at"`
}

// Time returns the entry's index on the named timeline.
func (e Entry) Time(timeline string) (int64, bool) {
	v, ok := e.Timelines[timeline]
	return v, ok
}

type wireEntry struct {
	Entry
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// MarshalEntry encodes an entry as JSON, tagging the archetype with its kind.
func MarshalEntry(e Entry) ([]byte, error) {
	if e.Data == nil {
		return nil, errors.New("entry has no data")
	}
	data, err := json.Marshal(e.Data)
	if err != nil {
		return nil, errors.Wrapf(err, "marshaling %s at %q", e.Data.Kind(), e.Path)
	}
	return json.Marshal(wireEntry{Entry: e, Kind: e.Data.Kind(), Data: data})
}

// UnmarshalEntry decodes an entry produced by MarshalEntry.
func UnmarshalEntry(raw []byte) (Entry, error) {
	var wire wireEntry
	if err := json.Unmarshal(raw, &wire); err != nil {
		return Entry{}, errors.Wrap(err, "decoding entry")
	}
	factory, ok := archetypeFactories[wire.Kind]
	if !ok {
		return Entry{}, errors.Errorf("unknown archetype kind %q", wire.Kind)
	}
	data := factory()
	if err := json.Unmarshal(wire.Data, data); err != nil {
		return Entry{}, errors.Wrapf(err, "decoding %s data", wire.Kind)
	}
	e := wire.Entry
	e.Data = data
	return e, nil
}
