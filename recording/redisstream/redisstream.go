// Package redisstream publishes recording entries onto a Redis stream so that several viewers or
// downstream consumers can tail a simulation run.
package redisstream

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"go.viam.com/simrecord/recording"
)

// DefaultStreamKey is used when no key is configured. "{recording}" is replaced by the recording
// id of each entry.
const DefaultStreamKey = "simrecord:{recording}"

// Config configures the Redis sink.
type Config struct {
	Addr     string `json:"addr" mapstructure:"addr"`
	Password string `json:"password" mapstructure:"password"`
	DB       int    `json:"db" mapstructure:"db"`
	// StreamKey may contain "{recording}".
	StreamKey string `json:"stream_key" mapstructure:"stream_key"`
	// MaxLen approximately caps the stream length; 0 disables trimming.
	MaxLen int64 `json:"max_len" mapstructure:"max_len"`
}

// Validate ensures the config is usable.
func (cfg *Config) Validate(path string) error {
	if cfg.Addr == "" {
		return errors.Errorf("%s: \"addr\" is required", path)
	}
	if cfg.MaxLen < 0 {
		return errors.Errorf("%s: \"max_len\" must not be negative", path)
	}
	return nil
}

// Sink is a recording.Sink that XADDs every entry.
type Sink struct {
	client    *redis.Client
	ownClient bool
	streamKey string
	maxLen    int64
}

// Open connects to Redis and verifies the connection.
func Open(ctx context.Context, cfg Config) (*Sink, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "connecting to redis at %s", cfg.Addr)
	}
	s := NewSink(client, cfg)
	s.ownClient = true
	return s, nil
}

// NewSink wraps an existing client. The client is not closed by Close.
func NewSink(client *redis.Client, cfg Config) *Sink {
	key := cfg.StreamKey
	if key == "" {
		key = DefaultStreamKey
	}
	return &Sink{client: client, streamKey: key, maxLen: cfg.MaxLen}
}

// StreamKey returns the Redis key entries of the given recording are added to.
func (s *Sink) StreamKey(recordingID string) string {
	return strings.ReplaceAll(s.streamKey, "{recording}", recordingID)
}

// Write implements recording.Sink.
func (s *Sink) Write(ctx context.Context, e recording.Entry) error {
	raw, err := recording.MarshalEntry(e)
	if err != nil {
		return err
	}
	args := &redis.XAddArgs{
		Stream: s.StreamKey(e.RecordingID),
		Values: map[string]interface{}{
			"path":  e.Path,
			"kind":  e.Data.Kind(),
			"entry": raw,
		},
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}
	return errors.Wrapf(s.client.XAdd(ctx, args).Err(), "adding %q to %s", e.Path, args.Stream)
}

// Flush implements recording.Sink.
func (s *Sink) Flush(context.Context) error {
	return nil
}

// Close implements recording.Sink.
func (s *Sink) Close() error {
	if !s.ownClient {
		return nil
	}
	return s.client.Close()
}

// Read decodes the entries of a recording's stream, oldest first.
func (s *Sink) Read(ctx context.Context, recordingID string) ([]recording.Entry, error) {
	msgs, err := s.client.XRange(ctx, s.StreamKey(recordingID), "-", "+").Result()
	if err != nil {
		return nil, err
	}
	entries := make([]recording.Entry, 0, len(msgs))
	for _, msg := range msgs {
		raw, ok := msg.Values["entry"].(string)
		if !ok {
			return nil, errors.Errorf("stream message %s has no entry", msg.ID)
		}
		e, err := recording.UnmarshalEntry([]byte(raw))
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}
