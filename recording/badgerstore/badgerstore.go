// Package badgerstore persists recordings in an embedded BadgerDB so they can be replayed
// frame by frame after the simulation has ended.
//
// Entries are keyed by recording id and a zero padded sequence number, so iterating a recording's
// prefix yields its entries in the order they were logged.
package badgerstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"

	"go.viam.com/simrecord/logging"
	"go.viam.com/simrecord/recording"
)

const keyPrefix = "rec/"

// Config holds configuration for a badger backed recording store.
type Config struct {
	// Path is the directory for BadgerDB files. Ignored when InMemory is true.
	Path string `json:"path" mapstructure:"path"`
	// InMemory keeps everything in RAM, for tests.
	InMemory bool `json:"in_memory" mapstructure:"in_memory"`
	// SyncWrites makes every write durable before it returns.
	SyncWrites bool `json:"sync_writes" mapstructure:"sync_writes"`
}

// Validate ensures the config can be opened.
func (cfg *Config) Validate(path string) error {
	if !cfg.InMemory && cfg.Path == "" {
		return errors.Errorf("%s: \"path\" is required unless \"in_memory\" is set", path)
	}
	return nil
}

// Store is a recording.Sink backed by BadgerDB.
type Store struct {
	cfg    Config
	db     *badger.DB
	logger logging.Logger

	closeOnce sync.Once
	closeErr  error
}

// badgerLogger adapts logging.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger logging.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{})   { l.logger.Errorf(format, args...) }
func (l *badgerLogger) Warningf(format string, args ...interface{}) { l.logger.Warnf(format, args...) }
func (l *badgerLogger) Infof(format string, args ...interface{})    { l.logger.Debugf(format, args...) }
func (l *badgerLogger) Debugf(format string, args ...interface{})   { l.logger.Debugf(format, args...) }

// Open opens (creating if necessary) a store.
func Open(cfg Config, logger logging.Logger) (*Store, error) {
	if err := cfg.Validate("badger"); err != nil {
		return nil, err
	}
	path := cfg.Path
	if cfg.InMemory {
		path = ""
	}
	opts := badger.DefaultOptions(path).
		WithInMemory(cfg.InMemory).
		WithSyncWrites(cfg.SyncWrites).
		WithLogger(&badgerLogger{logger})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "opening badger store at %q", cfg.Path)
	}
	logger.Infow("recording store opened", "path", cfg.Path, "in_memory", cfg.InMemory)
	return &Store{cfg: cfg, db: db, logger: logger}, nil
}

func entryKey(recordingID string, seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%s/%020d", keyPrefix, recordingID, seq))
}

func recordingPrefix(recordingID string) []byte {
	return []byte(keyPrefix + recordingID + "/")
}

// Write implements recording.Sink.
func (s *Store) Write(_ context.Context, e recording.Entry) error {
	raw, err := recording.MarshalEntry(e)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(entryKey(e.RecordingID, e.Seq), raw)
	})
}

// Flush implements recording.Sink.
func (s *Store) Flush(context.Context) error {
	if s.cfg.InMemory {
		return nil
	}
	return s.db.Sync()
}

// Close implements recording.Sink. A store may be shared by several sessions, so closing is
// idempotent.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.db.Close()
	})
	return s.closeErr
}

// Recordings lists the ids of every recording in the store, in key order.
func (s *Store) Recordings(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); {
			if err := ctx.Err(); err != nil {
				return err
			}
			key := string(it.Item().Key())
			id := key[len(keyPrefix):]
			for i := range id {
				if id[i] == '/' {
					id = id[:i]
					break
				}
			}
			ids = append(ids, id)
			// Skip the rest of this recording. '0' sorts right after '/'.
			it.Seek([]byte(keyPrefix + id + "0"))
		}
		return nil
	})
	return ids, err
}

// Replay calls fn with every entry of the recording in sequence order. Iteration stops at the
// first error fn returns.
func (s *Store) Replay(ctx context.Context, recordingID string, fn func(recording.Entry) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := recordingPrefix(recordingID)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			raw, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			e, err := recording.UnmarshalEntry(raw)
			if err != nil {
				return errors.Wrapf(err, "decoding %s", it.Item().Key())
			}
			if err := fn(e); err != nil {
				return err
			}
		}
		return nil
	})
}
