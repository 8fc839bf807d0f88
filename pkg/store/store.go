// Package store holds the wizard's FormRecord in memory and mirrors it to a
// key-value slot. Loading never fails: an absent or unreadable slot yields the
// default record. Every update performs exactly one synchronous write.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/goliatone/go-formwizard/pkg/model"
)

// DefaultKey is the slot key the record is persisted under.
const DefaultKey = "formData"

var (
	// ErrNotFound is returned by KV implementations for absent keys.
	ErrNotFound = errors.New("store: slot not found")
	// ErrPersist wraps slot write failures. The in-memory record is still
	// committed when it is returned.
	ErrPersist = errors.New("store: persist failed")
)

// Mutator produces the next record from the current one. It must be pure.
type Mutator func(model.FormRecord) model.FormRecord

// Option configures a Store.
type Option func(*Store)

// WithKey overrides the slot key.
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithLogger routes store diagnostics to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithWriteObserver is notified after each failed write.
func WithWriteObserver(fn func(error)) Option {
	return func(s *Store) {
		s.onWriteError = fn
	}
}

// Store is the single owner of a session's FormRecord.
type Store struct {
	mu     sync.RWMutex
	kv     KV
	key    string
	record model.FormRecord

	logger       *slog.Logger
	onWriteError func(error)
}

// New builds a store over kv and loads the current slot content.
func New(ctx context.Context, kv KV, opts ...Option) *Store {
	s := &Store{
		kv:     kv,
		key:    DefaultKey,
		record: model.DefaultRecord(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.Load(ctx)
	return s
}

// Key returns the slot key.
func (s *Store) Key() string {
	return s.key
}

// Load reads the slot, replaces the in-memory record and returns it. Missing
// or malformed content yields the default record.
func (s *Store) Load(ctx context.Context) model.FormRecord {
	record := model.DefaultRecord()

	raw, err := s.kv.Get(ctx, s.key)
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		s.logger.WarnContext(ctx, "form slot unreadable, using defaults", "key", s.key, "error", err)
	default:
		if decoded, derr := decodeRecord(raw); derr != nil {
			s.logger.DebugContext(ctx, "form slot malformed, using defaults", "key", s.key, "error", derr)
		} else {
			record = decoded
		}
	}

	s.mu.Lock()
	s.record = record
	s.mu.Unlock()
	return record
}

// Save serializes record and writes it to the slot. The in-memory record is
// left unchanged; use Update to mutate state.
func (s *Store) Save(ctx context.Context, record model.FormRecord) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("store: encode record: %w", err)
	}
	if err := s.kv.Set(ctx, s.key, raw); err != nil {
		werr := fmt.Errorf("%w: %w", ErrPersist, err)
		s.logger.ErrorContext(ctx, "form slot write failed", "key", s.key, "error", err)
		if s.onWriteError != nil {
			s.onWriteError(werr)
		}
		return werr
	}
	return nil
}

// Get returns a copy of the current record.
func (s *Store) Get() model.FormRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.record
}

// Update applies mutator, commits the result and writes it once. A write
// failure is returned wrapped in ErrPersist but does not roll back memory.
func (s *Store) Update(ctx context.Context, mutator Mutator) error {
	if mutator == nil {
		return errors.New("store: mutator is required")
	}
	s.mu.Lock()
	next := mutator(s.record)
	s.record = next
	s.mu.Unlock()
	return s.Save(ctx, next)
}

// Reset restores the default record and writes it.
func (s *Store) Reset(ctx context.Context) error {
	return s.Update(ctx, func(model.FormRecord) model.FormRecord {
		return model.DefaultRecord()
	})
}

// Clear removes the slot and resets memory to defaults.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.record = model.DefaultRecord()
	s.mu.Unlock()
	if err := s.kv.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("store: clear slot: %w", err)
	}
	return nil
}

func decodeRecord(raw []byte) (model.FormRecord, error) {
	record := model.DefaultRecord()
	if len(raw) == 0 {
		return record, errors.New("store: empty slot")
	}
	if err := json.Unmarshal(raw, &record); err != nil {
		return model.DefaultRecord(), err
	}
	return record, nil
}
