// Package store owns the live ledger snapshot. Every mutation goes through
// Apply, Reset or ReplaceWholesale, which serialize on a single writer lock,
// persist synchronously and only then notify listeners.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"financeflow/internal/codec"
	"financeflow/internal/core"
	"financeflow/internal/log"
	"financeflow/internal/storage"
)

var (
	// ErrPersist wraps a durable write that failed. The live snapshot is
	// left as it was.
	ErrPersist = errors.New("persist snapshot")
	// ErrInvalidSnapshot is returned when a patch produces a snapshot that
	// breaks a record invariant.
	ErrInvalidSnapshot = errors.New("invalid snapshot")
)

// Persister is the durable record the store reads and writes. Read returns
// storage.ErrNotFound when no record exists.
type Persister interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, body []byte) error
	Clear(ctx context.Context) error
}

// Patch receives a private deep copy of the current snapshot and returns the
// snapshot to install. Returning an error rejects the whole mutation.
type Patch func(s core.Snapshot) (core.Snapshot, error)

// Event tells listeners that a new snapshot was installed.
type Event struct {
	Revision uint64    `json:"revision"`
	Reason   string    `json:"reason"`
	At       time.Time `json:"at"`
}

// Listener is called after every successful mutation, outside the writer
// lock, in subscription order.
type Listener func(ctx context.Context, ev Event)

type Store struct {
	mu       sync.RWMutex
	current  core.Snapshot
	revision uint64

	persister Persister
	logger    *log.Logger
	now       func() time.Time
	newID     func() string

	listenersMu sync.Mutex
	listeners   []Listener
}

type Option func(*Store)

func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l.WithComponent(log.ComponentStore) }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator sets the id source used for the seed ledger.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// New builds a store and installs the snapshot loaded from p.
func New(ctx context.Context, p Persister, opts ...Option) *Store {
	s := &Store{
		persister: p,
		logger:    log.Default(log.ComponentStore),
		now:       time.Now,
		newID:     core.NewID,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.current = s.Load(ctx)
	return s
}

// Today is the current calendar date according to the store's clock.
func (s *Store) Today() core.Date {
	return core.DateOf(s.now())
}

// Defaults returns a freshly seeded ledger.
func (s *Store) Defaults() core.Snapshot {
	return core.DefaultSnapshot(s.Today(), s.newID)
}

// Load reads the durable record and merges it over the seed ledger. A missing
// or unreadable record yields the seed ledger.
func (s *Store) Load(ctx context.Context) core.Snapshot {
	snap, err := s.LoadStored(ctx)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.logger.InfoContext(ctx, "No stored snapshot, using defaults", log.FieldOperation, log.OpLoad)
		return s.Defaults()
	case errors.Is(err, codec.ErrMalformedImport):
		s.logger.WarnContext(ctx, "Stored snapshot is corrupt, using defaults",
			log.FieldOperation, log.OpLoad, log.FieldError, err)
		return s.Defaults()
	case err != nil:
		s.logger.WarnContext(ctx, "Failed to read stored snapshot, using defaults",
			log.FieldOperation, log.OpLoad, log.FieldError, err)
		return s.Defaults()
	}
	return snap
}

// LoadStored is Load without the seed fallback: an absent record returns
// storage.ErrNotFound and a corrupt one codec.ErrMalformedImport.
func (s *Store) LoadStored(ctx context.Context) (core.Snapshot, error) {
	raw, err := s.persister.Read(ctx)
	if err != nil {
		return core.Snapshot{}, err
	}
	return codec.DecodeSnapshot(raw, s.Defaults())
}

// Current returns a deep copy of the live snapshot and its revision.
func (s *Store) Current() (core.Snapshot, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone(), s.revision
}

// Revision returns the number of mutations installed so far.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Subscribe registers l for every future mutation.
func (s *Store) Subscribe(l Listener) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Apply runs patch against a copy of the live snapshot, persists the result
// and installs it. On any error nothing changes. Listeners run after the
// writer lock is released.
func (s *Store) Apply(ctx context.Context, reason string, patch Patch) error {
	ev, err := s.commit(ctx, reason, patch)
	if err != nil {
		return err
	}
	s.notify(ctx, ev)
	return nil
}

func (s *Store) commit(ctx context.Context, reason string, patch Patch) (Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := patch(s.current.Clone())
	if err != nil {
		return Event{}, err
	}
	next.Normalize()
	if err := next.Validate(); err != nil {
		return Event{}, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	body, err := codec.EncodeJSON(next)
	if err != nil {
		return Event{}, err
	}
	if err := s.persister.Write(ctx, body); err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist snapshot",
			log.FieldOperation, log.OpApply, log.FieldReason, reason, log.FieldError, err)
		return Event{}, fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return s.install(next, reason), nil
}

// Reset clears the durable record and installs the seed ledger. The seed is
// not written back, so the next Load seeds again with a fresh date.
func (s *Store) Reset(ctx context.Context) error {
	ev, err := s.locked(func() (Event, error) {
		if err := s.persister.Clear(ctx); err != nil {
			return Event{}, fmt.Errorf("%w: %w", ErrPersist, err)
		}
		return s.install(s.Defaults(), "reset"), nil
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Ledger reset", log.FieldOperation, log.OpReset, log.FieldRevision, ev.Revision)
	s.notify(ctx, ev)
	return nil
}

// ReplaceWholesale validates raw as a snapshot document, writes it to durable
// storage byte for byte and reloads. A malformed document fails with
// codec.ErrMalformedImport before anything is written.
func (s *Store) ReplaceWholesale(ctx context.Context, raw []byte) error {
	if _, err := codec.DecodeDocument(raw); err != nil {
		return err
	}

	ev, err := s.locked(func() (Event, error) {
		if err := s.persister.Write(ctx, raw); err != nil {
			return Event{}, fmt.Errorf("%w: %w", ErrPersist, err)
		}
		return s.install(s.Load(ctx), "import.json"), nil
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Snapshot replaced",
		log.FieldOperation, log.OpImport, log.FieldBytes, len(raw), log.FieldRevision, ev.Revision)
	s.notify(ctx, ev)
	return nil
}

// locked runs fn holding the writer lock. The lock is released even if fn panics.
func (s *Store) locked(fn func() (Event, error)) (Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

// install must be called with mu held.
func (s *Store) install(next core.Snapshot, reason string) Event {
	s.current = next
	s.revision++
	return Event{Revision: s.revision, Reason: reason, At: s.now()}
}

func (s *Store) notify(ctx context.Context, ev Event) {
	s.listenersMu.Lock()
	listeners := append([]Listener(nil), s.listeners...)
	s.listenersMu.Unlock()

	for _, l := range listeners {
		l(ctx, ev)
	}
}
