// Package session hosts many independent calculator engines behind opaque
// IDs, serialising access to each one.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"keypad-calculator/internal/calculator"
)

var (
	ErrNotFound = errors.New("session not found")
	ErrCapacity = errors.New("session capacity reached")
)

const (
	DefaultTTL         = 30 * time.Minute
	DefaultMaxSessions = 10000
)

type entry struct {
	// mu serialises input to engine.
	mu     sync.Mutex
	engine *calculator.Engine

	// lastUsed is guarded by Store.mu.
	lastUsed time.Time
}

// Store is safe for concurrent use. Engines never leave the store; callers
// reach them through Do while that session's lock is held. The store lock
// only guards the session map and idle timers.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*entry

	ttl         time.Duration
	maxSessions int
	now         func() time.Time
}

type Option func(*Store)

// WithTTL sets how long an untouched session survives. Zero disables expiry.
func WithTTL(d time.Duration) Option {
	return func(s *Store) { s.ttl = d }
}

// WithMaxSessions caps the number of live sessions. Zero means unlimited.
func WithMaxSessions(n int) Option {
	return func(s *Store) { s.maxSessions = n }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		sessions:    make(map[string]*entry),
		ttl:         DefaultTTL,
		maxSessions: DefaultMaxSessions,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create starts a new calculator in its initial state.
func (s *Store) Create() (string, calculator.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked()
	if s.maxSessions > 0 && len(s.sessions) >= s.maxSessions {
		return "", calculator.State{}, ErrCapacity
	}

	id := uuid.New().String()
	e := calculator.New()
	s.sessions[id] = &entry{engine: e, lastUsed: s.now()}

	return id, e.State(), nil
}

// Do runs fn with exclusive access to the session's engine and returns the
// resulting state. Other sessions are not blocked while fn runs.
func (s *Store) Do(id string, fn func(*calculator.Engine)) (calculator.State, error) {
	ent, err := s.lookup(id, true)
	if err != nil {
		return calculator.State{}, err
	}

	ent.mu.Lock()
	defer ent.mu.Unlock()

	fn(ent.engine)

	return ent.engine.State(), nil
}

// Get returns the session's current state without touching its idle timer.
func (s *Store) Get(id string) (calculator.State, error) {
	ent, err := s.lookup(id, false)
	if err != nil {
		return calculator.State{}, err
	}

	ent.mu.Lock()
	defer ent.mu.Unlock()

	return ent.engine.State(), nil
}

func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(s.sessions, id)
	return nil
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Prune drops expired sessions and reports how many were removed.
func (s *Store) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pruneLocked()
}

func (s *Store) lookup(id string, touch bool) (*entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ent, err := s.lookupLocked(id)
	if err != nil {
		return nil, err
	}
	if touch {
		ent.lastUsed = s.now()
	}
	return ent, nil
}

func (s *Store) lookupLocked(id string) (*entry, error) {
	ent, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if s.expired(ent) {
		delete(s.sessions, id)
		return nil, ErrNotFound
	}
	return ent, nil
}

func (s *Store) pruneLocked() int {
	if s.ttl <= 0 {
		return 0
	}
	n := 0
	for id, ent := range s.sessions {
		if s.expired(ent) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

func (s *Store) expired(ent *entry) bool {
	return s.ttl > 0 && s.now().Sub(ent.lastUsed) > s.ttl
}

// Collector exposes the number of live sessions as a Prometheus gauge.
func (s *Store) Collector() prometheus.Collector {
	return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "calculator_sessions_active",
		Help: "Number of live calculator sessions.",
	}, func() float64 {
		return float64(s.Len())
	})
}
