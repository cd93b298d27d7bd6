package session

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"keypad-calculator/internal/calculator"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestCreateReturnsUUIDAndInitialState(t *testing.T) {
	s := NewStore()

	id, st, err := s.Create()
	if err != nil {
		t.Fatalf("creating session: %v", err)
	}
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("expected UUID session id, got %q: %v", id, err)
	}
	if st.Display() != "0" || st.OperationTrace() != "" {
		t.Fatalf("expected initial state, got %q / %q", st.Display(), st.OperationTrace())
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 session, got %d", s.Len())
	}
}

func TestDoAppliesInputsToOneSessionOnly(t *testing.T) {
	s := NewStore()
	a, _, _ := s.Create()
	b, _, _ := s.Create()

	st, err := s.Do(a, func(e *calculator.Engine) {
		for _, tok := range []string{"6", "×", "7", "="} {
			e.HandleInput(tok)
		}
	})
	if err != nil {
		t.Fatalf("applying input: %v", err)
	}
	if st.Display() != "42" {
		t.Fatalf("expected 42, got %q", st.Display())
	}

	other, err := s.Get(b)
	if err != nil {
		t.Fatalf("getting session: %v", err)
	}
	if other.Display() != "0" {
		t.Fatalf("expected untouched session, got %q", other.Display())
	}
}

func TestUnknownSession(t *testing.T) {
	s := NewStore()

	if _, err := s.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound from Get, got %v", err)
	}
	if _, err := s.Do("missing", func(*calculator.Engine) {}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound from Do, got %v", err)
	}
	if err := s.Delete("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound from Delete, got %v", err)
	}
}

func TestDeleteRemovesSession(t *testing.T) {
	s := NewStore()
	id, _, _ := s.Create()

	if err := s.Delete(id); err != nil {
		t.Fatalf("deleting session: %v", err)
	}
	if _, err := s.Get(id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestIdleSessionsExpire(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	s := NewStore(WithTTL(time.Minute), WithClock(clock.Now))

	stale, _, _ := s.Create()
	clock.Advance(30 * time.Second)
	fresh, _, _ := s.Create()

	clock.Advance(45 * time.Second)

	if _, err := s.Get(stale); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected stale session to expire, got %v", err)
	}
	if _, err := s.Get(fresh); err != nil {
		t.Fatalf("expected fresh session to survive, got %v", err)
	}

	clock.Advance(time.Minute)
	if n := s.Prune(); n != 1 {
		t.Fatalf("expected 1 pruned session, got %d", n)
	}
	if s.Len() != 0 {
		t.Fatalf("expected empty store, got %d", s.Len())
	}
}

func TestDoRefreshesIdleTimer(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	s := NewStore(WithTTL(time.Minute), WithClock(clock.Now))
	id, _, _ := s.Create()

	for i := 0; i < 3; i++ {
		clock.Advance(50 * time.Second)
		if _, err := s.Do(id, func(e *calculator.Engine) { e.HandleInput("1") }); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
}

func TestCapacity(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	s := NewStore(WithMaxSessions(2), WithTTL(time.Minute), WithClock(clock.Now))

	for i := 0; i < 2; i++ {
		if _, _, err := s.Create(); err != nil {
			t.Fatalf("creating session %d: %v", i, err)
		}
	}
	if _, _, err := s.Create(); !errors.Is(err, ErrCapacity) {
		t.Fatalf("expected ErrCapacity, got %v", err)
	}

	clock.Advance(2 * time.Minute)
	if _, _, err := s.Create(); err != nil {
		t.Fatalf("expected capacity freed by expiry, got %v", err)
	}
}

func TestConcurrentInputIsSerialised(t *testing.T) {
	s := NewStore()
	id, _, _ := s.Create()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Do(id, func(e *calculator.Engine) { e.HandleInput("1") })
		}()
	}
	wg.Wait()

	st, _ := s.Get(id)
	if st.Display() != strings.Repeat("1", 50) {
		t.Fatalf("expected fifty ones, got %q", st.Display())
	}
}

func TestCollectorReportsLiveSessions(t *testing.T) {
	s := NewStore()
	_, _, _ = s.Create()
	_, _, _ = s.Create()

	reg := prometheus.NewRegistry()
	reg.MustRegister(s.Collector())

	if got := testutil.ToFloat64(s.Collector()); got != 2 {
		t.Fatalf("expected gauge 2, got %v", got)
	}
	if n, err := testutil.GatherAndCount(reg, "calculator_sessions_active"); err != nil || n != 1 {
		t.Fatalf("expected one gathered series, got %d (%v)", n, err)
	}
}

func TestSlowInputDoesNotBlockOtherSessions(t *testing.T) {
	s := NewStore()
	busy, _, _ := s.Create()
	idle, _, _ := s.Create()

	started := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_, _ = s.Do(busy, func(e *calculator.Engine) {
			close(started)
			<-release
		})
	}()
	<-started
	defer close(release)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.Do(idle, func(e *calculator.Engine) { e.HandleInput("7") })
		_, _, _ = s.Create()
		_ = s.Len()
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected other sessions to proceed while one is busy")
	}

	st, err := s.Get(idle)
	if err != nil || st.Display() != "7" {
		t.Fatalf("expected idle session display 7, got %q (%v)", st.Display(), err)
	}
}
