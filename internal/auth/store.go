package auth

import (
	"fmt"
	"sync"
	"time"

	"github.com/j-veylop/augment-usage-tui/internal/config"
	"github.com/j-veylop/augment-usage-tui/internal/logger"
)

// Listener receives the new authentication state after a Set or Clear.
type Listener func(authenticated bool)

// Store holds the session credential and its set-at timestamp.
// All methods are safe for concurrent use.
type Store struct {
	mu         sync.RWMutex
	cookie     string
	setAt      time.Time
	listeners  map[int]Listener
	nextID     int
	staleAfter time.Duration
	now        func() time.Time
}

// NewStore creates an empty credential store.
func NewStore() *Store {
	return &Store{
		listeners:  make(map[int]Listener),
		staleAfter: config.StaleAfter,
		now:        time.Now,
	}
}

// Set validates and stores a raw cookie string. A blank input clears the
// credential and succeeds. On rejection the previous credential and
// timestamp are left untouched and a *ValidationError is returned.
func (s *Store) Set(raw string) error {
	if Clean(raw) == "" {
		s.Clear()
		return nil
	}

	cleaned, err := Normalize(raw)
	if err != nil {
		logger.Warn("credential rejected", "error", err)
		return err
	}

	s.mu.Lock()
	s.cookie = cleaned
	s.setAt = s.now()
	s.mu.Unlock()

	logger.Info("credential set", "cookie", SanitizeForLogging(cleaned))
	s.notify(true)
	return nil
}

// Clear wipes the credential and its timestamp.
func (s *Store) Clear() {
	s.mu.Lock()
	s.cookie = ""
	s.setAt = time.Time{}
	s.mu.Unlock()

	logger.Info("credential cleared")
	s.notify(false)
}

// Get returns the stored cookie string, if present.
func (s *Store) Get() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cookie, s.cookie != ""
}

// IsAuthenticated reports whether a non-blank credential is present.
func (s *Store) IsAuthenticated() bool {
	_, ok := s.Get()
	return ok
}

// SetAt returns when the credential was last set.
func (s *Store) SetAt() (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.setAt, !s.setAt.IsZero()
}

// IsStale reports whether the credential is old enough to likely be invalid.
// A missing timestamp counts as stale.
func (s *Store) IsStale() bool {
	s.mu.RLock()
	setAt := s.setAt
	s.mu.RUnlock()

	if setAt.IsZero() {
		return true
	}
	return s.now().Sub(setAt) >= s.staleAfter
}

// OnAuthChange registers a listener invoked after every Set or Clear.
// The returned function removes the listener.
func (s *Store) OnAuthChange(fn Listener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// StatusSummary returns a human-readable authentication summary for the
// info view, with the credential masked.
func (s *Store) StatusSummary() string {
	s.mu.RLock()
	cookie := s.cookie
	setAt := s.setAt
	s.mu.RUnlock()

	if cookie == "" {
		return "not authenticated"
	}
	return fmt.Sprintf("authenticated (%s, set %s, stale: %v)",
		SanitizeForLogging(cookie), setAt.Format(time.RFC3339), s.IsStale())
}

// notify invokes listeners sequentially with panic recovery, so a broken
// listener cannot stop the others or reach the caller.
func (s *Store) notify(authenticated bool) {
	s.mu.RLock()
	snapshot := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		snapshot = append(snapshot, fn)
	}
	s.mu.RUnlock()

	for _, fn := range snapshot {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("auth listener panicked", "panic", r)
				}
			}()
			fn(authenticated)
		}()
	}
}
