package exploration

import (
	"sync"
	"time"

	"github.com/wanderstone/xiuxian-bot/internal/domain/exploration"
	xerr "github.com/wanderstone/xiuxian-bot/internal/errors"
)

// TimeProvider abstracts time for testing
type TimeProvider interface {
	Now() time.Time
}

// RealTimeProvider uses the actual system time
type RealTimeProvider struct{}

// Now returns the current time
func (r *RealTimeProvider) Now() time.Time {
	return time.Now()
}

// SessionStore is the registry of live exploration sessions, keyed by actor
// ID (player ID for solo runs, team ID for team runs). Access to a session is
// serialized by a per-actor lock; sessions idle past the timeout are removed
// lazily on the next access.
type SessionStore struct {
	idleTimeout time.Duration
	clock       TimeProvider

	mu      sync.Mutex
	entries map[string]*sessionEntry
}

// sessionEntry pairs a session with its lock. gone marks entries that were
// removed from the registry while a waiter was queued on the lock.
type sessionEntry struct {
	mu      sync.Mutex
	session *exploration.Session
	gone    bool
}

// SessionStoreConfig holds configuration for the store
type SessionStoreConfig struct {
	IdleTimeout time.Duration // Optional, defaults to two minutes
	Clock       TimeProvider  // Optional, defaults to real time
}

// NewSessionStore creates a new session store
func NewSessionStore(cfg *SessionStoreConfig) *SessionStore {
	timeout := cfg.IdleTimeout
	if timeout == 0 {
		timeout = 2 * time.Minute
	}

	clock := cfg.Clock
	if clock == nil {
		clock = &RealTimeProvider{}
	}

	return &SessionStore{
		idleTimeout: timeout,
		clock:       clock,
		entries:     make(map[string]*sessionEntry),
	}
}

// Create registers a new session for its actor. Fails when the actor already
// has a live session; a session idle past the timeout does not count.
func (s *SessionStore) Create(sess *exploration.Session) error {
	if sess == nil || sess.ActorID == "" {
		return xerr.InvalidArgument("session with actor ID is required")
	}

	for {
		s.mu.Lock()
		existing, ok := s.entries[sess.ActorID]
		if !ok {
			s.entries[sess.ActorID] = &sessionEntry{session: sess}
			s.mu.Unlock()
			return nil
		}
		s.mu.Unlock()

		// Reading the existing session needs its entry lock, same as any
		// other access; a holder may be touching it right now.
		existing.mu.Lock()
		if existing.gone {
			existing.mu.Unlock()
			continue
		}
		if !existing.session.Expired(s.clock.Now(), s.idleTimeout) {
			existing.mu.Unlock()
			return xerr.AlreadyExists("已有进行中的探索").
				WithMeta("actor_id", sess.ActorID)
		}
		s.evict(sess.ActorID, existing)
		existing.mu.Unlock()
	}
}

// WithSession runs fn with the actor's session under its lock. The session
// is touched after fn returns without error. Expired sessions are dropped
// here and reported as not found.
func (s *SessionStore) WithSession(actorID string, fn func(*exploration.Session) error) error {
	entry, err := s.acquire(actorID)
	if err != nil {
		return err
	}
	defer entry.mu.Unlock()

	now := s.clock.Now()
	if entry.session.Expired(now, s.idleTimeout) {
		s.evict(actorID, entry)
		return xerr.NotFound("探索已超时结束").
			WithMeta("actor_id", actorID)
	}

	if err := fn(entry.session); err != nil {
		return err
	}

	if entry.session.Status == exploration.StatusEnded {
		s.evict(actorID, entry)
		return nil
	}

	entry.session.Touch(now)
	return nil
}

// Remove drops the actor's session, if any
func (s *SessionStore) Remove(actorID string) {
	entry, err := s.acquire(actorID)
	if err != nil {
		return
	}
	defer entry.mu.Unlock()

	s.evict(actorID, entry)
}

// acquire locks the actor's entry. The registry lock is never held while
// waiting on an entry lock; entries removed while we waited carry the gone
// flag, so we retry against the registry.
func (s *SessionStore) acquire(actorID string) (*sessionEntry, error) {
	for {
		s.mu.Lock()
		entry, ok := s.entries[actorID]
		s.mu.Unlock()

		if !ok {
			return nil, xerr.NotFound("当前没有进行中的探索").
				WithMeta("actor_id", actorID)
		}

		entry.mu.Lock()
		if entry.gone {
			entry.mu.Unlock()
			continue
		}
		return entry, nil
	}
}

// evict removes an entry whose lock the caller holds
func (s *SessionStore) evict(actorID string, entry *sessionEntry) {
	entry.gone = true

	s.mu.Lock()
	if current, ok := s.entries[actorID]; ok && current == entry {
		delete(s.entries, actorID)
	}
	s.mu.Unlock()
}
