package exploration

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wanderstone/xiuxian-bot/internal/domain/exploration"
	xerr "github.com/wanderstone/xiuxian-bot/internal/errors"
)

// fakeClock is a TimeProvider frozen until advanced
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
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

func newTestStore(clock *fakeClock) *SessionStore {
	return NewSessionStore(&SessionStoreConfig{
		IdleTimeout: 2 * time.Minute,
		Clock:       clock,
	})
}

func TestSessionStore_CreateDuplicate(t *testing.T) {
	clock := newFakeClock()
	store := newTestStore(clock)

	sess := exploration.NewSoloSession("player-1", 1, 5, clock.Now())
	require.NoError(t, store.Create(sess))

	err := store.Create(exploration.NewSoloSession("player-1", 1, 5, clock.Now()))
	require.Error(t, err)
	assert.True(t, xerr.IsAlreadyExists(err))
}

func TestSessionStore_WithSessionMissing(t *testing.T) {
	store := newTestStore(newFakeClock())

	err := store.WithSession("nobody", func(*exploration.Session) error { return nil })
	require.Error(t, err)
	assert.True(t, xerr.IsNotFound(err))
}

func TestSessionStore_LazyExpiry(t *testing.T) {
	clock := newFakeClock()
	store := newTestStore(clock)

	require.NoError(t, store.Create(exploration.NewSoloSession("player-1", 1, 5, clock.Now())))

	// One second past the idle timeout the session is gone on access
	clock.Advance(2*time.Minute + time.Second)

	err := store.WithSession("player-1", func(*exploration.Session) error {
		t.Fatal("expired session must not be handed out")
		return nil
	})
	require.Error(t, err)
	assert.True(t, xerr.IsNotFound(err))

	// And the slot is free again
	require.NoError(t, store.Create(exploration.NewSoloSession("player-1", 1, 5, clock.Now())))
}

func TestSessionStore_TouchDefersExpiry(t *testing.T) {
	clock := newFakeClock()
	store := newTestStore(clock)

	require.NoError(t, store.Create(exploration.NewSoloSession("player-1", 1, 5, clock.Now())))

	// Activity just inside the window keeps the session alive
	clock.Advance(119 * time.Second)
	require.NoError(t, store.WithSession("player-1", func(*exploration.Session) error { return nil }))

	clock.Advance(119 * time.Second)
	require.NoError(t, store.WithSession("player-1", func(*exploration.Session) error { return nil }))
}

func TestSessionStore_EndedSessionEvicted(t *testing.T) {
	clock := newFakeClock()
	store := newTestStore(clock)

	require.NoError(t, store.Create(exploration.NewSoloSession("player-1", 1, 5, clock.Now())))

	require.NoError(t, store.WithSession("player-1", func(sess *exploration.Session) error {
		sess.End()
		return nil
	}))

	err := store.WithSession("player-1", func(*exploration.Session) error { return nil })
	require.Error(t, err)
	assert.True(t, xerr.IsNotFound(err))
}

func TestSessionStore_Remove(t *testing.T) {
	clock := newFakeClock()
	store := newTestStore(clock)

	require.NoError(t, store.Create(exploration.NewSoloSession("player-1", 1, 5, clock.Now())))
	store.Remove("player-1")

	err := store.WithSession("player-1", func(*exploration.Session) error { return nil })
	assert.True(t, xerr.IsNotFound(err))

	// Removing twice is a no-op
	store.Remove("player-1")
}

func TestSessionStore_ConcurrentCreateAndAccess(t *testing.T) {
	clock := newFakeClock()
	store := newTestStore(clock)

	require.NoError(t, store.Create(exploration.NewSoloSession("player-1", 1, 5, clock.Now())))

	// Create reads the live session to decide on expiry while WithSession
	// touches it; both must go through the entry lock. Run under -race.
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			err := store.Create(exploration.NewSoloSession("player-1", 1, 5, clock.Now()))
			if err != nil {
				assert.True(t, xerr.IsAlreadyExists(err))
			}
		}()
		go func() {
			defer wg.Done()
			_ = store.WithSession("player-1", func(sess *exploration.Session) error {
				sess.Touch(clock.Now())
				return nil
			})
		}()
	}
	wg.Wait()

	require.NoError(t, store.WithSession("player-1", func(*exploration.Session) error { return nil }))
}

func TestSessionStore_CreateReclaimsExpiredSlot(t *testing.T) {
	clock := newFakeClock()
	store := newTestStore(clock)

	require.NoError(t, store.Create(exploration.NewSoloSession("player-1", 1, 5, clock.Now())))
	clock.Advance(2*time.Minute + time.Second)

	// The expired entry is evicted under its own lock before the new
	// session takes the slot
	replacement := exploration.NewSoloSession("player-1", 3, 5, clock.Now())
	require.NoError(t, store.Create(replacement))

	require.NoError(t, store.WithSession("player-1", func(sess *exploration.Session) error {
		assert.Equal(t, 3, sess.LocationID)
		return nil
	}))
}

func TestSessionStore_SerializesAccess(t *testing.T) {
	clock := newFakeClock()
	store := newTestStore(clock)

	require.NoError(t, store.Create(exploration.NewSoloSession("player-1", 1, 5, clock.Now())))

	// Racing increments stay consistent only if access is serialized
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.WithSession("player-1", func(sess *exploration.Session) error {
				sess.Round++
				return nil
			})
		}()
	}
	wg.Wait()

	require.NoError(t, store.WithSession("player-1", func(sess *exploration.Session) error {
		assert.Equal(t, 51, sess.Round)
		return nil
	}))
}
