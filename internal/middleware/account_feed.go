package middleware

import (
	"strings"
	"sync"
	"time"

	"pharmacy-coverage/pkg/logging"
)

const (
	defaultSessionTTL      = 24 * time.Hour
	defaultCleanupInterval = time.Hour
	defaultMaxSessions     = 10000
)

// AccountChange describes a session switching account or network
type AccountChange struct {
	SessionID       string
	PreviousAddress string
	Address         string
	PreviousNetwork string
	Network         string
}

// AccountFeed tracks the last account and network per session and notifies
// subscribers when either changes. Handlers never read it; the current
// account always reaches them as a plain request value.
//
// Sessions idle longer than the TTL are forgotten by a background sweep,
// and at most maxSessions are tracked at once.
type AccountFeed struct {
	mutex           sync.Mutex
	sessions        map[string]sessionAccount
	subscribers     map[int]func(AccountChange)
	nextID          int
	sessionTTL      time.Duration
	cleanupInterval time.Duration
	maxSessions     int
	now             func() time.Time
	stopCleanup     chan struct{}
	stopOnce        sync.Once
}

type sessionAccount struct {
	address  string
	network  string
	lastSeen time.Time
}

// NewAccountFeed creates an empty feed and starts its cleanup routine.
// Call Stop to end the routine.
func NewAccountFeed() *AccountFeed {
	f := &AccountFeed{
		sessions:        make(map[string]sessionAccount),
		subscribers:     make(map[int]func(AccountChange)),
		sessionTTL:      defaultSessionTTL,
		cleanupInterval: defaultCleanupInterval,
		maxSessions:     defaultMaxSessions,
		now:             time.Now,
		stopCleanup:     make(chan struct{}),
	}

	go f.startCleanupRoutine()

	return f
}

// Subscribe registers fn and returns the function that removes it
func (f *AccountFeed) Subscribe(fn func(AccountChange)) (unsubscribe func()) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	id := f.nextID
	f.nextID++
	f.subscribers[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mutex.Lock()
			defer f.mutex.Unlock()
			delete(f.subscribers, id)
		})
	}
}

// Observe records the account seen for a session. The first sighting of a
// session is not a change. Requests without a session id are ignored.
func (f *AccountFeed) Observe(sessionID, address, network string) {
	if sessionID == "" {
		return
	}

	f.mutex.Lock()
	now := f.now()
	prev, seen := f.sessions[sessionID]
	if seen && now.Sub(prev.lastSeen) > f.sessionTTL {
		seen = false
	}
	if !seen && len(f.sessions) >= f.maxSessions {
		f.expireLocked(now)
		if len(f.sessions) >= f.maxSessions {
			f.mutex.Unlock()
			logging.Warnf("Account feed is full (%d sessions), not tracking session %s", f.maxSessions, sessionID)
			return
		}
	}
	f.sessions[sessionID] = sessionAccount{address: address, network: network, lastSeen: now}

	changed := seen && (!strings.EqualFold(prev.address, address) || prev.network != network)
	var subscribers []func(AccountChange)
	if changed {
		subscribers = make([]func(AccountChange), 0, len(f.subscribers))
		for _, fn := range f.subscribers {
			subscribers = append(subscribers, fn)
		}
	}
	f.mutex.Unlock()

	change := AccountChange{
		SessionID:       sessionID,
		PreviousAddress: prev.address,
		Address:         address,
		PreviousNetwork: prev.network,
		Network:         network,
	}
	for _, fn := range subscribers {
		fn(change)
	}
}

// Sessions returns the number of sessions currently tracked
func (f *AccountFeed) Sessions() int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return len(f.sessions)
}

func (f *AccountFeed) startCleanupRoutine() {
	ticker := time.NewTicker(f.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			f.cleanup()
		case <-f.stopCleanup:
			return
		}
	}
}

// cleanup forgets sessions idle longer than the TTL
func (f *AccountFeed) cleanup() {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	initialCount := len(f.sessions)
	f.expireLocked(f.now())

	if cleanedCount := initialCount - len(f.sessions); cleanedCount > 0 {
		logging.Infof("Account feed cleanup: removed %d idle sessions, remaining: %d", cleanedCount, len(f.sessions))
	}
}

// expireLocked drops idle sessions; caller holds the mutex
func (f *AccountFeed) expireLocked(now time.Time) {
	for id, s := range f.sessions {
		if now.Sub(s.lastSeen) > f.sessionTTL {
			delete(f.sessions, id)
		}
	}
}

// Stop ends the cleanup routine. It is safe to call more than once.
func (f *AccountFeed) Stop() {
	f.stopOnce.Do(func() {
		close(f.stopCleanup)
	})
}
