package services

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"pharmacy-coverage/pkg/logging"
)

// InFlightGuard allows at most one in-flight purchase per (caller, kind, target)
type InFlightGuard struct {
	inFlight map[string]time.Time
	mutex    sync.Mutex
	now      func() time.Time
}

// NewInFlightGuard creates an empty guard
func NewInFlightGuard() *InFlightGuard {
	return &InFlightGuard{
		inFlight: make(map[string]time.Time),
		now:      time.Now,
	}
}

// Acquire claims the (caller, kind, target) slot. It fails with ErrAlreadyInProgress
// when the slot is taken; otherwise the returned release must be called once the
// purchase has finished. Release is safe to call more than once.
func (g *InFlightGuard) Acquire(caller, kind, target string) (func(), error) {
	id := g.generatePurchaseID(caller, kind, target)

	g.mutex.Lock()
	defer g.mutex.Unlock()

	if startedAt, exists := g.inFlight[id]; exists {
		logging.Warnf("Duplicate purchase rejected - caller: %s, kind: %s, target: %s, in flight since: %v",
			caller, kind, target, startedAt)
		return nil, fmt.Errorf("%w: %s %s for %s", ErrAlreadyInProgress, kind, target, caller)
	}
	g.inFlight[id] = g.now()

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mutex.Lock()
			defer g.mutex.Unlock()
			delete(g.inFlight, id)
		})
	}, nil
}

// generatePurchaseID derives the slot identifier; addresses compare case-insensitively
func (g *InFlightGuard) generatePurchaseID(caller, kind, target string) string {
	data := fmt.Sprintf("%s:%s:%s", strings.ToLower(strings.TrimSpace(caller)), kind, strings.ToUpper(strings.TrimSpace(target)))
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// InFlight returns the number of purchases currently in flight
func (g *InFlightGuard) InFlight() int {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	return len(g.inFlight)
}
