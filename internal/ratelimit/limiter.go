package ratelimit

import (
	"sync"
	"time"

	"locallink/pkg/types"
)

const (
	DefaultLimit  = 5
	DefaultWindow = time.Hour
)

// Limiter caps post creation per device over a trailing window. It keeps an
// ordered timestamp sequence per device and discards expired entries on
// every check. State lives in memory: it protects shared capacity, not
// anything secret, and is deliberately reconstructible after a restart.
type Limiter struct {
	limit  int
	window time.Duration

	mu      sync.Mutex
	devices map[string][]time.Time

	now func() time.Time
}

func NewLimiter(limit int, window time.Duration) *Limiter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}

	return &Limiter{
		limit:   limit,
		window:  window,
		devices: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// CanCreate reports whether the device may create another post right now.
func (l *Limiter) CanCreate(deviceID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.prune(deviceID)) < l.limit
}

// RecordCreation notes a successful creation. Call it only after the store
// accepted the post.
func (l *Limiter) RecordCreation(deviceID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.devices[deviceID] = append(l.prune(deviceID), l.now())
}

// Check combines CanCreate with the retry-after hint: a nil result means
// the device may proceed, otherwise the error carries the cooldown until
// the oldest counted creation leaves the window.
func (l *Limiter) Check(deviceID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	recent := l.prune(deviceID)
	if len(recent) < l.limit {
		return nil
	}

	oldest := recent[0]
	retryAfter := l.window - l.now().Sub(oldest)
	if retryAfter < 0 {
		retryAfter = 0
	}

	return &types.RateLimitError{RetryAfter: retryAfter}
}

// prune drops timestamps older than the window. Caller holds l.mu.
func (l *Limiter) prune(deviceID string) []time.Time {
	cutoff := l.now().Add(-l.window)

	stamps := l.devices[deviceID]
	for len(stamps) > 0 && !stamps[0].After(cutoff) {
		stamps = stamps[1:]
	}

	if len(stamps) == 0 {
		delete(l.devices, deviceID)
	} else {
		l.devices[deviceID] = stamps
	}

	return stamps
}
