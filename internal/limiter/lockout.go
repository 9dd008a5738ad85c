package limiter

import (
	"sync"
	"time"
)

// Lockout tracks failed logins per account and blocks it for a while after too many.
type Lockout struct {
	window   time.Duration
	maxFails int
	blockFor time.Duration
	now      func() time.Time

	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	fails        int
	updatedAt    time.Time
	blockedUntil time.Time
}

// NewLockout constructs a Lockout. Failures older than window restart the count.
func NewLockout(window time.Duration, maxFails int, blockFor time.Duration) *Lockout {
	return &Lockout{
		window:   window,
		maxFails: maxFails,
		blockFor: blockFor,
		now:      time.Now,
		entries:  map[string]*lockEntry{},
	}
}

// Allow reports whether login is currently allowed and the retry-after when it is not.
func (l *Lockout) Allow(username string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[username]
	if !ok {
		return true, 0
	}
	now := l.now()
	if e.blockedUntil.After(now) {
		return false, e.blockedUntil.Sub(now)
	}
	return true, 0
}

// Success resets counters for username.
func (l *Lockout) Success(username string) {
	l.mu.Lock()
	delete(l.entries, username)
	l.mu.Unlock()
}

// Failure records a failed attempt; reports whether it placed a block and for how long.
func (l *Lockout) Failure(username string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.entries[username]
	if !ok {
		e = &lockEntry{}
		l.entries[username] = e
	}
	if now.Sub(e.updatedAt) > l.window {
		e.fails = 1
	} else {
		e.fails++
	}
	e.updatedAt = now

	if l.maxFails > 0 && e.fails >= l.maxFails {
		e.blockedUntil = now.Add(l.blockFor)
		return true, l.blockFor
	}
	return false, 0
}
