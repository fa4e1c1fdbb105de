package alert

import (
	"sync"
	"time"

	"github.com/skillcoder/dockguard/internal/infra/metrics"
)

// Limiter is a cooldown gate keyed by alert identity. It has no knowledge of
// why an alert fired; distinct keys are fully independent. One configured
// window applies to every key.
type Limiter struct {
	mu       sync.Mutex
	cooldown time.Duration
	lastSent map[string]time.Time
	now      func() time.Time
}

// NewLimiter creates a cooldown gate with the given shared window.
func NewLimiter(cooldown time.Duration) *Limiter {
	return &Limiter{
		cooldown: cooldown,
		lastSent: make(map[string]time.Time),
		now:      time.Now,
	}
}

// ShouldAlert reports whether the cooldown window for key has elapsed since
// the last RecordAlert(key).
func (l *Limiter) ShouldAlert(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	last, ok := l.lastSent[key]
	if !ok {
		return true
	}

	return l.now().Sub(last) >= l.cooldown
}

// RecordAlert marks key as sent now, starting its cooldown window.
func (l *Limiter) RecordAlert(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.lastSent[key] = l.now()
}

// RecordSuppressed counts a dropped alert for observability. It has no effect
// on the gate.
func (l *Limiter) RecordSuppressed(key string) {
	metrics.RecordAlertSuppressed(key)
}
