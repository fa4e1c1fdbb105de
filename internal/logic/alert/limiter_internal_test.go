package alert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fixedClock lets tests step time deterministically.
type fixedClock struct {
	t time.Time
}

func (c *fixedClock) now() time.Time { return c.t }

func (c *fixedClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(cooldown time.Duration) (*Limiter, *fixedClock) {
	clock := &fixedClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	l := NewLimiter(cooldown)
	l.now = clock.now

	return l, clock
}

func TestLimiter_ShouldAlert(t *testing.T) {
	t.Parallel()

	t.Run("unknown key alerts immediately", func(t *testing.T) {
		t.Parallel()

		l, _ := newTestLimiter(time.Minute)
		require.True(t, l.ShouldAlert("web:cpu"))
	})

	t.Run("key in cooldown is gated", func(t *testing.T) {
		t.Parallel()

		l, clock := newTestLimiter(time.Minute)

		l.RecordAlert("web:cpu")
		require.False(t, l.ShouldAlert("web:cpu"))

		clock.advance(59 * time.Second)
		require.False(t, l.ShouldAlert("web:cpu"))

		clock.advance(time.Second)
		require.True(t, l.ShouldAlert("web:cpu"))
	})

	t.Run("distinct keys are independent", func(t *testing.T) {
		t.Parallel()

		l, _ := newTestLimiter(time.Minute)

		l.RecordAlert("web:cpu")
		require.False(t, l.ShouldAlert("web:cpu"))
		require.True(t, l.ShouldAlert("web:memory"))
		require.True(t, l.ShouldAlert("db:cpu"))
	})

	t.Run("suppression does not affect the gate", func(t *testing.T) {
		t.Parallel()

		l, clock := newTestLimiter(time.Minute)

		l.RecordAlert("memory-pressure:warning")
		l.RecordSuppressed("memory-pressure:warning")
		l.RecordSuppressed("memory-pressure:warning")

		clock.advance(time.Minute)
		require.True(t, l.ShouldAlert("memory-pressure:warning"))
	})
}
