package alert

import (
	"context"
	"log/slog"

	"github.com/skillcoder/dockguard/internal/infra/metrics"
)

// Notifier composes the cooldown gate with a sink. Both monitors share one
// instance so their keys live in the same cooldown namespace.
type Notifier struct {
	logger  *slog.Logger
	limiter *Limiter
	sink    Sink
}

// NewNotifier creates a notifier over the shared limiter and sink.
func NewNotifier(logger *slog.Logger, limiter *Limiter, sink Sink) *Notifier {
	return &Notifier{
		logger:  logger,
		limiter: limiter,
		sink:    sink,
	}
}

// Notify delivers an alert unless the key is in cooldown. Returns whether the
// alert was delivered. Delivery failure does not start the cooldown window, so
// a transiently failing sink gets a retry on the next attempt.
func (n *Notifier) Notify(ctx context.Context, key, title, body string, category Category) bool {
	if !n.limiter.ShouldAlert(key) {
		n.limiter.RecordSuppressed(key)
		n.logger.DebugContext(ctx, "alert suppressed by cooldown", "key", key)

		return false
	}

	if err := n.sink.Deliver(ctx, title, body, category); err != nil {
		n.logger.ErrorContext(ctx, "alert delivery failed",
			"key", key,
			"title", title,
			"reason", err,
		)

		return false
	}

	n.limiter.RecordAlert(key)
	metrics.RecordAlertSent(string(category))

	return true
}
