// Package alert provides the cooldown gate and the delivery seam shared by
// every alert producer in the process.
package alert

import "context"

// Category tells the sink which mute policy applies. The sink's own muting is
// complementary to the cooldown gate: the gate prevents spam, a mute prevents
// all delivery regardless of frequency.
type Category string

const (
	// CategoryResource is for per-container sustained violation alerts.
	CategoryResource Category = "resource"

	// CategoryMemory is for system memory pressure alerts and actions.
	CategoryMemory Category = "memory"

	// CategoryReport is for the scheduled status report.
	CategoryReport Category = "report"
)

// Sink delivers formatted alert text to the operator. Implementations live in
// the outbound adapters; the logic layer only knows this seam.
type Sink interface {
	Deliver(ctx context.Context, title, body string, category Category) error
}
