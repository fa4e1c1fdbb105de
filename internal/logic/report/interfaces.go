package report

import (
	"context"
	"time"

	"github.com/skillcoder/dockguard/internal/logic/alert"
	"github.com/skillcoder/dockguard/internal/logic/monitor"
	"github.com/skillcoder/dockguard/internal/logic/pressure"
)

// samplesProvider is satisfied by the resource monitor.
type samplesProvider interface {
	LastSamples() []monitor.ContainerSample
}

// statusProvider is satisfied by the memory pressure manager.
type statusProvider interface {
	State() pressure.State
	KilledContainers() []string
	PendingKillTarget() (string, bool)
}

// sink delivers the rendered report. Reports are scheduled, not event-driven,
// so they go to the sink directly instead of through the cooldown gate.
type sink interface {
	Deliver(ctx context.Context, title, body string, category alert.Category) error
}

// scheduler yields the next report time after a given instant.
type scheduler interface {
	NextAfter(spec, tz string, after time.Time) (time.Time, error)
}
