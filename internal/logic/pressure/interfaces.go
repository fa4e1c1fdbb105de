package pressure

import (
	"context"

	"github.com/skillcoder/dockguard/internal/logic/alert"
)

// Repository is the port interface for system memory sampling and container
// stop/start operations. Implementations are provided by adapters in the
// outbound layer.
type Repository interface {
	ListRunningQuery(ctx context.Context) ([]string, error)

	SystemMemoryPercentQuery(ctx context.Context) (float64, error)

	StopCommand(ctx context.Context, name string) error

	StartCommand(ctx context.Context, name string) error
}

// notifier is the cooldown-gated alert seam shared with the resource monitor.
type notifier interface {
	Notify(ctx context.Context, key, title, body string, category alert.Category) bool
}
