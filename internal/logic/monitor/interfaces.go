package monitor

import (
	"context"

	"github.com/skillcoder/dockguard/internal/logic/alert"
)

// Repository is the port interface for runtime metric operations.
// Implementations are provided by adapters in the outbound layer.
type Repository interface {
	ListRunningQuery(ctx context.Context) ([]string, error)

	SampleQuery(ctx context.Context, name string) (*RawSample, error)
}

// notifier is the cooldown-gated alert seam shared with the pressure manager.
type notifier interface {
	Notify(ctx context.Context, key, title, body string, category alert.Category) bool
}

// notFound is a private interface for checking "not found" errors
// without importing the adapter package.
type notFound interface {
	IsNotFound()
}
