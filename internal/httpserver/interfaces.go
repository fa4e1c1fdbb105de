package httpserver

import (
	"context"
	"time"

	"github.com/skillcoder/dockguard/internal/infra/appstate"
	"github.com/skillcoder/dockguard/internal/infra/pinger"
	"github.com/skillcoder/dockguard/internal/logic/pressure"
)

// appstater is an internal interface for application state management
type appstater interface {
	GetState() appstate.State
	IsHealthy() bool
	IsReady() bool
	GetUptime() time.Duration
	GetStartTime() time.Time
	GetAllStats() map[string]*pinger.Statistics
}

// pressureCommander is the slice of the memory pressure manager the HTTP
// command surface needs.
type pressureCommander interface {
	State() pressure.State
	KilledContainers() []string
	PendingKillTarget() (string, bool)
	CancelPendingKill() bool
	ConfirmRestart(ctx context.Context, name string) bool
	DeclineRestart(name string) bool
}
