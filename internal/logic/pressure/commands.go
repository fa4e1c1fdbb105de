package pressure

import (
	"context"
	"fmt"
	"slices"

	"github.com/skillcoder/dockguard/internal/infra/metrics"
	"github.com/skillcoder/dockguard/internal/logic/alert"
)

// CancelPendingKill aborts the armed kill countdown. It reports whether a
// countdown was actually pending; calling it with nothing armed is a no-op.
func (s *Service) CancelPendingKill() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pendingTarget == "" {
		return false
	}

	if !s.cancelled {
		s.cancelled = true
		close(s.cancelCh)
	}

	return true
}

// ConfirmRestart starts the named container previously stopped by the
// pressure manager. It reports whether the restart happened; a name that is
// not on the killed list returns false without touching the runtime. A failed
// start keeps the container on the list so the offer can be retried.
func (s *Service) ConfirmRestart(ctx context.Context, name string) bool {
	s.mu.Lock()
	known := slices.Contains(s.killed, name)
	s.mu.Unlock()

	if !known {
		return false
	}

	if err := s.repo.StartCommand(ctx, name); err != nil {
		s.notifier.Notify(ctx,
			"memory-pressure:start-failed:"+name,
			"Failed to restart container",
			fmt.Sprintf("could not start container %s: %v", name, err),
			alert.CategoryMemory,
		)

		return false
	}

	metrics.RecordContainerRestarted(name)
	s.removeKilled(name)

	return true
}

// DeclineRestart drops the named container from the killed list without
// starting it. The operator takes over responsibility for it.
func (s *Service) DeclineRestart(name string) bool {
	s.mu.Lock()
	known := slices.Contains(s.killed, name)
	s.mu.Unlock()

	if !known {
		return false
	}

	s.removeKilled(name)

	return true
}

// PendingKillTarget returns the container currently under countdown, if any.
func (s *Service) PendingKillTarget() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.pendingTarget, s.pendingTarget != ""
}

// KilledContainers returns a copy of the containers stopped this episode that
// still await a restart decision, oldest first.
func (s *Service) KilledContainers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.killed)
}

// removeKilled drops a name from the killed list. Once the list empties while
// recovering, the episode is over and the machine returns to Normal.
func (s *Service) removeKilled(name string) {
	s.mu.Lock()

	s.killed = slices.DeleteFunc(s.killed, func(n string) bool { return n == name })
	episodeDone := len(s.killed) == 0 && s.state == StateRecovering

	if episodeDone {
		s.state = StateNormal
	}

	s.mu.Unlock()

	if episodeDone {
		metrics.SetMemoryPressureState(gaugeValue(StateNormal))
	}
}
