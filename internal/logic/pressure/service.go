package pressure

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/skillcoder/dockguard/internal/config"
	"github.com/skillcoder/dockguard/internal/infra/metrics"
	"github.com/skillcoder/dockguard/internal/logic/alert"
)

// Service is the system memory pressure state machine. It polls host memory
// on its own interval, escalates Normal -> Warning -> Critical, stops
// killable containers under sustained critical pressure, and offers restarts
// once memory is back below the safe threshold.
//
// The session fields (state, killed list, pending target) are mutated by the
// polling goroutine and by the command handlers on the HTTP surface, so every
// access goes through the mutex.
type Service struct {
	logger   *slog.Logger
	repo     Repository
	notifier notifier
	cfg      config.PressureConfig

	mu            sync.Mutex
	state         State
	killed        []string
	pendingTarget string
	cancelled     bool
	cancelCh      chan struct{}
	lastPollEnd   time.Time

	ready      chan struct{}
	doneCh     chan struct{}
	inShutdown atomic.Bool
}

// New creates the memory pressure service in the Normal state.
func New(
	logger *slog.Logger,
	repo Repository,
	notifier notifier,
	cfg config.PressureConfig,
) *Service {
	metrics.SetMemoryPressureState(gaugeValue(StateNormal))

	return &Service{
		logger:   logger,
		repo:     repo,
		notifier: notifier,
		cfg:      cfg,
		state:    StateNormal,
		ready:    make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Name returns the name of the pressure manager component.
func (s *Service) Name() string {
	return "memory-pressure"
}

// Start launches the polling loop. Disabled by config means Start is a no-op,
// not an error.
func (s *Service) Start(ctx context.Context) error {
	if !s.cfg.Enabled {
		s.logger.InfoContext(ctx, "memory pressure manager disabled by config")
		close(s.ready)
		close(s.doneCh)

		return nil
	}

	if s.inShutdown.Load() {
		s.logger.InfoContext(ctx, "memory pressure manager is shutting down, skipping start")

		return nil
	}

	go s.run(ctx)

	return nil
}

// Ready returns a channel that is closed once the loop is polling.
func (s *Service) Ready() <-chan struct{} {
	return s.ready
}

// Ping reports loop liveness for the health pinger. The kill countdown and
// stabilization pause legitimately stall polling, so they count into the
// allowed age.
func (s *Service) Ping(ctx context.Context) error {
	if !s.cfg.Enabled {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.ready:
		maxAge := 2*s.cfg.PollInterval + s.cfg.KillDelay + s.cfg.StabilizationWait

		age := s.lastPollAge()
		if age > maxAge {
			return fmt.Errorf("last pressure poll was too long ago: %s", age.Round(time.Second).String())
		}

		return nil
	default:
		return fmt.Errorf("memory pressure manager is not ready")
	}
}

// Shutdown waits for the polling loop to exit.
func (s *Service) Shutdown(ctx context.Context) error {
	if !s.inShutdown.CompareAndSwap(false, true) {
		s.logger.ErrorContext(ctx, "memory pressure manager is already shutting down, skipping shutdown")

		return nil
	}

	defer func() {
		s.logger.InfoContext(ctx, "memory pressure manager shut downed")
	}()

	s.logger.InfoContext(ctx, "shutting down memory pressure manager")

	select {
	case <-ctx.Done():
		return fmt.Errorf("shutdown context done before pressure loop exited: %w", ctx.Err())
	case <-s.doneCh:
		s.logger.InfoContext(ctx, "pressure loop exited")
	}

	return nil
}

// run is the polling loop with the configured interval. A successful kill
// returns a stabilization pause that is waited out before the next poll, so
// the freed memory can be reclaimed before the machine re-evaluates.
func (s *Service) run(ctx context.Context) {
	defer close(s.doneCh)

	logger := s.logger.With("pressure", "run")

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	close(s.ready)

	for {
		pause, err := s.Evaluate(ctx)
		if err != nil {
			logger.ErrorContext(ctx, "pressure evaluation error", "reason", err)
		}

		s.setLastPollEnd()

		if pause > 0 {
			select {
			case <-time.After(pause):
			case <-ctx.Done():
				logger.InfoContext(ctx, "terminating pressure loop")

				return
			}
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			logger.InfoContext(ctx, "terminating pressure loop")

			return
		}
	}
}

// Evaluate runs one poll of the state machine. It returns an extra pause to
// apply before the next poll (non-zero only after a successful stop).
func (s *Service) Evaluate(ctx context.Context) (time.Duration, error) {
	p, err := s.repo.SystemMemoryPercentQuery(ctx)
	if err != nil {
		return 0, fmt.Errorf("sample system memory: %w", err)
	}

	switch s.State() {
	case StateNormal, StateWarning:
		return s.evaluateNominal(ctx, p)
	case StateCritical:
		return s.evaluateCritical(ctx, p)
	case StateRecovering:
		return s.evaluateRecovering(ctx, p)
	}

	return 0, nil
}

func (s *Service) evaluateNominal(ctx context.Context, p float64) (time.Duration, error) {
	state := s.State()

	if p >= s.cfg.CriticalPercent {
		return s.escalateCritical(ctx, p)
	}

	if p >= s.cfg.WarningPercent {
		if state == StateNormal {
			s.setState(StateWarning)
			s.alertWarning(ctx, p)
		}

		return 0, nil
	}

	if state == StateWarning {
		// Silent recovery by design: no alert for Warning -> Normal.
		s.setState(StateNormal)
		s.logger.InfoContext(ctx, "memory pressure recovered", "memoryPercent", p)
	}

	return 0, nil
}

func (s *Service) evaluateCritical(ctx context.Context, p float64) (time.Duration, error) {
	if p < s.cfg.WarningPercent {
		s.leaveCritical(ctx, p)

		return 0, nil
	}

	if p >= s.cfg.CriticalPercent {
		return s.escalateCritical(ctx, p)
	}

	// Between warning and critical: hold state, take no further action.
	return 0, nil
}

func (s *Service) evaluateRecovering(ctx context.Context, p float64) (time.Duration, error) {
	if p >= s.cfg.CriticalPercent {
		// Pressure returned before the episode was fully resolved.
		return s.escalateCritical(ctx, p)
	}

	if p <= s.cfg.SafePercent {
		s.offerRestart(ctx, p)
	}

	return 0, nil
}

// escalateCritical selects a kill target, announces the countdown, waits it
// out, and stops the target if memory is still critical and the kill was not
// cancelled.
func (s *Service) escalateCritical(ctx context.Context, p float64) (time.Duration, error) {
	s.setState(StateCritical)

	target, err := s.nextKillable(ctx)
	if err != nil {
		return 0, err
	}

	if target == "" {
		s.notifier.Notify(ctx,
			"memory-pressure:exhausted",
			"Memory critical: no action available",
			fmt.Sprintf(
				"system memory at %.1f%%; every killable container is already stopped or not running, manual intervention required",
				p,
			),
			alert.CategoryMemory,
		)

		return 0, nil
	}

	s.armCountdown(target)

	s.notifier.Notify(ctx,
		"memory-pressure:kill:"+target,
		"Memory critical",
		fmt.Sprintf(
			"system memory at %.1f%%, stopping container %s in %s unless cancelled",
			p,
			target,
			s.cfg.KillDelay,
		),
		alert.CategoryMemory,
	)

	if !s.waitCountdown(ctx) {
		return 0, nil
	}

	if s.consumeCancellation() {
		s.logger.InfoContext(ctx, "pending kill cancelled by operator", "container", target)

		return 0, nil
	}

	// Memory may have recovered on its own during the countdown.
	current, err := s.repo.SystemMemoryPercentQuery(ctx)
	if err == nil && current < s.cfg.CriticalPercent {
		s.clearPending()
		s.logger.InfoContext(ctx, "memory recovered during countdown, no action taken",
			"container", target,
			"memoryPercent", current,
		)

		return 0, nil
	}

	return s.stopTarget(ctx, target)
}

func (s *Service) stopTarget(ctx context.Context, target string) (time.Duration, error) {
	if err := s.repo.StopCommand(ctx, target); err != nil {
		// The killed list must only ever contain containers we actually
		// stopped and are responsible for restoring.
		s.clearPending()
		s.notifier.Notify(ctx,
			"memory-pressure:stop-failed:"+target,
			"Failed to stop container",
			fmt.Sprintf("could not stop container %s: %v", target, err),
			alert.CategoryMemory,
		)

		return 0, nil
	}

	s.mu.Lock()
	s.killed = append(s.killed, target)
	s.pendingTarget = ""
	s.mu.Unlock()

	metrics.RecordContainerStopped(target)

	after, err := s.repo.SystemMemoryPercentQuery(ctx)
	if err != nil {
		after = -1
	}

	body := fmt.Sprintf("stopped container %s", target)
	if after >= 0 {
		body = fmt.Sprintf("stopped container %s, memory now %.1f%%", target, after)
	}

	s.notifier.Notify(ctx,
		"memory-pressure:stopped:"+target,
		"Container stopped",
		body,
		alert.CategoryMemory,
	)

	return s.cfg.StabilizationWait, nil
}

func (s *Service) leaveCritical(ctx context.Context, p float64) {
	s.mu.Lock()
	hasKilled := len(s.killed) > 0
	s.mu.Unlock()

	if hasKilled {
		s.setState(StateRecovering)
	} else {
		s.setState(StateNormal)
	}

	s.logger.InfoContext(ctx, "memory pressure subsided",
		"memoryPercent", p,
		"state", string(s.State()),
	)
}

func (s *Service) alertWarning(ctx context.Context, p float64) {
	candidates, err := s.nextKillableCandidates(ctx)
	if err != nil {
		candidates = nil
	}

	body := fmt.Sprintf("system memory at %.1f%%; no killable containers currently running", p)
	if len(candidates) > 0 {
		body = fmt.Sprintf(
			"system memory at %.1f%%; containers eligible to stop if it reaches %.1f%%: %s",
			p,
			s.cfg.CriticalPercent,
			joinNames(candidates),
		)
	}

	s.notifier.Notify(ctx, "memory-pressure:warning", "Memory warning", body, alert.CategoryMemory)
}

func (s *Service) offerRestart(ctx context.Context, p float64) {
	s.mu.Lock()
	if len(s.killed) == 0 {
		s.mu.Unlock()

		return
	}

	oldest := s.killed[0]
	s.mu.Unlock()

	s.notifier.Notify(ctx,
		"memory-pressure:restart-offer:"+oldest,
		"Memory recovered",
		fmt.Sprintf(
			"system memory at %.1f%% (safe threshold %.1f%%); confirm to restart container %s",
			p,
			s.cfg.SafePercent,
			oldest,
		),
		alert.CategoryMemory,
	)
}

// nextKillable returns the first configured killable container that is
// currently running and was not already stopped this episode. Priority
// containers are never eligible; the config contract keeps them out of the
// killable list, and the machine re-checks regardless.
func (s *Service) nextKillable(ctx context.Context) (string, error) {
	candidates, err := s.nextKillableCandidates(ctx)
	if err != nil {
		return "", err
	}

	if len(candidates) == 0 {
		return "", nil
	}

	return candidates[0], nil
}

func (s *Service) nextKillableCandidates(ctx context.Context) ([]string, error) {
	names, err := s.repo.ListRunningQuery(ctx)
	if err != nil {
		return nil, fmt.Errorf("list running containers: %w", err)
	}

	running := make(map[string]struct{}, len(names))
	for _, name := range names {
		running[name] = struct{}{}
	}

	priority := make(map[string]struct{}, len(s.cfg.PriorityContainers))
	for _, name := range s.cfg.PriorityContainers {
		priority[name] = struct{}{}
	}

	s.mu.Lock()
	killed := make(map[string]struct{}, len(s.killed))
	for _, name := range s.killed {
		killed[name] = struct{}{}
	}
	s.mu.Unlock()

	candidates := make([]string, 0, len(s.cfg.KillableContainers))

	for _, name := range s.cfg.KillableContainers {
		if _, isPriority := priority[name]; isPriority {
			continue
		}

		if _, alreadyKilled := killed[name]; alreadyKilled {
			continue
		}

		if _, isRunning := running[name]; !isRunning {
			continue
		}

		candidates = append(candidates, name)
	}

	return candidates, nil
}

// armCountdown records the pending target and resets the cancel signal.
func (s *Service) armCountdown(target string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pendingTarget = target
	s.cancelled = false
	s.cancelCh = make(chan struct{})
}

// waitCountdown blocks for the kill delay. A cancel wakes it immediately
// instead of being observed only at expiry. Returns false when the context
// ended the wait.
func (s *Service) waitCountdown(ctx context.Context) bool {
	s.mu.Lock()
	cancelCh := s.cancelCh
	s.mu.Unlock()

	timer := time.NewTimer(s.cfg.KillDelay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-cancelCh:
		return true
	case <-ctx.Done():
		return false
	}
}

// consumeCancellation clears the cancel flag and pending target if a cancel
// was requested, reporting whether it was.
func (s *Service) consumeCancellation() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.cancelled {
		return false
	}

	s.cancelled = false
	s.pendingTarget = ""

	return true
}

func (s *Service) clearPending() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pendingTarget = ""
}

// State returns the current escalation state.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

func (s *Service) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()

	metrics.SetMemoryPressureState(gaugeValue(state))
}

func (s *Service) setLastPollEnd() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastPollEnd = time.Now()
}

func (s *Service) lastPollAge() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	return time.Since(s.lastPollEnd)
}

func joinNames(names []string) string {
	out := ""

	for i, name := range names {
		if i > 0 {
			out += ", "
		}

		out += name
	}

	return out
}
