package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/skillcoder/dockguard/internal/config"
	"github.com/skillcoder/dockguard/internal/infra/metrics"
	"github.com/skillcoder/dockguard/internal/logic/alert"
	"github.com/skillcoder/dockguard/internal/logic/stats"
)

// Service is the per-container resource monitor loop: every poll interval it
// samples all running containers, feeds the tracker, and alerts on sustained
// violations through the shared cooldown gate.
type Service struct {
	logger    *slog.Logger
	repo      Repository
	notifier  notifier
	tracker   *Tracker
	interval  time.Duration
	sustained time.Duration
	enabled   bool
	hostCPUs  int

	// prevCounters holds the previous poll's CPU counters per container,
	// owned by the run goroutine.
	prevCounters map[string]stats.Counters

	ready      chan struct{}
	doneCh     chan struct{}
	inShutdown atomic.Bool

	mu           sync.RWMutex
	lastCycleEnd time.Time
	lastSamples  []ContainerSample
}

// New creates the resource monitor service.
func New(
	logger *slog.Logger,
	repo Repository,
	notifier notifier,
	cfg config.MonitorConfig,
	hostCPUs int,
) *Service {
	defaults := Thresholds{
		CPUPercent:    cfg.CPUPercent,
		MemoryPercent: cfg.MemoryPercent,
	}

	return &Service{
		logger:       logger,
		repo:         repo,
		notifier:     notifier,
		tracker:      NewTracker(defaults, cfg.Overrides),
		interval:     cfg.PollInterval,
		sustained:    cfg.Sustained,
		enabled:      cfg.Enabled,
		hostCPUs:     hostCPUs,
		prevCounters: make(map[string]stats.Counters),
		ready:        make(chan struct{}),
		doneCh:       make(chan struct{}),
	}
}

// Name returns the name of the monitor component.
func (s *Service) Name() string {
	return "resource-monitor"
}

// Start launches the polling loop. Disabled by config means Start is a no-op,
// not an error.
func (s *Service) Start(ctx context.Context) error {
	if !s.enabled {
		s.logger.InfoContext(ctx, "resource monitor disabled by config")
		close(s.ready)
		close(s.doneCh)

		return nil
	}

	if s.inShutdown.Load() {
		s.logger.InfoContext(ctx, "resource monitor is shutting down, skipping start")

		return nil
	}

	go s.run(ctx)

	return nil
}

// Ready returns a channel that is closed once the first poll cycle completed.
func (s *Service) Ready() <-chan struct{} {
	return s.ready
}

// Ping reports loop liveness for the health pinger.
func (s *Service) Ping(ctx context.Context) error {
	if !s.enabled {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.ready:
		lastCycleAge := s.lastCycleAge()
		if lastCycleAge > 2*s.interval {
			return fmt.Errorf("last poll cycle was too long ago: %s", lastCycleAge.Round(time.Second).String())
		}

		return nil
	default:
		return fmt.Errorf("resource monitor is not ready")
	}
}

// Shutdown waits for the polling loop to exit.
func (s *Service) Shutdown(ctx context.Context) error {
	if !s.inShutdown.CompareAndSwap(false, true) {
		s.logger.ErrorContext(ctx, "resource monitor is already shutting down, skipping shutdown")

		return nil
	}

	defer func() {
		s.logger.InfoContext(ctx, "resource monitor shut downed")
	}()

	s.logger.InfoContext(ctx, "shutting down resource monitor")

	select {
	case <-ctx.Done():
		return fmt.Errorf("shutdown context done before monitor loop exited: %w", ctx.Err())
	case <-s.doneCh:
		s.logger.InfoContext(ctx, "monitor loop exited")
	}

	return nil
}

// LastSamples returns the samples of the most recent completed poll cycle.
func (s *Service) LastSamples() []ContainerSample {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ContainerSample, len(s.lastSamples))
	copy(out, s.lastSamples)

	return out
}

// run is the polling loop with the configured interval.
func (s *Service) run(ctx context.Context) {
	defer close(s.doneCh)

	logger := s.logger.With("monitor", "run")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	close(s.ready)

	for {
		err := s.PollCycle(ctx)
		if err != nil {
			logger.ErrorContext(ctx, "poll cycle error", "reason", err)
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			logger.InfoContext(ctx, "terminating monitor loop")

			return
		}
	}
}

// PollCycle runs one full sampling pass over all running containers. A single
// container's sampling failure is logged and skipped; it never aborts the
// rest of the cycle.
func (s *Service) PollCycle(ctx context.Context) error {
	logger := s.logger.With("monitor", "PollCycle")

	names, err := s.repo.ListRunningQuery(ctx)
	if err != nil {
		return fmt.Errorf("list running containers: %w", err)
	}

	running := make(map[string]struct{}, len(names))
	for _, name := range names {
		running[name] = struct{}{}
	}

	// Stale counters would produce a bogus delta after a container restart.
	for name := range s.prevCounters {
		if _, ok := running[name]; !ok {
			delete(s.prevCounters, name)
		}
	}

	s.tracker.Prune(running)

	samples := make([]ContainerSample, 0, len(names))

	for _, name := range names {
		select {
		case <-ctx.Done():
			logger.InfoContext(ctx, "context done, stopping poll cycle")

			return nil
		default:
		}

		sample, err := s.sampleContainer(ctx, name)
		if err != nil {
			var target notFound
			if errors.As(err, &target) {
				logger.DebugContext(ctx, "container disappeared mid-cycle, skipping", "container", name)
			} else {
				logger.WarnContext(ctx, "sampling failed, skipping container",
					"container", name,
					"reason", err,
				)
			}

			metrics.RecordSampleFailure(name)

			continue
		}

		samples = append(samples, *sample)
		s.evaluate(ctx, logger, *sample)
	}

	s.mu.Lock()
	s.lastSamples = samples
	s.lastCycleEnd = time.Now()
	s.mu.Unlock()

	metrics.RecordPollCycle()

	logger.DebugContext(ctx, "poll cycle completed",
		"containers", len(names),
		"sampled", len(samples),
		"violations", s.tracker.Len(),
	)

	return nil
}

func (s *Service) sampleContainer(ctx context.Context, name string) (*ContainerSample, error) {
	raw, err := s.repo.SampleQuery(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("sample container: %w", err)
	}

	prev, seen := s.prevCounters[name]
	s.prevCounters[name] = raw.CPU

	// First sighting has no delta baseline; CPU reads as idle this cycle.
	var cpuPercent float64
	if seen {
		cpuPercent = stats.CPUPercent(raw.CPU, prev, s.hostCPUs)
	}

	var cache uint64
	if raw.CacheReported {
		cache = raw.MemoryCache
	}

	return &ContainerSample{
		Name:          name,
		CPUPercent:    cpuPercent,
		MemoryPercent: stats.MemoryPercent(raw.MemoryUsage, cache, raw.MemoryLimit),
		MemoryBytes:   stats.UsedBytes(raw.MemoryUsage, cache),
		MemoryLimit:   raw.MemoryLimit,
	}, nil
}

func (s *Service) evaluate(ctx context.Context, logger *slog.Logger, sample ContainerSample) {
	events := s.tracker.Update(sample)

	for metric, event := range events {
		switch event {
		case EventStarted:
			logger.InfoContext(ctx, "violation started",
				"container", sample.Name,
				"metric", string(metric),
			)
		case EventCleared:
			logger.InfoContext(ctx, "violation cleared",
				"container", sample.Name,
				"metric", string(metric),
			)

			continue
		case EventContinuing, EventNone:
		}

		state, ok := s.tracker.Get(sample.Name, metric)
		if !ok {
			continue
		}

		duration := time.Since(state.StartedAt)
		if duration < s.sustained {
			continue
		}

		key := sample.Name + ":" + string(metric)
		title := fmt.Sprintf("Sustained %s violation: %s", metric, sample.Name)
		body := fmt.Sprintf(
			"container %s %s at %.1f%% (threshold %.1f%%) for %s",
			sample.Name,
			metric,
			state.CurrentValue,
			state.Threshold,
			duration.Round(time.Second),
		)

		s.notifier.Notify(ctx, key, title, body, alert.CategoryResource)
	}
}

func (s *Service) lastCycleAge() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return time.Since(s.lastCycleEnd)
}
