package report

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/skillcoder/dockguard/internal/logic/alert"
)

const bytesPerMiB = 1024 * 1024

// Service renders a periodic status report on a cron schedule and hands it to
// the alert sink. An empty schedule disables the service.
type Service struct {
	logger    *slog.Logger
	samples   samplesProvider
	status    statusProvider
	sink      sink
	scheduler scheduler

	schedule string
	tz       string

	ready      chan struct{}
	doneCh     chan struct{}
	inShutdown atomic.Bool
}

// New creates the report service.
func New(
	logger *slog.Logger,
	samples samplesProvider,
	status statusProvider,
	sink sink,
	scheduler scheduler,
	schedule string,
	tz string,
) *Service {
	return &Service{
		logger:    logger,
		samples:   samples,
		status:    status,
		sink:      sink,
		scheduler: scheduler,
		schedule:  schedule,
		tz:        tz,
		ready:     make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Name returns the name of the report component.
func (s *Service) Name() string {
	return "status-report"
}

// Start launches the scheduler loop. An empty schedule means Start is a
// no-op, not an error.
func (s *Service) Start(ctx context.Context) error {
	if s.schedule == "" {
		s.logger.InfoContext(ctx, "status report disabled, no schedule configured")
		close(s.ready)
		close(s.doneCh)

		return nil
	}

	if s.inShutdown.Load() {
		s.logger.InfoContext(ctx, "status report is shutting down, skipping start")

		return nil
	}

	go s.run(ctx)

	return nil
}

// Ready returns a channel that is closed once the scheduler loop is waiting
// for its first occurrence.
func (s *Service) Ready() <-chan struct{} {
	return s.ready
}

// Ping only checks readiness. Report occurrences can be a day apart, so there
// is no meaningful staleness window to verify.
func (s *Service) Ping(ctx context.Context) error {
	if s.schedule == "" {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.ready:
		return nil
	default:
		return fmt.Errorf("status report is not ready")
	}
}

// Shutdown waits for the scheduler loop to exit.
func (s *Service) Shutdown(ctx context.Context) error {
	if !s.inShutdown.CompareAndSwap(false, true) {
		s.logger.ErrorContext(ctx, "status report is already shutting down, skipping shutdown")

		return nil
	}

	defer func() {
		s.logger.InfoContext(ctx, "status report shut downed")
	}()

	s.logger.InfoContext(ctx, "shutting down status report")

	select {
	case <-ctx.Done():
		return fmt.Errorf("shutdown context done before report loop exited: %w", ctx.Err())
	case <-s.doneCh:
		s.logger.InfoContext(ctx, "report loop exited")
	}

	return nil
}

func (s *Service) run(ctx context.Context) {
	defer close(s.doneCh)

	logger := s.logger.With("report", "run")

	close(s.ready)

	for {
		next, err := s.scheduler.NextAfter(s.schedule, s.tz, time.Now())
		if err != nil {
			// Validated at startup, so only a programming error lands here.
			logger.ErrorContext(ctx, "report schedule became unparseable", "reason", err)

			return
		}

		timer := time.NewTimer(time.Until(next))

		select {
		case <-timer.C:
			s.send(ctx)
		case <-ctx.Done():
			timer.Stop()
			logger.InfoContext(ctx, "terminating report loop")

			return
		}
	}
}

func (s *Service) send(ctx context.Context) {
	body := s.render()

	if err := s.sink.Deliver(ctx, "Status report", body, alert.CategoryReport); err != nil {
		s.logger.ErrorContext(ctx, "status report delivery failed", "reason", err)

		return
	}

	s.logger.InfoContext(ctx, "status report delivered")
}

// render builds the report body: one line per container sorted by name, then
// the pressure manager status.
func (s *Service) render() string {
	var b strings.Builder

	samples := s.samples.LastSamples()
	sort.Slice(samples, func(i, j int) bool { return samples[i].Name < samples[j].Name })

	if len(samples) == 0 {
		b.WriteString("no containers sampled\n")
	}

	for _, sample := range samples {
		fmt.Fprintf(&b, "%s: cpu %.1f%%, memory %.1f%% (%d/%d MiB)\n",
			sample.Name,
			sample.CPUPercent,
			sample.MemoryPercent,
			sample.MemoryBytes/bytesPerMiB,
			sample.MemoryLimit/bytesPerMiB,
		)
	}

	fmt.Fprintf(&b, "memory pressure: %s\n", string(s.status.State()))

	if killed := s.status.KilledContainers(); len(killed) > 0 {
		fmt.Fprintf(&b, "stopped awaiting restart decision: %s\n", strings.Join(killed, ", "))
	}

	if target, ok := s.status.PendingKillTarget(); ok {
		fmt.Fprintf(&b, "kill countdown armed for: %s\n", target)
	}

	return b.String()
}
