package report

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/skillcoder/dockguard/internal/logic/alert"
	"github.com/skillcoder/dockguard/internal/logic/monitor"
	"github.com/skillcoder/dockguard/internal/logic/pressure"
)

type fakeSamples struct {
	samples []monitor.ContainerSample
}

func (f *fakeSamples) LastSamples() []monitor.ContainerSample {
	return f.samples
}

type fakeStatus struct {
	state   pressure.State
	killed  []string
	pending string
}

func (f *fakeStatus) State() pressure.State {
	return f.state
}

func (f *fakeStatus) KilledContainers() []string {
	return f.killed
}

func (f *fakeStatus) PendingKillTarget() (string, bool) {
	return f.pending, f.pending != ""
}

type fakeSink struct {
	err      error
	titles   []string
	bodies   []string
	category alert.Category
}

func (f *fakeSink) Deliver(_ context.Context, title, body string, category alert.Category) error {
	if f.err != nil {
		return f.err
	}

	f.titles = append(f.titles, title)
	f.bodies = append(f.bodies, body)
	f.category = category

	return nil
}

type fakeScheduler struct {
	next time.Time
	err  error
}

func (f *fakeScheduler) NextAfter(_, _ string, _ time.Time) (time.Time, error) {
	return f.next, f.err
}

func newTestService(samples *fakeSamples, status *fakeStatus, sink *fakeSink) *Service {
	return New(slog.Default(), samples, status, sink, &fakeScheduler{}, "0 9 * * *", "UTC")
}

func TestService_Render(t *testing.T) {
	t.Parallel()

	t.Run("lists containers sorted with pressure status", func(t *testing.T) {
		t.Parallel()

		samples := &fakeSamples{samples: []monitor.ContainerSample{
			{Name: "web", CPUPercent: 12.3, MemoryPercent: 40, MemoryBytes: 400 << 20, MemoryLimit: 1 << 30},
			{Name: "db", CPUPercent: 5, MemoryPercent: 80, MemoryBytes: 800 << 20, MemoryLimit: 1 << 30},
		}}
		status := &fakeStatus{state: pressure.StateNormal}

		svc := newTestService(samples, status, &fakeSink{})
		body := svc.render()

		require.Equal(t,
			"db: cpu 5.0%, memory 80.0% (800/1024 MiB)\n"+
				"web: cpu 12.3%, memory 40.0% (400/1024 MiB)\n"+
				"memory pressure: normal\n",
			body,
		)
	})

	t.Run("includes killed list and pending target", func(t *testing.T) {
		t.Parallel()

		status := &fakeStatus{
			state:   pressure.StateCritical,
			killed:  []string{"cache", "batch"},
			pending: "worker",
		}

		svc := newTestService(&fakeSamples{}, status, &fakeSink{})
		body := svc.render()

		require.Contains(t, body, "no containers sampled")
		require.Contains(t, body, "memory pressure: critical")
		require.Contains(t, body, "stopped awaiting restart decision: cache, batch")
		require.Contains(t, body, "kill countdown armed for: worker")
	})
}

func TestService_Send(t *testing.T) {
	t.Parallel()

	t.Run("delivers with report category", func(t *testing.T) {
		t.Parallel()

		sink := &fakeSink{}
		svc := newTestService(&fakeSamples{}, &fakeStatus{state: pressure.StateNormal}, sink)

		svc.send(t.Context())

		require.Equal(t, []string{"Status report"}, sink.titles)
		require.Equal(t, alert.CategoryReport, sink.category)
	})

	t.Run("delivery failure is swallowed", func(t *testing.T) {
		t.Parallel()

		sink := &fakeSink{err: errors.New("webhook down")}
		svc := newTestService(&fakeSamples{}, &fakeStatus{state: pressure.StateNormal}, sink)

		svc.send(t.Context())

		require.Empty(t, sink.titles)
	})
}

func TestService_StartDisabled(t *testing.T) {
	t.Parallel()

	svc := New(slog.Default(), &fakeSamples{}, &fakeStatus{}, &fakeSink{}, &fakeScheduler{}, "", "")

	require.NoError(t, svc.Start(t.Context()))

	select {
	case <-svc.Ready():
	case <-time.After(time.Second):
		t.Fatal("report service without a schedule must report ready immediately")
	}

	require.NoError(t, svc.Ping(t.Context()))
	require.NoError(t, svc.Shutdown(t.Context()))
}

func TestService_Name(t *testing.T) {
	t.Parallel()

	svc := newTestService(&fakeSamples{}, &fakeStatus{}, &fakeSink{})
	require.Equal(t, "status-report", svc.Name())
}
