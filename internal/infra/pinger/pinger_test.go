package pinger_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/skillcoder/dockguard/internal/infra/pinger"
)

type fakePinger struct {
	name string
	err  error
}

func (f *fakePinger) Name() string { return f.name }

func (f *fakePinger) Ping(_ context.Context) error { return f.err }

type nonCriticalPinger struct {
	fakePinger
}

func (f *nonCriticalPinger) PingerCritical() bool { return false }

func TestRegister(t *testing.T) {
	t.Parallel()

	logger := slog.Default()

	t.Run("nil pinger errors", func(t *testing.T) {
		t.Parallel()

		svc := pinger.New(logger, time.Second)
		require.Error(t, svc.Register(nil))
	})

	t.Run("duplicate name errors", func(t *testing.T) {
		t.Parallel()

		svc := pinger.New(logger, time.Second)
		require.NoError(t, svc.Register(&fakePinger{name: "a"}))

		err := svc.Register(&fakePinger{name: "a"})
		require.ErrorIs(t, err, pinger.ErrPingerAlreadyRegistered)
	})
}

func TestGetStats(t *testing.T) {
	t.Parallel()

	logger := slog.Default()

	t.Run("unknown pinger errors", func(t *testing.T) {
		t.Parallel()

		svc := pinger.New(logger, time.Second)

		_, err := svc.GetStats("nope")
		require.ErrorIs(t, err, pinger.ErrPingerNotFound)
	})

	t.Run("failing pinger is unhealthy", func(t *testing.T) {
		t.Parallel()

		svc := pinger.New(logger, 10*time.Millisecond)
		require.NoError(t, svc.Register(&fakePinger{name: "bad", err: errors.New("down")}))

		ctx, cancel := context.WithCancel(t.Context())
		require.NoError(t, svc.Start(ctx))

		select {
		case <-svc.Ready():
		case <-time.After(time.Second):
			t.Fatal("pinger service not ready in time")
		}

		stats, err := svc.GetStats("bad")
		require.NoError(t, err)
		require.False(t, stats.IsHealthy)
		require.Error(t, stats.LastError)

		cancel()
		require.NoError(t, svc.Shutdown(context.Background()))
	})

	t.Run("non-critical failing pinger stays healthy", func(t *testing.T) {
		t.Parallel()

		svc := pinger.New(logger, 10*time.Millisecond)

		bad := &nonCriticalPinger{}
		bad.name = "optional"
		bad.err = errors.New("down")
		require.NoError(t, svc.Register(bad))

		ctx, cancel := context.WithCancel(t.Context())
		require.NoError(t, svc.Start(ctx))

		select {
		case <-svc.Ready():
		case <-time.After(time.Second):
			t.Fatal("pinger service not ready in time")
		}

		stats, err := svc.GetStats("optional")
		require.NoError(t, err)
		require.True(t, stats.IsHealthy)

		cancel()
		require.NoError(t, svc.Shutdown(context.Background()))
	})
}
