package appstate_test

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/skillcoder/dockguard/internal/infra/appstate"
	"github.com/skillcoder/dockguard/internal/infra/pinger"
)

func newTestState(t *testing.T) *appstate.AppState {
	t.Helper()

	logger := slog.Default()
	quit := make(chan os.Signal, 1)
	pingerSvc := pinger.New(logger, time.Second)

	return appstate.New(logger, time.Now(), "", quit, pingerSvc)
}

func TestStateTransitions(t *testing.T) {
	t.Parallel()

	t.Run("init to starting to running", func(t *testing.T) {
		t.Parallel()

		s := newTestState(t)
		require.Equal(t, appstate.StateInit, s.GetState())

		require.NoError(t, s.SetStarting(t.Context()))
		require.Equal(t, appstate.StateStarting, s.GetState())
		require.False(t, s.IsReady())

		require.NoError(t, s.SetRunning(t.Context()))
		require.Equal(t, appstate.StateRunning, s.GetState())
		require.True(t, s.IsReady())
		require.True(t, s.IsHealthy())
	})

	t.Run("running without starting fails", func(t *testing.T) {
		t.Parallel()

		s := newTestState(t)

		err := s.SetRunning(t.Context())
		require.ErrorIs(t, err, appstate.ErrInvalidStateTransition)
	})

	t.Run("double starting fails", func(t *testing.T) {
		t.Parallel()

		s := newTestState(t)
		require.NoError(t, s.SetStarting(t.Context()))

		err := s.SetStarting(t.Context())
		require.ErrorIs(t, err, appstate.ErrInvalidStateTransition)
	})

	t.Run("terminating allowed from any live state", func(t *testing.T) {
		t.Parallel()

		s := newTestState(t)
		require.NoError(t, s.SetTerminating(t.Context()))
		require.Equal(t, appstate.StateTerminating, s.GetState())
		require.False(t, s.IsHealthy())
	})

	t.Run("shutdown terminates", func(t *testing.T) {
		t.Parallel()

		s := newTestState(t)
		require.NoError(t, s.Shutdown(t.Context()))
		require.Equal(t, appstate.StateTerminated, s.GetState())

		err := s.SetTerminating(t.Context())
		require.ErrorIs(t, err, appstate.ErrAlreadyTerminated)
	})
}

func TestGetUptime(t *testing.T) {
	t.Parallel()

	s := newTestState(t)
	require.GreaterOrEqual(t, s.GetUptime(), time.Duration(0))
	require.False(t, s.GetStartTime().IsZero())
}
