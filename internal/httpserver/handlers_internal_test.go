package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/skillcoder/dockguard/internal/infra/appstate"
	"github.com/skillcoder/dockguard/internal/infra/pinger"
	"github.com/skillcoder/dockguard/internal/logic/pressure"
)

type fakeAppState struct {
	healthy bool
	ready   bool
}

func (f *fakeAppState) GetState() appstate.State   { return appstate.StateRunning }
func (f *fakeAppState) IsHealthy() bool            { return f.healthy }
func (f *fakeAppState) IsReady() bool              { return f.ready }
func (f *fakeAppState) GetUptime() time.Duration   { return time.Minute }
func (f *fakeAppState) GetStartTime() time.Time    { return time.Now().Add(-time.Minute) }
func (f *fakeAppState) GetAllStats() map[string]*pinger.Statistics {
	return nil
}

type fakePressure struct {
	state     pressure.State
	killed    []string
	pending   string
	cancelOK  bool
	confirmOK bool
	declineOK bool

	confirmed []string
	declined  []string
}

func (f *fakePressure) State() pressure.State       { return f.state }
func (f *fakePressure) KilledContainers() []string  { return f.killed }
func (f *fakePressure) CancelPendingKill() bool     { return f.cancelOK }
func (f *fakePressure) PendingKillTarget() (string, bool) {
	return f.pending, f.pending != ""
}

func (f *fakePressure) ConfirmRestart(_ context.Context, name string) bool {
	f.confirmed = append(f.confirmed, name)

	return f.confirmOK
}

func (f *fakePressure) DeclineRestart(name string) bool {
	f.declined = append(f.declined, name)

	return f.declineOK
}

func newTestServer(appState appstater, pc pressureCommander) *Server {
	return New(slog.Default(), appState, pc, "")
}

func TestHandleHealthz(t *testing.T) {
	t.Parallel()

	t.Run("healthy returns 200", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(&fakeAppState{healthy: true}, &fakePressure{})
		rec := httptest.NewRecorder()

		srv.handleHealthz(rec, httptest.NewRequest(http.MethodGet, "/-/healthz", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("unhealthy returns 503", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(&fakeAppState{}, &fakePressure{})
		rec := httptest.NewRecorder()

		srv.handleHealthz(rec, httptest.NewRequest(http.MethodGet, "/-/healthz", nil))
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestHandleReadyz(t *testing.T) {
	t.Parallel()

	srv := newTestServer(&fakeAppState{ready: true}, &fakePressure{})
	rec := httptest.NewRecorder()

	srv.handleReadyz(rec, httptest.NewRequest(http.MethodGet, "/-/readyz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHandlePressureStatus(t *testing.T) {
	t.Parallel()

	fp := &fakePressure{
		state:   pressure.StateRecovering,
		killed:  []string{"cache"},
		pending: "batch",
	}

	srv := newTestServer(&fakeAppState{}, fp)
	rec := httptest.NewRecorder()

	srv.handlePressureStatus(rec, httptest.NewRequest(http.MethodGet, "/api/v1/pressure", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got pressureResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "recovering", got.State)
	require.Equal(t, []string{"cache"}, got.KilledContainers)
	require.Equal(t, "batch", got.PendingKillTarget)
}

func TestHandlePressureCancel(t *testing.T) {
	t.Parallel()

	t.Run("pending kill cancelled", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(&fakeAppState{}, &fakePressure{cancelOK: true})
		rec := httptest.NewRecorder()

		srv.handlePressureCancel(rec, httptest.NewRequest(http.MethodPost, "/api/v1/pressure/cancel", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("nothing pending returns 409", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(&fakeAppState{}, &fakePressure{})
		rec := httptest.NewRecorder()

		srv.handlePressureCancel(rec, httptest.NewRequest(http.MethodPost, "/api/v1/pressure/cancel", nil))
		require.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestHandleRestartConfirm(t *testing.T) {
	t.Parallel()

	t.Run("confirms a known container", func(t *testing.T) {
		t.Parallel()

		fp := &fakePressure{confirmOK: true}
		srv := newTestServer(&fakeAppState{}, fp)
		rec := httptest.NewRecorder()

		req := httptest.NewRequest(http.MethodPost, "/api/v1/pressure/restart/confirm",
			strings.NewReader(`{"container":"cache"}`))

		srv.handleRestartConfirm(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, []string{"cache"}, fp.confirmed)
	})

	t.Run("unknown container returns 409", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(&fakeAppState{}, &fakePressure{})
		rec := httptest.NewRecorder()

		req := httptest.NewRequest(http.MethodPost, "/api/v1/pressure/restart/confirm",
			strings.NewReader(`{"container":"ghost"}`))

		srv.handleRestartConfirm(rec, req)
		require.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("missing container name returns 400", func(t *testing.T) {
		t.Parallel()

		fp := &fakePressure{confirmOK: true}
		srv := newTestServer(&fakeAppState{}, fp)
		rec := httptest.NewRecorder()

		req := httptest.NewRequest(http.MethodPost, "/api/v1/pressure/restart/confirm",
			strings.NewReader(`{}`))

		srv.handleRestartConfirm(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Empty(t, fp.confirmed)
	})
}

func TestHandleRestartDecline(t *testing.T) {
	t.Parallel()

	fp := &fakePressure{declineOK: true}
	srv := newTestServer(&fakeAppState{}, fp)
	rec := httptest.NewRecorder()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/pressure/restart/decline",
		strings.NewReader(`{"container":"cache"}`))

	srv.handleRestartDecline(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{"cache"}, fp.declined)
}
