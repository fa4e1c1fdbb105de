package httpserver

import (
	"encoding/json"
	"net/http"
	"time"
)

type statusResponse struct {
	State     string    `json:"state"`
	Uptime    string    `json:"uptime"`
	StartTime time.Time `json:"startTime"`
	UptimeSec float64   `json:"uptimeSeconds"`
}

type pressureResponse struct {
	State             string   `json:"state"`
	PendingKillTarget string   `json:"pendingKillTarget,omitempty"`
	KilledContainers  []string `json:"killedContainers"`
}

type containerRequest struct {
	Container string `json:"container"`
}

type commandResponse struct {
	Accepted bool `json:"accepted"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	if !s.appState.IsHealthy() {
		w.WriteHeader(http.StatusServiceUnavailable)

		return
	}

	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleReadyz(w http.ResponseWriter, _ *http.Request) {
	if !s.appState.IsReady() {
		w.WriteHeader(http.StatusServiceUnavailable)

		return
	}

	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	uptime := s.appState.GetUptime()

	response := statusResponse{
		State:     string(s.appState.GetState()),
		Uptime:    uptime.String(),
		StartTime: s.appState.GetStartTime(),
		UptimeSec: uptime.Seconds(),
	}

	s.writeJSON(w, r, http.StatusOK, response)
}

func (s *Server) handlePressureStatus(w http.ResponseWriter, r *http.Request) {
	response := pressureResponse{
		State:            string(s.pressure.State()),
		KilledContainers: s.pressure.KilledContainers(),
	}

	if target, ok := s.pressure.PendingKillTarget(); ok {
		response.PendingKillTarget = target
	}

	s.writeJSON(w, r, http.StatusOK, response)
}

// handlePressureCancel aborts an armed kill countdown. 409 means nothing was
// pending, so the caller knows the cancel raced with the countdown expiring.
func (s *Server) handlePressureCancel(w http.ResponseWriter, r *http.Request) {
	if !s.pressure.CancelPendingKill() {
		s.writeJSON(w, r, http.StatusConflict, commandResponse{Accepted: false})

		return
	}

	s.logger.InfoContext(r.Context(), "kill countdown cancelled via api")

	s.writeJSON(w, r, http.StatusOK, commandResponse{Accepted: true})
}

func (s *Server) handleRestartConfirm(w http.ResponseWriter, r *http.Request) {
	name, ok := s.decodeContainer(w, r)
	if !ok {
		return
	}

	if !s.pressure.ConfirmRestart(r.Context(), name) {
		s.writeJSON(w, r, http.StatusConflict, commandResponse{Accepted: false})

		return
	}

	s.logger.InfoContext(r.Context(), "container restart confirmed via api", "container", name)

	s.writeJSON(w, r, http.StatusOK, commandResponse{Accepted: true})
}

func (s *Server) handleRestartDecline(w http.ResponseWriter, r *http.Request) {
	name, ok := s.decodeContainer(w, r)
	if !ok {
		return
	}

	if !s.pressure.DeclineRestart(name) {
		s.writeJSON(w, r, http.StatusConflict, commandResponse{Accepted: false})

		return
	}

	s.logger.InfoContext(r.Context(), "container restart declined via api", "container", name)

	s.writeJSON(w, r, http.StatusOK, commandResponse{Accepted: true})
}

func (s *Server) decodeContainer(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req containerRequest

	body := http.MaxBytesReader(w, r.Body, maxCommandBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil || req.Container == "" {
		w.WriteHeader(http.StatusBadRequest)

		return "", false
	}

	return req.Container, true
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.ErrorContext(r.Context(), "failed to encode response",
			"error", err,
		)
	}
}
