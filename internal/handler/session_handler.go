package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/AndreiDascalu/ANL2024/internal/party"
	"github.com/AndreiDascalu/ANL2024/internal/service"
)

// SessionHandler handles negotiation session endpoints.
type SessionHandler struct {
	sessionSvc *service.SessionService
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(sessionSvc *service.SessionService) *SessionHandler {
	return &SessionHandler{sessionSvc: sessionSvc}
}

// ListStrategies handles GET /api/v1/strategies
func (h *SessionHandler) ListStrategies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"strategies": party.Names()})
}

// CreateSession handles POST /api/v1/sessions
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name      string `json:"name"`
		StrategyA string `json:"strategy_a,omitempty"`
		StrategyB string `json:"strategy_b,omitempty"`
		Duration  string `json:"duration,omitempty"` // Go duration string, e.g. "30s"
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	var duration time.Duration
	if req.Duration != "" {
		d, err := time.ParseDuration(req.Duration)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid duration")
			return
		}
		duration = d
	}

	session, err := h.sessionSvc.CreateSession(r.Context(), req.Name, req.StrategyA, req.StrategyB, duration)
	if err != nil {
		if errors.Is(err, service.ErrUnknownStrategy) {
			writeError(w, http.StatusBadRequest, "unknown strategy")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

// ListSessions handles GET /api/v1/sessions
func (h *SessionHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.sessionSvc.ListSessions(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if sessions == nil {
		writeJSON(w, http.StatusOK, []struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

// GetSession handles GET /api/v1/sessions/{id}
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessionSvc.GetSession(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// ListOffers handles GET /api/v1/sessions/{id}/offers
func (h *SessionHandler) ListOffers(w http.ResponseWriter, r *http.Request) {
	offers, err := h.sessionSvc.ListOffers(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if offers == nil {
		writeJSON(w, http.StatusOK, []struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, offers)
}

// StartSession handles POST /api/v1/sessions/{id}/start
// The negotiation runs in the background; clients follow it over WebSocket
// or poll GET /sessions/{id}.
func (h *SessionHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var seed int64
	if s := r.URL.Query().Get("seed"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid seed")
			return
		}
		seed = v
	}

	session, err := h.sessionSvc.GetSession(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if session.Status != "pending" {
		writeError(w, http.StatusConflict, "session is not pending")
		return
	}

	go func() {
		// Detached from the request context so the session outlives the response.
		if _, err := h.sessionSvc.StartSession(context.Background(), id, seed); err != nil {
			log.Error().Err(err).Str("sessionId", id).Msg("Session run failed")
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started", "id": id})
}
