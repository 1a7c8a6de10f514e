package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"stairlight/internal/player"
	"stairlight/internal/resilience"
	"stairlight/internal/trigger"
)

// StatusHandler serves health, playback status, and error history endpoints.
type StatusHandler struct {
	engine    *player.Engine
	resilient *resilience.Handler
	source    *trigger.MQTTSource
	logger    *zap.Logger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(engine *player.Engine, resilient *resilience.Handler, source *trigger.MQTTSource, logger *zap.Logger) *StatusHandler {
	return &StatusHandler{
		engine:    engine,
		resilient: resilient,
		source:    source,
		logger:    logger,
	}
}

// Health reports liveness plus the current system state.
func (h *StatusHandler) Health(w http.ResponseWriter, r *http.Request) {
	state := h.resilient.State()

	status := http.StatusOK
	if state == resilience.StateEmergency {
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"status":       "ok",
		"service":      "stairlight",
		"system_state": state.String(),
	})
}

// Status returns the playback engine view, the trigger feed connection, and
// the error summary.
func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"playback": h.engine.Status(),
		"errors":   h.resilient.Summarize(),
	}
	if h.source != nil {
		body["mqtt"] = h.source.Status()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(body)
}

// Errors returns the recent error summary on its own.
func (h *StatusHandler) Errors(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(h.resilient.Summarize())
}

// Reset clears the error state back to normal. This is the only way out of
// safe mode or emergency.
func (h *StatusHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.resilient.Reset()
	h.logger.Info("Error state reset via API", zap.String("remote", r.RemoteAddr))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{
		"system_state": h.resilient.State().String(),
	})
}
