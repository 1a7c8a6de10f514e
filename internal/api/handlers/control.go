package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"stairlight/internal/player"
	"stairlight/internal/trigger"
)

// ControlHandler injects triggers over HTTP, mirroring the MQTT contract for
// local testing and manual control.
type ControlHandler struct {
	engine *player.Engine
	logger *zap.Logger
}

// NewControlHandler creates a new control handler
func NewControlHandler(engine *player.Engine, logger *zap.Logger) *ControlHandler {
	return &ControlHandler{
		engine: engine,
		logger: logger,
	}
}

type triggerBody struct {
	State     string `json:"state"`
	Media     string `json:"media"`
	Animation string `json:"animation"`
}

// Trigger accepts a trigger message and feeds it through the same path as
// MQTT messages. The state field is required; media falls back to the legacy
// animation alias.
func (h *ControlHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	var body triggerBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid trigger body", http.StatusBadRequest)
		return
	}
	if body.State == "" {
		http.Error(w, "Missing state field", http.StatusBadRequest)
		return
	}

	media := body.Media
	if media == "" {
		media = body.Animation
	}
	state := trigger.NormalizeState(body.State, h.logger)

	h.logger.Info("Trigger received via API",
		zap.String("state", string(state)),
		zap.String("media", media),
		zap.String("remote", r.RemoteAddr))

	// Handled synchronously so the response reflects the post-switch status.
	h.engine.HandleTrigger(state, media)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(h.engine.Status())
}
