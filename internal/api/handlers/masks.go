package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"stairlight/internal/mask"
)

// MasksHandler serves the strip layout editor endpoints: read the current
// layout and replace it atomically.
type MasksHandler struct {
	compositor *mask.Compositor
	store      *mask.Store
	logger     *zap.Logger
}

// NewMasksHandler creates a new masks handler
func NewMasksHandler(compositor *mask.Compositor, store *mask.Store, logger *zap.Logger) *MasksHandler {
	return &MasksHandler{
		compositor: compositor,
		store:      store,
		logger:     logger,
	}
}

type maskLayoutBody struct {
	Strips []mask.StripMask `json:"strips"`
}

// Get returns the active strip layout.
func (h *MasksHandler) Get(w http.ResponseWriter, r *http.Request) {
	masks := h.compositor.Masks()
	canvasW, canvasH := h.compositor.CanvasSize()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{
		"canvas": map[string]int{"width": canvasW, "height": canvasH},
		"strips": masks[:],
	})
}

// Put replaces the strip layout. All six strips must be present with four
// corners each; the new layout takes effect on the next composited frame and
// is persisted for the next start.
func (h *MasksHandler) Put(w http.ResponseWriter, r *http.Request) {
	var body maskLayoutBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid mask layout body", http.StatusBadRequest)
		return
	}
	if len(body.Strips) != mask.StripCount {
		http.Error(w, fmt.Sprintf("Layout must contain exactly %d strips", mask.StripCount), http.StatusBadRequest)
		return
	}

	var masks [mask.StripCount]mask.StripMask
	for i, m := range body.Strips {
		m.Index = i
		masks[i] = m
	}

	h.compositor.SetMasks(masks)
	if err := h.store.Save(masks); err != nil {
		h.logger.Error("Failed to persist mask layout", zap.Error(err))
		http.Error(w, "Layout applied but could not be persisted", http.StatusInternalServerError)
		return
	}

	h.logger.Info("Mask layout updated via API", zap.String("remote", r.RemoteAddr))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{"strips": masks[:]})
}
