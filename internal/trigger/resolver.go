// Package trigger turns incoming control messages into concrete playback
// targets.
package trigger

import (
	"strings"

	"go.uber.org/zap"
)

// State is the control state carried by a trigger message.
type State string

const (
	StateActive  State = "active"
	StateAmbient State = "ambient"
)

// NormalizeState maps any unrecognized state to ambient, logging a warning.
func NormalizeState(s string, logger *zap.Logger) State {
	switch State(strings.ToLower(s)) {
	case StateActive:
		return StateActive
	case StateAmbient:
		return StateAmbient
	default:
		logger.Warn("Unrecognized trigger state, treating as ambient", zap.String("state", s))
		return StateAmbient
	}
}

// Library is the catalog view the resolver needs.
type Library interface {
	Has(id string) bool
	FallbackAmbient() (string, bool)
}

// Resolver maps a (state, media) pair to a catalog id.
type Resolver struct {
	library Library
	logger  *zap.Logger
}

func NewResolver(library Library, logger *zap.Logger) *Resolver {
	return &Resolver{library: library, logger: logger}
}

// Resolve returns the target video id for a trigger, or false when there is
// no suitable target. It never substitutes a different active video: an
// unresolved active request fails so the caller can decide the fallback.
func (r *Resolver) Resolve(state State, media string) (string, bool) {
	switch state {
	case StateActive:
		if media == "" {
			return "", false
		}
		if r.library.Has(media) {
			return media, true
		}
		if !strings.HasPrefix(media, "active_") {
			prefixed := "active_" + media
			if r.library.Has(prefixed) {
				return prefixed, true
			}
		}
		r.logger.Warn("Requested active media not found", zap.String("media", media))
		return "", false

	case StateAmbient:
		if media != "" {
			if r.library.Has(media) {
				return media, true
			}
			if !strings.HasPrefix(media, "ambient_") {
				prefixed := "ambient_" + media
				if r.library.Has(prefixed) {
					return prefixed, true
				}
			}
		}
		return r.library.FallbackAmbient()

	default:
		return r.library.FallbackAmbient()
	}
}
