package resilience

import "go.uber.org/zap"

// Strategy is one component's recovery action, attempted when an event for
// that component escalates the system state. Implementations are swappable
// at registration time.
type Strategy interface {
	AttemptFallback(ev *Event) error
}

// StrategyFunc adapts a plain function to the Strategy interface.
type StrategyFunc func(ev *Event) error

func (f StrategyFunc) AttemptFallback(ev *Event) error {
	return f(ev)
}

// dispatchFallback runs the registered strategy for the event's component.
// A component without a strategy is treated as a failed fallback.
func (h *Handler) dispatchFallback(ev *Event) bool {
	h.mu.Lock()
	strategy, ok := h.strategies[ev.Component]
	h.mu.Unlock()

	if !ok {
		h.logger.Warn("No fallback strategy registered for component",
			zap.String("component", string(ev.Component)))
		return false
	}

	if err := strategy.AttemptFallback(ev); err != nil {
		h.logger.Error("Fallback failed",
			zap.String("component", string(ev.Component)),
			zap.String("type", ev.Type),
			zap.Error(err))
		return false
	}

	h.logger.Info("Fallback activated", zap.String("component", string(ev.Component)))
	return true
}
