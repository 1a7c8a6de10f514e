package resilience

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultHistoryCap       = 1000
	defaultThreshold        = 5
	defaultCounterWindow    = 5 * time.Minute
	recentErrorsSummarySpan = time.Hour
)

// StateListener is notified after the system state changes.
type StateListener func(old, new SystemState)

// EventListener is notified of every reported event, outside the handler
// lock. Used for metrics and monitoring hooks.
type EventListener func(ev *Event)

// Handler is the central intake for error events: it records history, runs
// the sliding-window circuit breakers, drives the system state machine, and
// dispatches fallback strategies. Constructed explicitly and passed by
// reference to every component that reports errors.
type Handler struct {
	logger *zap.Logger

	mu            sync.Mutex
	state         SystemState
	history       []*Event
	historyCap    int
	counters      map[string]*Counter
	threshold     int
	window        time.Duration
	strategies    map[Component]Strategy
	fallbackFlags map[Component]bool
	listeners     []StateListener
	eventHooks    []EventListener
}

func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{
		logger:        logger,
		state:         StateNormal,
		historyCap:    defaultHistoryCap,
		counters:      make(map[string]*Counter),
		threshold:     defaultThreshold,
		window:        defaultCounterWindow,
		strategies:    make(map[Component]Strategy),
		fallbackFlags: make(map[Component]bool),
	}
}

// RegisterStrategy installs the fallback strategy for a component, replacing
// any previous one.
func (h *Handler) RegisterStrategy(c Component, s Strategy) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.strategies[c] = s
}

// OnStateChange adds a listener invoked (outside the handler lock) whenever
// the system state transitions.
func (h *Handler) OnStateChange(fn StateListener) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = append(h.listeners, fn)
}

// OnEvent adds a listener invoked (outside the handler lock) for every
// reported event.
func (h *Handler) OnEvent(fn EventListener) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.eventHooks = append(h.eventHooks, fn)
}

// Report records an error event, updates the system state, and attempts the
// component's fallback. The lock covers only the history append, counter
// update, and state transition; logging and fallback dispatch run outside it
// so reporting never stalls the frame loop or trigger thread for long.
func (h *Handler) Report(component Component, errType string, severity Severity, message string, context map[string]any) *Event {
	ev := &Event{
		ID:        uuid.New(),
		Timestamp: time.Now(),
		Component: component,
		Type:      errType,
		Severity:  severity,
		Message:   message,
		Context:   context,
	}

	h.mu.Lock()
	h.history = append(h.history, ev)
	if len(h.history) > h.historyCap {
		h.history = h.history[len(h.history)-h.historyCap:]
	}

	key := string(component) + ":" + errType
	counter, ok := h.counters[key]
	if !ok {
		counter = NewCounter(h.threshold, h.window)
		h.counters[key] = counter
	}
	h.mu.Unlock()

	thresholdCrossed := counter.Add()

	oldState, newState := h.transition(severity, thresholdCrossed)

	h.log(ev)

	h.mu.Lock()
	hooks := make([]EventListener, len(h.eventHooks))
	copy(hooks, h.eventHooks)
	h.mu.Unlock()
	for _, fn := range hooks {
		fn(ev)
	}
	if newState != oldState {
		h.logger.Warn("System state changed",
			zap.String("from", oldState.String()),
			zap.String("to", newState.String()),
			zap.String("component", string(component)),
			zap.String("type", errType))
		h.notify(oldState, newState)
	}

	if severity >= SeverityHigh || thresholdCrossed {
		if h.dispatchFallback(ev) {
			now := time.Now()
			h.mu.Lock()
			ev.Resolved = true
			ev.ResolvedAt = &now
			h.fallbackFlags[component] = true
			h.mu.Unlock()
		}
	}

	return ev
}

// transition applies the escalation rule and returns the old and new states.
// Lower severities never downgrade an already-elevated state.
func (h *Handler) transition(severity Severity, thresholdCrossed bool) (SystemState, SystemState) {
	h.mu.Lock()
	defer h.mu.Unlock()

	old := h.state
	switch {
	case severity == SeverityCritical:
		h.state = StateEmergency
	case (severity == SeverityHigh || thresholdCrossed) && h.state != StateEmergency:
		h.state = StateSafeMode
	case h.state == StateNormal:
		h.state = StateDegraded
	}
	return old, h.state
}

func (h *Handler) notify(old, new SystemState) {
	h.mu.Lock()
	listeners := make([]StateListener, len(h.listeners))
	copy(listeners, h.listeners)
	h.mu.Unlock()

	for _, fn := range listeners {
		fn(old, new)
	}
}

func (h *Handler) log(ev *Event) {
	fields := []zap.Field{
		zap.String("component", string(ev.Component)),
		zap.String("type", ev.Type),
		zap.Any("context", ev.Context),
	}
	switch ev.Severity {
	case SeverityCritical, SeverityHigh:
		h.logger.Error(ev.Message, fields...)
	case SeverityMedium:
		h.logger.Warn(ev.Message, fields...)
	default:
		h.logger.Info(ev.Message, fields...)
	}
}

// State returns the current system state.
func (h *Handler) State() SystemState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Reset returns the system to Normal, clearing all counters and fallback
// flags. This is the only path out of SafeMode or Emergency.
func (h *Handler) Reset() {
	h.mu.Lock()
	old := h.state
	h.state = StateNormal
	for _, c := range h.counters {
		c.Reset()
	}
	h.fallbackFlags = make(map[Component]bool)
	h.mu.Unlock()

	h.logger.Info("System state reset to normal")
	if old != StateNormal {
		h.notify(old, StateNormal)
	}
}

// Summary describes recent error activity for the status API.
type Summary struct {
	SystemState   string             `json:"system_state"`
	TotalErrors   int                `json:"total_errors"`
	RecentErrors  int                `json:"recent_errors"`
	ErrorCounts   map[string]int     `json:"error_counts"`
	FallbackFlags map[Component]bool `json:"fallback_flags"`
	LastError     string             `json:"last_error,omitempty"`
}

// Summarize reports the last hour of error activity.
func (h *Handler) Summarize() Summary {
	h.mu.Lock()
	defer h.mu.Unlock()

	cutoff := time.Now().Add(-recentErrorsSummarySpan)
	counts := make(map[string]int)
	recent := 0
	for _, ev := range h.history {
		if ev.Timestamp.After(cutoff) {
			recent++
			counts[string(ev.Component)+":"+ev.Type]++
		}
	}

	flags := make(map[Component]bool, len(h.fallbackFlags))
	for k, v := range h.fallbackFlags {
		flags[k] = v
	}

	s := Summary{
		SystemState:   h.state.String(),
		TotalErrors:   len(h.history),
		RecentErrors:  recent,
		ErrorCounts:   counts,
		FallbackFlags: flags,
	}
	if len(h.history) > 0 {
		s.LastError = h.history[len(h.history)-1].Message
	}
	return s
}
