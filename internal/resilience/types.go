// Package resilience tracks failures across the player, escalates the
// system health state, and dispatches per-component fallback strategies.
// Nothing here ever terminates the process: the projection must always keep
// showing something.
package resilience

import (
	"time"

	"github.com/google/uuid"
)

// Severity ranks how bad an error event is, independent of its component.
type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// SystemState is the overall health of the installation. Escalation is
// driven by reported events; only an explicit Reset returns to Normal.
type SystemState int

const (
	StateNormal SystemState = iota
	StateDegraded
	StateSafeMode
	StateEmergency
)

func (s SystemState) String() string {
	switch s {
	case StateNormal:
		return "normal"
	case StateDegraded:
		return "degraded"
	case StateSafeMode:
		return "safe_mode"
	case StateEmergency:
		return "emergency"
	default:
		return "unknown"
	}
}

// Component is the closed set of subsystems that report errors and may have
// a registered fallback strategy.
type Component string

const (
	ComponentPlayback     Component = "video_playback"
	ComponentConnectivity Component = "connectivity"
	ComponentMask         Component = "mask_system"
	ComponentConfig       Component = "configuration"
	ComponentDisplay      Component = "display"
	ComponentSystem       Component = "system"
)

// Error types reported by the playback core.
const (
	ErrVideoNotFound       = "video_not_found"
	ErrPlaybackStartFailed = "playback_start_failed"
	ErrPlaybackLoopError   = "playback_loop_error"
	ErrConnectionFailed    = "connection_failed"
	ErrMessageTimeout      = "message_timeout"
	ErrCompositeFailed     = "composite_failed"
	ErrPresentFailed       = "present_failed"
	ErrCrossfadeFailed     = "crossfade_failed"
	ErrHighMemoryUsage     = "high_memory_usage"
	ErrLowDiskSpace        = "low_disk_space"
	ErrExcessiveThreads    = "excessive_threads"
	ErrHighSystemLoad      = "high_system_load"
)

// Event is one recorded failure. Immutable after creation except for the
// resolved flag set when a fallback strategy succeeds.
type Event struct {
	ID         uuid.UUID      `json:"id"`
	Timestamp  time.Time      `json:"timestamp"`
	Component  Component      `json:"component"`
	Type       string         `json:"type"`
	Severity   Severity       `json:"severity"`
	Message    string         `json:"message"`
	Context    map[string]any `json:"context,omitempty"`
	Resolved   bool           `json:"resolved"`
	ResolvedAt *time.Time     `json:"resolved_at,omitempty"`
}
