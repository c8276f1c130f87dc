package coordinator

import (
	"time"

	"wellbeing/internal/core/model"
)

// EventType defines the type of Coordinator event.
type EventType string

const (
	EventDisplayUpdate EventType = "display_update"
	EventPhaseChange   EventType = "phase_change"
	EventWarning       EventType = "warning"
	EventExpired       EventType = "expired"
	EventBreakStarted  EventType = "break_started"
	EventBreakUpdate   EventType = "break_update"
	EventBreakEnded    EventType = "break_ended"
	EventAdvisory      EventType = "advisory"
	EventSettings      EventType = "settings"
)

// Event is an update for the presentation layer.
type Event struct {
	Type      EventType
	Phase     model.Phase
	Remaining time.Duration
	Message   string
	// Completed is set on EventBreakEnded when the break ran its full length.
	Completed bool
	At        time.Time
}
