package xtrack

import (
	"time"
)

// EventType enumerates dispatch lifecycle events for the Observer pattern.
type EventType string

const (
	DispatchStart  EventType = "dispatch_start"
	DispatchDone   EventType = "dispatch_done"
	AdapterDone    EventType = "adapter_done"
	AdapterSkipped EventType = "adapter_skipped"
	RelayDone      EventType = "relay_done"
)

// Event carries telemetry for observers.
type Event struct {
	Type      EventType
	EventName EventName
	EventID   string
	Platform  string // empty for dispatch and relay events
	Duration  time.Duration
	Err       error

	// Internal: attached for async dispatch
	observers []Observer
}
