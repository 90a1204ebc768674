package interfaces

import (
	"fmt"
	"time"
)

// EngineStatus is a snapshot of the engine's state, published to status listeners whenever the state
// changes or a refresh cycle fails.
type EngineStatus struct {
	// State is the current lifecycle state.
	State EngineState

	// StateSince is the time at which State was entered.
	StateSince time.Time

	// LastError describes the most recent failed cycle, if any. It is not cleared by later successful
	// cycles, so check its Time against StateSince if that matters.
	LastError EngineErrorInfo
}

// EngineErrorInfo describes a failed refresh cycle.
type EngineErrorInfo struct {
	// Message is the same message that was passed to Notifier.OnError.
	Message string

	// Fatal is true if the failure stopped the engine (a scheduling fault), rather than a fetch
	// failure that will be retried at the next interval.
	Fatal bool

	// Time is when the failure happened. It is zero if there has never been a failure.
	Time time.Time
}

// String returns a simple string representation of the status.
func (s EngineStatus) String() string {
	if s.LastError.Time.IsZero() {
		return fmt.Sprintf("Status(%s,%s)", s.State, s.StateSince.Format(time.RFC3339))
	}
	return fmt.Sprintf("Status(%s,%s,%s)", s.State, s.StateSince.Format(time.RFC3339), s.LastError)
}

// String returns a simple string representation of the error.
func (e EngineErrorInfo) String() string {
	kind := "FETCH_FAILURE"
	if e.Fatal {
		kind = "SCHEDULING_FAULT"
	}
	return fmt.Sprintf("%s(%s)@%s", kind, e.Message, e.Time.Format(time.RFC3339))
}
