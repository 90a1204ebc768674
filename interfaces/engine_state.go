package interfaces

// EngineState describes the lifecycle state of the polling engine.
type EngineState int

const (
	// EngineStateNotStarted is the initial state, before Start has been called.
	EngineStateNotStarted EngineState = iota

	// EngineStateRunningNotReady means the engine is polling but no cycle has yet fetched both flags
	// and segments successfully.
	EngineStateRunningNotReady

	// EngineStateRunningReady means the engine is polling and the cache holds at least one complete
	// successful synchronization. Once reached, later failed cycles do not leave this state.
	EngineStateRunningReady

	// EngineStateStopped is terminal. No more refresh cycles will start.
	EngineStateStopped
)

// String returns a human-readable name for the state.
func (s EngineState) String() string {
	switch s {
	case EngineStateNotStarted:
		return "NOT_STARTED"
	case EngineStateRunningNotReady:
		return "RUNNING_NOT_READY"
	case EngineStateRunningReady:
		return "RUNNING_READY"
	case EngineStateStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

// IsRunning returns true for either of the running states.
func (s EngineState) IsRunning() bool {
	return s == EngineStateRunningNotReady || s == EngineStateRunningReady
}
