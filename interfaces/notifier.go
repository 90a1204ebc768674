package interfaces

// Notifier receives lifecycle notifications from the polling engine.
//
// Both methods are called on the engine's scheduling goroutine, never concurrently with each other.
// A slow implementation delays the next refresh but does not otherwise affect scheduling. A panic in
// either method is recovered and logged.
//
// Implementations must not call Close on the engine from inside a callback, since Close waits for
// the scheduling goroutine to exit. Stop is safe to call.
type Notifier interface {
	// OnReady is called at most once per engine lifetime, after the first refresh cycle in which both
	// flags and segments were fetched successfully.
	OnReady()

	// OnError is called once for every refresh cycle in which at least one fetch failed. The message
	// identifies which fetch failed and why.
	OnError(message string)
}

// NotifierFuncs is an adapter that allows the use of ordinary functions as a Notifier. Either
// function may be nil.
type NotifierFuncs struct {
	Ready func()
	Error func(message string)
}

// OnReady calls n.Ready if it is set.
func (n NotifierFuncs) OnReady() {
	if n.Ready != nil {
		n.Ready()
	}
}

// OnError calls n.Error if it is set.
func (n NotifierFuncs) OnError(message string) {
	if n.Error != nil {
		n.Error(message)
	}
}

// NoopNotifier is a Notifier that ignores all notifications.
type NoopNotifier struct{}

func (NoopNotifier) OnReady()       {} //nolint:revive // no doc comment for standard method
func (NoopNotifier) OnError(string) {} //nolint:revive // no doc comment for standard method
