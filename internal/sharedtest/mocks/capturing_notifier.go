package mocks

// CapturingNotifier is a Notifier that records every callback on a buffered channel.
type CapturingNotifier struct {
	ReadyCh chan struct{}
	ErrorCh chan string
}

// NewCapturingNotifier creates a CapturingNotifier.
func NewCapturingNotifier() *CapturingNotifier {
	return &CapturingNotifier{
		ReadyCh: make(chan struct{}, 10),
		ErrorCh: make(chan string, 100),
	}
}

func (n *CapturingNotifier) OnReady() { //nolint:revive
	n.ReadyCh <- struct{}{}
}

func (n *CapturingNotifier) OnError(message string) { //nolint:revive
	n.ErrorCh <- message
}
