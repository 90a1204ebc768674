package internal

import (
	"sync"

	"golang.org/x/exp/slices"
)

// Broadcaster implements the publish-subscribe model used for status notifications.
//
// AddListener returns a new receive-only channel; RemoveListener unsubscribes that channel and closes
// it; Broadcast sends a value to every subscribed channel; Close unsubscribes and closes all of them.
// Broadcast never blocks: a listener whose buffer is full misses the value.
type Broadcaster[V any] struct {
	subscribers []subscriber[V]
	closed      bool
	lock        sync.Mutex
}

const listenerBufferLength = 10

// The send side is kept because a chan V does not compare equal to the <-chan V given to callers.
type subscriber[V any] struct {
	sendCh    chan<- V
	receiveCh <-chan V
}

// NewBroadcaster creates a Broadcaster for the given value type.
func NewBroadcaster[V any]() *Broadcaster[V] {
	return &Broadcaster[V]{}
}

// AddListener subscribes a new listener. If the Broadcaster has already been closed, the returned
// channel is closed immediately.
func (b *Broadcaster[V]) AddListener() <-chan V {
	ch := make(chan V, listenerBufferLength)
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.subscribers = append(b.subscribers, subscriber[V]{sendCh: ch, receiveCh: ch})
	return ch
}

// RemoveListener unsubscribes a channel that was returned by AddListener, and closes it.
func (b *Broadcaster[V]) RemoveListener(ch <-chan V) {
	b.lock.Lock()
	defer b.lock.Unlock()
	i := slices.IndexFunc(b.subscribers, func(s subscriber[V]) bool { return s.receiveCh == ch })
	if i < 0 {
		return
	}
	close(b.subscribers[i].sendCh)
	b.subscribers = slices.Delete(b.subscribers, i, i+1)
}

// HasListeners returns true if there are any current subscribers.
func (b *Broadcaster[V]) HasListeners() bool {
	b.lock.Lock()
	defer b.lock.Unlock()
	return len(b.subscribers) > 0
}

// Broadcast sends a value to all current subscribers that have room for it.
func (b *Broadcaster[V]) Broadcast(value V) {
	b.lock.Lock()
	ss := slices.Clone(b.subscribers)
	b.lock.Unlock()
	for _, s := range ss {
		s.send(value)
	}
}

// A listener may be removed between the snapshot in Broadcast and the send.
func (s subscriber[V]) send(value V) {
	defer func() {
		_ = recover()
	}()
	select {
	case s.sendCh <- value:
	default:
	}
}

// Close closes all current subscriber channels. Later calls to AddListener get a closed channel.
func (b *Broadcaster[V]) Close() {
	b.lock.Lock()
	defer b.lock.Unlock()
	for _, s := range b.subscribers {
		close(s.sendCh)
	}
	b.subscribers = nil
	b.closed = true
}
