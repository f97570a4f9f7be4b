package ioengine

import "github.com/chadsbrown/winkey/protocol"

// EventKind discriminates the Event union.
type EventKind int

const (
	EventStatusChanged EventKind = iota
	EventSpeedPotChanged
	EventCharacterSent
	EventPaddleBreakIn
	EventConnected
	EventDisconnected
)

// Event is a single broadcast notification published by the engine.
// Only the fields matching Kind are meaningful.
type Event struct {
	Kind   EventKind
	Status protocol.KeyerStatus // EventStatusChanged
	WPM    byte                 // EventSpeedPotChanged
	Char   byte                 // EventCharacterSent
}

// subscriberCapacity is the minimum per-subscriber buffer depth mandated
// by the concurrency model (spec.md §5: "event bus ... capacity >= 256").
const subscriberCapacity = 256

// Bus is a multi-producer (in practice: engine-only), multi-consumer
// broadcast channel. Publication is best-effort: a subscriber whose
// buffer is full has the event dropped for it rather than blocking the
// publisher, matching spec.md §4.4's at-most-once, never-blocking
// delivery contract for events.
type Bus struct {
	subscribeCh   chan chan Event
	unsubscribeCh chan chan Event
	publishCh     chan Event
	done          chan struct{}
}

// NewBus starts a Bus and returns it ready for use.
func NewBus() *Bus {
	b := &Bus{
		subscribeCh:   make(chan chan Event),
		unsubscribeCh: make(chan chan Event),
		publishCh:     make(chan Event, subscriberCapacity),
		done:          make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *Bus) run() {
	subs := make(map[chan Event]struct{})
	for {
		select {
		case <-b.done:
			for ch := range subs {
				close(ch)
			}
			return
		case ch := <-b.subscribeCh:
			subs[ch] = struct{}{}
		case ch := <-b.unsubscribeCh:
			if _, ok := subs[ch]; ok {
				delete(subs, ch)
				close(ch)
			}
		case ev := <-b.publishCh:
			for ch := range subs {
				select {
				case ch <- ev:
				default:
					// Subscriber is lagging; drop for it rather than
					// block the publisher or the other subscribers.
				}
			}
		}
	}
}

// Subscribe returns a channel that receives every event published after
// this call, buffered to subscriberCapacity. Call Unsubscribe when done.
func (b *Bus) Subscribe() chan Event {
	ch := make(chan Event, subscriberCapacity)
	select {
	case b.subscribeCh <- ch:
	case <-b.done:
		close(ch)
	}
	return ch
}

// Unsubscribe stops delivery to ch and closes it.
func (b *Bus) Unsubscribe(ch chan Event) {
	select {
	case b.unsubscribeCh <- ch:
	case <-b.done:
	}
}

// Publish sends ev to every current subscriber, dropping it for any
// subscriber whose buffer is full. It never blocks the caller on a slow
// subscriber.
func (b *Bus) Publish(ev Event) {
	select {
	case b.publishCh <- ev:
	case <-b.done:
	}
}

// Close stops the bus and closes every subscriber channel.
func (b *Bus) Close() {
	close(b.done)
}
