package ioengine

import (
	"testing"
	"time"
)

func TestBusDeliversToSubscriber(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ch := bus.Subscribe()
	defer bus.Unsubscribe(ch)

	bus.Publish(Event{Kind: EventConnected})

	select {
	case ev := <-ch:
		if ev.Kind != EventConnected {
			t.Fatalf("got %v, want EventConnected", ev.Kind)
		}
	case <-time.After(time.Second):
		t.Fatal("event never arrived")
	}
}

func TestBusFanOutToMultipleSubscribers(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	a := bus.Subscribe()
	b := bus.Subscribe()
	defer bus.Unsubscribe(a)
	defer bus.Unsubscribe(b)

	bus.Publish(Event{Kind: EventDisconnected})

	for _, ch := range []chan Event{a, b} {
		select {
		case ev := <-ch:
			if ev.Kind != EventDisconnected {
				t.Fatalf("got %v", ev.Kind)
			}
		case <-time.After(time.Second):
			t.Fatal("event never arrived at one subscriber")
		}
	}
}

func TestBusDropsForLaggingSubscriberWithoutBlocking(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	slow := bus.Subscribe()
	defer bus.Unsubscribe(slow)

	// Flood well past the subscriber's buffer; Publish must never block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberCapacity*4; i++ {
			bus.Publish(Event{Kind: EventCharacterSent, Char: byte(i)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a lagging subscriber")
	}
}

func TestBusUnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ch := bus.Subscribe()
	bus.Unsubscribe(ch)

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("channel never closed")
	}
}
