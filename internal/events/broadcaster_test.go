package events

import (
	"testing"
	"time"
)

type change struct {
	Key string
	N   int
}

func TestBroadcasterSubscribeUnsubscribe(t *testing.T) {
	b := NewBroadcaster[change]()

	ch1 := b.Subscribe()
	ch2 := b.Subscribe()

	if b.Count() != 2 {
		t.Fatalf("expected 2 subscribers, got %d", b.Count())
	}

	b.Unsubscribe(ch1)
	if b.Count() != 1 {
		t.Fatalf("expected 1 subscriber after unsubscribe, got %d", b.Count())
	}

	b.Unsubscribe(ch2)
	b.Unsubscribe(ch2)
	if b.Count() != 0 {
		t.Fatalf("expected 0 subscribers, got %d", b.Count())
	}
}

func TestBroadcasterPublish(t *testing.T) {
	b := NewBroadcaster[change]()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(change{Key: "/admin/payments", N: 1})

	select {
	case received := <-ch:
		if received.Key != "/admin/payments" {
			t.Errorf("expected key /admin/payments, got %s", received.Key)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestBroadcasterMultipleSubscribers(t *testing.T) {
	b := NewBroadcaster[change]()
	ch1 := b.Subscribe()
	ch2 := b.Subscribe()
	defer b.Unsubscribe(ch1)
	defer b.Unsubscribe(ch2)

	b.Publish(change{Key: "/admin/users"})

	for i, ch := range []chan change{ch1, ch2} {
		select {
		case received := <-ch:
			if received.Key != "/admin/users" {
				t.Errorf("subscriber %d: expected /admin/users, got %s", i, received.Key)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d: timed out", i)
		}
	}
}

func TestBroadcasterDropsForSlowConsumer(t *testing.T) {
	b := NewBroadcaster[change]()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	for i := 0; i < subscriberBuffer+10; i++ {
		b.Publish(change{N: i})
	}

	if len(ch) != subscriberBuffer {
		t.Errorf("expected buffer to hold %d events, got %d", subscriberBuffer, len(ch))
	}
}
