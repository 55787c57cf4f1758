package notify

import (
	"context"
	"testing"

	"github.com/vovakirdan/dealhub-server/internal/store"
)

func TestHub_DeliversToSubscriber(t *testing.T) {
	hub := NewHub()

	events, cancel := hub.Subscribe(7)
	defer cancel()

	n := &store.Notification{ID: "n-1", UserID: 7, Title: "New Message"}
	if err := hub.Deliver(context.Background(), n); err != nil {
		t.Fatalf("Deliver failed: %v", err)
	}

	select {
	case got := <-events:
		if got.ID != "n-1" {
			t.Errorf("expected notification n-1, got %s", got.ID)
		}
	default:
		t.Fatal("expected a buffered notification")
	}
}

func TestHub_ScopedToOwner(t *testing.T) {
	hub := NewHub()

	mine, cancelMine := hub.Subscribe(7)
	defer cancelMine()
	theirs, cancelTheirs := hub.Subscribe(8)
	defer cancelTheirs()

	if err := hub.Deliver(context.Background(), &store.Notification{ID: "n-1", UserID: 7}); err != nil {
		t.Fatalf("Deliver failed: %v", err)
	}

	if len(mine) != 1 {
		t.Errorf("expected owner's subscriber to receive, got %d buffered", len(mine))
	}
	if len(theirs) != 0 {
		t.Errorf("expected other user's subscriber to receive nothing, got %d buffered", len(theirs))
	}
}

func TestHub_CancelledSubscriberIgnored(t *testing.T) {
	hub := NewHub()

	events, cancel := hub.Subscribe(7)
	cancel()

	if err := hub.Deliver(context.Background(), &store.Notification{ID: "n-1", UserID: 7}); err != nil {
		t.Fatalf("Deliver failed: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected nothing after cancel, got %d buffered", len(events))
	}
}

func TestHub_SlowSubscriberDropped(t *testing.T) {
	hub := NewHub()

	events, cancel := hub.Subscribe(7)
	defer cancel()

	// Overfill the buffer; the extra delivery is dropped, never blocked on.
	for i := 0; i <= subscriberBuffer; i++ {
		if err := hub.Deliver(context.Background(), &store.Notification{ID: "n", UserID: 7}); err != nil {
			t.Fatalf("Deliver failed: %v", err)
		}
	}
	if len(events) != subscriberBuffer {
		t.Errorf("expected buffer capped at %d, got %d", subscriberBuffer, len(events))
	}
}
