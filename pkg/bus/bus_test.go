package bus

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestPublishReachesSubscriber(t *testing.T) {
	t.Parallel()

	eb := NewEventBus()
	defer eb.Close()

	ctx := context.Background()
	events, unsubscribe := eb.Subscribe(ctx, 1)
	defer unsubscribe()

	if ok := eb.Publish(ctx, Event{Type: EventRunCompleted, ChatID: 7, Outcome: "text"}); !ok {
		t.Fatal("Publish returned false on open bus")
	}

	select {
	case event := <-events:
		if event.Type != EventRunCompleted {
			t.Fatalf("event type = %q, want %q", event.Type, EventRunCompleted)
		}
		if event.ChatID != 7 {
			t.Fatalf("event chat id = %d, want 7", event.ChatID)
		}
		if event.At.IsZero() {
			t.Fatal("expected publish to stamp event time")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestPublishDropsWhenSubscriberFull(t *testing.T) {
	t.Parallel()

	eb := NewEventBus()
	defer eb.Close()

	ctx := context.Background()
	events, unsubscribe := eb.Subscribe(ctx, 1)
	defer unsubscribe()

	eb.Publish(ctx, Event{Type: EventRunStarted, RunID: "a"})
	eb.Publish(ctx, Event{Type: EventRunStarted, RunID: "b"})

	event := <-events
	if event.RunID != "a" {
		t.Fatalf("run id = %q, want %q", event.RunID, "a")
	}

	select {
	case extra := <-events:
		t.Fatalf("expected second event dropped, got %+v", extra)
	default:
	}
}

func TestPublishAfterClose(t *testing.T) {
	t.Parallel()

	eb := NewEventBus()
	eb.Close()

	if eb.Publish(context.Background(), Event{Type: EventRunFailed}) {
		t.Fatal("Publish returned true on closed bus")
	}
}

func TestCloseClosesSubscriberChannels(t *testing.T) {
	t.Parallel()

	eb := NewEventBus()
	events, unsubscribe := eb.Subscribe(context.Background(), 1)
	defer unsubscribe()

	eb.Close()

	select {
	case _, open := <-events:
		if open {
			t.Fatal("expected subscriber channel closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel close")
	}
}

func TestPublishConcurrentWithClose(t *testing.T) {
	t.Parallel()

	for i := 0; i < 50; i++ {
		eb := NewEventBus()
		_, unsubscribe := eb.Subscribe(context.Background(), 1)

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				eb.Publish(context.Background(), Event{Type: EventRunStarted})
			}
		}()

		eb.Close()
		wg.Wait()
		unsubscribe()
	}
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	t.Parallel()

	eb := NewEventBus()
	defer eb.Close()

	_, unsubscribe := eb.Subscribe(context.Background(), 1)
	unsubscribe()
	unsubscribe()
}
