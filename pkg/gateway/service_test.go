package gateway

import (
	"context"
	"testing"
	"time"

	"snaptext/pkg/bus"
	"snaptext/pkg/channel"
	"snaptext/pkg/config"
)

func testHandlers() channel.Handlers {
	return channel.Handlers{
		Photo:      func(context.Context, bus.InboundPhoto) {},
		Membership: func(context.Context, bus.MembershipEvent) {},
	}
}

type stubAdapter struct{ name string }

func (a *stubAdapter) Name() string { return a.name }

func (a *stubAdapter) Run(ctx context.Context, _ channel.Handlers) error {
	<-ctx.Done()
	return nil
}

func TestNewServiceValidation(t *testing.T) {
	t.Parallel()

	events := bus.NewEventBus()
	defer events.Close()
	adapters := []channel.Adapter{&stubAdapter{name: "telegram"}}

	if _, err := NewService(nil, adapters, testHandlers(), events, nil); err == nil {
		t.Fatal("expected error without config")
	}
	if _, err := NewService(&config.Config{}, nil, testHandlers(), events, nil); err == nil {
		t.Fatal("expected error without adapters")
	}
	if _, err := NewService(&config.Config{}, adapters, channel.Handlers{}, events, nil); err == nil {
		t.Fatal("expected error without handlers")
	}
	if _, err := NewService(&config.Config{}, adapters, testHandlers(), nil, nil); err == nil {
		t.Fatal("expected error without event bus")
	}
	if _, err := NewService(&config.Config{}, adapters, testHandlers(), events, nil); err != nil {
		t.Fatalf("NewService error: %v", err)
	}
}

func TestIsReady(t *testing.T) {
	t.Parallel()

	svc := &Service{channelStates: map[string]channelState{"telegram": {}}}
	if svc.isReady() {
		t.Fatal("expected not ready without running channels")
	}

	svc.setChannelState("telegram", channelState{Running: true})
	if !svc.isReady() {
		t.Fatal("expected ready with a running channel")
	}
}

func TestConsumeEventsTracksRuns(t *testing.T) {
	t.Parallel()

	svc := &Service{channelStates: map[string]channelState{}}

	events := make(chan bus.Event, 3)
	at := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	events <- bus.Event{Type: bus.EventRunStarted, At: at}
	events <- bus.Event{Type: bus.EventRunCompleted, Outcome: "text", At: at}
	events <- bus.Event{Type: bus.EventRunFailed, Outcome: "provider_error", At: at.Add(time.Minute)}
	close(events)

	svc.consumeEvents(events)

	status := svc.currentStatus("ok")
	if status.RunsCompleted != 1 {
		t.Fatalf("runs completed = %d, want 1", status.RunsCompleted)
	}
	if status.RunsFailed != 1 {
		t.Fatalf("runs failed = %d, want 1", status.RunsFailed)
	}
	if status.LastOutcome != "provider_error" {
		t.Fatalf("last outcome = %q, want %q", status.LastOutcome, "provider_error")
	}
	if status.LastRunAt != "2026-09-01T12:01:00Z" {
		t.Fatalf("last run at = %q", status.LastRunAt)
	}
}
