package cmd

import (
	"context"
	"testing"

	"snaptext/pkg/bus"
	"snaptext/pkg/ocr"
)

func TestFormatOutcome(t *testing.T) {
	tests := []struct {
		name    string
		outcome ocr.Outcome
		want    string
	}{
		{"text", ocr.Outcome{Kind: ocr.KindText, Text: "Hello World"}, "Hello World"},
		{"no text", ocr.Outcome{Kind: ocr.KindNoText}, "no text found"},
		{"provider error", ocr.Outcome{Kind: ocr.KindProviderError, Status: 500, Detail: "internal error"}, "provider error (status 500): internal error"},
		{"transport error", ocr.Outcome{Kind: ocr.KindTransportError, Detail: "timeout"}, "request failed: timeout"},
	}

	for _, tt := range tests {
		if got := formatOutcome(tt.outcome); got != tt.want {
			t.Fatalf("%s: formatOutcome = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestHandleCommand(t *testing.T) {
	reply, err := handleCommand(context.Background(), bus.InboundCommand{Command: "start"})
	if err != nil {
		t.Fatalf("handleCommand error: %v", err)
	}
	if reply != startReply {
		t.Fatalf("reply = %q, want %q", reply, startReply)
	}

	reply, err = handleCommand(context.Background(), bus.InboundCommand{Command: "help"})
	if err != nil {
		t.Fatalf("handleCommand error: %v", err)
	}
	if reply != "" {
		t.Fatalf("reply = %q, want empty for unknown command", reply)
	}
}
