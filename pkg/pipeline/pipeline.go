package pipeline

import (
	"context"
	"log/slog"
	"time"

	"snaptext/pkg/bus"
	"snaptext/pkg/metrics"
	"snaptext/pkg/ocr"
	"snaptext/pkg/spool"

	"github.com/google/uuid"
)

const (
	processingNotice    = "Processing, please wait."
	noTextReply         = "No text found in the image."
	providerErrorReply  = "Error processing the image with OCR API."
	genericFailureReply = "There was an error processing the photo. Please try again."
)

const (
	outcomeText           = "text"
	outcomeNoText         = "no_text"
	outcomeProviderError  = "provider_error"
	outcomeTransportError = "transport_error"
	outcomeAcquireError   = "acquire_error"
	outcomeUnexpected     = "unexpected_error"
)

// Messenger is the subset of gateway operations the orchestrator replies
// through.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string) (int, error)
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
}

// Recognizer submits one image artifact to the OCR provider.
type Recognizer interface {
	Recognize(ctx context.Context, path string) ocr.Outcome
}

// Orchestrator coordinates one pipeline run per inbound photo: processing
// notice, image acquisition, recognition, reply, and cleanup. Every failure
// terminates at the reply-and-log boundary; nothing escapes a run.
type Orchestrator struct {
	messenger  Messenger
	acquirer   *Acquirer
	recognizer Recognizer
	events     *bus.EventBus
	log        *slog.Logger
}

func New(messenger Messenger, fetcher FileFetcher, recognizer Recognizer, sp *spool.Spool, events *bus.EventBus, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}

	return &Orchestrator{
		messenger:  messenger,
		acquirer:   NewAcquirer(fetcher, sp),
		recognizer: recognizer,
		events:     events,
		log:        log.With("component", "pipeline.orchestrator"),
	}
}

// Process runs the image-to-text pipeline for one inbound photo. All
// outcomes, success or failure, are delivered as outbound messages.
func (o *Orchestrator) Process(ctx context.Context, photo bus.InboundPhoto) {
	runID := uuid.NewString()
	startedAt := time.Now()
	log := o.log.With("run_id", runID, "chat_id", photo.ChatID)

	o.publish(ctx, bus.Event{Type: bus.EventRunStarted, Channel: photo.Channel, ChatID: photo.ChatID, RunID: runID})
	log.Info("Run started", "message_id", photo.MessageID, "variants", len(photo.Variants))

	outcome := o.run(ctx, photo, log)

	metrics.RecordRun(outcome, time.Since(startedAt).Seconds())
	event := bus.Event{Channel: photo.Channel, ChatID: photo.ChatID, RunID: runID, Outcome: outcome}
	if outcome == outcomeText || outcome == outcomeNoText {
		event.Type = bus.EventRunCompleted
	} else {
		event.Type = bus.EventRunFailed
	}
	o.publish(ctx, event)
	log.Info("Run finished", "outcome", outcome, "duration_ms", time.Since(startedAt).Milliseconds())
}

// run executes the notice/acquire/recognize/reply sequence and returns the
// classified outcome label. Cleanup of the notice and the artifact happens
// on every exit path, including panics, which are recovered here so that a
// run can never take down the dispatch loop.
func (o *Orchestrator) run(ctx context.Context, photo bus.InboundPhoto, log *slog.Logger) (outcome string) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Recovered panic during run", "panic", r)
			o.reply(ctx, photo.ChatID, genericFailureReply, log)
			outcome = outcomeUnexpected
		}
	}()

	noticeID, err := o.messenger.SendMessage(ctx, photo.ChatID, processingNotice)
	if err != nil {
		// The run proceeds without a notice; there is nothing to retire later.
		log.Warn("Failed to send processing notice", "error", err)
		noticeID = 0
	}
	defer func() {
		if noticeID == 0 {
			return
		}
		if err := o.messenger.DeleteMessage(ctx, photo.ChatID, noticeID); err != nil {
			log.Warn("Failed to delete processing notice", "message_id", noticeID, "error", err)
		}
	}()

	handle, err := o.acquirer.Acquire(ctx, photo)
	defer func() {
		if removeErr := handle.Remove(); removeErr != nil {
			log.Warn("Failed to remove image artifact", "error", removeErr)
		}
	}()
	if err != nil {
		log.Error("Failed to acquire photo", "error", err)
		o.reply(ctx, photo.ChatID, genericFailureReply, log)
		return outcomeAcquireError
	}

	result := o.recognizer.Recognize(ctx, handle.Path)
	switch result.Kind {
	case ocr.KindText:
		o.reply(ctx, photo.ChatID, result.Text, log)
		return outcomeText
	case ocr.KindNoText:
		o.reply(ctx, photo.ChatID, noTextReply, log)
		return outcomeNoText
	case ocr.KindProviderError:
		log.Error("OCR provider rejected the image", "status", result.Status, "body", result.Detail)
		o.reply(ctx, photo.ChatID, providerErrorReply, log)
		return outcomeProviderError
	default:
		log.Error("OCR transport failure", "detail", result.Detail)
		o.reply(ctx, photo.ChatID, genericFailureReply, log)
		return outcomeTransportError
	}
}

func (o *Orchestrator) reply(ctx context.Context, chatID int64, text string, log *slog.Logger) {
	if _, err := o.messenger.SendMessage(ctx, chatID, text); err != nil {
		log.Error("Failed to send reply", "error", err)
	}
}

func (o *Orchestrator) publish(ctx context.Context, event bus.Event) {
	if o.events == nil {
		return
	}

	o.events.Publish(ctx, event)
}
