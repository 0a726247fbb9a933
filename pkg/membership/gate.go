package membership

import (
	"context"
	"log/slog"

	"snaptext/pkg/bus"
	"snaptext/pkg/metrics"
)

const (
	welcomeMessage = "Welcome to the channel! You can now use the bot."
	deniedMessage  = "Please join the channel before using the bot."
)

// allowedStatuses is the membership allow set. Anything else, including
// unknown status strings, counts as "not a member".
var allowedStatuses = map[string]struct{}{
	"member":        {},
	"administrator": {},
	"creator":       {},
}

// Moderator is the subset of gateway operations the gate relies on.
type Moderator interface {
	RemoveMember(ctx context.Context, chatID int64, userID int64) error
	SendDirect(ctx context.Context, userID int64, text string) error
}

// Gate decides bot access from membership-status-change events. It only
// reacts to changes pushed by the gateway; photo submissions themselves are
// not gated per message.
type Gate struct {
	moderator Moderator
	events    *bus.EventBus
	log       *slog.Logger
}

func NewGate(moderator Moderator, events *bus.EventBus, log *slog.Logger) *Gate {
	if log == nil {
		log = slog.Default()
	}

	return &Gate{
		moderator: moderator,
		events:    events,
		log:       log.With("component", "membership.gate"),
	}
}

// Allowed reports whether a status grants access.
func Allowed(status string) bool {
	_, ok := allowedStatuses[status]
	return ok
}

// OnChange applies the decision rule to one membership event. A denial is a
// policy branch, not a failure; only gateway call errors are logged as such.
func (g *Gate) OnChange(ctx context.Context, event bus.MembershipEvent) {
	if Allowed(event.Status) {
		g.log.Info("Membership allowed", "chat_id", event.ChatID, "user_id", event.UserID, "status", event.Status)
		metrics.RecordMembership(true)
		g.publish(ctx, bus.EventMembershipAllowed, event)

		if err := g.moderator.SendDirect(ctx, event.UserID, welcomeMessage); err != nil {
			g.log.Error("Failed to send welcome message", "user_id", event.UserID, "error", err)
		}
		return
	}

	g.log.Info("Membership denied", "chat_id", event.ChatID, "user_id", event.UserID, "status", event.Status)
	metrics.RecordMembership(false)
	g.publish(ctx, bus.EventMembershipDenied, event)

	if err := g.moderator.RemoveMember(ctx, event.ChatID, event.UserID); err != nil {
		g.log.Error("Failed to remove chat member", "chat_id", event.ChatID, "user_id", event.UserID, "error", err)
	}
	if err := g.moderator.SendDirect(ctx, event.UserID, deniedMessage); err != nil {
		g.log.Error("Failed to send denial message", "user_id", event.UserID, "error", err)
	}
}

func (g *Gate) publish(ctx context.Context, eventType bus.EventType, event bus.MembershipEvent) {
	if g.events == nil {
		return
	}

	g.events.Publish(ctx, bus.Event{
		Type:    eventType,
		Channel: event.Channel,
		ChatID:  event.ChatID,
	})
}
