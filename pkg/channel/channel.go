package channel

import (
	"context"

	"snaptext/pkg/bus"
)

// PhotoHandler runs the image-to-text pipeline for one inbound photo. All
// outcomes are delivered as outbound messages; nothing propagates back.
type PhotoHandler func(context.Context, bus.InboundPhoto)

// CommandHandler answers one slash command with reply text.
type CommandHandler func(context.Context, bus.InboundCommand) (string, error)

// MembershipHandler reacts to one membership-status change.
type MembershipHandler func(context.Context, bus.MembershipEvent)

// Handlers groups the event handlers a channel adapter dispatches to.
type Handlers struct {
	Photo      PhotoHandler
	Command    CommandHandler
	Membership MembershipHandler
}

// Adapter bridges one external transport (for example Telegram) into snaptext.
type Adapter interface {
	Name() string
	Run(context.Context, Handlers) error
}
