package bus

import "time"

type EventType string

const (
	EventRunStarted        EventType = "run_started"
	EventRunCompleted      EventType = "run_completed"
	EventRunFailed         EventType = "run_failed"
	EventMembershipAllowed EventType = "membership_allowed"
	EventMembershipDenied  EventType = "membership_denied"
)

// Event is one pipeline or membership lifecycle notification. Events carry
// diagnostic context only; user-facing replies never flow through the bus.
type Event struct {
	Type    EventType `json:"type"`
	At      time.Time `json:"at"`
	Channel string    `json:"channel,omitempty"`
	ChatID  int64     `json:"chat_id,omitempty"`
	RunID   string    `json:"run_id,omitempty"`
	Outcome string    `json:"outcome,omitempty"`
	Error   string    `json:"error,omitempty"`
}
