package bus

// PhotoVariant is one resolution of an inbound photo. The gateway delivers
// variants ordered by resolution with the largest last.
type PhotoVariant struct {
	FileID string `json:"file_id"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// InboundPhoto is one photo message delivered by a channel adapter. It is
// consumed by exactly one pipeline run.
type InboundPhoto struct {
	Channel   string         `json:"channel"`
	ChatID    int64          `json:"chat_id"`
	MessageID int            `json:"message_id"`
	SenderID  int64          `json:"sender_id"`
	Variants  []PhotoVariant `json:"variants"`
}

// InboundCommand is one slash-command message delivered by a channel adapter.
type InboundCommand struct {
	Channel  string `json:"channel"`
	ChatID   int64  `json:"chat_id"`
	SenderID int64  `json:"sender_id"`
	Command  string `json:"command"`
}

// MembershipEvent is one membership-status change pushed by the gateway.
// Status values outside the known allow set are treated as "not a member".
type MembershipEvent struct {
	Channel string `json:"channel"`
	ChatID  int64  `json:"chat_id"`
	UserID  int64  `json:"user_id"`
	Status  string `json:"status"`
}
