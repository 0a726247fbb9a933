package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"snaptext/pkg/bus"
	"snaptext/pkg/channel"
	"snaptext/pkg/config"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

const channelName = "telegram"
const messagePreviewLimit = 240

const startDescription = "Start the bot and get instructions"

// Adapter bridges Telegram updates into snaptext events and exposes the
// gateway operations the pipeline and the membership gate reply through.
type Adapter struct {
	cfg config.TelegramConfig
	bot *telego.Bot
	log *slog.Logger
}

// NewAdapter validates Telegram configuration and constructs an adapter
// instance with a live bot client.
func NewAdapter(cfg config.TelegramConfig, log *slog.Logger) (*Adapter, error) {
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("channels.telegram.token is required")
	}

	if log == nil {
		log = slog.Default()
	}

	bot, err := telego.NewBot(token)
	if err != nil {
		return nil, fmt.Errorf("initialize telegram bot: %w", err)
	}

	return &Adapter{
		cfg: cfg,
		bot: bot,
		log: log.With("component", "channel.telegram"),
	}, nil
}

// Name returns the channel identifier used in events and logs.
func (a *Adapter) Name() string {
	return channelName
}

// Run registers the command menu, starts long polling, and dispatches every
// update on its own goroutine. One update is one unit of concurrent work;
// updates for different chats never block each other.
func (a *Adapter) Run(ctx context.Context, handlers channel.Handlers) error {
	if handlers.Photo == nil || handlers.Membership == nil {
		return errors.New("photo and membership handlers are required")
	}

	if err := a.bot.SetMyCommands(ctx, &telego.SetMyCommandsParams{
		Commands: []telego.BotCommand{{Command: "start", Description: startDescription}},
	}); err != nil {
		a.log.Warn("Failed to register command menu", "error", err)
	}

	updates, err := a.bot.UpdatesViaLongPolling(ctx, nil)
	if err != nil {
		return fmt.Errorf("start long polling: %w", err)
	}

	a.log.Info("Telegram channel started", "channel_id", a.cfg.ChannelID)

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				if err := ctx.Err(); err != nil {
					return nil
				}
				return errors.New("telegram updates channel closed")
			}

			go a.dispatch(ctx, handlers, update)
		}
	}
}

// dispatch routes one update. A recover here is the outermost boundary for a
// run; a panicking handler must not take down the polling loop.
func (a *Adapter) dispatch(ctx context.Context, handlers channel.Handlers, update telego.Update) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error("Recovered panic while handling update", "update_id", update.UpdateID, "panic", r)
		}
	}()

	if membership := membershipUpdate(update); membership != nil {
		handlers.Membership(ctx, membershipEvent(membership))
		return
	}

	message := update.Message
	if message == nil {
		return
	}

	if len(message.Photo) > 0 {
		handlers.Photo(ctx, inboundPhoto(message))
		return
	}

	command := parseCommand(message.Text)
	if command == "" || handlers.Command == nil {
		return
	}
	if message.From == nil {
		a.log.Debug("Ignoring command without sender")
		return
	}

	reply, err := handlers.Command(ctx, bus.InboundCommand{
		Channel:  channelName,
		ChatID:   message.Chat.ID,
		SenderID: message.From.ID,
		Command:  command,
	})
	if err != nil {
		a.log.Error("Failed to handle command", "command", command, "error", err)
		return
	}
	if strings.TrimSpace(reply) == "" {
		return
	}

	a.log.Info("Sending command reply", "chat_id", message.Chat.ID, "command", command, "content", previewText(reply))
	if _, err := a.SendMessage(ctx, message.Chat.ID, reply); err != nil {
		a.log.Error("Failed to send command reply", "error", err)
	}
}

// SendMessage sends a text reply and returns the sent message identifier.
func (a *Adapter) SendMessage(ctx context.Context, chatID int64, text string) (int, error) {
	message, err := a.bot.SendMessage(ctx, tu.Message(tu.ID(chatID), text))
	if err != nil {
		return 0, fmt.Errorf("send telegram message: %w", err)
	}

	return message.MessageID, nil
}

// DeleteMessage removes a previously sent message, used to retire the
// transient processing notice.
func (a *Adapter) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	if err := a.bot.DeleteMessage(ctx, &telego.DeleteMessageParams{
		ChatID:    tu.ID(chatID),
		MessageID: messageID,
	}); err != nil {
		return fmt.Errorf("delete telegram message: %w", err)
	}

	return nil
}

// DownloadPhoto fetches the raw bytes of a photo variant by file reference.
func (a *Adapter) DownloadPhoto(ctx context.Context, fileID string) ([]byte, error) {
	file, err := a.bot.GetFile(ctx, &telego.GetFileParams{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("resolve telegram file: %w", err)
	}

	data, err := tu.DownloadFile(a.bot.FileDownloadURL(file.FilePath))
	if err != nil {
		return nil, fmt.Errorf("download telegram file: %w", err)
	}

	return data, nil
}

// RemoveMember removes a user from the chat.
func (a *Adapter) RemoveMember(ctx context.Context, chatID int64, userID int64) error {
	if err := a.bot.BanChatMember(ctx, &telego.BanChatMemberParams{
		ChatID: tu.ID(chatID),
		UserID: userID,
	}); err != nil {
		return fmt.Errorf("remove chat member: %w", err)
	}

	return nil
}

// SendDirect sends a private message to a user. On Telegram a user's direct
// chat shares the user identifier.
func (a *Adapter) SendDirect(ctx context.Context, userID int64, text string) error {
	_, err := a.SendMessage(ctx, userID, text)
	return err
}

// membershipUpdate extracts the membership change carried by an update,
// whether it concerns the bot's own chats or observed members.
func membershipUpdate(update telego.Update) *telego.ChatMemberUpdated {
	if update.ChatMember != nil {
		return update.ChatMember
	}

	return update.MyChatMember
}

func membershipEvent(updated *telego.ChatMemberUpdated) bus.MembershipEvent {
	member := updated.NewChatMember.MemberUser()

	return bus.MembershipEvent{
		Channel: channelName,
		ChatID:  updated.Chat.ID,
		UserID:  member.ID,
		Status:  updated.NewChatMember.MemberStatus(),
	}
}

// inboundPhoto converts a photo message, keeping the gateway's ordering of
// variants (largest last).
func inboundPhoto(message *telego.Message) bus.InboundPhoto {
	variants := make([]bus.PhotoVariant, 0, len(message.Photo))
	for _, size := range message.Photo {
		variants = append(variants, bus.PhotoVariant{
			FileID: size.FileID,
			Width:  size.Width,
			Height: size.Height,
		})
	}

	senderID := int64(0)
	if message.From != nil {
		senderID = message.From.ID
	}

	return bus.InboundPhoto{
		Channel:   channelName,
		ChatID:    message.Chat.ID,
		MessageID: message.MessageID,
		SenderID:  senderID,
		Variants:  variants,
	}
}

// parseCommand extracts the bare command name from message text, stripping
// the bot-mention suffix and arguments. Non-command text yields "".
func parseCommand(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "/") {
		return ""
	}

	name := strings.Fields(trimmed)[0][1:]
	if at := strings.Index(name, "@"); at >= 0 {
		name = name[:at]
	}

	return name
}

// previewText returns a bounded log-safe preview of message text.
func previewText(text string) string {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) <= messagePreviewLimit {
		return trimmed
	}

	return trimmed[:messagePreviewLimit] + "..."
}
