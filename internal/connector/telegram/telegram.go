package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/voxedit-io/voxedit/internal/connector"
	"github.com/voxedit-io/voxedit/pkg/protocol"
)

// maxMessageLen is Telegram's limit for a single text message.
const maxMessageLen = 4096

// Config holds Telegram connector configuration.
type Config struct {
	Token     string              // Bot token from @BotFather
	AllowFrom []int64             // Allowed Telegram user IDs (empty = allow all)
	Voice     *VoiceConfig        // Optional voice transcription settings
	Catalog   []protocol.ToolSpec // Listed by /tools
}

// Connector relays text and voice commands from Telegram chats.
type Connector struct {
	bot     *tgbotapi.BotAPI
	config  Config
	handler connector.InboundHandler
	logger  *slog.Logger
	http    *http.Client
	cancel  context.CancelFunc
}

// New creates a new Telegram connector.
func New(cfg Config, handler connector.InboundHandler, logger *slog.Logger) (*Connector, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("telegram: init bot: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("telegram bot authorized", "username", bot.Self.UserName)

	return &Connector{
		bot:     bot,
		config:  cfg,
		handler: handler,
		logger:  logger,
		http:    newHTTPClient(),
	}, nil
}

func (c *Connector) Name() string { return "telegram" }

// Start begins long-polling for updates. Blocks until context is cancelled.
func (c *Connector) Start(ctx context.Context) error {
	ctx, c.cancel = context.WithCancel(ctx)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := c.bot.GetUpdatesChan(u)

	c.logger.Info("telegram connector started",
		"bot", c.bot.Self.UserName,
		"voice", c.config.Voice.enabled(),
	)

	for {
		select {
		case update := <-updates:
			if update.Message == nil {
				continue
			}
			c.handleUpdate(ctx, update)

		case <-ctx.Done():
			c.bot.StopReceivingUpdates()
			c.logger.Info("telegram connector stopped")
			return ctx.Err()
		}
	}
}

// Stop gracefully shuts down the connector.
func (c *Connector) Stop() error {
	if c.cancel != nil {
		c.cancel()
	}
	return nil
}

// Send delivers a plain-text reply to a Telegram chat, split into several
// messages when it exceeds Telegram's length limit.
func (c *Connector) Send(_ context.Context, msg connector.OutboundMessage) error {
	chatID, err := strconv.ParseInt(msg.ChatID, 10, 64)
	if err != nil {
		return fmt.Errorf("telegram: invalid chat_id %q: %w", msg.ChatID, err)
	}

	if strings.TrimSpace(msg.Content) == "" {
		c.logger.Warn("skipping empty message", "chat_id", msg.ChatID)
		return nil
	}

	for _, part := range splitMessage(msg.Content, maxMessageLen) {
		reply := tgbotapi.NewMessage(chatID, part)
		reply.DisableWebPagePreview = true
		if _, err := c.bot.Send(reply); err != nil {
			return fmt.Errorf("telegram: send message: %w", err)
		}
	}
	return nil
}

func (c *Connector) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	userID := msg.From.ID
	chatID := msg.Chat.ID

	if !allowed(c.config.AllowFrom, userID) {
		c.logger.Warn("unauthorized user", "user_id", userID, "username", msg.From.UserName)
		return
	}

	if msg.IsCommand() {
		c.handleCommand(ctx, msg)
		return
	}

	text := msg.Text
	if text == "" {
		text = msg.Caption
	}

	if text == "" && (msg.Voice != nil || msg.Audio != nil) {
		if !c.config.Voice.enabled() {
			c.reply(chatID, "Voice commands are not enabled. Please type your command instead.")
			return
		}
		transcribed, err := c.transcribeVoice(ctx, msg)
		if err != nil {
			c.logger.Error("voice transcription failed",
				"chat_id", chatID,
				"error", err,
			)
			c.reply(chatID, "Sorry, I couldn't understand that voice message.")
			return
		}
		c.logger.Debug("voice command transcribed", "chat_id", chatID, "text_len", len(transcribed))
		text = transcribed
	}

	if strings.TrimSpace(text) == "" {
		return
	}

	typing := tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)
	c.bot.Send(typing)

	if err := c.handler(ctx, commandMessage(userID, chatID, text)); err != nil {
		c.logger.Error("inbound handler error",
			"chat_id", chatID,
			"error", err,
		)
	}
}

func (c *Connector) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start", "help":
		c.reply(chatID, connector.HelpText())
	case "tools":
		c.reply(chatID, connector.ToolsText(c.config.Catalog))
	default:
		// "/do read the next line" runs the arguments as a command.
		text := strings.TrimSpace(msg.CommandArguments())
		if text == "" {
			c.reply(chatID, "Unknown command. Send /help to see what I can do.")
			return
		}
		if err := c.handler(ctx, commandMessage(msg.From.ID, chatID, text)); err != nil {
			c.logger.Error("inbound handler error", "chat_id", chatID, "error", err)
		}
	}
}

func (c *Connector) reply(chatID int64, text string) {
	if _, err := c.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		c.logger.Warn("telegram reply failed", "chat_id", chatID, "error", err)
	}
}

func commandMessage(userID, chatID int64, text string) connector.InboundMessage {
	return connector.InboundMessage{
		Channel:  "telegram",
		SenderID: strconv.FormatInt(userID, 10),
		ChatID:   strconv.FormatInt(chatID, 10),
		Content:  strings.TrimSpace(text),
	}
}

func allowed(ids []int64, id int64) bool {
	return len(ids) == 0 || slices.Contains(ids, id)
}

// splitMessage breaks text into chunks of at most limit bytes, preferring
// to cut at line breaks.
func splitMessage(text string, limit int) []string {
	var parts []string
	for len(text) > limit {
		cut := strings.LastIndex(text[:limit], "\n")
		if cut <= 0 {
			cut = limit
		}
		parts = append(parts, text[:cut])
		text = strings.TrimPrefix(text[cut:], "\n")
	}
	if text != "" {
		parts = append(parts, text)
	}
	return parts
}
