package slackconn

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"github.com/voxedit-io/voxedit/internal/connector"
	"github.com/voxedit-io/voxedit/pkg/protocol"
)

// Config holds Slack connector configuration.
type Config struct {
	BotToken string              // xoxb-... Bot User OAuth Token
	AppToken string              // xapp-... App-Level Token (for Socket Mode)
	Channels []string            // Optional: only respond in these channels (empty = all)
	Catalog  []protocol.ToolSpec // Listed by the "tools" slash command
}

// Connector relays editor commands from Slack via Socket Mode.
type Connector struct {
	api     *slack.Client
	socket  *socketmode.Client
	config  Config
	handler connector.InboundHandler
	logger  *slog.Logger
	cancel  context.CancelFunc
	botID   string
}

// New creates a new Slack connector.
func New(cfg Config, handler connector.InboundHandler, logger *slog.Logger) (*Connector, error) {
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("slack: bot_token is required")
	}
	if cfg.AppToken == "" {
		return nil, fmt.Errorf("slack: app_token is required (Socket Mode)")
	}

	if logger == nil {
		logger = slog.Default()
	}

	api := slack.New(cfg.BotToken, slack.OptionAppLevelToken(cfg.AppToken))

	authResp, err := api.AuthTest()
	if err != nil {
		return nil, fmt.Errorf("slack: auth test: %w", err)
	}

	logger.Info("slack bot authorized", "user", authResp.User, "team", authResp.Team)

	return &Connector{
		api:     api,
		socket:  socketmode.New(api),
		config:  cfg,
		handler: handler,
		logger:  logger,
		botID:   authResp.UserID,
	}, nil
}

func (c *Connector) Name() string { return "slack" }

// Start begins listening for events via Socket Mode. Blocks until context is cancelled.
func (c *Connector) Start(ctx context.Context) error {
	ctx, c.cancel = context.WithCancel(ctx)

	go c.handleEvents(ctx)

	c.logger.Info("slack connector started (socket mode)")
	return c.socket.RunContext(ctx)
}

// Stop gracefully shuts down the connector.
func (c *Connector) Stop() error {
	if c.cancel != nil {
		c.cancel()
	}
	return nil
}

// Send posts a reply to a channel, or into a thread when ChatID carries a
// thread timestamp ("C123:1700000000.000100").
func (c *Connector) Send(_ context.Context, msg connector.OutboundMessage) error {
	channel, thread := SplitChatID(msg.ChatID)

	opts := []slack.MsgOption{
		slack.MsgOptionText(msg.Content, false),
	}
	if thread != "" {
		opts = append(opts, slack.MsgOptionTS(thread))
	}

	if _, _, err := c.api.PostMessage(channel, opts...); err != nil {
		return fmt.Errorf("slack: send message: %w", err)
	}
	return nil
}

func (c *Connector) handleEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-c.socket.Events:
			switch event.Type {
			case socketmode.EventTypeEventsAPI:
				c.handleEventsAPI(ctx, event)
			case socketmode.EventTypeSlashCommand:
				c.handleSlashCommand(ctx, event)
			}
		}
	}
}

func (c *Connector) handleEventsAPI(ctx context.Context, event socketmode.Event) {
	eventsAPIEvent, ok := event.Data.(slackevents.EventsAPIEvent)
	if !ok {
		return
	}

	c.socket.Ack(*event.Request)

	switch ev := eventsAPIEvent.InnerEvent.Data.(type) {
	case *slackevents.MessageEvent:
		// Ignore bot messages (including our own) and subtypes (edits, deletes, ...)
		if ev.BotID != "" || ev.User == "" || ev.User == c.botID || ev.SubType != "" {
			return
		}
		if !c.isAllowedChannel(ev.Channel) {
			return
		}
		c.forward(ctx, ev.User, JoinChatID(ev.Channel, ev.ThreadTimeStamp), ev.Text)
	case *slackevents.AppMentionEvent:
		if ev.User == c.botID {
			return
		}
		c.forward(ctx, ev.User, JoinChatID(ev.Channel, ev.ThreadTimeStamp), StripMention(ev.Text, c.botID))
	}
}

// handleSlashCommand answers "help" and "tools" directly and runs anything
// else as an editor command.
func (c *Connector) handleSlashCommand(ctx context.Context, event socketmode.Event) {
	cmd, ok := event.Data.(slack.SlashCommand)
	if !ok {
		return
	}

	text := strings.TrimSpace(cmd.Text)
	switch strings.ToLower(text) {
	case "", "help":
		c.socket.Ack(*event.Request, map[string]any{"text": connector.HelpText()})
		return
	case "tools":
		c.socket.Ack(*event.Request, map[string]any{"text": connector.ToolsText(c.config.Catalog)})
		return
	}

	c.socket.Ack(*event.Request)
	c.forward(ctx, cmd.UserID, cmd.ChannelID, text)
}

func (c *Connector) forward(ctx context.Context, user, chatID, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}

	inbound := connector.InboundMessage{
		Channel:  "slack",
		SenderID: user,
		ChatID:   chatID,
		Content:  text,
	}

	if err := c.handler(ctx, inbound); err != nil {
		c.logger.Error("slack inbound handler error",
			"chat_id", chatID,
			"user", user,
			"error", err,
		)
	}
}

func (c *Connector) isAllowedChannel(channel string) bool {
	return len(c.config.Channels) == 0 || slices.Contains(c.config.Channels, channel)
}

// StripMention removes the <@BOTID> mention from message text.
func StripMention(text, botID string) string {
	mention := fmt.Sprintf("<@%s>", botID)
	text = strings.Replace(text, mention, "", 1)
	return strings.TrimSpace(text)
}

// JoinChatID combines a channel and optional thread timestamp into a chat id.
func JoinChatID(channel, thread string) string {
	if thread == "" {
		return channel
	}
	return channel + ":" + thread
}

// SplitChatID is the inverse of JoinChatID.
func SplitChatID(chatID string) (channel, thread string) {
	channel, thread, _ = strings.Cut(chatID, ":")
	return channel, thread
}
