package connector

import "context"

// Connector is the interface for chat platforms that relay voice and text
// commands to the assistant (Telegram, Slack).
type Connector interface {
	// Name returns the connector type (e.g., "telegram", "slack").
	Name() string
	// Start begins listening for inbound messages. Blocks until context is cancelled.
	Start(ctx context.Context) error
	// Stop gracefully shuts down the connector.
	Stop() error
	// Send delivers an outbound message to the external platform.
	Send(ctx context.Context, msg OutboundMessage) error
}

// OutboundMessage is an assistant reply sent to a chat.
type OutboundMessage struct {
	ChatID  string // Platform-specific chat identifier
	Content string // Plain text, suitable for screen readers
}

// InboundMessage is a command received from a chat platform.
type InboundMessage struct {
	Channel  string // Connector name (e.g., "telegram")
	SenderID string // Platform-specific sender identifier
	ChatID   string // Platform-specific chat identifier
	Content  string // Command text, transcribed for voice messages
}

// InboundHandler accepts commands received from chat platforms.
// Implementations typically queue them for a command worker.
type InboundHandler func(ctx context.Context, msg InboundMessage) error

// Queue returns an InboundHandler that forwards messages to inbox,
// blocking until there is room or ctx is done.
func Queue(inbox chan<- InboundMessage) InboundHandler {
	return func(ctx context.Context, msg InboundMessage) error {
		select {
		case inbox <- msg:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
