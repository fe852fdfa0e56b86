package agent

import (
	"context"
	"strings"

	"github.com/voxedit-io/voxedit/internal/connector"
)

// ReplyFunc delivers the answer to an inbound message back to its platform.
type ReplyFunc func(ctx context.Context, channel string, msg connector.OutboundMessage) error

// Worker dispatches commands arriving from chat connectors one at a time.
// Failed commands are answered with the error text and are not retried.
type Worker struct {
	Agent *Agent
	Inbox <-chan connector.InboundMessage
	Reply ReplyFunc
}

// Start runs the worker loop. It blocks until the context is cancelled or
// the inbox channel is closed.
func (w *Worker) Start(ctx context.Context) error {
	w.Agent.Logger.Info("command worker started", "assistant", w.Agent.Spec.ID)

	for {
		select {
		case msg, ok := <-w.Inbox:
			if !ok {
				w.Agent.Logger.Info("command inbox closed", "assistant", w.Agent.Spec.ID)
				return nil
			}
			w.handleMessage(ctx, msg)

		case <-ctx.Done():
			w.Agent.Logger.Info("command worker stopping", "assistant", w.Agent.Spec.ID)
			return ctx.Err()
		}
	}
}

func (w *Worker) handleMessage(ctx context.Context, msg connector.InboundMessage) {
	command := strings.TrimSpace(msg.Content)
	if command == "" {
		return
	}

	w.Agent.Logger.Debug("processing inbound command",
		"channel", msg.Channel,
		"chat_id", msg.ChatID,
		"sender", msg.SenderID,
	)

	var reply string
	result, err := w.Agent.Execute(WithSource(ctx, msg.Channel), command)
	if err != nil {
		reply = "Error: " + err.Error()
		w.Agent.Logger.Error("inbound command failed",
			"channel", msg.Channel,
			"chat_id", msg.ChatID,
			"error", err,
		)
	} else {
		reply = result.FinalResponse
	}

	if w.Reply == nil {
		return
	}
	out := connector.OutboundMessage{ChatID: msg.ChatID, Content: reply}
	if err := w.Reply(ctx, msg.Channel, out); err != nil {
		w.Agent.Logger.Error("failed to deliver reply",
			"channel", msg.Channel,
			"chat_id", msg.ChatID,
			"error", err,
		)
	}
}
