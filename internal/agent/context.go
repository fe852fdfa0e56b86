package agent

import (
	"context"
	"strings"
)

// DefaultInstructions is the assistant persona used when no core instructions are configured.
const DefaultInstructions = `You are an intelligent voice-controlled text editor assistant designed to help users with accessibility needs.
Your primary focus is to provide accurate and helpful responses to voice commands for navigating, editing, and interacting with text documents.

When a user asks you to perform an action:
1. Identify the most appropriate tool for the request.
2. Use the tool with the correct parameters.
3. Provide a concise, helpful response about what action was taken.

Important: Users may have visual impairments, so your responses should be clear and easy to understand when read aloud by a screen reader.`

// BuildSystemPrompt returns the fixed system instruction for every command.
func (a *Agent) BuildSystemPrompt() string {
	instructions := strings.TrimSpace(a.Spec.CoreInstructions)
	if instructions == "" {
		return DefaultInstructions
	}
	return instructions
}

type ctxKey int

const (
	commandIDKey ctxKey = iota
	sourceKey
)

// WithCommandID tags ctx with the id of the command being dispatched.
func WithCommandID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, commandIDKey, id)
}

// CommandIDFromContext returns the command id set by WithCommandID.
func CommandIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(commandIDKey).(string)
	return id
}

// WithSource records which client issued the command (api, telegram, cli, ...).
func WithSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, sourceKey, source)
}

// SourceFromContext returns the client set by WithSource.
func SourceFromContext(ctx context.Context) string {
	s, _ := ctx.Value(sourceKey).(string)
	return s
}
