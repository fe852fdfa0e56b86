package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/voxedit-io/voxedit/pkg/protocol"
)

// ErrMaxIterations is returned when the model keeps requesting tools past
// the iteration limit.
var ErrMaxIterations = errors.New("exceeded max iterations")

// Execute dispatches command and returns its final response and trace.
// Every call is assigned an id and reported to the Recorder, if any.
func (a *Agent) Execute(ctx context.Context, command string) (*protocol.CommandResult, error) {
	id := CommandIDFromContext(ctx)
	if id == "" {
		id = uuid.NewString()
		ctx = WithCommandID(ctx, id)
	}

	start := time.Now()
	trace, err := a.Run(ctx, command)
	elapsed := time.Since(start)

	var result *protocol.CommandResult
	if err == nil {
		result = protocol.NewCommandResult(command, trace)
		result.ID = id
	}
	a.record(ctx, Outcome{
		ID:       id,
		Source:   SourceFromContext(ctx),
		Command:  command,
		Result:   result,
		Err:      err,
		Provider: a.Provider.Name(),
		Duration: elapsed,
		At:       start,
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Run executes the ReAct loop for a single command: send the conversation
// to the LLM, execute any requested tool calls, and loop until the LLM
// returns a message without tool calls. The returned trace starts with the
// user command and ends with the final assistant message; the system
// instruction is not part of it.
func (a *Agent) Run(ctx context.Context, command string) ([]protocol.ChatMessage, error) {
	messages := []protocol.ChatMessage{
		{Role: protocol.RoleSystem, Content: a.BuildSystemPrompt()},
		{Role: protocol.RoleUser, Content: command},
	}
	messages, err := a.runLoop(ctx, messages)
	if err != nil {
		return nil, err
	}
	return messages[1:], nil
}

func (a *Agent) runLoop(ctx context.Context, messages []protocol.ChatMessage) ([]protocol.ChatMessage, error) {
	maxIter := a.MaxIterations
	if maxIter <= 0 {
		maxIter = defaultMaxIterations
	}

	toolDefs := a.definitions()
	commandID := CommandIDFromContext(ctx)

	for i := 0; i < maxIter; i++ {
		if err := ctx.Err(); err != nil {
			a.Logger.Warn("command cancelled", "command_id", commandID, "error", err)
			return nil, err
		}

		req := protocol.ChatRequest{
			Model:       a.Model,
			Messages:    messages,
			Tools:       toolDefs,
			Temperature: a.Temperature,
		}

		a.Logger.Debug("dispatcher chat request",
			"command_id", commandID,
			"provider", a.Provider.Name(),
			"iteration", i+1,
			"messages", len(messages),
		)

		resp, err := a.Provider.Chat(ctx, req)
		if err != nil {
			a.Logger.Error("provider error",
				"command_id", commandID,
				"provider", a.Provider.Name(),
				"error", err,
			)
			return nil, err
		}

		messages = append(messages, protocol.ChatMessage{
			Role:      protocol.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		if !resp.HasToolCalls() {
			a.Logger.Debug("dispatcher final response",
				"command_id", commandID,
				"iteration", i+1,
				"content_len", len(resp.Content),
				"tokens", resp.Usage.TotalTokens(),
			)
			return messages, nil
		}

		for _, tc := range resp.ToolCalls {
			a.Logger.Info(fmt.Sprintf("tool call: %s", tc.Name),
				"command_id", commandID,
				"call_id", tc.ID,
			)

			result, err := a.executeTool(ctx, tc)
			if err != nil {
				a.Logger.Warn(fmt.Sprintf("tool error: %s", tc.Name),
					"command_id", commandID,
					"call_id", tc.ID,
					"error", err,
				)
				return nil, err
			}
			a.Logger.Info(fmt.Sprintf("tool result: %s", tc.Name),
				"command_id", commandID,
				"result_len", len(result),
			)

			messages = append(messages, protocol.ToolResultMessage(tc, result))
		}
	}

	a.Logger.Warn("command exceeded max iterations", "command_id", commandID, "max_iterations", maxIter)
	return nil, fmt.Errorf("%w (%d)", ErrMaxIterations, maxIter)
}

func (a *Agent) executeTool(ctx context.Context, tc protocol.ToolCall) (string, error) {
	if !a.Spec.ToolAllowed(tc.Name) {
		return "", fmt.Errorf("tool %q not found", tc.Name)
	}
	return a.Tools.Execute(ctx, tc.Name, tc.Arguments)
}

// definitions returns the tool definitions offered to the model, honoring
// the assistant's whitelist and blacklist.
func (a *Agent) definitions() []protocol.ToolDefinition {
	all := a.Tools.Definitions()
	defs := make([]protocol.ToolDefinition, 0, len(all))
	for _, d := range all {
		if a.Spec.ToolAllowed(d.Function.Name) {
			defs = append(defs, d)
		}
	}
	return defs
}
