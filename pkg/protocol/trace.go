package protocol

// Process step types reported in a command trace.
const (
	StepAIThinking   = "ai_thinking"
	StepToolResponse = "tool_response"
	StepHuman        = "human"
	StepAI           = "ai"
)

// ThinkingPlaceholder replaces the empty content of a tool-calling step.
const ThinkingPlaceholder = "Deciding to use a tool..."

// StepToolCall is the trace view of a ToolCall.
type StepToolCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// ProcessStep is one entry of a command's process_details.
type ProcessStep struct {
	Type      string         `json:"type"`
	Content   string         `json:"content"`
	Name      string         `json:"name,omitempty"`
	ToolCalls []StepToolCall `json:"tool_calls,omitempty"`
}

// CommandResult is the response body of a successful command.
type CommandResult struct {
	ID             string        `json:"id,omitempty"`
	Command        string        `json:"command"`
	FinalResponse  string        `json:"final_response"`
	ProcessDetails []ProcessStep `json:"process_details"`
}

// ProcessDetails classifies a dispatcher trace into process steps.
// System messages are never part of a trace and are skipped.
func ProcessDetails(msgs []ChatMessage) []ProcessStep {
	steps := make([]ProcessStep, 0, len(msgs))
	for _, m := range msgs {
		switch {
		case m.Role == RoleSystem:
			continue
		case len(m.ToolCalls) > 0:
			content := m.Content
			if content == "" {
				content = ThinkingPlaceholder
			}
			calls := make([]StepToolCall, len(m.ToolCalls))
			for i, tc := range m.ToolCalls {
				args := tc.Arguments
				if args == nil {
					args = map[string]any{}
				}
				calls[i] = StepToolCall{Name: tc.Name, Args: args}
			}
			steps = append(steps, ProcessStep{Type: StepAIThinking, Content: content, ToolCalls: calls})
		case m.Name != "":
			steps = append(steps, ProcessStep{Type: StepToolResponse, Name: m.Name, Content: m.Content})
		case m.Role == RoleUser:
			steps = append(steps, ProcessStep{Type: StepHuman, Content: m.Content})
		default:
			steps = append(steps, ProcessStep{Type: StepAI, Content: m.Content})
		}
	}
	return steps
}

// FinalResponse returns the content of the last message of a trace.
func FinalResponse(msgs []ChatMessage) string {
	if len(msgs) == 0 {
		return ""
	}
	return msgs[len(msgs)-1].Content
}

// NewCommandResult builds the response for command from its trace.
func NewCommandResult(command string, msgs []ChatMessage) *CommandResult {
	return &CommandResult{
		Command:        command,
		FinalResponse:  FinalResponse(msgs),
		ProcessDetails: ProcessDetails(msgs),
	}
}
