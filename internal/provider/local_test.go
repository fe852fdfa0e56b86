package provider

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/voxedit-io/voxedit/pkg/protocol"
)

func plan(t *testing.T, command string) []protocol.ToolCall {
	t.Helper()
	resp, err := NewLocal().Chat(context.Background(), protocol.ChatRequest{
		Messages: []protocol.ChatMessage{
			{Role: protocol.RoleSystem, Content: "system"},
			{Role: protocol.RoleUser, Content: command},
		},
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	return resp.ToolCalls
}

func TestLocalPlanner_ExampleCommands(t *testing.T) {
	cases := []struct {
		command string
		tools   []string
		check   map[string]any // arguments of the first call
	}{
		{"Read the current paragraph", []string{"read_text"}, map[string]any{"unit": "paragraph", "direction": "current"}},
		{"Move to the next heading and read it", []string{"move_cursor", "read_text"}, map[string]any{"destination_type": "heading", "direction": "next"}},
		{"Find the word 'accessibility' in the document", []string{"find_text"}, map[string]any{"search_direction": "new", "text_to_find": "accessibility"}},
		{"Select the current sentence", []string{"modify_selection"}, map[string]any{"action": "select", "unit": "sentence"}},
		{"Delete the selected text", []string{"edit_text"}, map[string]any{"action": "delete", "unit": "selection"}},
		{"Copy the current line", []string{"clipboard_action"}, map[string]any{"action": "copy"}},
		{"Make the selected text bold", []string{"apply_formatting"}, map[string]any{"format_type": "bold"}},
		{"Apply heading level 2 to this line", []string{"apply_formatting"}, map[string]any{"format_type": "heading", "value": 2}},
		{"Insert a bulleted list", []string{"apply_formatting"}, map[string]any{"format_type": "list"}},
		{"Save the current document", []string{"manage_file"}, map[string]any{"action": "save"}},
		{"Open the file named 'report.txt'", []string{"manage_file"}, map[string]any{"action": "open", "filename": "report.txt"}},
		{"Check if there are unsaved changes", []string{"report_status"}, map[string]any{"query": "unsaved_changes"}},
		{"Increase the text-to-speech speed to 1.5", []string{"control_tts"}, map[string]any{"action": "set_speed", "value": 1.5}},
		{"Spell the current word", []string{"control_tts"}, map[string]any{"action": "spell", "target": "current_word"}},
		{"Set the TTS voice to 'David'", []string{"control_tts"}, map[string]any{"action": "set_voice", "value": "David"}},
		{"What's the current time?", []string{"get_current_time"}, map[string]any{}},
		{"What is 25 times 4?", []string{"calculator"}, map[string]any{"expression": "25 * 4"}},
		{"Search for information about screen readers", []string{"search_web"}, map[string]any{"query": "screen readers"}},
		{"Select the current sentence and make it bold", []string{"modify_selection", "apply_formatting"}, nil},
		{"What's the weather today and what time is it?", []string{"search_web", "get_current_time"}, map[string]any{"query": "weather today"}},
	}

	for _, tc := range cases {
		t.Run(tc.command, func(t *testing.T) {
			calls := plan(t, tc.command)
			if len(calls) != len(tc.tools) {
				t.Fatalf("expected %d calls, got %+v", len(tc.tools), calls)
			}
			for i, name := range tc.tools {
				if calls[i].Name != name {
					t.Errorf("call %d: expected %s, got %s", i, name, calls[i].Name)
				}
				if calls[i].ID == "" {
					t.Errorf("call %d: missing id", i)
				}
			}
			for k, want := range tc.check {
				if got := calls[0].Arguments[k]; fmt.Sprint(got) != fmt.Sprint(want) {
					t.Errorf("arg %s: expected %v, got %v", k, want, got)
				}
			}
		})
	}
}

func TestLocalPlanner_UnknownCommand(t *testing.T) {
	resp, err := NewLocal().Chat(context.Background(), protocol.ChatRequest{
		Messages: []protocol.ChatMessage{{Role: protocol.RoleUser, Content: "Sing me a song"}},
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.HasToolCalls() {
		t.Errorf("expected no tool calls, got %+v", resp.ToolCalls)
	}
	if resp.Content != Fallback {
		t.Errorf("expected fallback answer, got %q", resp.Content)
	}
}

func TestLocalPlanner_RespectsOfferedTools(t *testing.T) {
	resp, _ := NewLocal().Chat(context.Background(), protocol.ChatRequest{
		Messages: []protocol.ChatMessage{{Role: protocol.RoleUser, Content: "What's the weather today and what time is it?"}},
		Tools:    []protocol.ToolDefinition{protocol.NewToolDefinition("get_current_time", "", nil)},
	})
	if len(resp.ToolCalls) != 1 || resp.ToolCalls[0].Name != "get_current_time" {
		t.Fatalf("expected only get_current_time, got %+v", resp.ToolCalls)
	}
}

func TestLocalPlanner_SummarizesToolResults(t *testing.T) {
	calls := []protocol.ToolCall{{ID: "a", Name: "search_web"}, {ID: "b", Name: "get_current_time"}}
	resp, err := NewLocal().Chat(context.Background(), protocol.ChatRequest{
		Messages: []protocol.ChatMessage{
			{Role: protocol.RoleUser, Content: "What's the weather today and what time is it?"},
			{Role: protocol.RoleAssistant, ToolCalls: calls},
			protocol.ToolResultMessage(calls[0], "The weather today is sunny with a high of 75°F."),
			protocol.ToolResultMessage(calls[1], "Current time: 10:00:00, Date: 2024-01-01"),
		},
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.HasToolCalls() {
		t.Fatal("expected a final answer")
	}
	want := "The weather today is sunny with a high of 75°F. Current time: 10:00:00, Date: 2024-01-01."
	if resp.Content != want {
		t.Errorf("expected %q, got %q", want, resp.Content)
	}
	if !strings.HasSuffix(resp.Content, ".") {
		t.Error("expected answer to end as a sentence")
	}
}
