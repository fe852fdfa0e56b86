package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/voxedit-io/voxedit/pkg/protocol"
)

func writeCompletion(w http.ResponseWriter, message map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1,
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       message,
		}},
		"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
	})
}

func TestOpenAIChat_TextResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Error("missing auth header")
		}

		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req["model"] != DefaultOpenAIModel {
			t.Errorf("expected model %s, got %v", DefaultOpenAIModel, req["model"])
		}
		if req["temperature"] != float64(0) {
			t.Errorf("expected temperature 0 to be sent, got %v", req["temperature"])
		}
		if msgs, _ := req["messages"].([]any); len(msgs) != 2 {
			t.Fatalf("expected 2 messages, got %v", req["messages"])
		}

		writeCompletion(w, map[string]any{"role": "assistant", "content": "Hello!"})
	}))
	defer srv.Close()

	p := NewOpenAI("test-key", WithBaseURL(srv.URL))

	got, err := p.Chat(context.Background(), protocol.ChatRequest{
		Messages: []protocol.ChatMessage{
			{Role: protocol.RoleSystem, Content: "Be brief."},
			{Role: protocol.RoleUser, Content: "Hi"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Content != "Hello!" {
		t.Errorf("expected content 'Hello!', got %q", got.Content)
	}
	if got.HasToolCalls() {
		t.Error("expected no tool calls")
	}
	if got.Usage.TotalTokens() != 15 {
		t.Errorf("expected 15 total tokens, got %d", got.Usage.TotalTokens())
	}
}

func TestOpenAIChat_ToolCallResponse(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		writeCompletion(w, map[string]any{
			"role":    "assistant",
			"content": "",
			"tool_calls": []map[string]any{{
				"id":   "call_123",
				"type": "function",
				"function": map[string]any{
					"name":      "read_text",
					"arguments": `{"unit": "paragraph"}`,
				},
			}},
		})
	}))
	defer srv.Close()

	p := NewOpenAI("test-key", WithBaseURL(srv.URL), WithModel("gpt-4o"))
	got, err := p.Chat(context.Background(), protocol.ChatRequest{
		Messages: []protocol.ChatMessage{{Role: protocol.RoleUser, Content: "Read the current paragraph"}},
		Tools: []protocol.ToolDefinition{
			protocol.NewToolDefinition("read_text", "Read text", map[string]any{"type": "object"}),
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if captured["model"] != "gpt-4o" {
		t.Errorf("expected configured model, got %v", captured["model"])
	}
	if tools, _ := captured["tools"].([]any); len(tools) != 1 {
		t.Errorf("expected 1 tool sent, got %v", captured["tools"])
	}

	if len(got.ToolCalls) != 1 {
		t.Fatalf("expected 1 tool call, got %d", len(got.ToolCalls))
	}
	tc := got.ToolCalls[0]
	if tc.ID != "call_123" || tc.Name != "read_text" {
		t.Errorf("unexpected tool call %+v", tc)
	}
	if tc.Arguments["unit"] != "paragraph" {
		t.Errorf("expected unit=paragraph, got %v", tc.Arguments["unit"])
	}
}

func TestOpenAIChat_ToolTurnRoundTrip(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		writeCompletion(w, map[string]any{"role": "assistant", "content": "Done."})
	}))
	defer srv.Close()

	call := protocol.ToolCall{ID: "call_1", Name: "get_current_time", Arguments: nil}
	p := NewOpenAI("test-key", WithBaseURL(srv.URL))
	_, err := p.Chat(context.Background(), protocol.ChatRequest{
		Messages: []protocol.ChatMessage{
			{Role: protocol.RoleUser, Content: "What time is it?"},
			{Role: protocol.RoleAssistant, ToolCalls: []protocol.ToolCall{call}},
			protocol.ToolResultMessage(call, "Current time: 10:00:00, Date: 2024-01-01"),
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msgs := captured["messages"].([]any)
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	assistant := msgs[1].(map[string]any)
	calls := assistant["tool_calls"].([]any)
	fn := calls[0].(map[string]any)["function"].(map[string]any)
	if fn["arguments"] != "{}" {
		t.Errorf("expected empty JSON object arguments, got %v", fn["arguments"])
	}
	toolMsg := msgs[2].(map[string]any)
	if toolMsg["role"] != "tool" || toolMsg["tool_call_id"] != "call_1" {
		t.Errorf("unexpected tool message %v", toolMsg)
	}
}

func TestOpenAIChat_MalformedArguments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeCompletion(w, map[string]any{
			"role": "assistant",
			"tool_calls": []map[string]any{{
				"id":       "call_1",
				"type":     "function",
				"function": map[string]any{"name": "calculator", "arguments": `{"expression": `},
			}},
		})
	}))
	defer srv.Close()

	p := NewOpenAI("test-key", WithBaseURL(srv.URL))
	_, err := p.Chat(context.Background(), protocol.ChatRequest{
		Messages: []protocol.ChatMessage{{Role: protocol.RoleUser, Content: "What is 2 plus 2?"}},
	})
	if err == nil {
		t.Fatal("expected error for malformed tool arguments")
	}
}

func TestOpenAIChat_APIErrorIsNotRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error": {"message": "overloaded", "type": "server_error"}}`))
	}))
	defer srv.Close()

	p := NewOpenAI("test-key", WithBaseURL(srv.URL))
	_, err := p.Chat(context.Background(), protocol.ChatRequest{
		Messages: []protocol.ChatMessage{{Role: protocol.RoleUser, Content: "Hi"}},
	})
	if err == nil {
		t.Fatal("expected error for 503 response")
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("expected exactly 1 request, got %d", n)
	}
}

func TestOpenAIChat_MissingKeyFailsAtCallTime(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	p := NewOpenAI("", WithBaseURL(srv.URL))
	_, err := p.Chat(context.Background(), protocol.ChatRequest{
		Messages: []protocol.ChatMessage{{Role: protocol.RoleUser, Content: "Hi"}},
	})
	if !errors.Is(err, ErrNoAPIKey) {
		t.Fatalf("expected ErrNoAPIKey, got %v", err)
	}
	if hits.Load() != 0 {
		t.Error("expected no request without an API key")
	}
}
