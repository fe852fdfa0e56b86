package provider

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/voxedit-io/voxedit/pkg/protocol"
)

// LocalProvider is an offline planner that maps common voice commands to
// editor tool calls with keyword rules. It lets the assistant run without
// an LLM account and gives tests a deterministic dispatcher.
type LocalProvider struct {
	rules []planRule
}

type planRule struct {
	tool    string
	pattern *regexp.Regexp
	args    func(m []string, command string) map[string]any
}

// Fallback is the reply for commands no rule recognizes.
const Fallback = "I'm not sure how to help with that yet. Try a command like " +
	"\"Read the current paragraph\", or say \"help\" to hear what I can do."

// NewLocal creates the offline planner.
func NewLocal() *LocalProvider {
	return &LocalProvider{rules: localRules}
}

func (p *LocalProvider) Name() string { return "local" }

// Chat plans tool calls for the latest human message. Once tool results
// are in, it reads them back as the final answer.
func (p *LocalProvider) Chat(_ context.Context, req protocol.ChatRequest) (*protocol.ChatResponse, error) {
	if len(req.Messages) == 0 {
		return &protocol.ChatResponse{Content: Fallback}, nil
	}

	last := req.Messages[len(req.Messages)-1]
	if last.Role == protocol.RoleTool {
		return &protocol.ChatResponse{Content: summarize(req.Messages)}, nil
	}

	calls := p.plan(last.Content, offered(req.Tools))
	if len(calls) == 0 {
		return &protocol.ChatResponse{Content: Fallback}, nil
	}
	return &protocol.ChatResponse{ToolCalls: calls}, nil
}

type match struct {
	at   int
	call protocol.ToolCall
}

func (p *LocalProvider) plan(command string, allowed func(string) bool) []protocol.ToolCall {
	var found []match
	used := map[string]bool{}
	for _, r := range p.rules {
		if used[r.tool] || !allowed(r.tool) {
			continue
		}
		loc := r.pattern.FindStringSubmatchIndex(command)
		if loc == nil {
			continue
		}
		m := submatches(command, loc)
		used[r.tool] = true
		found = append(found, match{at: loc[0], call: protocol.ToolCall{
			ID:        "call_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:24],
			Name:      r.tool,
			Arguments: r.args(m, command),
		}})
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].at < found[j].at })

	calls := make([]protocol.ToolCall, len(found))
	for i, f := range found {
		calls[i] = f.call
	}
	return calls
}

func submatches(s string, loc []int) []string {
	m := make([]string, len(loc)/2)
	for i := range m {
		if loc[2*i] >= 0 {
			m[i] = s[loc[2*i]:loc[2*i+1]]
		}
	}
	return m
}

func offered(tools []protocol.ToolDefinition) func(string) bool {
	if len(tools) == 0 {
		return func(string) bool { return true }
	}
	names := make(map[string]bool, len(tools))
	for _, td := range tools {
		names[td.Function.Name] = true
	}
	return func(name string) bool { return names[name] }
}

// summarize joins the trailing tool results into one spoken answer.
func summarize(msgs []protocol.ChatMessage) string {
	var parts []string
	for i := len(msgs) - 1; i >= 0 && msgs[i].Role == protocol.RoleTool; i-- {
		parts = append(parts, sentence(msgs[i].Content))
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, " ")
}

func sentence(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s[len(s)-1:], ".!?") {
		return s
	}
	return s + "."
}

var operators = map[string]string{
	"plus": "+", "+": "+",
	"minus": "-", "-": "-",
	"times": "*", "multiplied by": "*", "x": "*", "*": "*",
	"divided by": "/", "over": "/", "/": "/",
}

var formats = map[string]string{
	"bold": "bold", "italic": "italic", "italics": "italic",
	"underline": "underline", "underlined": "underline",
	"strikethrough": "strikethrough",
}

func number(s string) any {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

func rule(tool, pattern string, args func(m []string, command string) map[string]any) planRule {
	return planRule{tool: tool, pattern: regexp.MustCompile(`(?i)` + pattern), args: args}
}

func lower(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// localRules is ordered by priority; each tool is called at most once
// per command and calls are issued in the order they appear in the text.
var localRules = []planRule{
	rule("get_current_time", `\b(?:what time|current time|the time|today's date|what day)\b`,
		func([]string, string) map[string]any { return map[string]any{} }),

	rule("search_web", `\bweather\b`,
		func([]string, string) map[string]any { return map[string]any{"query": "weather today"} }),
	rule("search_web", `\b(?:search|look up|google)(?: the web)?(?: for)?(?: information about| info on)? (.+?)(?:[.?!]|$| and )`,
		func(m []string, _ string) map[string]any { return map[string]any{"query": strings.TrimSpace(m[1])} }),
	rule("search_web", `\b(?:latest |the )?news\b`,
		func([]string, string) map[string]any { return map[string]any{"query": "latest news"} }),

	rule("calculator", `(-?\d+(?:\.\d+)?)\s*(plus|minus|times|multiplied by|divided by|over|[-+*/x])\s*(-?\d+(?:\.\d+)?)`,
		func(m []string, _ string) map[string]any {
			return map[string]any{"expression": m[1] + " " + operators[lower(m[2])] + " " + m[3]}
		}),

	rule("find_text", `\bfind (?:the )?(next|previous) (?:one|occurrence|match)`,
		func(m []string, _ string) map[string]any { return map[string]any{"search_direction": lower(m[1])} }),
	rule("find_text", `\b(?:find|search for) (?:the (?:word|text|phrase) )?['"]([^'"]+)['"]`,
		func(m []string, _ string) map[string]any {
			return map[string]any{"search_direction": "new", "text_to_find": m[1]}
		}),

	rule("move_cursor", `\bgo to line (\d+)`,
		func(m []string, _ string) map[string]any {
			return map[string]any{"destination_type": "line", "direction": "absolute", "value": number(m[1])}
		}),
	rule("move_cursor", `\b(?:move|go|jump|skip) (?:to )?(?:the )?(next|previous|start|end|top|bottom)(?: of the)? ?(line|word|sentence|paragraph|heading|list item|table|link|document)?`,
		func(m []string, _ string) map[string]any {
			dir, dest := lower(m[1]), lower(m[2])
			switch dir {
			case "top":
				dir = "start"
			case "bottom":
				dir = "end"
			}
			if dest == "" || dest == "document" {
				dest = "document_boundary"
			}
			return map[string]any{"destination_type": strings.ReplaceAll(dest, " ", "_"), "direction": dir}
		}),

	rule("read_text", `\bread(?: out| aloud)? (?:the |me the )?(?:(current|next|previous) )?(?:(\d+) )?(character|word|line|sentence|paragraph|selection|document|heading)s?\b`,
		func(m []string, _ string) map[string]any {
			args := map[string]any{"unit": lower(m[3])}
			if args["unit"] == "heading" {
				args["unit"] = "current_heading"
			}
			if m[1] != "" {
				args["direction"] = lower(m[1])
			}
			if m[2] != "" {
				args["count"] = number(m[2])
			}
			return args
		}),
	rule("read_text", `\bread (?:it|this|that)(?: aloud| out)?\b`,
		func(_ []string, command string) map[string]any {
			if strings.Contains(lower(command), "heading") {
				return map[string]any{"unit": "current_heading"}
			}
			return map[string]any{"unit": "sentence"}
		}),

	rule("report_status", `\bunsaved changes\b`,
		func([]string, string) map[string]any { return map[string]any{"query": "unsaved_changes"} }),
	rule("report_status", `\b(?:where is the cursor|cursor position|where am i)\b`,
		func([]string, string) map[string]any { return map[string]any{"query": "cursor_position"} }),
	rule("report_status", `\b(?:word count|how many words|document stats|statistics)\b`,
		func([]string, string) map[string]any { return map[string]any{"query": "document_stats"} }),
	rule("report_status", `\bwhat(?:'s| is) selected\b`,
		func([]string, string) map[string]any { return map[string]any{"query": "selection_content"} }),

	rule("modify_selection", `\b(?:select all|select everything|select the (?:entire|whole) document)\b`,
		func([]string, string) map[string]any { return map[string]any{"action": "select", "unit": "all"} }),
	rule("modify_selection", `\bselect (?:the )?(?:(current|next|previous) )?(character|word|line|sentence|paragraph)\b`,
		func(m []string, _ string) map[string]any {
			dir := lower(m[1])
			if dir == "" {
				dir = "current"
			}
			return map[string]any{"action": "select", "unit": lower(m[2]), "direction": dir}
		}),
	rule("modify_selection", `\b(?:clear|cancel) (?:the )?selection\b`,
		func([]string, string) map[string]any { return map[string]any{"action": "clear"} }),

	rule("edit_text", `\bdelete (?:the )?(?:selected text|selection)\b`,
		func([]string, string) map[string]any { return map[string]any{"action": "delete", "unit": "selection"} }),
	rule("edit_text", `\bdelete (?:the )?(next|previous|last) (character|word|line|sentence)\b`,
		func(m []string, _ string) map[string]any {
			dir := lower(m[1])
			if dir == "last" {
				dir = "previous"
			}
			return map[string]any{"action": "delete", "unit": lower(m[2]), "direction": dir}
		}),
	rule("edit_text", `\b(?:type|insert|write) ['"]([^'"]+)['"]`,
		func(m []string, _ string) map[string]any { return map[string]any{"action": "insert", "text_to_insert": m[1]} }),
	rule("edit_text", `\breplace ['"]([^'"]+)['"] with ['"]([^'"]+)['"]`,
		func(m []string, _ string) map[string]any {
			return map[string]any{"action": "replace", "text_to_replace": m[1], "replacement_text": m[2], "scope": "all"}
		}),
	rule("edit_text", `\bbackspace\b`,
		func([]string, string) map[string]any { return map[string]any{"action": "backspace"} }),

	rule("clipboard_action", `\b(copy|cut|paste)\b`,
		func(m []string, _ string) map[string]any { return map[string]any{"action": lower(m[1])} }),

	rule("history_action", `\b(undo|redo)\b`,
		func(m []string, _ string) map[string]any { return map[string]any{"action": lower(m[1])} }),

	rule("apply_formatting", `\bheading level (\d)\b`,
		func(m []string, _ string) map[string]any {
			return map[string]any{"format_type": "heading", "action": "apply", "value": number(m[1])}
		}),
	rule("apply_formatting", `\b(bulleted|numbered) list\b`,
		func(m []string, _ string) map[string]any {
			return map[string]any{"format_type": "list", "action": "insert", "value": lower(m[1])}
		}),
	rule("apply_formatting", `\b(bold|italics?|underlined?|strikethrough)\b`,
		func(m []string, _ string) map[string]any {
			return map[string]any{"format_type": formats[lower(m[1])], "action": "apply"}
		}),
	rule("apply_formatting", `\b(?:clear|remove) (?:all )?formatting\b`,
		func([]string, string) map[string]any { return map[string]any{"format_type": "clear"} }),

	rule("manage_file", `\bopen (?:the )?(?:file )?(?:named |called )?['"]?([\w\-]+\.\w+)`,
		func(m []string, _ string) map[string]any { return map[string]any{"action": "open", "filename": m[1]} }),
	rule("manage_file", `\bsave\b(?: (?:the |this )?(?:current )?(?:document|file))?(?: as ['"]?([\w\-]+\.\w+))?`,
		func(m []string, _ string) map[string]any {
			if m[1] != "" {
				return map[string]any{"action": "save_as", "filename": m[1]}
			}
			return map[string]any{"action": "save"}
		}),
	rule("manage_file", `\b(?:recent files|recently opened)\b`,
		func([]string, string) map[string]any { return map[string]any{"action": "list_recent"} }),
	rule("manage_file", `\bnew (?:document|file)\b`,
		func([]string, string) map[string]any { return map[string]any{"action": "new"} }),

	rule("control_tts", `\bspeed (?:to )?(\d+(?:\.\d+)?)`,
		func(m []string, _ string) map[string]any {
			return map[string]any{"action": "set_speed", "value": number(m[1])}
		}),
	rule("control_tts", `\bvoice to ['"]?(\w+)`,
		func(m []string, _ string) map[string]any { return map[string]any{"action": "set_voice", "value": m[1]} }),
	rule("control_tts", `\bspell (?:the |this )?(current word|word|selection)\b`,
		func(m []string, _ string) map[string]any {
			target := lower(m[1])
			if target == "word" {
				target = "current_word"
			}
			return map[string]any{"action": "spell", "target": strings.ReplaceAll(target, " ", "_")}
		}),
	rule("control_tts", `\b(pause|resume|stop) (?:reading|speaking|speech|tts)\b`,
		func(m []string, _ string) map[string]any { return map[string]any{"action": lower(m[1])} }),
	rule("control_tts", `\b(?:repeat that|say that again)\b`,
		func([]string, string) map[string]any { return map[string]any{"action": "repeat_last"} }),

	rule("manage_app_feature", `\bgrammar\b`,
		func([]string, string) map[string]any {
			return map[string]any{"feature": "grammar_check", "action": "run_check"}
		}),
	rule("manage_app_feature", `\b(enable|disable|turn on|turn off) (autocomplete|spell ?check|dark mode)\b`,
		func(m []string, _ string) map[string]any {
			action := lower(m[1])
			switch action {
			case "turn on":
				action = "enable"
			case "turn off":
				action = "disable"
			}
			feature := strings.ReplaceAll(strings.ReplaceAll(lower(m[2]), " ", "_"), "spellcheck", "spell_check")
			return map[string]any{"feature": feature, "action": action}
		}),
	rule("manage_app_feature", `\bthemes?\b`,
		func([]string, string) map[string]any { return map[string]any{"feature": "theme", "action": "list_options"} }),

	rule("get_help", `\blist (?:the |all )?(?:(\w+) )?commands\b`,
		func(m []string, _ string) map[string]any {
			cat := lower(m[1])
			if cat == "" || cat == "available" {
				cat = "all"
			}
			return map[string]any{"list_commands_category": cat}
		}),
	rule("get_help", `\b(?:help|what can you do)\b`,
		func([]string, string) map[string]any { return map[string]any{} }),
}
