package tool

import (
	"context"
	"strings"
	"testing"
	"time"
)

func run(t *testing.T, tl Tool, args map[string]any) string {
	t.Helper()
	out, err := tl.Execute(context.Background(), args)
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", tl.Name(), err)
	}
	return out
}

func TestEditorTools_FallbackNeverEmpty(t *testing.T) {
	for _, tl := range EditorTools(Options{}) {
		t.Run(tl.Name(), func(t *testing.T) {
			if out := run(t, tl, nil); out == "" {
				t.Error("expected non-empty result with no arguments")
			}
			if out := run(t, tl, map[string]any{"count": "many", "action": 7}); out == "" {
				t.Error("expected non-empty result with undecodable arguments")
			}
		})
	}
}

func TestEditorTools_Catalog(t *testing.T) {
	tools := EditorTools(Options{})
	if len(tools) != 16 {
		t.Fatalf("expected 16 tools, got %d", len(tools))
	}
	seen := map[string]bool{}
	for _, tl := range tools {
		if seen[tl.Name()] {
			t.Errorf("duplicate tool name %q", tl.Name())
		}
		seen[tl.Name()] = true
		c, ok := tl.(Categorized)
		if !ok || c.Category() == "" {
			t.Errorf("%s: missing category", tl.Name())
			continue
		}
		if GroupOf(c.Category()) == "Other" {
			t.Errorf("%s: category %q has no group", tl.Name(), c.Category())
		}
	}
}

func TestCannedResponses(t *testing.T) {
	fixed := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	byName := map[string]Tool{}
	for _, tl := range EditorTools(Options{Now: func() time.Time { return fixed }}) {
		byName[tl.Name()] = tl
	}

	cases := []struct {
		tool string
		args map[string]any
		want string
	}{
		{"search_web", map[string]any{"query": "Weather in Paris"}, "The weather today is sunny with a high of 75°F."},
		{"search_web", map[string]any{"query": "tech news"}, "Latest news: New AI breakthrough announced today."},
		{"search_web", map[string]any{"query": "screen readers"}, "Found results for: screen readers"},
		{"calculator", map[string]any{"expression": "25 * 4"}, "The result of 25 * 4 is 100"},
		{"calculator", map[string]any{"expression": "10 / 4"}, "The result of 10 / 4 is 2.5"},
		{"get_current_time", nil, "Current time: 07:08:09, Date: 2024-05-06"},
		{"read_text", map[string]any{"unit": "paragraph"}, "Reading 1 paragraph(s) in current direction"},
		{"read_text", map[string]any{"unit": "word", "direction": "next", "count": 3}, "Reading 3 word(s) in next direction"},
		{"move_cursor", map[string]any{"destination_type": "line", "direction": "absolute", "value": 5}, "Moved cursor to 5 line"},
		{"move_cursor", map[string]any{"destination_type": "heading", "direction": "next"}, "Moved cursor next 1 heading(s)"},
		{"find_text", map[string]any{"search_direction": "new", "text_to_find": "accessibility"}, "Starting new search for 'accessibility' (case sensitive: false)"},
		{"find_text", map[string]any{"search_direction": "next"}, "Finding next occurrence of the current search term"},
		{"report_status", map[string]any{"query": "unsaved_changes"}, "Document has unsaved changes"},
		{"report_status", map[string]any{"query": "battery"}, "Status for battery is not available"},
		{"modify_selection", map[string]any{"action": "clear"}, "Selection cleared"},
		{"modify_selection", map[string]any{"action": "select", "unit": "all"}, "Selected entire document"},
		{"modify_selection", map[string]any{"action": "select", "unit": "range", "start_point": "line 5", "end_point": "line 10"}, "Selected range from line 5 to line 10"},
		{"modify_selection", map[string]any{"action": "extend", "unit": "word", "direction": "next"}, "Extended selection by word in next direction"},
		{"edit_text", map[string]any{"action": "insert", "text_to_insert": "hello"}, "Inserted text: 'hello'"},
		{"edit_text", map[string]any{"action": "delete", "unit": "selection"}, "Deleted selected text"},
		{"edit_text", map[string]any{"action": "delete", "unit": "word", "direction": "previous"}, "Deleted word in previous direction"},
		{"edit_text", map[string]any{"action": "backspace"}, "Performed backspace operation"},
		{"edit_text", map[string]any{"action": "replace", "text_to_replace": "a", "replacement_text": "b", "scope": "all"}, "Replaced 'a' with 'b' in all scope"},
		{"clipboard_action", map[string]any{"action": "copy"}, "Copied selection to clipboard"},
		{"clipboard_action", map[string]any{"action": "share"}, "Performed share clipboard operation"},
		{"history_action", map[string]any{"action": "undo"}, "Performed undo operation"},
		{"apply_formatting", map[string]any{"format_type": "bold"}, "Applied bold formatting"},
		{"apply_formatting", map[string]any{"format_type": "bold", "action": "toggle"}, "Toggled bold formatting"},
		{"apply_formatting", map[string]any{"format_type": "heading", "value": 2}, "Applied heading level 2 formatting"},
		{"apply_formatting", map[string]any{"format_type": "latex_command", "value": "frac"}, "Inserted LaTeX command \\frac"},
		{"apply_formatting", map[string]any{"format_type": "clear"}, "Cleared all formatting from selection"},
		{"manage_file", map[string]any{"action": "open", "filename": "report.txt"}, "Opened file: report.txt"},
		{"manage_file", map[string]any{"action": "save_as", "filename": "notes.txt"}, "Saved file as: notes.txt"},
		{"manage_file", map[string]any{"action": "list_recent"}, "Recent files: example1.txt, example2.txt, example3.txt"},
		{"manage_file", map[string]any{"action": "close", "confirm_save": true}, "Saved changes and closed document"},
		{"manage_file", map[string]any{"action": "close", "confirm_save": false}, "Closed document without saving changes"},
		{"manage_file", map[string]any{"action": "save"}, "Performed save file operation"},
		{"control_tts", map[string]any{"action": "set_speed", "value": 1.5}, "Set TTS speed to 1.5"},
		{"control_tts", map[string]any{"action": "set_voice", "value": "David"}, "Set TTS voice to David"},
		{"control_tts", map[string]any{"action": "spell", "target": "current_word"}, "Spelling current_word: E-X-A-M-P-L-E"},
		{"control_tts", map[string]any{"action": "stop"}, "Stopped TTS playback"},
		{"control_tts", map[string]any{"action": "pause"}, "Paused TTS playback"},
		{"control_tts", map[string]any{"action": "repeat_last"}, "Repeating last TTS output"},
		{"manage_app_feature", map[string]any{"feature": "autocomplete", "action": "enable"}, "Enabled autocomplete feature"},
		{"manage_app_feature", map[string]any{"feature": "grammar_check", "action": "run_check"}, "Grammar check completed: 3 issues found"},
		{"manage_app_feature", map[string]any{"feature": "theme", "action": "set_value", "value": "dark"}, "Set theme to dark"},
		{"manage_app_feature", map[string]any{"feature": "theme", "action": "list_options"}, "Available themes: light, dark, high-contrast, sepia"},
		{"manage_app_feature", map[string]any{"feature": "zoom", "action": "reset"}, "Performed reset on zoom"},
		{"get_help", map[string]any{"topic": "selection"}, "Help for selection: Detailed explanation would go here"},
		{"get_help", map[string]any{"list_commands_category": "navigation"}, "Navigation commands: move_cursor, read_text, find_text"},
		{"get_help", map[string]any{"list_commands_category": "formatting"}, "Formatting commands: [list of formatting commands]"},
		{"get_help", nil, "General help information for the application"},
	}

	for _, tc := range cases {
		t.Run(tc.tool+"/"+tc.want, func(t *testing.T) {
			if got := run(t, byName[tc.tool], tc.args); got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestCalculator_ErrorBecomesResult(t *testing.T) {
	out := run(t, NewCalculator(), map[string]any{"expression": "2 +"})
	if !strings.HasPrefix(out, "Error evaluating expression: ") {
		t.Errorf("expected error text, got %q", out)
	}
	if strings.Contains(out, "\n") {
		t.Errorf("expected single-line error, got %q", out)
	}

	for _, expression := range []string{"5 / 0", "0 / 0", "-1 / 0"} {
		out := run(t, NewCalculator(), map[string]any{"expression": expression})
		if out != "Error evaluating expression: division by zero" {
			t.Errorf("%s: got %q", expression, out)
		}
	}

	// Non-arithmetic programs are not answered with their value.
	for _, expression := range []string{"1..3", `"a" + "b"`, "1 < 2"} {
		out := run(t, NewCalculator(), map[string]any{"expression": expression})
		if !strings.HasPrefix(out, "Error evaluating expression: ") {
			t.Errorf("%s: expected error text, got %q", expression, out)
		}
	}
}

func TestCalculator_IntegerResult(t *testing.T) {
	out := run(t, NewCalculator(), map[string]any{"expression": "7 - 10"})
	if out != "The result of 7 - 10 is -3" {
		t.Errorf("got %q", out)
	}
}

func TestPastTense(t *testing.T) {
	cases := map[string]string{
		"toggle": "Toggled",
		"apply":  "Applied",
		"play":   "Played",
		"stop":   "Stopped",
		"enable": "Enabled",
		"remove": "Removed",
		"select": "Selected",
		"cut":    "Cut",
		"":       "Performed",
	}
	for verb, want := range cases {
		if got := pastTense(verb); got != want {
			t.Errorf("pastTense(%q) = %q, want %q", verb, got, want)
		}
	}
}
