package tool

import "fmt"

type ModifySelectionArgs struct {
	Action     string `json:"action" jsonschema_description:"How to modify the selection (select, clear, extend)."`
	Unit       string `json:"unit,omitempty" jsonschema_description:"Unit of text to select (character, word, line, sentence, paragraph, all, range, to_boundary)."`
	Direction  string `json:"direction,omitempty" jsonschema_description:"Direction to select or extend (next, previous, start_of_line, end_of_line, etc.)."`
	StartPoint string `json:"start_point,omitempty" jsonschema_description:"Description of the start point for a 'range' selection (e.g. \"line 5\")."`
	EndPoint   string `json:"end_point,omitempty" jsonschema_description:"Description of the end point for a 'range' selection (e.g. \"line 10\")."`
}

// NewModifySelection returns the selection tool.
func NewModifySelection() Tool {
	return NewStub("modify_selection", CategorySelection,
		"Selects text, extends the current selection, or clears it.",
		ModifySelectionArgs{},
		func(a ModifySelectionArgs) string {
			return fmt.Sprintf("%s selection by %s in %s direction",
				pastTense(a.Action), orUnspecified(a.Unit), orUnspecified(a.Direction))
		},
		Rule[ModifySelectionArgs]{
			When:  func(a ModifySelectionArgs) bool { return a.Action == "clear" },
			Reply: func(ModifySelectionArgs) string { return "Selection cleared" },
		},
		Rule[ModifySelectionArgs]{
			When:  func(a ModifySelectionArgs) bool { return a.Action == "select" && a.Unit == "all" },
			Reply: func(ModifySelectionArgs) string { return "Selected entire document" },
		},
		Rule[ModifySelectionArgs]{
			When: func(a ModifySelectionArgs) bool {
				return a.Action == "select" && a.Unit == "range" && a.StartPoint != "" && a.EndPoint != ""
			},
			Reply: func(a ModifySelectionArgs) string {
				return fmt.Sprintf("Selected range from %s to %s", a.StartPoint, a.EndPoint)
			},
		},
	)
}

type EditTextArgs struct {
	Action          string `json:"action" jsonschema_description:"The editing action to perform (insert, delete, backspace, replace)."`
	TextToInsert    string `json:"text_to_insert,omitempty" jsonschema_description:"The text to be inserted (for action 'insert')."`
	Unit            string `json:"unit,omitempty" jsonschema_description:"The unit of text to delete relative to the cursor (for action 'delete')."`
	Direction       string `json:"direction,omitempty" jsonschema_description:"Direction for deletion (next, previous)."`
	TextToReplace   string `json:"text_to_replace,omitempty" jsonschema_description:"The text to find and replace (for action 'replace')."`
	ReplacementText string `json:"replacement_text,omitempty" jsonschema_description:"The text to replace with (for action 'replace')."`
	Scope           string `json:"scope,omitempty" jsonschema_description:"Scope for replacement (next, all, selection)."`
}

// NewEditText returns the text editing tool.
func NewEditText() Tool {
	return NewStub("edit_text", CategoryEdit,
		"Inserts, deletes, or replaces text at the cursor or within the selection.",
		EditTextArgs{},
		func(a EditTextArgs) string { return fmt.Sprintf("Performed %s operation", orUnspecified(a.Action)) },
		Rule[EditTextArgs]{
			When:  func(a EditTextArgs) bool { return a.Action == "insert" && a.TextToInsert != "" },
			Reply: func(a EditTextArgs) string { return fmt.Sprintf("Inserted text: '%s'", a.TextToInsert) },
		},
		Rule[EditTextArgs]{
			When:  func(a EditTextArgs) bool { return a.Action == "delete" && a.Unit == "selection" },
			Reply: func(EditTextArgs) string { return "Deleted selected text" },
		},
		Rule[EditTextArgs]{
			When: func(a EditTextArgs) bool { return a.Action == "delete" },
			Reply: func(a EditTextArgs) string {
				return fmt.Sprintf("Deleted %s in %s direction", orUnspecified(a.Unit), orUnspecified(a.Direction))
			},
		},
		Rule[EditTextArgs]{
			When:  func(a EditTextArgs) bool { return a.Action == "backspace" },
			Reply: func(EditTextArgs) string { return "Performed backspace operation" },
		},
		Rule[EditTextArgs]{
			When: func(a EditTextArgs) bool { return a.Action == "replace" },
			Reply: func(a EditTextArgs) string {
				return fmt.Sprintf("Replaced '%s' with '%s' in %s scope",
					orUnspecified(a.TextToReplace), orUnspecified(a.ReplacementText), orUnspecified(a.Scope))
			},
		},
	)
}

type ClipboardArgs struct {
	Action string `json:"action" jsonschema_description:"The clipboard action to perform (copy, cut, paste)."`
}

var clipboardReplies = map[string]string{
	"copy":  "Copied selection to clipboard",
	"cut":   "Cut selection to clipboard",
	"paste": "Pasted clipboard content at cursor position",
}

// NewClipboardAction returns the clipboard tool.
func NewClipboardAction() Tool {
	return NewStub("clipboard_action", CategoryClipboard,
		"Performs copy, cut, or paste operations using the system clipboard.",
		ClipboardArgs{},
		func(a ClipboardArgs) string {
			return fmt.Sprintf("Performed %s clipboard operation", orUnspecified(a.Action))
		},
		Rule[ClipboardArgs]{
			When:  func(a ClipboardArgs) bool { return clipboardReplies[a.Action] != "" },
			Reply: func(a ClipboardArgs) string { return clipboardReplies[a.Action] },
		},
	)
}

type HistoryArgs struct {
	Action string `json:"action" jsonschema_description:"History action (undo, redo)."`
}

// NewHistoryAction returns the undo/redo tool.
func NewHistoryAction() Tool {
	return NewStub("history_action", CategoryHistory,
		"Undoes or redoes the last edit(s).",
		HistoryArgs{},
		func(a HistoryArgs) string { return fmt.Sprintf("Performed %s operation", orUnspecified(a.Action)) },
	)
}
