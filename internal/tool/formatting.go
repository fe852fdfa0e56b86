package tool

import "fmt"

type ApplyFormattingArgs struct {
	FormatType string `json:"format_type" jsonschema_description:"Type of formatting to apply (bold, italic, underline, heading, list, latex_command, clear, etc.)."`
	Action     string `json:"action,omitempty" jsonschema_description:"How to interact with the format (apply, remove, toggle, insert, wrap, start)."`
	Value      any    `json:"value,omitempty" jsonschema:"oneof_type=string;integer" jsonschema_description:"Specific value needed for the format (e.g. heading level, list type, LaTeX command)."`
}

// NewApplyFormatting returns the formatting tool.
func NewApplyFormatting() Tool {
	return NewStub("apply_formatting", CategoryFormatting,
		"Applies or removes text formatting or inserts LaTeX elements.",
		ApplyFormattingArgs{},
		func(a ApplyFormattingArgs) string {
			if a.Action != "" {
				return fmt.Sprintf("%s %s formatting", pastTense(a.Action), orUnspecified(a.FormatType))
			}
			return fmt.Sprintf("Applied %s formatting", orUnspecified(a.FormatType))
		},
		Rule[ApplyFormattingArgs]{
			When: func(a ApplyFormattingArgs) bool { return a.FormatType == "heading" && present(a.Value) },
			Reply: func(a ApplyFormattingArgs) string {
				return fmt.Sprintf("Applied heading level %s formatting", orUnspecified(a.Value))
			},
		},
		Rule[ApplyFormattingArgs]{
			When: func(a ApplyFormattingArgs) bool { return a.FormatType == "latex_command" && present(a.Value) },
			Reply: func(a ApplyFormattingArgs) string {
				return fmt.Sprintf("Inserted LaTeX command \\%s", orUnspecified(a.Value))
			},
		},
		Rule[ApplyFormattingArgs]{
			When:  func(a ApplyFormattingArgs) bool { return a.FormatType == "clear" },
			Reply: func(ApplyFormattingArgs) string { return "Cleared all formatting from selection" },
		},
	)
}

type ManageFileArgs struct {
	Action      string `json:"action" jsonschema_description:"The file operation to perform (new, open, save, save_as, close, list_recent, check_unsaved)."`
	Filename    string `json:"filename,omitempty" jsonschema_description:"The name of the file (required for 'open', 'save_as')."`
	ConfirmSave *bool  `json:"confirm_save,omitempty" jsonschema_description:"Used when closing to save or discard changes."`
}

// NewManageFile returns the document file tool.
func NewManageFile() Tool {
	return NewStub("manage_file", CategoryFile,
		"Handles document file operations: new, open, save, close.",
		ManageFileArgs{},
		func(a ManageFileArgs) string {
			return fmt.Sprintf("Performed %s file operation", orUnspecified(a.Action))
		},
		Rule[ManageFileArgs]{
			When:  func(a ManageFileArgs) bool { return a.Action == "open" && a.Filename != "" },
			Reply: func(a ManageFileArgs) string { return "Opened file: " + a.Filename },
		},
		Rule[ManageFileArgs]{
			When:  func(a ManageFileArgs) bool { return a.Action == "save_as" && a.Filename != "" },
			Reply: func(a ManageFileArgs) string { return "Saved file as: " + a.Filename },
		},
		Rule[ManageFileArgs]{
			When:  func(a ManageFileArgs) bool { return a.Action == "list_recent" },
			Reply: func(ManageFileArgs) string { return "Recent files: example1.txt, example2.txt, example3.txt" },
		},
		Rule[ManageFileArgs]{
			When: func(a ManageFileArgs) bool { return a.Action == "close" && a.ConfirmSave != nil },
			Reply: func(a ManageFileArgs) string {
				if *a.ConfirmSave {
					return "Saved changes and closed document"
				}
				return "Closed document without saving changes"
			},
		},
	)
}
