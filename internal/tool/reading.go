package tool

import "fmt"

type ReadTextArgs struct {
	Unit      string `json:"unit" jsonschema_description:"The unit of text to read (character, word, line, sentence, paragraph, selection, document, current_heading, current_list_item)."`
	Direction string `json:"direction,omitempty" jsonschema:"default=current" jsonschema_description:"Direction relative to cursor/selection (current, next, previous)."`
	Count     int    `json:"count,omitempty" jsonschema:"default=1" jsonschema_description:"Number of units to read (e.g. read next 3 words)."`
}

// NewReadText returns the read-aloud tool.
func NewReadText() Tool {
	return NewStub("read_text", CategoryReading,
		"Reads specified text content aloud from the document, relative to the cursor or current selection.",
		ReadTextArgs{Direction: "current", Count: 1},
		func(a ReadTextArgs) string {
			return fmt.Sprintf("Reading %d %s(s) in %s direction", a.Count, orUnspecified(a.Unit), a.Direction)
		},
	)
}

type MoveCursorArgs struct {
	DestinationType string `json:"destination_type" jsonschema_description:"The type of element to move to (line, character, word, sentence, paragraph, heading, list_item, table, link, document_boundary, matching_bracket)."`
	Direction       string `json:"direction" jsonschema_description:"Direction of movement (next, previous) or absolute positioning (absolute, start, end)."`
	Value           any    `json:"value,omitempty" jsonschema:"oneof_type=string;integer" jsonschema_description:"Specific value if needed (e.g. line number for 'line' type with 'absolute' direction)."`
	Count           int    `json:"count,omitempty" jsonschema:"default=1" jsonschema_description:"Number of units to move (e.g. move forward 2 paragraphs)."`
}

// NewMoveCursor returns the cursor navigation tool.
func NewMoveCursor() Tool {
	return NewStub("move_cursor", CategoryNavigation,
		"Moves the editor cursor to a specified location or by a relative amount.",
		MoveCursorArgs{Count: 1},
		func(a MoveCursorArgs) string {
			return fmt.Sprintf("Moved cursor %s %d %s(s)", orUnspecified(a.Direction), a.Count, orUnspecified(a.DestinationType))
		},
		Rule[MoveCursorArgs]{
			When: func(a MoveCursorArgs) bool { return a.Direction == "absolute" && a.Value != nil },
			Reply: func(a MoveCursorArgs) string {
				return fmt.Sprintf("Moved cursor to %s %s", orUnspecified(a.Value), orUnspecified(a.DestinationType))
			},
		},
	)
}

type FindTextArgs struct {
	SearchDirection string `json:"search_direction" jsonschema_description:"Whether to start a 'new' search, find the 'next' occurrence, or find the 'previous' occurrence."`
	TextToFind      string `json:"text_to_find,omitempty" jsonschema_description:"The text string to search for (required for a new search)."`
	CaseSensitive   bool   `json:"case_sensitive,omitempty" jsonschema:"default=false" jsonschema_description:"Perform a case-sensitive search."`
}

// NewFindText returns the in-document search tool.
func NewFindText() Tool {
	return NewStub("find_text", CategorySearch,
		"Searches the document for specified text and reports findings audibly.",
		FindTextArgs{},
		func(a FindTextArgs) string {
			return fmt.Sprintf("Finding %s occurrence of the current search term", orUnspecified(a.SearchDirection))
		},
		Rule[FindTextArgs]{
			When: func(a FindTextArgs) bool { return a.SearchDirection == "new" && a.TextToFind != "" },
			Reply: func(a FindTextArgs) string {
				return fmt.Sprintf("Starting new search for '%s' (case sensitive: %t)", a.TextToFind, a.CaseSensitive)
			},
		},
	)
}

type ReportStatusArgs struct {
	Query string `json:"query" jsonschema_description:"The specific information requested (cursor_position, selection_content, selection_boundaries, current_formatting, document_stats, current_mode, unsaved_changes)."`
}

var statusReports = map[string]string{
	"cursor_position":      "Cursor is at line 15, column 42",
	"selection_content":    "Selected text: 'example selected text'",
	"selection_boundaries": "Selection starts at line 15, column 30 and ends at line 15, column 47",
	"current_formatting":   "Current text has bold and italic formatting",
	"document_stats":       "Document has 120 lines, 1,500 words, and 9,876 characters",
	"current_mode":         "Current mode is editing (not insert mode)",
	"unsaved_changes":      "Document has unsaved changes",
}

// NewReportStatus returns the editor status tool.
func NewReportStatus() Tool {
	return NewStub("report_status", CategoryStatus,
		"Provides auditory feedback about the current state of the editor or document.",
		ReportStatusArgs{},
		func(a ReportStatusArgs) string {
			return fmt.Sprintf("Status for %s is not available", orUnspecified(a.Query))
		},
		Rule[ReportStatusArgs]{
			When:  func(a ReportStatusArgs) bool { return statusReports[a.Query] != "" },
			Reply: func(a ReportStatusArgs) string { return statusReports[a.Query] },
		},
	)
}
