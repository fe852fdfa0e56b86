package tool

import "time"

// Options configures the editor tool catalog.
type Options struct {
	// Now is the clock read by get_current_time. Nil means time.Now.
	Now func() time.Time
}

// EditorTools returns the assistant's tool catalog in presentation order.
func EditorTools(opts Options) []Tool {
	return []Tool{
		NewSearchWeb(),
		NewCalculator(),
		NewCurrentTime(opts.Now),
		NewReadText(),
		NewMoveCursor(),
		NewFindText(),
		NewReportStatus(),
		NewModifySelection(),
		NewEditText(),
		NewClipboardAction(),
		NewHistoryAction(),
		NewApplyFormatting(),
		NewManageFile(),
		NewControlTTS(),
		NewManageAppFeature(),
		NewGetHelp(),
	}
}

// Group is a dashboard section of related tool categories.
type Group struct {
	Title      string
	Categories []string
	Examples   []string
}

// Groups lists the catalog sections shown by presentation clients with a
// few example voice commands each.
var Groups = []Group{
	{
		Title:      "Reading & Navigation",
		Categories: []string{CategoryReading, CategoryNavigation, CategorySearch, CategoryStatus},
		Examples: []string{
			"Read the current paragraph",
			"Move to the next heading and read it",
			"Find the word 'accessibility' in the document",
		},
	},
	{
		Title:      "Text Manipulation",
		Categories: []string{CategorySelection, CategoryEdit, CategoryClipboard, CategoryHistory},
		Examples: []string{
			"Select the current sentence",
			"Delete the selected text",
			"Copy the current line",
		},
	},
	{
		Title:      "Formatting & File Management",
		Categories: []string{CategoryFormatting, CategoryFile},
		Examples: []string{
			"Make the selected text bold",
			"Apply heading level 2 to this line",
			"Save the current document",
			"Open the file named 'report.txt'",
		},
	},
	{
		Title:      "Text-to-Speech & App Features",
		Categories: []string{CategorySpeech, CategoryApp, CategoryHelp},
		Examples: []string{
			"Increase the text-to-speech speed to 1.5",
			"Spell the current word",
			"Set the TTS voice to 'David'",
		},
	},
	{
		Title:      "General Purpose",
		Categories: []string{CategoryGeneral},
		Examples: []string{
			"What's the current time?",
			"What is 25 times 4?",
			"Search for information about screen readers",
		},
	},
}

// GroupOf returns the title of the section holding category, or "Other".
func GroupOf(category string) string {
	for _, g := range Groups {
		for _, c := range g.Categories {
			if c == category {
				return g.Title
			}
		}
	}
	return "Other"
}
