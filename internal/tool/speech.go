package tool

import (
	"fmt"
	"strings"
)

type ControlTTSArgs struct {
	Action string `json:"action" jsonschema_description:"The TTS control action (set_speed, set_voice, set_volume, spell, pause, resume, stop, repeat_last)."`
	Value  any    `json:"value,omitempty" jsonschema:"oneof_type=string;number" jsonschema_description:"The value for the setting (e.g. speed, voice name)."`
	Target string `json:"target,omitempty" jsonschema_description:"Target for spelling ('current_word', 'selection')."`
}

// NewControlTTS returns the text-to-speech control tool.
func NewControlTTS() Tool {
	return NewStub("control_tts", CategorySpeech,
		"Adjusts Text-to-Speech settings or requests specific speech actions.",
		ControlTTSArgs{},
		func(a ControlTTSArgs) string {
			return fmt.Sprintf("Performed TTS %s operation", orUnspecified(a.Action))
		},
		Rule[ControlTTSArgs]{
			When: func(a ControlTTSArgs) bool { return strings.HasPrefix(a.Action, "set_") && present(a.Value) },
			Reply: func(a ControlTTSArgs) string {
				return fmt.Sprintf("Set TTS %s to %s", strings.TrimPrefix(a.Action, "set_"), orUnspecified(a.Value))
			},
		},
		Rule[ControlTTSArgs]{
			When:  func(a ControlTTSArgs) bool { return a.Action == "spell" && a.Target != "" },
			Reply: func(a ControlTTSArgs) string { return fmt.Sprintf("Spelling %s: E-X-A-M-P-L-E", a.Target) },
		},
		Rule[ControlTTSArgs]{
			When: func(a ControlTTSArgs) bool {
				return a.Action == "pause" || a.Action == "resume" || a.Action == "stop"
			},
			Reply: func(a ControlTTSArgs) string { return pastTense(a.Action) + " TTS playback" },
		},
		Rule[ControlTTSArgs]{
			When:  func(a ControlTTSArgs) bool { return a.Action == "repeat_last" },
			Reply: func(ControlTTSArgs) string { return "Repeating last TTS output" },
		},
	)
}

type ManageAppFeatureArgs struct {
	Feature string `json:"feature" jsonschema_description:"The application feature to control (grammar_check, autocomplete, theme, settings_menu, etc.)."`
	Action  string `json:"action" jsonschema_description:"Action to perform on the feature (enable, disable, run_check, set_value, list_options)."`
	Value   string `json:"value,omitempty" jsonschema_description:"Value to set (e.g. theme name)."`
}

// NewManageAppFeature returns the application feature tool.
func NewManageAppFeature() Tool {
	return NewStub("manage_app_feature", CategoryApp,
		"Enables/disables app features, runs checks, or interacts with settings.",
		ManageAppFeatureArgs{},
		func(a ManageAppFeatureArgs) string {
			return fmt.Sprintf("Performed %s on %s", orUnspecified(a.Action), orUnspecified(a.Feature))
		},
		Rule[ManageAppFeatureArgs]{
			When: func(a ManageAppFeatureArgs) bool { return a.Action == "enable" || a.Action == "disable" },
			Reply: func(a ManageAppFeatureArgs) string {
				return fmt.Sprintf("%s %s feature", pastTense(a.Action), orUnspecified(a.Feature))
			},
		},
		Rule[ManageAppFeatureArgs]{
			When:  func(a ManageAppFeatureArgs) bool { return a.Action == "run_check" && a.Feature == "grammar_check" },
			Reply: func(ManageAppFeatureArgs) string { return "Grammar check completed: 3 issues found" },
		},
		Rule[ManageAppFeatureArgs]{
			When:  func(a ManageAppFeatureArgs) bool { return a.Action == "set_value" && a.Value != "" },
			Reply: func(a ManageAppFeatureArgs) string { return fmt.Sprintf("Set %s to %s", orUnspecified(a.Feature), a.Value) },
		},
		Rule[ManageAppFeatureArgs]{
			When: func(a ManageAppFeatureArgs) bool { return a.Action == "list_options" },
			Reply: func(a ManageAppFeatureArgs) string {
				if a.Feature == "theme" {
					return "Available themes: light, dark, high-contrast, sepia"
				}
				return fmt.Sprintf("Listed options for %s", orUnspecified(a.Feature))
			},
		},
	)
}

type GetHelpArgs struct {
	Topic                string `json:"topic,omitempty" jsonschema_description:"The specific topic or command the user needs help with."`
	ListCommandsCategory string `json:"list_commands_category,omitempty" jsonschema_description:"If the user asks to list commands, the category to list (navigation, editing, all, ...)."`
}

var helpCategories = map[string]string{
	"navigation": "Navigation commands: move_cursor, read_text, find_text",
	"editing":    "Editing commands: edit_text, clipboard_action, history_action",
	"all":        "All commands: [list of all available commands]",
}

// NewGetHelp returns the help tool.
func NewGetHelp() Tool {
	return NewStub("get_help", CategoryHelp,
		"Provides help information about how to use the app or specific commands.",
		GetHelpArgs{},
		func(GetHelpArgs) string { return "General help information for the application" },
		Rule[GetHelpArgs]{
			When: func(a GetHelpArgs) bool { return a.Topic != "" },
			Reply: func(a GetHelpArgs) string {
				return fmt.Sprintf("Help for %s: Detailed explanation would go here", a.Topic)
			},
		},
		Rule[GetHelpArgs]{
			When: func(a GetHelpArgs) bool { return a.ListCommandsCategory != "" },
			Reply: func(a GetHelpArgs) string {
				if reply, ok := helpCategories[a.ListCommandsCategory]; ok {
					return reply
				}
				c := a.ListCommandsCategory
				return fmt.Sprintf("%s commands: [list of %s commands]", capitalize(c), c)
			},
		},
	)
}
