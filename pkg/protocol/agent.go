package protocol

import "slices"

// AssistantSpec configures the assistant persona driving the dispatcher.
type AssistantSpec struct {
	ID               string   `json:"id"`
	Role             string   `json:"role"`
	Provider         string   `json:"provider,omitempty"`
	CoreInstructions string   `json:"core_instructions,omitempty"`
	ToolsWhitelist   []string `json:"tools_whitelist,omitempty"`
	ToolsBlacklist   []string `json:"tools_blacklist,omitempty"`
}

// ToolAllowed reports whether the named tool is exposed to the assistant.
// If a whitelist is set, only listed tools are allowed (blacklist is ignored).
// If only a blacklist is set, all tools except listed ones are allowed.
// If neither is set, all tools are allowed.
func (s AssistantSpec) ToolAllowed(name string) bool {
	if len(s.ToolsWhitelist) > 0 {
		return slices.Contains(s.ToolsWhitelist, name)
	}
	if len(s.ToolsBlacklist) > 0 {
		return !slices.Contains(s.ToolsBlacklist, name)
	}
	return true
}
