package connector

import (
	"fmt"
	"strings"

	"github.com/voxedit-io/voxedit/internal/tool"
	"github.com/voxedit-io/voxedit/pkg/protocol"
)

// HelpText introduces the assistant to a chat user, with example commands
// from every catalog section.
func HelpText() string {
	var b strings.Builder
	b.WriteString("Send me a voice or text command and I will run it in your editor.\n")
	for _, g := range tool.Groups {
		fmt.Fprintf(&b, "\n%s:\n", g.Title)
		for _, ex := range g.Examples {
			fmt.Fprintf(&b, "- %s\n", ex)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// ToolsText lists the catalog grouped by section, one tool per line.
func ToolsText(catalog []protocol.ToolSpec) string {
	if len(catalog) == 0 {
		return "No tools are available."
	}
	sections := make(map[string][]protocol.ToolSpec)
	var order []string
	for _, spec := range catalog {
		title := tool.GroupOf(spec.Category)
		if _, seen := sections[title]; !seen {
			order = append(order, title)
		}
		sections[title] = append(sections[title], spec)
	}

	var b strings.Builder
	for i, title := range order {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s:\n", title)
		for _, spec := range sections[title] {
			fmt.Fprintf(&b, "- %s: %s\n", spec.Name, firstSentence(spec.Description))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func firstSentence(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, ".\n"); i >= 0 {
		return s[:i+1]
	}
	return s
}
