package agent

import (
	"log/slog"

	"github.com/voxedit-io/voxedit/internal/provider"
	"github.com/voxedit-io/voxedit/internal/tool"
	"github.com/voxedit-io/voxedit/pkg/protocol"
)

const defaultMaxIterations = 25

// Agent dispatches one natural-language command at a time through a
// ReAct loop over the editor tool registry. An Agent holds no per-command
// state and may serve concurrent commands.
type Agent struct {
	Spec          protocol.AssistantSpec
	Provider      provider.Provider
	Tools         *tool.Registry
	Logger        *slog.Logger
	MaxIterations int
	Model         string  // optional, overrides the provider default
	Temperature   float64 // sent on every request; 0 is deterministic
	Recorder      Recorder // optional, receives every finished command
}

// New creates a new Agent with sensible defaults.
func New(spec protocol.AssistantSpec, prov provider.Provider, tools *tool.Registry) *Agent {
	return &Agent{
		Spec:          spec,
		Provider:      prov,
		Tools:         tools,
		Logger:        slog.Default(),
		MaxIterations: defaultMaxIterations,
	}
}
