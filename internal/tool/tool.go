package tool

import (
	"context"

	"github.com/voxedit-io/voxedit/pkg/protocol"
)

// Tool is the interface every assistant tool must implement.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]any // JSON Schema
	Execute(ctx context.Context, params map[string]any) (string, error)
}

// Categorized is implemented by tools that belong to a catalog category.
type Categorized interface {
	Category() string
}

// ParamLister is implemented by tools that know the declaration order of
// their parameters. Tools without it are listed alphabetically.
type ParamLister interface {
	ParamSpecs() []protocol.ParamSpec
}
