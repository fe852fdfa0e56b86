package tool

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"

	"github.com/voxedit-io/voxedit/pkg/protocol"
)

var reflector = jsonschema.Reflector{
	DoNotReference:            true,
	ExpandedStruct:            true,
	AllowAdditionalProperties: true,
}

// GenerateSchema derives the JSON Schema of an argument struct together with
// its parameters in field order.
func GenerateSchema[A any]() (map[string]any, []protocol.ParamSpec, error) {
	var zero A
	r := reflector
	// Expansion looks the root up by type name, which anonymous structs lack.
	if reflect.TypeFor[A]().Name() == "" {
		r.ExpandedStruct = false
	}
	s := r.Reflect(&zero)

	required := make(map[string]bool, len(s.Required))
	for _, name := range s.Required {
		required[name] = true
	}

	var params []protocol.ParamSpec
	if s.Properties != nil {
		for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
			params = append(params, protocol.ParamSpec{
				Name:        pair.Key,
				Type:        schemaType(pair.Value),
				Description: pair.Value.Description,
				Optional:    !required[pair.Key],
				Default:     pair.Value.Default,
			})
		}
	}

	raw, err := json.Marshal(s)
	if err != nil {
		return nil, nil, fmt.Errorf("tool: marshal schema: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, nil, fmt.Errorf("tool: decode schema: %w", err)
	}
	delete(out, "$schema")
	delete(out, "$id")
	if _, ok := out["properties"]; !ok {
		out["properties"] = map[string]any{}
	}
	return out, params, nil
}

func schemaType(s *jsonschema.Schema) string {
	if s.Type != "" {
		return s.Type
	}
	types := make([]string, 0, len(s.OneOf))
	for _, alt := range s.OneOf {
		types = append(types, alt.Type)
	}
	if len(types) == 0 {
		return "any"
	}
	return strings.Join(types, "|")
}
