package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/voxedit-io/voxedit/pkg/protocol"
)

// Rule maps one argument shape to a canned reply.
type Rule[A any] struct {
	When  func(A) bool
	Reply func(A) string
}

// Stub is a mock editor tool. Arguments decode into A starting from the
// declared defaults; the first matching rule answers, otherwise the
// fallback does. A stub never fails.
type Stub[A any] struct {
	name        string
	description string
	category    string
	defaults    A
	rules       []Rule[A]
	fallback    func(A) string

	schema map[string]any
	params []protocol.ParamSpec
}

// NewStub builds a stub tool. It panics if A cannot be reflected into a
// JSON Schema, which only happens for programming errors.
func NewStub[A any](name, category, description string, defaults A, fallback func(A) string, rules ...Rule[A]) *Stub[A] {
	schema, params, err := GenerateSchema[A]()
	if err != nil {
		panic(fmt.Sprintf("tool %s: %v", name, err))
	}
	return &Stub[A]{
		name:        name,
		description: description,
		category:    category,
		defaults:    defaults,
		rules:       rules,
		fallback:    fallback,
		schema:      schema,
		params:      params,
	}
}

func (s *Stub[A]) Name() string { return s.name }
func (s *Stub[A]) Description() string { return s.description }
func (s *Stub[A]) Category() string { return s.category }
func (s *Stub[A]) Parameters() map[string]any { return s.schema }
func (s *Stub[A]) ParamSpecs() []protocol.ParamSpec { return s.params }

func (s *Stub[A]) Execute(_ context.Context, params map[string]any) (string, error) {
	args := s.decode(params)
	for _, r := range s.rules {
		if r.When(args) {
			if out := r.Reply(args); out != "" {
				return out, nil
			}
		}
	}
	if out := s.fallback(args); out != "" {
		return out, nil
	}
	return fmt.Sprintf("Performed %s operation", s.name), nil
}

// decode overlays params onto the defaults. Undecodable input yields the
// defaults unchanged.
func (s *Stub[A]) decode(params map[string]any) A {
	args := s.defaults
	if len(params) == 0 {
		return args
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return s.defaults
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return s.defaults
	}
	return args
}

// orUnspecified renders a missing optional value.
func orUnspecified(v any) string {
	switch x := v.(type) {
	case nil:
		return "unspecified"
	case string:
		if x == "" {
			return "unspecified"
		}
		return x
	case float64:
		return formatNumber(x)
	default:
		return fmt.Sprint(x)
	}
}

func formatNumber(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}

func present(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case bool:
		return x
	case float64:
		return x != 0
	}
	return true
}

var irregularPast = map[string]string{
	"cut":  "cut",
	"set":  "set",
	"put":  "put",
	"stop": "stopped",
	"wrap": "wrapped",
	"drop": "dropped",
	"run":  "ran",
}

// pastTense turns an action verb into its capitalized past tense
// ("toggle" -> "Toggled", "stop" -> "Stopped").
func pastTense(verb string) string {
	verb = strings.ToLower(strings.TrimSpace(verb))
	if verb == "" {
		return "Performed"
	}
	past, ok := irregularPast[verb]
	if !ok {
		switch {
		case strings.HasSuffix(verb, "e"):
			past = verb + "d"
		case strings.HasSuffix(verb, "y") && len(verb) > 1 && !strings.ContainsRune("aeiou", rune(verb[len(verb)-2])):
			past = verb[:len(verb)-1] + "ied"
		default:
			past = verb + "ed"
		}
	}
	return capitalize(past)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
