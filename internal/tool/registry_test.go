package tool

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
)

// stubTool is a minimal Tool for testing.
type stubTool struct {
	name   string
	result string
}

func (s *stubTool) Name() string               { return s.name }
func (s *stubTool) Description() string        { return "stub tool" }
func (s *stubTool) Parameters() map[string]any { return map[string]any{"type": "object"} }
func (s *stubTool) Execute(_ context.Context, params map[string]any) (string, error) {
	return s.result, nil
}

func TestRegistry_RegisterAndExecute(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&stubTool{name: "echo", result: "hello"})

	if !reg.Has("echo") {
		t.Fatal("expected registry to have 'echo'")
	}
	if reg.Has("missing") {
		t.Fatal("expected registry to not have 'missing'")
	}
	if reg.Len() != 1 {
		t.Fatalf("expected len 1, got %d", reg.Len())
	}

	result, err := reg.Execute(context.Background(), "echo", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "hello" {
		t.Errorf("expected 'hello', got %q", result)
	}
}

func TestRegistry_ExecuteUnknown(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Execute(context.Background(), "nope", nil)
	if err == nil {
		t.Fatal("expected error for unknown tool")
	}
}

func TestRegistry_ValidatesArguments(t *testing.T) {
	reg := NewRegistry()
	reg.Register(NewCalculator())
	reg.Register(NewReadText())

	t.Run("missing required", func(t *testing.T) {
		_, err := reg.Execute(context.Background(), "calculator", map[string]any{})
		if err == nil {
			t.Fatal("expected error for missing expression")
		}
		if !strings.Contains(err.Error(), "calculator") {
			t.Errorf("expected tool name in error, got %v", err)
		}
	})

	t.Run("wrong type", func(t *testing.T) {
		if err := reg.Validate("calculator", map[string]any{"expression": 42}); err == nil {
			t.Fatal("expected error for non-string expression")
		}
	})

	t.Run("null optional counts as absent", func(t *testing.T) {
		out, err := reg.Execute(context.Background(), "read_text", map[string]any{
			"unit":      "word",
			"direction": nil,
			"count":     float64(3),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out != "Reading 3 word(s) in current direction" {
			t.Errorf("unexpected result %q", out)
		}
	})

	t.Run("unknown tool", func(t *testing.T) {
		if err := reg.Validate("nope", nil); err == nil {
			t.Fatal("expected error for unknown tool")
		}
	})
}

func TestRegistry_Definitions(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&stubTool{name: "a", result: ""})
	reg.Register(&stubTool{name: "b", result: ""})

	defs := reg.Definitions()
	if len(defs) != 2 {
		t.Fatalf("expected 2 definitions, got %d", len(defs))
	}
	for i, d := range defs {
		if d.Type != "function" {
			t.Errorf("expected type 'function', got %q", d.Type)
		}
		if want := []string{"a", "b"}[i]; d.Function.Name != want {
			t.Errorf("definition %d: expected %q, got %q", i, want, d.Function.Name)
		}
	}
}

func TestRegistry_Unregister(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&stubTool{name: "temp", result: ""})
	reg.Register(&stubTool{name: "keep", result: ""})
	reg.Unregister("temp")
	if reg.Has("temp") {
		t.Fatal("expected tool to be unregistered")
	}
	if names := reg.List(); len(names) != 1 || names[0] != "keep" {
		t.Fatalf("unexpected names after unregister: %v", names)
	}
}

func TestRegistry_ListKeepsOrder(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&stubTool{name: "y", result: ""})
	reg.Register(&stubTool{name: "x", result: ""})
	reg.Register(&stubTool{name: "y", result: "again"})

	names := reg.List()
	if len(names) != 2 || names[0] != "y" || names[1] != "x" {
		t.Fatalf("expected [y x], got %v", names)
	}
	out, _ := reg.Execute(context.Background(), "y", nil)
	if out != "again" {
		t.Errorf("expected replaced tool to run, got %q", out)
	}
}

func TestRegistry_Catalog(t *testing.T) {
	reg := NewRegistry()
	reg.Register(NewReadText())
	reg.Register(&stubTool{name: "plain", result: ""})

	specs, err := reg.Catalog()
	if err != nil {
		t.Fatalf("Catalog: %v", err)
	}
	if len(specs) != 2 {
		t.Fatalf("expected 2 specs, got %d", len(specs))
	}

	rt := specs[0]
	if rt.Name != "read_text" || rt.Category != CategoryReading {
		t.Errorf("unexpected spec %+v", rt)
	}
	if len(rt.Parameters) != 3 || rt.Parameters[0].Name != "unit" || rt.Parameters[2].Name != "count" {
		t.Fatalf("expected ordered unit/direction/count params, got %+v", rt.Parameters)
	}
	var schema map[string]any
	if err := json.Unmarshal(rt.ArgsSchema, &schema); err != nil {
		t.Fatalf("args_schema is not JSON: %v", err)
	}
	if schema["type"] != "object" {
		t.Errorf("expected object schema, got %v", schema["type"])
	}

	if specs[1].Parameters == nil {
		t.Error("expected empty, non-nil parameters for schema without properties")
	}
}

type badSchemaTool struct{ stubTool }

func (b *badSchemaTool) Parameters() map[string]any {
	return map[string]any{"type": "object", "bad": make(chan int)}
}

func TestRegistry_CatalogError(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&badSchemaTool{stubTool{name: "broken"}})
	if _, err := reg.Catalog(); err == nil {
		t.Fatal("expected error for unencodable schema")
	}
	if _, err := reg.Execute(context.Background(), "broken", nil); err == nil {
		t.Fatal("expected error executing tool with invalid schema")
	}
}
