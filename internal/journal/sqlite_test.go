package journal

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/voxedit-io/voxedit/internal/agent"
	"github.com/voxedit-io/voxedit/pkg/protocol"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal.db")
	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func entry(id, command string, status Status, at time.Time) *Entry {
	return &Entry{
		ID:            id,
		Source:        "api",
		Command:       command,
		FinalResponse: "Done: " + command,
		Status:        status,
		Provider:      "local",
		DurationMS:    12,
		CreatedAt:     at,
	}
}

func TestSaveAndGet(t *testing.T) {
	s := newTestStore(t)

	e := entry("c-001", "Make the selected text bold", StatusOK, base)
	e.ProcessDetails = []protocol.ProcessStep{
		{Type: protocol.StepHuman, Content: "Make the selected text bold"},
		{Type: protocol.StepAIThinking, Content: protocol.ThinkingPlaceholder, ToolCalls: []protocol.StepToolCall{
			{Name: "apply_formatting", Args: map[string]any{"format_type": "bold"}},
		}},
		{Type: protocol.StepToolResponse, Name: "apply_formatting", Content: "Applied bold formatting to selection"},
		{Type: protocol.StepAI, Content: "Applied bold formatting to selection."},
	}

	if err := s.Save(e); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.Get("c-001")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Command != e.Command || got.FinalResponse != e.FinalResponse {
		t.Errorf("unexpected entry: %+v", got)
	}
	if got.Status != StatusOK || got.Provider != "local" || got.DurationMS != 12 || got.Source != "api" {
		t.Errorf("unexpected metadata: %+v", got)
	}
	if !got.CreatedAt.Equal(base) {
		t.Errorf("created_at = %v, want %v", got.CreatedAt, base)
	}
	if len(got.ProcessDetails) != 4 {
		t.Fatalf("expected 4 steps, got %d", len(got.ProcessDetails))
	}
	call := got.ProcessDetails[1].ToolCalls[0]
	if call.Name != "apply_formatting" || call.Args["format_type"] != "bold" {
		t.Errorf("unexpected tool call: %+v", call)
	}
}

func TestGet_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSave_Upsert(t *testing.T) {
	s := newTestStore(t)

	e := entry("c-001", "Undo", StatusOK, base)
	s.Save(e)

	e.Status = StatusError
	e.Error = "provider error"
	if err := s.Save(e); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, _ := s.Get("c-001")
	if got.Status != StatusError || got.Error != "provider error" {
		t.Errorf("upsert not applied: %+v", got)
	}
	if n, _ := s.Count(Filter{}); n != 1 {
		t.Errorf("expected 1 entry, got %d", n)
	}
}

func TestList_NewestFirstAndFilters(t *testing.T) {
	s := newTestStore(t)

	for i := 0; i < 5; i++ {
		status := StatusOK
		if i%2 == 1 {
			status = StatusError
		}
		s.Save(entry(fmt.Sprintf("c-%d", i), fmt.Sprintf("command %d", i), status, base.Add(time.Duration(i)*time.Minute)))
	}
	tg := entry("c-tg", "Read the next line", StatusOK, base.Add(10*time.Minute))
	tg.Source = "telegram"
	s.Save(tg)

	all, err := s.List(Filter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 6 {
		t.Fatalf("expected 6 entries, got %d", len(all))
	}
	if all[0].ID != "c-tg" || all[5].ID != "c-0" {
		t.Errorf("expected newest first, got %s ... %s", all[0].ID, all[5].ID)
	}

	errs, _ := s.List(Filter{Status: StatusError})
	if len(errs) != 2 {
		t.Errorf("expected 2 error entries, got %d", len(errs))
	}

	fromTelegram, _ := s.List(Filter{Source: "telegram"})
	if len(fromTelegram) != 1 || fromTelegram[0].ID != "c-tg" {
		t.Errorf("source filter: got %v", fromTelegram)
	}

	matched, _ := s.List(Filter{Query: "next line"})
	if len(matched) != 1 {
		t.Errorf("expected 1 query match, got %d", len(matched))
	}

	recent, _ := s.List(Filter{Since: base.Add(3 * time.Minute)})
	if len(recent) != 3 {
		t.Errorf("expected 3 entries since +3m, got %d", len(recent))
	}

	limited, _ := s.List(Filter{Limit: 2})
	if len(limited) != 2 {
		t.Errorf("expected 2 entries with limit, got %d", len(limited))
	}

	if n, _ := s.Count(Filter{Status: StatusOK}); n != 4 {
		t.Errorf("expected 4 ok entries, got %d", n)
	}
}

func TestList_Empty(t *testing.T) {
	s := newTestStore(t)

	entries, err := s.List(Filter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if entries == nil || len(entries) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", entries)
	}
}

func TestPrune(t *testing.T) {
	s := newTestStore(t)

	s.Save(entry("old-1", "a", StatusOK, base.Add(-48*time.Hour)))
	s.Save(entry("old-2", "b", StatusOK, base.Add(-25*time.Hour)))
	s.Save(entry("new", "c", StatusOK, base))

	n, err := s.Prune(base.Add(-24 * time.Hour))
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 pruned, got %d", n)
	}
	if _, err := s.Get("new"); err != nil {
		t.Errorf("recent entry should survive: %v", err)
	}
}

func TestRecorder(t *testing.T) {
	s := newTestStore(t)
	r := Recorder{Store: s}

	ok := agent.Outcome{
		ID:       "c-ok",
		Source:   "slack",
		Command:  "What's the current time?",
		Provider: "openai",
		Duration: 1500 * time.Millisecond,
		At:       base,
		Result: &protocol.CommandResult{
			ID:            "c-ok",
			Command:       "What's the current time?",
			FinalResponse: "It is noon.",
		},
	}
	failed := agent.Outcome{
		ID:      "c-err",
		Command: "Undo",
		Err:     errors.New("openai: no API key configured"),
		At:      base,
	}

	for _, o := range []agent.Outcome{ok, failed} {
		if err := r.Record(t.Context(), o); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	got, _ := s.Get("c-ok")
	if got.Status != StatusOK || got.FinalResponse != "It is noon." || got.DurationMS != 1500 || got.Source != "slack" {
		t.Errorf("unexpected ok entry: %+v", got)
	}
	got, _ = s.Get("c-err")
	if got.Status != StatusError || got.Error != "openai: no API key configured" {
		t.Errorf("unexpected error entry: %+v", got)
	}
}
