package journal

import (
	"context"
	"time"

	"github.com/voxedit-io/voxedit/internal/agent"
	"github.com/voxedit-io/voxedit/pkg/protocol"
)

// Status is the outcome of a journaled command.
type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// Entry is one dispatched command with its trace.
type Entry struct {
	ID             string                 `json:"id"`
	Source         string                 `json:"source,omitempty"`
	Command        string                 `json:"command"`
	FinalResponse  string                 `json:"final_response,omitempty"`
	ProcessDetails []protocol.ProcessStep `json:"process_details,omitempty"`
	Error          string                 `json:"error,omitempty"`
	Status         Status                 `json:"status"`
	Provider       string                 `json:"provider,omitempty"`
	DurationMS     int64                  `json:"duration_ms"`
	CreatedAt      time.Time              `json:"created_at"`
}

// Store is the persistence interface for the command journal.
type Store interface {
	// Save creates or replaces an entry.
	Save(e *Entry) error
	// Get retrieves an entry by ID.
	Get(id string) (*Entry, error)
	// List returns entries matching the filter, newest first.
	List(filter Filter) ([]*Entry, error)
	// Count returns the number of entries matching the filter.
	Count(filter Filter) (int, error)
	// Prune deletes entries created before the given time.
	Prune(before time.Time) (int64, error)
}

// Filter constrains journal queries.
type Filter struct {
	Status Status    // exact match; empty = any
	Source string    // exact match; empty = any
	Query  string    // text search on command and final response
	Since  time.Time // zero = no lower bound
	Limit  int       // 0 = no limit
}

// FromOutcome converts a finished command into a journal entry.
func FromOutcome(o agent.Outcome) *Entry {
	e := &Entry{
		ID:         o.ID,
		Source:     o.Source,
		Command:    o.Command,
		Status:     StatusOK,
		Provider:   o.Provider,
		DurationMS: o.Duration.Milliseconds(),
		CreatedAt:  o.At,
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	if o.Err != nil {
		e.Status = StatusError
		e.Error = o.Err.Error()
	}
	if o.Result != nil {
		e.FinalResponse = o.Result.FinalResponse
		e.ProcessDetails = o.Result.ProcessDetails
	}
	return e
}

// Recorder adapts a Store to agent.Recorder.
type Recorder struct {
	Store Store
}

// Record journals a finished command.
func (r Recorder) Record(_ context.Context, o agent.Outcome) error {
	return r.Store.Save(FromOutcome(o))
}
