package agent

import (
	"context"
	"time"

	"github.com/voxedit-io/voxedit/pkg/protocol"
)

// Outcome describes one finished command, successful or not.
type Outcome struct {
	ID       string
	Source   string
	Command  string
	Result   *protocol.CommandResult // nil when Err is set
	Err      error
	Provider string
	Duration time.Duration
	At       time.Time
}

// Recorder persists command outcomes, e.g. to the command journal.
type Recorder interface {
	Record(ctx context.Context, o Outcome) error
}

func (a *Agent) record(ctx context.Context, o Outcome) {
	if a.Recorder == nil {
		return
	}
	// The client may already be gone; the journal entry is still wanted.
	if err := a.Recorder.Record(context.WithoutCancel(ctx), o); err != nil {
		a.Logger.Warn("failed to record command",
			"command_id", o.ID,
			"error", err,
		)
	}
}
