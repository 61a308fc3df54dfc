package tasks

import (
	"fmt"

	"github.com/desertthunder/jobtrail/internal/models"
	"github.com/desertthunder/jobtrail/internal/shared"
)

// ProgressUpdate represents a progress event during a sync run.
//
// Used to send real-time updates to the CLI or HTTP layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	Authenticate Phase = iota
	FetchMessages
	Reconcile
	RecordRun
)

func (p Phase) String() string {
	switch p {
	case Authenticate:
		return "authenticate"
	case FetchMessages:
		return "fetch_messages"
	case Reconcile:
		return "reconcile"
	case RecordRun:
		return "record_run"
	default:
		return ""
	}
}

func authenticateUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   Authenticate,
		Step:    1,
		Total:   1,
		Message: "Exchanging refresh credential...",
	}
}

func fetchMessagesUpdate(found int) ProgressUpdate {
	if found == 0 {
		return ProgressUpdate{
			Phase:   FetchMessages,
			Total:   1,
			Message: "Fetching candidate messages...",
		}
	}
	return ProgressUpdate{
		Phase:   FetchMessages,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d candidate messages", found),
	}
}

func reconcileUpdate(step, total int, msg models.Message) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Reconcile,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s", step, total, shared.Truncate(msg.Header("subject"), 60)),
	}
}

func recordRunUpdate(stats models.RunStats) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RecordRun,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Recording run: %d created, %d updated, %d skipped", stats.Created, stats.Updated, stats.Skipped),
		Data:    stats,
	}
}
