package domain

import "time"

// ThreadState tracks a message through the pipeline. Terminal states are
// Skipped, Filtered, NoReply, ValidationFailed, Sent and Errored; a reply
// may leave the system only from Sent.
type ThreadState string

const (
	StateFetched          ThreadState = "FETCHED"
	StateSkipped          ThreadState = "SKIPPED"
	StateFiltered         ThreadState = "FILTERED"
	StateClassified       ThreadState = "CLASSIFIED"
	StateForceReplyCheck  ThreadState = "FORCE_REPLY_CHECK"
	StateGateChecked      ThreadState = "GATE_CHECKED"
	StateContextBuilt     ThreadState = "CONTEXT_BUILT"
	StateGenerated        ThreadState = "GENERATED"
	StateNoReply          ThreadState = "NO_REPLY"
	StateValidated        ThreadState = "VALIDATED"
	StateValidationFailed ThreadState = "VALIDATION_FAILED"
	StateSent             ThreadState = "SENT"
	StateErrored          ThreadState = "ERROR"
)

// IsTerminal reports whether no further transition is allowed.
func (s ThreadState) IsTerminal() bool {
	switch s {
	case StateSkipped, StateFiltered, StateNoReply, StateValidationFailed, StateSent, StateErrored:
		return true
	}
	return false
}

// ThreadOutcome records where one message ended up and why.
type ThreadOutcome struct {
	MessageID string
	ThreadID  string
	State     ThreadState
	Reason    string
	Err       error
}

// RunSummary is the aggregate result of one batch run.
type RunSummary struct {
	RunID            string          `json:"run_id"`
	Status           string          `json:"status"`
	Processed        int             `json:"processed"`
	Replied          int             `json:"replied"`
	Filtered         int             `json:"filtered"`
	ValidationFailed int             `json:"validation_failed"`
	Errors           int             `json:"errors"`
	DryRun           bool            `json:"dry_run"`
	DryRunCount      int             `json:"dry_run_count,omitempty"`
	StartedAt        time.Time       `json:"started_at"`
	FinishedAt       time.Time       `json:"finished_at"`
	Outcomes         []ThreadOutcome `json:"-"`
}
