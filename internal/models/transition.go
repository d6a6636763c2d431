package models

import "time"

// ProcessTransition is an immutable audit record of one status change on one
// ProcessStep. Append-only; one record per action execution, plus one
// synthetic record (performed by SYSTEM) when a successor step is created.
type ProcessTransition struct {
	ID             int64           `json:"id"`
	OrderID        int64           `json:"order_id"`
	ProcessStepID  int64           `json:"process_step_id"`
	FromState      TransitionState `json:"from_state"`
	ToState        TransitionState `json:"to_state"`
	TransitionTime time.Time       `json:"transition_time"`
	PerformedBy    string          `json:"performed_by"` // user name, SYSTEM or MIGRATION_SCRIPT
	ProcessName    string          `json:"process_name"`
	Department     string          `json:"department"`
	Quantity       int             `json:"quantity"`
	Notes          string          `json:"notes,omitempty"`
}

// TransitionResult is the bundle returned by every engine action. NextStep
// and Transfer are set only when a complete action created a successor.
type TransitionResult struct {
	Step       *ProcessStep       `json:"process_step"`
	Transition *ProcessTransition `json:"transition"`
	NextStep   *ProcessStep       `json:"next_process_step,omitempty"`
	Transfer   *TransferLog       `json:"transfer_log,omitempty"`
}
