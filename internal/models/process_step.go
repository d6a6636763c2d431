package models

import "time"

// ProcessStep is one execution instance of a process for one order. An order
// normally has one step per process it passes through, in sequence order.
//
// QuantityCompleted + QuantityRejected + QuantityRework may exceed
// QuantityReceived: defect reporting is allowed to overlap (a piece can be
// reworked and later counted completed), so no upper bound is enforced.
type ProcessStep struct {
	ID            int64      `json:"id"`
	OrderID       int64      `json:"order_id"`
	ProcessName   string     `json:"process_name"`
	ProcessPhase  Phase      `json:"process_phase"`
	Department    string     `json:"department"`
	SequenceOrder int        `json:"sequence_order"` // 1-based position in the realized flow
	Status        StepStatus `json:"status"`

	QuantityReceived  int `json:"quantity_received"`
	QuantityCompleted int `json:"quantity_completed"`
	QuantityRejected  int `json:"quantity_rejected"`
	QuantityRework    int `json:"quantity_rework"`

	ArrivedAtPpicTime  *time.Time `json:"arrived_at_ppic_time,omitempty"`
	AddedToWaitingTime *time.Time `json:"added_to_waiting_time,omitempty"`
	AssignedTime       *time.Time `json:"assigned_time,omitempty"`
	StartedTime        *time.Time `json:"started_time,omitempty"`
	CompletedTime      *time.Time `json:"completed_time,omitempty"`

	// Durations in whole minutes, rounded.
	WaitingDuration    *int64 `json:"waiting_duration,omitempty"`    // addedToWaiting -> started
	ProcessingDuration *int64 `json:"processing_duration,omitempty"` // started -> completed
	TotalDuration      *int64 `json:"total_duration,omitempty"`      // addedToWaiting -> completed

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
