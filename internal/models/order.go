package models

import "time"

// Order represents one manufacturing order.
//
// ProcessFlow holds the ordered list of process names this order must pass
// through, serialized as a JSON array. A missing or unparseable value falls
// back to the full default production+delivery sequence.
type Order struct {
	ID          int64  `json:"id"`
	OrderNumber string `json:"order_number"`
	Customer    string `json:"customer,omitempty"`
	Style       string `json:"style,omitempty"`

	ProcessFlow string `json:"process_flow,omitempty"` // JSON array of process names

	CurrentPhase   Phase           `json:"current_phase"`
	CurrentProcess string          `json:"current_process"` // process name, or "delivered" when finished
	CurrentState   TransitionState `json:"current_state"`

	TotalQuantity  int `json:"total_quantity"`
	TotalCompleted int `json:"total_completed"`
	TotalRejected  int `json:"total_rejected"`
	TotalRework    int `json:"total_rework"`

	ProductionDeadline *time.Time `json:"production_deadline,omitempty"`
	DeliveryDeadline   *time.Time `json:"delivery_deadline,omitempty"`

	// LegacyStatus is the pre-migration single status string; empty on
	// orders created under the step model.
	LegacyStatus string     `json:"legacy_status,omitempty"`
	OrderDate    *time.Time `json:"order_date,omitempty"`
	TargetDate   *time.Time `json:"target_date,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
