package models

import "time"

// RejectLog is one defect report against a ProcessStep. Entries categorized
// as rework transition independently to completed; both categories feed the
// step's rejected/rework aggregates.
type RejectLog struct {
	ID             int64          `json:"id"`
	OrderID        int64          `json:"order_id"`
	ProcessStepID  int64          `json:"process_step_id"`
	RejectType     string         `json:"reject_type"` // defect taxonomy, e.g. stitching, fabric_flaw
	RejectCategory RejectCategory `json:"reject_category"`
	Quantity       int            `json:"quantity"`
	Description    string         `json:"description"`
	RootCause      string         `json:"root_cause,omitempty"`
	Action         string         `json:"action"` // rework, scrap or pending
	ReportedBy     string         `json:"reported_by"`
	DetectedTime   time.Time      `json:"detected_time"`

	ReworkCompleted     bool       `json:"rework_completed"`
	ReworkCompletedTime *time.Time `json:"rework_completed_time,omitempty"`
	ActionTakenBy       string     `json:"action_taken_by,omitempty"`
	FinalDisposition    string     `json:"final_disposition,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
