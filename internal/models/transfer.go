package models

import "time"

// TransferLog is the hand-off record between the department finishing one
// process and the department starting the next. Created exactly once per
// completed step that has a successor; later marked received when the next
// department picks the work up.
type TransferLog struct {
	ID             int64  `json:"id"`
	TransferNumber string `json:"transfer_number"` // TRF-{year}-{seq}
	OrderID        int64  `json:"order_id"`
	ProcessStepID  int64  `json:"process_step_id"` // source step

	FromProcess    string `json:"from_process"`
	FromDepartment string `json:"from_department"`
	ToProcess      string `json:"to_process"`
	ToDepartment   string `json:"to_department"`

	TransferDate time.Time `json:"transfer_date"`
	HandedOverBy string    `json:"handed_over_by"`

	QuantityTransferred int `json:"quantity_transferred"`
	QuantityCompleted   int `json:"quantity_completed"`
	QuantityRejected    int `json:"quantity_rejected"`
	QuantityRework      int `json:"quantity_rework"`

	// RejectSummary is a JSON array of per-defect detail snapshotted from the
	// source step's reject logs at completion time; empty when none.
	RejectSummary string `json:"reject_summary,omitempty"`

	ProcessingDuration *int64 `json:"processing_duration,omitempty"`
	WaitingDuration    *int64 `json:"waiting_duration,omitempty"`

	Status       TransferStatus `json:"status"`
	IsReceived   bool           `json:"is_received"`
	ReceivedBy   string         `json:"received_by,omitempty"`
	ReceivedDate *time.Time     `json:"received_date,omitempty"`
	Notes        string         `json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// RejectSummaryEntry is one element of TransferLog.RejectSummary.
type RejectSummaryEntry struct {
	Type        string         `json:"type"`
	Category    RejectCategory `json:"category"`
	Quantity    int            `json:"quantity"`
	Description string         `json:"description"`
	Action      string         `json:"action"`
}
