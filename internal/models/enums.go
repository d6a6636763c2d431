package models

// StepStatus is the lifecycle status of a ProcessStep.
type StepStatus string

const (
	StepStatusPending    StepStatus = "pending"
	StepStatusInProgress StepStatus = "in_progress"
	StepStatusCompleted  StepStatus = "completed"
	// StepStatusOnHold exists only on rows migrated from the legacy model.
	StepStatusOnHold StepStatus = "on_hold"
)

var validStepStatuses = map[StepStatus]bool{
	StepStatusPending:    true,
	StepStatusInProgress: true,
	StepStatusCompleted:  true,
	StepStatusOnHold:     true,
}

// IsValid returns true if the status is a known step status.
func (s StepStatus) IsValid() bool {
	return validStepStatuses[s]
}

// String returns the string representation of the status.
func (s StepStatus) String() string {
	return string(s)
}

// TransitionState is the shared state vocabulary used by Order.CurrentState
// and by ProcessTransition from/to values. Keeping it a closed enum prevents
// typos from producing silently-wrong audit trails.
type TransitionState string

const (
	StateAtPPIC     TransitionState = "at_ppic"
	StateWaiting    TransitionState = "waiting"
	StateInProgress TransitionState = "in_progress"
	StateCompleted  TransitionState = "completed"
)

// String returns the string representation of the state.
func (s TransitionState) String() string {
	return string(s)
}

// StateFor maps a step status to its transition-state equivalent. Pending
// steps sit on the waiting list; on-hold legacy rows are treated the same.
func StateFor(status StepStatus) TransitionState {
	switch status {
	case StepStatusInProgress:
		return StateInProgress
	case StepStatusCompleted:
		return StateCompleted
	default:
		return StateWaiting
	}
}

// Phase is the coarse grouping of processes.
type Phase string

const (
	PhaseProduction Phase = "production"
	PhaseDelivery   Phase = "delivery"
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	return string(p)
}

// RejectCategory classifies a defect report.
type RejectCategory string

const (
	RejectCategoryReject RejectCategory = "reject" // scrap
	RejectCategoryRework RejectCategory = "rework" // recoverable
)

// TransferStatus is the lifecycle status of a TransferLog.
type TransferStatus string

const (
	TransferStatusPending  TransferStatus = "pending"
	TransferStatusReceived TransferStatus = "received"
	TransferStatusDisputed TransferStatus = "disputed"
)

// Actor sentinels recorded in ProcessTransition.PerformedBy.
const (
	ActorSystem          = "SYSTEM"
	ActorMigrationScript = "MIGRATION_SCRIPT"
)
