package engine

import (
	"errors"
	"fmt"

	"github.com/mitrajaya/garment-tracker/internal/models"
)

var (
	// ErrStepNotFound is returned when the referenced process step does not exist.
	ErrStepNotFound = errors.New("process step not found")

	// ErrOrderNotFound is returned when the referenced order does not exist.
	ErrOrderNotFound = errors.New("order not found")

	// ErrRejectLogNotFound is returned when the referenced reject entry does
	// not exist or is not an open rework item.
	ErrRejectLogNotFound = errors.New("reject log not found")

	// ErrUnknownAction is returned when an action string from the outside
	// does not name a known action.
	ErrUnknownAction = errors.New("unknown action")

	// ErrProcessUnavailable is returned when a manual assignment names a
	// process that is already completed or in flight.
	ErrProcessUnavailable = errors.New("process not available for assignment")
)

// InvalidTransitionError reports an action incompatible with the step's
// current status. The expected and actual statuses are surfaced verbatim.
type InvalidTransitionError struct {
	Action   string
	Expected string
	Actual   models.StepStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition: %s requires status %s, step is %s",
		e.Action, e.Expected, e.Actual)
}

// IsInvalidTransition reports whether err is an InvalidTransitionError.
func IsInvalidTransition(err error) bool {
	var ite *InvalidTransitionError
	return errors.As(err, &ite)
}
