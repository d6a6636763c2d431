package engine

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mitrajaya/garment-tracker/internal/auth"
	"github.com/mitrajaya/garment-tracker/internal/flow"
	"github.com/mitrajaya/garment-tracker/internal/models"
	"go.uber.org/zap"
)

// AssignNextProcess creates the next process step for an order outside the
// automatic flow resolution. This is the coordinating department's override:
// any process not already completed or in flight may be assigned, even out
// of the configured flow order.
func (e *Engine) AssignNextProcess(ctx context.Context, user auth.User, orderID int64, nextProcess, notes string) (*models.TransitionResult, error) {
	if user.Name == "" {
		return nil, auth.ErrUnauthenticated
	}

	if !auth.CanAssignProcess(user.Department, user.IsAdmin) {
		return nil, &auth.PermissionError{
			Operation:          "assign process",
			Process:            nextProcess,
			RequiredDepartment: flow.DepartmentPPIC,
		}
	}

	if !flow.IsKnownProcess(nextProcess) {
		return nil, fmt.Errorf("%w: unknown process %q", ErrProcessUnavailable, nextProcess)
	}

	var result *models.TransitionResult
	err := e.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		order, err := e.orders.GetByID(tx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}

		steps, err := e.steps.ListByOrder(tx, orderID)
		if err != nil {
			return err
		}

		completed := make(map[string]bool)
		inFlight := make(map[string]bool)
		carried := order.TotalQuantity
		for _, step := range steps {
			switch step.Status {
			case models.StepStatusCompleted:
				completed[step.ProcessName] = true
				if step.QuantityCompleted > 0 {
					carried = step.QuantityCompleted
				}
			default:
				inFlight[step.ProcessName] = true
			}
		}

		if completed[nextProcess] || inFlight[nextProcess] {
			return fmt.Errorf("%w: %s", ErrProcessUnavailable, nextProcess)
		}

		maxSeq, err := e.steps.MaxSequence(tx, orderID)
		if err != nil {
			return err
		}

		now := e.now()
		phase := flow.PhaseFor(nextProcess)
		dept, _ := flow.DepartmentFor(nextProcess)

		step := &models.ProcessStep{
			OrderID:            orderID,
			ProcessName:        nextProcess,
			ProcessPhase:       phase,
			Department:         dept,
			SequenceOrder:      maxSeq + 1,
			Status:             models.StepStatusPending,
			QuantityReceived:   carried,
			AddedToWaitingTime: &now,
			AssignedTime:       &now,
		}
		if err := e.steps.Create(tx, step); err != nil {
			return err
		}

		if err := e.orders.UpdateProgress(tx, orderID, nextProcess, phase, models.StateWaiting, order.TotalCompleted); err != nil {
			return err
		}

		transition := &models.ProcessTransition{
			OrderID:        orderID,
			ProcessStepID:  step.ID,
			FromState:      models.StateAtPPIC,
			ToState:        models.StateWaiting,
			TransitionTime: now,
			PerformedBy:    user.Name,
			ProcessName:    nextProcess,
			Department:     dept,
			Quantity:       carried,
			Notes:          notes,
		}
		if err := e.transitions.Create(tx, transition); err != nil {
			return err
		}

		result = &models.TransitionResult{Step: step, Transition: transition}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("Process assigned",
		zap.Int64("order_id", orderID),
		zap.String("process", nextProcess),
		zap.String("assigned_by", user.Name))
	return result, nil
}
