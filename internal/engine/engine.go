// Package engine implements the process-step state machine: receive/start/
// complete actions, the hand-off between departments, reject recording and
// manual next-process assignment. Every mutating operation runs inside one
// transaction spanning the step, its audit trail, the transfer log and the
// parent order.
package engine

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/mitrajaya/garment-tracker/internal/auth"
	"github.com/mitrajaya/garment-tracker/internal/flow"
	"github.com/mitrajaya/garment-tracker/internal/models"
	"github.com/mitrajaya/garment-tracker/internal/repository"
	"github.com/mitrajaya/garment-tracker/pkg/database"
	"go.uber.org/zap"
)

// Engine executes actions against process steps.
type Engine struct {
	db          *database.DB
	orders      *repository.OrderRepository
	steps       *repository.StepRepository
	transitions *repository.TransitionRepository
	transfers   *repository.TransferRepository
	rejects     *repository.RejectRepository
	logger      *zap.Logger
	now         func() time.Time
}

// New creates a new engine.
func New(db *database.DB, logger *zap.Logger) *Engine {
	return &Engine{
		db:          db,
		orders:      repository.NewOrderRepository(logger),
		steps:       repository.NewStepRepository(logger),
		transitions: repository.NewTransitionRepository(logger),
		transfers:   repository.NewTransferRepository(logger),
		rejects:     repository.NewRejectRepository(logger),
		logger:      logger,
		now:         time.Now,
	}
}

// Execute runs one action against a process step inside one transaction.
// performedBy is the name recorded on the audit trail; empty falls back to
// the authenticated user's name.
func (e *Engine) Execute(ctx context.Context, user auth.User, stepID int64, action Action, performedBy, notes string) (*models.TransitionResult, error) {
	if user.Name == "" {
		return nil, auth.ErrUnauthenticated
	}
	if performedBy == "" {
		performedBy = user.Name
	}

	var result *models.TransitionResult
	err := e.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		step, err := e.steps.GetByID(tx, stepID)
		if err != nil {
			return err
		}
		if step == nil {
			return ErrStepNotFound
		}

		if !auth.CanExecute(user.Department, step.ProcessName, user.IsAdmin) {
			required, _ := flow.DepartmentFor(step.ProcessName)
			return &auth.PermissionError{
				Operation:          actionName(action),
				Process:            step.ProcessName,
				RequiredDepartment: required,
			}
		}

		now := e.now()
		switch act := action.(type) {
		case ReceiveAction:
			result, err = e.applyReceive(tx, step, performedBy, notes, now)
		case StartAction:
			result, err = e.applyStart(tx, step, performedBy, notes, now)
		case CompleteAction:
			result, err = e.applyComplete(tx, step, act, performedBy, notes, now)
		default:
			err = fmt.Errorf("%w: %T", ErrUnknownAction, action)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("Process step action executed",
		zap.Int64("step_id", stepID),
		zap.String("action", actionName(action)),
		zap.String("performed_by", performedBy))
	return result, nil
}

// applyReceive moves a pending step off the waiting list into execution and
// marks the matching inbound transfer received.
func (e *Engine) applyReceive(tx *sql.Tx, step *models.ProcessStep, performedBy, notes string, now time.Time) (*models.TransitionResult, error) {
	if step.Status != models.StepStatusPending {
		return nil, &InvalidTransitionError{
			Action:   "receive",
			Expected: string(models.StepStatusPending),
			Actual:   step.Status,
		}
	}

	if step.AddedToWaitingTime == nil {
		step.AddedToWaitingTime = &now
	}
	waiting := minutesBetween(*step.AddedToWaitingTime, now)

	step.Status = models.StepStatusInProgress
	step.StartedTime = &now
	step.WaitingDuration = &waiting

	ok, err := e.steps.UpdateExecution(tx, step, models.StepStatusPending)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, e.staleTransition(tx, step.ID, "receive", string(models.StepStatusPending))
	}

	// Best effort: a manually assigned step has no inbound transfer.
	if _, err := e.transfers.MarkReceived(tx, step.OrderID, step.ProcessName, performedBy, now); err != nil {
		return nil, err
	}

	transition := &models.ProcessTransition{
		OrderID:        step.OrderID,
		ProcessStepID:  step.ID,
		FromState:      models.StateWaiting,
		ToState:        models.StateInProgress,
		TransitionTime: now,
		PerformedBy:    performedBy,
		ProcessName:    step.ProcessName,
		Department:     step.Department,
		Quantity:       step.QuantityReceived,
		Notes:          notes,
	}
	if err := e.transitions.Create(tx, transition); err != nil {
		return nil, err
	}

	if err := e.orders.UpdateState(tx, step.OrderID, models.StateInProgress); err != nil {
		return nil, err
	}

	return &models.TransitionResult{Step: step, Transition: transition}, nil
}

// applyStart is the legacy action: force a non-completed step into execution.
func (e *Engine) applyStart(tx *sql.Tx, step *models.ProcessStep, performedBy, notes string, now time.Time) (*models.TransitionResult, error) {
	if step.Status == models.StepStatusCompleted {
		return nil, &InvalidTransitionError{
			Action:   "start",
			Expected: "not completed",
			Actual:   step.Status,
		}
	}

	fromState := models.StateFor(step.Status)
	step.Status = models.StepStatusInProgress
	step.StartedTime = &now

	ok, err := e.steps.UpdateExecutionUnlessCompleted(tx, step)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &InvalidTransitionError{
			Action:   "start",
			Expected: "not completed",
			Actual:   models.StepStatusCompleted,
		}
	}

	transition := &models.ProcessTransition{
		OrderID:        step.OrderID,
		ProcessStepID:  step.ID,
		FromState:      fromState,
		ToState:        models.StateInProgress,
		TransitionTime: now,
		PerformedBy:    performedBy,
		ProcessName:    step.ProcessName,
		Department:     step.Department,
		Quantity:       step.QuantityReceived,
		Notes:          notes,
	}
	if err := e.transitions.Create(tx, transition); err != nil {
		return nil, err
	}

	if err := e.orders.UpdateState(tx, step.OrderID, models.StateInProgress); err != nil {
		return nil, err
	}

	return &models.TransitionResult{Step: step, Transition: transition}, nil
}

// applyComplete finishes an in-progress step, then resolves the order's
// configured flow: either hand the work to the next department (transfer log
// plus successor step) or mark the order delivered.
func (e *Engine) applyComplete(tx *sql.Tx, step *models.ProcessStep, act CompleteAction, performedBy, notes string, now time.Time) (*models.TransitionResult, error) {
	if step.Status != models.StepStatusInProgress {
		return nil, &InvalidTransitionError{
			Action:   "complete",
			Expected: string(models.StepStatusInProgress),
			Actual:   step.Status,
		}
	}

	quantity := act.Quantity
	if quantity <= 0 {
		quantity = step.QuantityReceived
	}

	step.Status = models.StepStatusCompleted
	step.CompletedTime = &now
	step.QuantityCompleted = quantity
	if step.StartedTime != nil {
		processing := minutesBetween(*step.StartedTime, now)
		step.ProcessingDuration = &processing
	}
	if step.AddedToWaitingTime != nil {
		total := minutesBetween(*step.AddedToWaitingTime, now)
		step.TotalDuration = &total
	}

	ok, err := e.steps.UpdateExecution(tx, step, models.StepStatusInProgress)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, e.staleTransition(tx, step.ID, "complete", string(models.StepStatusInProgress))
	}

	transition := &models.ProcessTransition{
		OrderID:        step.OrderID,
		ProcessStepID:  step.ID,
		FromState:      models.StateInProgress,
		ToState:        models.StateCompleted,
		TransitionTime: now,
		PerformedBy:    performedBy,
		ProcessName:    step.ProcessName,
		Department:     step.Department,
		Quantity:       quantity,
		Notes:          notes,
	}
	if err := e.transitions.Create(tx, transition); err != nil {
		return nil, err
	}

	order, err := e.orders.GetByID(tx, step.OrderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	orderFlow, usedDefault := flow.ResolveFlow(order.ProcessFlow)
	if usedDefault && order.ProcessFlow != "" {
		e.logger.Warn("Order has unparseable process flow, using default",
			zap.Int64("order_id", order.ID),
			zap.String("order_number", order.OrderNumber))
	}

	next, hasNext := flow.NextProcess(orderFlow, step.ProcessName)
	if !hasNext {
		// Last process in the flow: the order is done.
		if err := e.orders.UpdateProgress(tx, order.ID, flow.ProcessDelivered, order.CurrentPhase, models.StateCompleted, quantity); err != nil {
			return nil, err
		}
		return &models.TransitionResult{Step: step, Transition: transition}, nil
	}

	nextPhase := flow.PhaseFor(next)
	nextDept, _ := flow.DepartmentFor(next)

	transferNumber, err := e.transfers.NextTransferNumber(tx, now.Year())
	if err != nil {
		return nil, err
	}

	rejectSummary, err := e.rejectSummary(tx, step.ID)
	if err != nil {
		return nil, err
	}

	transfer := &models.TransferLog{
		TransferNumber:      transferNumber,
		OrderID:             order.ID,
		ProcessStepID:       step.ID,
		FromProcess:         step.ProcessName,
		FromDepartment:      step.Department,
		ToProcess:           next,
		ToDepartment:        nextDept,
		TransferDate:        now,
		HandedOverBy:        performedBy,
		QuantityTransferred: quantity,
		QuantityCompleted:   quantity,
		QuantityRejected:    step.QuantityRejected,
		QuantityRework:      step.QuantityRework,
		RejectSummary:       rejectSummary,
		ProcessingDuration:  step.ProcessingDuration,
		WaitingDuration:     step.WaitingDuration,
		Status:              models.TransferStatusPending,
		Notes:               notes,
	}
	if err := e.transfers.Create(tx, transfer); err != nil {
		return nil, err
	}

	// The successor enters the waiting list immediately.
	nextStep := &models.ProcessStep{
		OrderID:            order.ID,
		ProcessName:        next,
		ProcessPhase:       nextPhase,
		Department:         nextDept,
		SequenceOrder:      step.SequenceOrder + 1,
		Status:             models.StepStatusPending,
		QuantityReceived:   quantity,
		AddedToWaitingTime: &now,
	}
	if err := e.steps.Create(tx, nextStep); err != nil {
		return nil, err
	}

	if err := e.orders.UpdateProgress(tx, order.ID, next, nextPhase, models.StateWaiting, quantity); err != nil {
		return nil, err
	}

	synthetic := &models.ProcessTransition{
		OrderID:        order.ID,
		ProcessStepID:  nextStep.ID,
		FromState:      models.StateAtPPIC,
		ToState:        models.StateWaiting,
		TransitionTime: now,
		PerformedBy:    models.ActorSystem,
		ProcessName:    next,
		Department:     nextDept,
		Quantity:       quantity,
		Notes:          fmt.Sprintf("Auto-created after %s completion", step.ProcessName),
	}
	if err := e.transitions.Create(tx, synthetic); err != nil {
		return nil, err
	}

	return &models.TransitionResult{
		Step:       step,
		Transition: transition,
		NextStep:   nextStep,
		Transfer:   transfer,
	}, nil
}

// rejectSummary snapshots a step's reject entries into the serialized form
// carried on the transfer log. Empty when the step has no entries.
func (e *Engine) rejectSummary(tx *sql.Tx, stepID int64) (string, error) {
	logs, err := e.rejects.ListByStep(tx, stepID)
	if err != nil {
		return "", err
	}
	if len(logs) == 0 {
		return "", nil
	}

	entries := make([]models.RejectSummaryEntry, 0, len(logs))
	for _, log := range logs {
		entries = append(entries, models.RejectSummaryEntry{
			Type:        log.RejectType,
			Category:    log.RejectCategory,
			Quantity:    log.Quantity,
			Description: log.Description,
			Action:      log.Action,
		})
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("failed to marshal reject summary: %w", err)
	}
	return string(data), nil
}

// staleTransition builds the error for a guarded update that matched no row.
// By then the in-memory step already carries the target status, so the row is
// read again to report what is actually stored.
func (e *Engine) staleTransition(tx *sql.Tx, stepID int64, action, expected string) error {
	current, err := e.steps.GetByID(tx, stepID)
	if err != nil {
		return err
	}

	var actual models.StepStatus
	if current != nil {
		actual = current.Status
	}
	return &InvalidTransitionError{
		Action:   action,
		Expected: expected,
		Actual:   actual,
	}
}

func actionName(a Action) string {
	if a == nil {
		return ""
	}
	return a.actionName()
}

// minutesBetween returns the whole minutes from from to to, rounded.
func minutesBetween(from, to time.Time) int64 {
	return int64(math.Round(to.Sub(from).Minutes()))
}
