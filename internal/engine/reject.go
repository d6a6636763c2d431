package engine

import (
	"context"
	"database/sql"

	"github.com/mitrajaya/garment-tracker/internal/auth"
	"github.com/mitrajaya/garment-tracker/internal/flow"
	"github.com/mitrajaya/garment-tracker/internal/models"
	"go.uber.org/zap"
)

// RejectInput carries one defect report.
type RejectInput struct {
	RejectType     string
	RejectCategory models.RejectCategory
	Quantity       int
	Description    string
	RootCause      string
	Action         string
	ReportedBy     string
}

// RecordReject appends a reject log entry against a step and bumps the
// step's rejected or rework aggregate, plus the order totals. Reported
// quantities are not capped against the received quantity: re-inspection may
// legitimately attribute more defects than pieces currently on the step.
func (e *Engine) RecordReject(ctx context.Context, user auth.User, stepID int64, input RejectInput) (*models.RejectLog, error) {
	if user.Name == "" {
		return nil, auth.ErrUnauthenticated
	}
	if input.ReportedBy == "" {
		input.ReportedBy = user.Name
	}
	if input.Action == "" {
		input.Action = "pending"
	}

	var log *models.RejectLog
	err := e.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		step, err := e.steps.GetByID(tx, stepID)
		if err != nil {
			return err
		}
		if step == nil {
			return ErrStepNotFound
		}

		if !auth.CanRecordReject(user.Department, step.ProcessName, user.IsAdmin) {
			required, _ := flow.DepartmentFor(step.ProcessName)
			return &auth.PermissionError{
				Operation:          "record reject",
				Process:            step.ProcessName,
				RequiredDepartment: required,
			}
		}

		now := e.now()
		log = &models.RejectLog{
			OrderID:        step.OrderID,
			ProcessStepID:  step.ID,
			RejectType:     input.RejectType,
			RejectCategory: input.RejectCategory,
			Quantity:       input.Quantity,
			Description:    input.Description,
			RootCause:      input.RootCause,
			Action:         input.Action,
			ReportedBy:     input.ReportedBy,
			DetectedTime:   now,
		}
		if err := e.rejects.Create(tx, log); err != nil {
			return err
		}

		if err := e.steps.AddRejectQuantity(tx, step.ID, input.RejectCategory, input.Quantity); err != nil {
			return err
		}

		rejectedDelta, reworkDelta := 0, 0
		if input.RejectCategory == models.RejectCategoryRework {
			reworkDelta = input.Quantity
		} else {
			rejectedDelta = input.Quantity
		}
		return e.orders.UpdateTotals(tx, step.OrderID, rejectedDelta, reworkDelta)
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("Reject recorded",
		zap.Int64("step_id", stepID),
		zap.String("category", string(input.RejectCategory)),
		zap.Int("quantity", input.Quantity))
	return log, nil
}

// CompleteRework marks a rework entry resolved. It does not change the
// owning step's status.
func (e *Engine) CompleteRework(ctx context.Context, user auth.User, logID int64, finalDisposition string) (*models.RejectLog, error) {
	if user.Name == "" {
		return nil, auth.ErrUnauthenticated
	}

	var log *models.RejectLog
	err := e.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		existing, err := e.rejects.GetByID(tx, logID)
		if err != nil {
			return err
		}
		if existing == nil {
			return ErrRejectLogNotFound
		}

		step, err := e.steps.GetByID(tx, existing.ProcessStepID)
		if err != nil {
			return err
		}
		if step == nil {
			return ErrStepNotFound
		}

		if !auth.CanRecordReject(user.Department, step.ProcessName, user.IsAdmin) {
			required, _ := flow.DepartmentFor(step.ProcessName)
			return &auth.PermissionError{
				Operation:          "complete rework",
				Process:            step.ProcessName,
				RequiredDepartment: required,
			}
		}

		ok, err := e.rejects.CompleteRework(tx, logID, user.Name, finalDisposition, e.now())
		if err != nil {
			return err
		}
		if !ok {
			return ErrRejectLogNotFound
		}

		log, err = e.rejects.GetByID(tx, logID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return log, nil
}

// ListRejects returns a step's reject ledger, oldest first.
func (e *Engine) ListRejects(ctx context.Context, stepID int64) ([]*models.RejectLog, error) {
	step, err := e.steps.GetByID(e.db, stepID)
	if err != nil {
		return nil, err
	}
	if step == nil {
		return nil, ErrStepNotFound
	}
	return e.rejects.ListByStep(e.db, stepID)
}
