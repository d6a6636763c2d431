package engine

import (
	"context"

	"github.com/mitrajaya/garment-tracker/internal/models"
)

// Read paths for the API surface. Read access is unrestricted.

// GetStep returns one process step.
func (e *Engine) GetStep(ctx context.Context, stepID int64) (*models.ProcessStep, error) {
	step, err := e.steps.GetByID(e.db, stepID)
	if err != nil {
		return nil, err
	}
	if step == nil {
		return nil, ErrStepNotFound
	}
	return step, nil
}

// ListTransitions returns a step's audit trail, newest first.
func (e *Engine) ListTransitions(ctx context.Context, stepID int64) ([]*models.ProcessTransition, error) {
	step, err := e.steps.GetByID(e.db, stepID)
	if err != nil {
		return nil, err
	}
	if step == nil {
		return nil, ErrStepNotFound
	}
	return e.transitions.ListByStep(e.db, stepID)
}

// OrderDetail bundles an order with its realized steps.
type OrderDetail struct {
	Order *models.Order         `json:"order"`
	Steps []*models.ProcessStep `json:"process_steps"`
}

// GetOrder returns an order with its steps in sequence order.
func (e *Engine) GetOrder(ctx context.Context, orderID int64) (*OrderDetail, error) {
	order, err := e.orders.GetByID(e.db, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	steps, err := e.steps.ListByOrder(e.db, orderID)
	if err != nil {
		return nil, err
	}
	return &OrderDetail{Order: order, Steps: steps}, nil
}

// ListTransfers returns an order's transfer logs, oldest first.
func (e *Engine) ListTransfers(ctx context.Context, orderID int64) ([]*models.TransferLog, error) {
	order, err := e.orders.GetByID(e.db, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return e.transfers.ListByOrder(e.db, orderID)
}
