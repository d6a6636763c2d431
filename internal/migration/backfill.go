// Package migration reconstructs process steps and transitions for orders
// created under the legacy single-status model. One-shot batch, not part of
// steady-state operation.
package migration

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/mitrajaya/garment-tracker/internal/flow"
	"github.com/mitrajaya/garment-tracker/internal/models"
	"github.com/mitrajaya/garment-tracker/internal/repository"
	"github.com/mitrajaya/garment-tracker/pkg/database"
	"go.uber.org/zap"
)

// legacyStatusProcess maps the old single order status to the canonical
// process the order was sitting at. Anything unmapped (on_hold, rejected and
// other one-off statuses) falls back to draft.
var legacyStatusProcess = map[string]string{
	"draft":     "cutting",
	"cutting":   "cutting",
	"sewing":    "sewing",
	"finishing": "finishing",
	"qc_check":  "qc",
	"packing":   "packing",
	"shipped":   "shipping",
}

const (
	fallbackLegacyStatus = "draft"

	// Synthesized step timestamps are spaced this far apart, counted from
	// the order date.
	stepSpacing = 48 * time.Hour

	deliveryDeadlineOffset = 72 * time.Hour
)

// Report summarizes one backfill run.
type Report struct {
	Total    int
	Migrated int
	Skipped  int
	Failed   int
}

// VerifyReport lists orders left without reconstructed state.
type VerifyReport struct {
	OrdersWithoutSteps       []string
	OrdersWithoutTransitions []string
}

// Backfill reconstructs step-model state for legacy orders.
type Backfill struct {
	db          *database.DB
	orders      *repository.OrderRepository
	steps       *repository.StepRepository
	transitions *repository.TransitionRepository
	logger      *zap.Logger
}

// NewBackfill creates a new backfill procedure.
func NewBackfill(db *database.DB, logger *zap.Logger) *Backfill {
	return &Backfill{
		db:          db,
		orders:      repository.NewOrderRepository(logger),
		steps:       repository.NewStepRepository(logger),
		transitions: repository.NewTransitionRepository(logger),
		logger:      logger,
	}
}

// Run migrates every legacy order. Each order gets its own transaction; a
// failure is logged and skipped so one bad order never aborts the batch.
func (b *Backfill) Run(ctx context.Context) (*Report, error) {
	orders, err := b.orders.ListLegacy(b.db)
	if err != nil {
		return nil, err
	}

	report := &Report{Total: len(orders)}
	for _, order := range orders {
		migrated, err := b.migrateOrder(ctx, order)
		switch {
		case err != nil:
			report.Failed++
			b.logger.Error("Failed to migrate order",
				zap.String("order_number", order.OrderNumber),
				zap.Error(err))
		case migrated:
			report.Migrated++
		default:
			report.Skipped++
		}
	}

	b.logger.Info("Legacy order migration finished",
		zap.Int("total", report.Total),
		zap.Int("migrated", report.Migrated),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed))
	return report, nil
}

func (b *Backfill) migrateOrder(ctx context.Context, order *models.Order) (bool, error) {
	migrated := false
	err := b.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		existing, err := b.steps.ListByOrder(tx, order.ID)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			b.logger.Debug("Order already has process steps, skipping",
				zap.String("order_number", order.OrderNumber))
			return nil
		}

		status := order.LegacyStatus
		currentProcess, ok := legacyStatusProcess[status]
		if !ok {
			b.logger.Warn("Unmapped legacy status, falling back to draft",
				zap.String("order_number", order.OrderNumber),
				zap.String("legacy_status", status))
			currentProcess = legacyStatusProcess[fallbackLegacyStatus]
		}

		canonicalFlow := flow.DefaultFlow()
		orderDate := order.CreatedAt
		if order.OrderDate != nil {
			orderDate = *order.OrderDate
		}

		if order.TargetDate != nil {
			prod := *order.TargetDate
			deliv := order.TargetDate.Add(deliveryDeadlineOffset)
			order.ProductionDeadline = &prod
			order.DeliveryDeadline = &deliv
		}

		currentIndex := indexOf(canonicalFlow, currentProcess)
		for i := 0; i <= currentIndex; i++ {
			process := canonicalFlow[i]
			isCurrent := i == currentIndex
			if err := b.synthesizeStep(tx, order, process, i, orderDate, isCurrent); err != nil {
				return err
			}
		}

		serialized, err := json.Marshal(canonicalFlow)
		if err != nil {
			return err
		}
		order.ProcessFlow = string(serialized)
		order.CurrentProcess = currentProcess
		order.CurrentPhase = flow.PhaseFor(currentProcess)
		order.CurrentState = models.StateInProgress
		if err := b.orders.UpdateMigrated(tx, order); err != nil {
			return err
		}

		migrated = true
		return nil
	})
	return migrated, err
}

func (b *Backfill) synthesizeStep(tx *sql.Tx, order *models.Order, process string, index int, orderDate time.Time, isCurrent bool) error {
	stepTime := orderDate.Add(time.Duration(index) * stepSpacing)
	dept, _ := flow.DepartmentFor(process)

	step := &models.ProcessStep{
		OrderID:            order.ID,
		ProcessName:        process,
		ProcessPhase:       flow.PhaseFor(process),
		Department:         dept,
		SequenceOrder:      index + 1,
		QuantityReceived:   order.TotalQuantity,
		AddedToWaitingTime: &stepTime,
		StartedTime:        &stepTime,
	}

	toState := models.StateCompleted
	if isCurrent {
		step.Status = models.StepStatusInProgress
		toState = models.StateAtPPIC
	} else {
		step.Status = models.StepStatusCompleted
		step.CompletedTime = &stepTime
		step.QuantityCompleted = order.TotalQuantity
	}

	if err := b.steps.Create(tx, step); err != nil {
		return err
	}

	transition := &models.ProcessTransition{
		OrderID:        order.ID,
		ProcessStepID:  step.ID,
		FromState:      models.StateAtPPIC,
		ToState:        toState,
		TransitionTime: stepTime,
		PerformedBy:    models.ActorMigrationScript,
		ProcessName:    process,
		Department:     dept,
		Quantity:       order.TotalQuantity,
		Notes:          "Reconstructed from legacy status " + order.LegacyStatus,
	}
	return b.transitions.Create(tx, transition)
}

// Verify reports orders lacking reconstructed state. Read-only.
func (b *Backfill) Verify(ctx context.Context) (*VerifyReport, error) {
	withoutSteps, err := b.orders.OrderNumbersWithout(b.db, "process_steps")
	if err != nil {
		return nil, err
	}
	withoutTransitions, err := b.orders.OrderNumbersWithout(b.db, "process_transitions")
	if err != nil {
		return nil, err
	}

	report := &VerifyReport{
		OrdersWithoutSteps:       withoutSteps,
		OrdersWithoutTransitions: withoutTransitions,
	}
	if len(withoutSteps) > 0 || len(withoutTransitions) > 0 {
		b.logger.Warn("Verification found inconsistent orders",
			zap.Strings("without_steps", withoutSteps),
			zap.Strings("without_transitions", withoutTransitions))
	}
	return report, nil
}

func indexOf(list []string, value string) int {
	for i, v := range list {
		if v == value {
			return i
		}
	}
	return 0
}
