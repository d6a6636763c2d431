package engine

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mitrajaya/garment-tracker/internal/flow"
	"github.com/mitrajaya/garment-tracker/internal/models"
	"github.com/mitrajaya/garment-tracker/migrations"
	"github.com/mitrajaya/garment-tracker/pkg/database"
	"github.com/stretchr/testify/require"
)

// baseTime keeps transfer numbers and durations deterministic.
var baseTime = time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()

	db, err := database.New(database.Config{
		Path:            ":memory:",
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Hour,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.NewMigrator(db, zap.NewNop()).Run(migrations.FS))

	e := New(db, zap.NewNop())
	e.now = func() time.Time { return baseTime }
	return e
}

func setClock(e *Engine, at time.Time) {
	e.now = func() time.Time { return at }
}

func seedOrder(t *testing.T, e *Engine, orderNumber, processFlow string, quantity int) *models.Order {
	t.Helper()

	order := &models.Order{
		OrderNumber:    orderNumber,
		Customer:       "PT Sandang Jaya",
		ProcessFlow:    processFlow,
		CurrentPhase:   models.PhaseProduction,
		CurrentProcess: "cutting",
		CurrentState:   models.StateWaiting,
		TotalQuantity:  quantity,
	}
	require.NoError(t, e.orders.Create(e.db, order))
	return order
}

func seedStep(t *testing.T, e *Engine, order *models.Order, process string, seq int, status models.StepStatus, quantity int) *models.ProcessStep {
	t.Helper()

	waiting := baseTime.Add(-30 * time.Minute)
	dept, _ := flow.DepartmentFor(process)
	step := &models.ProcessStep{
		OrderID:            order.ID,
		ProcessName:        process,
		ProcessPhase:       flow.PhaseFor(process),
		Department:         dept,
		SequenceOrder:      seq,
		Status:             status,
		QuantityReceived:   quantity,
		AddedToWaitingTime: &waiting,
	}
	if status == models.StepStatusInProgress {
		started := baseTime.Add(-20 * time.Minute)
		step.StartedTime = &started
	}
	require.NoError(t, e.steps.Create(e.db, step))
	return step
}
