package engine

import (
	"context"
	"testing"

	"github.com/mitrajaya/garment-tracker/internal/auth"
	"github.com/mitrajaya/garment-tracker/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ppicUser = auth.User{Name: "Gita", Department: "PPIC"}

func TestAssignNextProcess(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	order := seedOrder(t, e, "ORD-2025-030", "", 80)
	seedStep(t, e, order, "cutting", 1, models.StepStatusCompleted, 80)

	res, err := e.AssignNextProcess(ctx, ppicUser, order.ID, "finishing", "skip sewing, outsourced")
	require.NoError(t, err)

	step := res.Step
	assert.Equal(t, "finishing", step.ProcessName)
	assert.Equal(t, "Finishing", step.Department)
	assert.Equal(t, 2, step.SequenceOrder)
	assert.Equal(t, models.StepStatusPending, step.Status)
	require.NotNil(t, step.AssignedTime)
	require.NotNil(t, step.AddedToWaitingTime)

	assert.Equal(t, models.StateAtPPIC, res.Transition.FromState)
	assert.Equal(t, models.StateWaiting, res.Transition.ToState)
	assert.Equal(t, "Gita", res.Transition.PerformedBy)
	assert.Equal(t, "skip sewing, outsourced", res.Transition.Notes)

	detail, err := e.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "finishing", detail.Order.CurrentProcess)
	assert.Equal(t, models.StateWaiting, detail.Order.CurrentState)
}

func TestAssignNextProcess_CarriesLastCompletedQuantity(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	order := seedOrder(t, e, "ORD-2025-031", "", 100)
	done := seedStep(t, e, order, "cutting", 1, models.StepStatusCompleted, 100)
	done.QuantityCompleted = 92
	ok, err := e.steps.UpdateExecution(e.db, done, models.StepStatusCompleted)
	require.NoError(t, err)
	require.True(t, ok)

	res, err := e.AssignNextProcess(ctx, ppicUser, order.ID, "sewing", "")
	require.NoError(t, err)
	assert.Equal(t, 92, res.Step.QuantityReceived)
}

func TestAssignNextProcess_FreshOrderUsesTotalQuantity(t *testing.T) {
	e := newTestEngine(t)

	order := seedOrder(t, e, "ORD-2025-032", "", 70)

	res, err := e.AssignNextProcess(context.Background(), ppicUser, order.ID, "cutting", "")
	require.NoError(t, err)
	assert.Equal(t, 70, res.Step.QuantityReceived)
	assert.Equal(t, 1, res.Step.SequenceOrder)
}

func TestAssignNextProcess_UnavailableProcess(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	order := seedOrder(t, e, "ORD-2025-033", "", 40)
	seedStep(t, e, order, "cutting", 1, models.StepStatusCompleted, 40)
	seedStep(t, e, order, "sewing", 2, models.StepStatusInProgress, 40)

	// Completed and in-flight processes are both off the table.
	_, err := e.AssignNextProcess(ctx, ppicUser, order.ID, "cutting", "")
	assert.ErrorIs(t, err, ErrProcessUnavailable)

	_, err = e.AssignNextProcess(ctx, ppicUser, order.ID, "sewing", "")
	assert.ErrorIs(t, err, ErrProcessUnavailable)

	_, err = e.AssignNextProcess(ctx, ppicUser, order.ID, "embroidery", "")
	assert.ErrorIs(t, err, ErrProcessUnavailable)
}

func TestAssignNextProcess_RequiresCoordinator(t *testing.T) {
	e := newTestEngine(t)
	order := seedOrder(t, e, "ORD-2025-034", "", 40)

	_, err := e.AssignNextProcess(context.Background(), cuttingUser, order.ID, "sewing", "")
	var permErr *auth.PermissionError
	require.ErrorAs(t, err, &permErr)
	assert.Equal(t, "PPIC", permErr.RequiredDepartment)

	// Admins may assign regardless of department.
	_, err = e.AssignNextProcess(context.Background(), adminUser, order.ID, "sewing", "")
	require.NoError(t, err)
}

func TestAssignNextProcess_OrderNotFound(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.AssignNextProcess(context.Background(), ppicUser, 9999, "sewing", "")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}
