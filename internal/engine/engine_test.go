package engine

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/mitrajaya/garment-tracker/internal/auth"
	"github.com/mitrajaya/garment-tracker/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	cuttingUser = auth.User{Name: "Ayu", Department: "Cutting"}
	sewingUser  = auth.User{Name: "Budi", Department: "Sewing"}
	packingUser = auth.User{Name: "Citra", Department: "Packing"}
	adminUser   = auth.User{Name: "Dewi", Department: "Office", IsAdmin: true}
)

func TestExecute_FullFlowToDelivered(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	order := seedOrder(t, e, "ORD-2025-001", `["cutting","sewing","packing"]`, 100)
	cutting := seedStep(t, e, order, "cutting", 1, models.StepStatusPending, 100)

	// Cutting receives, works two hours, completes 95 good pieces.
	res, err := e.Execute(ctx, cuttingUser, cutting.ID, ReceiveAction{}, "", "")
	require.NoError(t, err)
	assert.Equal(t, models.StepStatusInProgress, res.Step.Status)
	require.NotNil(t, res.Step.WaitingDuration)
	assert.Equal(t, int64(30), *res.Step.WaitingDuration)
	assert.Equal(t, models.StateWaiting, res.Transition.FromState)
	assert.Equal(t, models.StateInProgress, res.Transition.ToState)
	assert.Equal(t, "Ayu", res.Transition.PerformedBy)

	setClock(e, baseTime.Add(2*time.Hour))
	res, err = e.Execute(ctx, cuttingUser, cutting.ID, CompleteAction{Quantity: 95}, "", "first cut done")
	require.NoError(t, err)
	assert.Equal(t, models.StepStatusCompleted, res.Step.Status)
	assert.Equal(t, 95, res.Step.QuantityCompleted)
	require.NotNil(t, res.Step.ProcessingDuration)
	assert.Equal(t, int64(120), *res.Step.ProcessingDuration)

	require.NotNil(t, res.Transfer)
	assert.Equal(t, "TRF-2025-00001", res.Transfer.TransferNumber)
	assert.Equal(t, "cutting", res.Transfer.FromProcess)
	assert.Equal(t, "sewing", res.Transfer.ToProcess)
	assert.Equal(t, "Sewing", res.Transfer.ToDepartment)
	assert.Equal(t, 95, res.Transfer.QuantityTransferred)
	assert.Equal(t, models.TransferStatusPending, res.Transfer.Status)

	require.NotNil(t, res.NextStep)
	sewing := res.NextStep
	assert.Equal(t, "sewing", sewing.ProcessName)
	assert.Equal(t, 2, sewing.SequenceOrder)
	assert.Equal(t, models.StepStatusPending, sewing.Status)
	assert.Equal(t, 95, sewing.QuantityReceived)

	detail, err := e.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "sewing", detail.Order.CurrentProcess)
	assert.Equal(t, models.StateWaiting, detail.Order.CurrentState)
	assert.Equal(t, 95, detail.Order.TotalCompleted)

	// Sewing: quantity omitted defaults to the received quantity.
	setClock(e, baseTime.Add(3*time.Hour))
	_, err = e.Execute(ctx, sewingUser, sewing.ID, ReceiveAction{}, "", "")
	require.NoError(t, err)
	setClock(e, baseTime.Add(5*time.Hour))
	res, err = e.Execute(ctx, sewingUser, sewing.ID, CompleteAction{}, "", "")
	require.NoError(t, err)
	assert.Equal(t, 95, res.Step.QuantityCompleted)
	assert.Equal(t, "TRF-2025-00002", res.Transfer.TransferNumber)
	assert.Equal(t, "packing", res.Transfer.ToProcess)
	assert.Equal(t, models.PhaseDelivery, res.NextStep.ProcessPhase)

	// Packing is last in this order's flow: completing it delivers the order.
	packing := res.NextStep
	setClock(e, baseTime.Add(6*time.Hour))
	_, err = e.Execute(ctx, packingUser, packing.ID, ReceiveAction{}, "", "")
	require.NoError(t, err)
	setClock(e, baseTime.Add(7*time.Hour))
	res, err = e.Execute(ctx, packingUser, packing.ID, CompleteAction{}, "", "")
	require.NoError(t, err)
	assert.Nil(t, res.NextStep)
	assert.Nil(t, res.Transfer)

	detail, err = e.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "delivered", detail.Order.CurrentProcess)
	assert.Equal(t, models.StateCompleted, detail.Order.CurrentState)
	require.Len(t, detail.Steps, 3)
	for i, step := range detail.Steps {
		assert.Equal(t, i+1, step.SequenceOrder)
		assert.Equal(t, models.StepStatusCompleted, step.Status)
	}

	transfers, err := e.ListTransfers(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, transfers, 2)
	assert.NotEqual(t, transfers[0].TransferNumber, transfers[1].TransferNumber)
}

func TestExecute_SuccessorGetsSyntheticTransition(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	order := seedOrder(t, e, "ORD-2025-002", `["cutting","sewing"]`, 50)
	cutting := seedStep(t, e, order, "cutting", 1, models.StepStatusInProgress, 50)

	res, err := e.Execute(ctx, cuttingUser, cutting.ID, CompleteAction{}, "", "")
	require.NoError(t, err)
	require.NotNil(t, res.NextStep)

	transitions, err := e.ListTransitions(ctx, res.NextStep.ID)
	require.NoError(t, err)
	require.Len(t, transitions, 1)
	assert.Equal(t, models.StateAtPPIC, transitions[0].FromState)
	assert.Equal(t, models.StateWaiting, transitions[0].ToState)
	assert.Equal(t, models.ActorSystem, transitions[0].PerformedBy)
	assert.Equal(t, "Auto-created after cutting completion", transitions[0].Notes)
}

func TestExecute_CompletePendingStep_InvalidTransition(t *testing.T) {
	e := newTestEngine(t)
	order := seedOrder(t, e, "ORD-2025-003", "", 10)
	step := seedStep(t, e, order, "cutting", 1, models.StepStatusPending, 10)

	_, err := e.Execute(context.Background(), cuttingUser, step.ID, CompleteAction{Quantity: 10}, "", "")
	require.Error(t, err)
	assert.True(t, IsInvalidTransition(err))
	assert.Contains(t, err.Error(), "requires status in_progress")
}

func TestExecute_ReceiveTwice_InvalidTransition(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	order := seedOrder(t, e, "ORD-2025-004", "", 10)
	step := seedStep(t, e, order, "cutting", 1, models.StepStatusPending, 10)

	_, err := e.Execute(ctx, cuttingUser, step.ID, ReceiveAction{}, "", "")
	require.NoError(t, err)

	_, err = e.Execute(ctx, cuttingUser, step.ID, ReceiveAction{}, "", "")
	require.Error(t, err)
	assert.True(t, IsInvalidTransition(err))
}

func TestExecute_WrongDepartmentDenied(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	order := seedOrder(t, e, "ORD-2025-005", "", 10)
	step := seedStep(t, e, order, "cutting", 1, models.StepStatusPending, 10)

	_, err := e.Execute(ctx, sewingUser, step.ID, ReceiveAction{}, "", "")
	require.Error(t, err)

	var permErr *auth.PermissionError
	require.ErrorAs(t, err, &permErr)
	assert.Equal(t, "Cutting", permErr.RequiredDepartment)
	assert.Equal(t, "cutting", permErr.Process)

	// Denied action must leave no trace.
	transitions, err := e.ListTransitions(ctx, step.ID)
	require.NoError(t, err)
	assert.Empty(t, transitions)

	reloaded, err := e.GetStep(ctx, step.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StepStatusPending, reloaded.Status)
}

func TestExecute_AdminBypassesDepartment(t *testing.T) {
	e := newTestEngine(t)
	order := seedOrder(t, e, "ORD-2025-006", "", 10)
	step := seedStep(t, e, order, "cutting", 1, models.StepStatusPending, 10)

	_, err := e.Execute(context.Background(), adminUser, step.ID, ReceiveAction{}, "", "")
	require.NoError(t, err)
}

func TestExecute_Unauthenticated(t *testing.T) {
	e := newTestEngine(t)
	order := seedOrder(t, e, "ORD-2025-007", "", 10)
	step := seedStep(t, e, order, "cutting", 1, models.StepStatusPending, 10)

	_, err := e.Execute(context.Background(), auth.User{}, step.ID, ReceiveAction{}, "", "")
	assert.ErrorIs(t, err, auth.ErrUnauthenticated)
}

func TestExecute_StepNotFound(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.Execute(context.Background(), adminUser, 9999, ReceiveAction{}, "", "")
	assert.ErrorIs(t, err, ErrStepNotFound)
}

func TestExecute_StartLegacyAction(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	order := seedOrder(t, e, "ORD-2025-008", "", 10)
	step := seedStep(t, e, order, "cutting", 1, models.StepStatusPending, 10)

	res, err := e.Execute(ctx, cuttingUser, step.ID, StartAction{}, "Eko", "restarted after machine fix")
	require.NoError(t, err)
	assert.Equal(t, models.StepStatusInProgress, res.Step.Status)
	assert.Equal(t, models.StateWaiting, res.Transition.FromState)
	assert.Equal(t, "Eko", res.Transition.PerformedBy)

	// Start on a completed step is the one thing it refuses.
	setClock(e, baseTime.Add(time.Hour))
	_, err = e.Execute(ctx, cuttingUser, step.ID, CompleteAction{}, "", "")
	require.NoError(t, err)
	_, err = e.Execute(ctx, cuttingUser, step.ID, StartAction{}, "", "")
	assert.True(t, IsInvalidTransition(err))
}

func TestExecute_TransferNumbersSequentialAcrossOrders(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	seen := make(map[string]bool)
	for _, num := range []string{"ORD-2025-010", "ORD-2025-011", "ORD-2025-012"} {
		order := seedOrder(t, e, num, `["cutting","sewing"]`, 20)
		step := seedStep(t, e, order, "cutting", 1, models.StepStatusInProgress, 20)

		res, err := e.Execute(ctx, cuttingUser, step.ID, CompleteAction{}, "", "")
		require.NoError(t, err)
		require.NotNil(t, res.Transfer)
		assert.False(t, seen[res.Transfer.TransferNumber], "duplicate transfer number %s", res.Transfer.TransferNumber)
		seen[res.Transfer.TransferNumber] = true
		assert.Regexp(t, `^TRF-2025-\d{5}$`, res.Transfer.TransferNumber)
	}
	assert.Len(t, seen, 3)
}

func TestExecute_ConcurrentCompletionsGetDistinctTransferNumbers(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	const workers = 8
	stepIDs := make([]int64, workers)
	for i := 0; i < workers; i++ {
		order := seedOrder(t, e, fmt.Sprintf("ORD-2025-05%d", i), `["cutting","sewing"]`, 20)
		step := seedStep(t, e, order, "cutting", 1, models.StepStatusInProgress, 20)
		stepIDs[i] = step.ID
	}

	numbers := make(chan string, workers)
	var wg sync.WaitGroup
	for _, id := range stepIDs {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			res, err := e.Execute(ctx, cuttingUser, id, CompleteAction{}, "", "")
			if err != nil {
				t.Errorf("Execute(complete, step %d) failed: %v", id, err)
				return
			}
			numbers <- res.Transfer.TransferNumber
		}(id)
	}
	wg.Wait()
	close(numbers)

	seen := make(map[string]bool)
	for num := range numbers {
		assert.False(t, seen[num], "duplicate transfer number %s", num)
		seen[num] = true
		assert.Regexp(t, `^TRF-2025-\d{5}$`, num)
	}
	assert.Len(t, seen, workers)
}

func TestExecute_GuardMismatchReportsStoredStatus(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	order := seedOrder(t, e, "ORD-2025-015", "", 10)
	step := seedStep(t, e, order, "cutting", 1, models.StepStatusPending, 10)

	// A copy that believes the step already started, while the stored row is
	// still pending. The guarded update matches nothing and the error must
	// carry the stored status, not the copy's target status.
	stale := *step
	stale.Status = models.StepStatusInProgress
	started := baseTime
	stale.StartedTime = &started

	err := e.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := e.applyComplete(tx, &stale, CompleteAction{}, "Ayu", "", baseTime)
		return err
	})

	var ite *InvalidTransitionError
	require.ErrorAs(t, err, &ite)
	assert.Equal(t, models.StepStatusPending, ite.Actual)
	assert.Equal(t, string(models.StepStatusInProgress), ite.Expected)
}

func TestExecute_ReceiveMarksInboundTransferReceived(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	order := seedOrder(t, e, "ORD-2025-013", `["cutting","sewing"]`, 40)
	cutting := seedStep(t, e, order, "cutting", 1, models.StepStatusInProgress, 40)

	res, err := e.Execute(ctx, cuttingUser, cutting.ID, CompleteAction{}, "", "")
	require.NoError(t, err)

	setClock(e, baseTime.Add(45*time.Minute))
	_, err = e.Execute(ctx, sewingUser, res.NextStep.ID, ReceiveAction{}, "", "")
	require.NoError(t, err)

	transfers, err := e.ListTransfers(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, transfers, 1)
	assert.Equal(t, models.TransferStatusReceived, transfers[0].Status)
	assert.True(t, transfers[0].IsReceived)
	assert.Equal(t, "Budi", transfers[0].ReceivedBy)
	require.NotNil(t, transfers[0].ReceivedDate)
}

func TestExecute_UnparseableFlowFallsBackToDefault(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	order := seedOrder(t, e, "ORD-2025-014", "not json at all", 15)
	cutting := seedStep(t, e, order, "cutting", 1, models.StepStatusInProgress, 15)

	res, err := e.Execute(ctx, cuttingUser, cutting.ID, CompleteAction{}, "", "")
	require.NoError(t, err)
	require.NotNil(t, res.NextStep)
	assert.Equal(t, "sewing", res.NextStep.ProcessName)
}

func TestParseAction(t *testing.T) {
	tests := []struct {
		name     string
		action   string
		quantity int
		want     string
		wantErr  bool
	}{
		{"receive", "receive", 0, "receive", false},
		{"start", "start", 0, "start", false},
		{"complete", "complete", 80, "complete", false},
		{"unknown", "ship", 0, "", true},
		{"empty", "", 0, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAction(tt.action, tt.quantity)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownAction)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, actionName(got))
		})
	}
}

func TestMinutesBetween_Rounds(t *testing.T) {
	from := time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC)

	assert.Equal(t, int64(0), minutesBetween(from, from.Add(20*time.Second)))
	assert.Equal(t, int64(1), minutesBetween(from, from.Add(40*time.Second)))
	assert.Equal(t, int64(90), minutesBetween(from, from.Add(90*time.Minute)))
}
