package repository

import (
	"database/sql"
	"fmt"

	"github.com/mitrajaya/garment-tracker/internal/models"
	"go.uber.org/zap"
)

// StepRepository handles process step database operations
type StepRepository struct {
	logger *zap.Logger
}

// NewStepRepository creates a new step repository
func NewStepRepository(logger *zap.Logger) *StepRepository {
	return &StepRepository{logger: logger}
}

const stepColumns = `id, order_id, process_name, process_phase, department,
	sequence_order, status,
	quantity_received, quantity_completed, quantity_rejected, quantity_rework,
	arrived_at_ppic_time, added_to_waiting_time, assigned_time, started_time, completed_time,
	waiting_duration, processing_duration, total_duration, created_at, updated_at`

// Create inserts a new process step.
func (r *StepRepository) Create(q Querier, step *models.ProcessStep) error {
	query := `
		INSERT INTO process_steps (
			order_id, process_name, process_phase, department, sequence_order, status,
			quantity_received, quantity_completed, quantity_rejected, quantity_rework,
			arrived_at_ppic_time, added_to_waiting_time, assigned_time, started_time, completed_time,
			waiting_duration, processing_duration, total_duration
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := q.Exec(query,
		step.OrderID,
		step.ProcessName,
		step.ProcessPhase,
		step.Department,
		step.SequenceOrder,
		step.Status,
		step.QuantityReceived,
		step.QuantityCompleted,
		step.QuantityRejected,
		step.QuantityRework,
		nullTime(step.ArrivedAtPpicTime),
		nullTime(step.AddedToWaitingTime),
		nullTime(step.AssignedTime),
		nullTime(step.StartedTime),
		nullTime(step.CompletedTime),
		step.WaitingDuration,
		step.ProcessingDuration,
		step.TotalDuration,
	)
	if err != nil {
		r.logger.Error("Failed to create process step",
			zap.Int64("order_id", step.OrderID),
			zap.String("process", step.ProcessName),
			zap.Error(err))
		return fmt.Errorf("failed to create process step: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	step.ID = id
	return nil
}

// GetByID retrieves a process step by ID. Returns nil, nil when not found.
func (r *StepRepository) GetByID(q Querier, id int64) (*models.ProcessStep, error) {
	query := `SELECT ` + stepColumns + ` FROM process_steps WHERE id = ?`

	rows, err := q.Query(query, id)
	if err != nil {
		r.logger.Error("Failed to get process step", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get process step: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	step, err := scanStep(rows)
	if err != nil {
		return nil, err
	}
	return step, rows.Err()
}

// ListByOrder returns an order's steps in sequence order.
func (r *StepRepository) ListByOrder(q Querier, orderID int64) ([]*models.ProcessStep, error) {
	query := `SELECT ` + stepColumns + ` FROM process_steps WHERE order_id = ? ORDER BY sequence_order, id`

	rows, err := q.Query(query, orderID)
	if err != nil {
		r.logger.Error("Failed to list process steps", zap.Int64("order_id", orderID), zap.Error(err))
		return nil, fmt.Errorf("failed to list process steps: %w", err)
	}
	defer rows.Close()

	var steps []*models.ProcessStep
	for rows.Next() {
		step, err := scanStep(rows)
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	return steps, rows.Err()
}

// UpdateExecution writes the step's mutable execution fields, guarded on the
// expected current status. Returns false when the guard did not match, which
// means a concurrent action already moved the step.
func (r *StepRepository) UpdateExecution(q Querier, step *models.ProcessStep, fromStatus models.StepStatus) (bool, error) {
	return r.updateExecution(q, step, "status = ?", fromStatus)
}

// UpdateExecutionUnlessCompleted is the guard variant for the legacy start
// action, which is permitted from any non-completed status.
func (r *StepRepository) UpdateExecutionUnlessCompleted(q Querier, step *models.ProcessStep) (bool, error) {
	return r.updateExecution(q, step, "status != ?", models.StepStatusCompleted)
}

func (r *StepRepository) updateExecution(q Querier, step *models.ProcessStep, guard string, guardArg models.StepStatus) (bool, error) {
	query := `
		UPDATE process_steps
		SET status = ?,
			quantity_received = ?, quantity_completed = ?,
			added_to_waiting_time = ?, started_time = ?, completed_time = ?,
			waiting_duration = ?, processing_duration = ?, total_duration = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND ` + guard

	result, err := q.Exec(query,
		step.Status,
		step.QuantityReceived,
		step.QuantityCompleted,
		nullTime(step.AddedToWaitingTime),
		nullTime(step.StartedTime),
		nullTime(step.CompletedTime),
		step.WaitingDuration,
		step.ProcessingDuration,
		step.TotalDuration,
		step.ID,
		guardArg,
	)
	if err != nil {
		r.logger.Error("Failed to update process step", zap.Int64("id", step.ID), zap.Error(err))
		return false, fmt.Errorf("failed to update process step: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected == 1, nil
}

// AddRejectQuantity increments the step's rejected or rework aggregate.
func (r *StepRepository) AddRejectQuantity(q Querier, stepID int64, category models.RejectCategory, quantity int) error {
	column := "quantity_rejected"
	if category == models.RejectCategoryRework {
		column = "quantity_rework"
	}

	query := fmt.Sprintf(
		"UPDATE process_steps SET %s = %s + ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		column, column,
	)
	if _, err := q.Exec(query, quantity, stepID); err != nil {
		r.logger.Error("Failed to add reject quantity", zap.Int64("id", stepID), zap.Error(err))
		return fmt.Errorf("failed to add reject quantity: %w", err)
	}
	return nil
}

// MaxSequence returns the highest sequence_order among an order's steps, or
// zero when it has none.
func (r *StepRepository) MaxSequence(q Querier, orderID int64) (int, error) {
	var max sql.NullInt64
	err := q.QueryRow(
		"SELECT MAX(sequence_order) FROM process_steps WHERE order_id = ?",
		orderID,
	).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("failed to get max sequence: %w", err)
	}
	return int(max.Int64), nil
}

func scanStep(rows *sql.Rows) (*models.ProcessStep, error) {
	var step models.ProcessStep
	var arrived, added, assigned, started, completed sql.NullTime
	var waiting, processing, total sql.NullInt64

	err := rows.Scan(
		&step.ID,
		&step.OrderID,
		&step.ProcessName,
		&step.ProcessPhase,
		&step.Department,
		&step.SequenceOrder,
		&step.Status,
		&step.QuantityReceived,
		&step.QuantityCompleted,
		&step.QuantityRejected,
		&step.QuantityRework,
		&arrived,
		&added,
		&assigned,
		&started,
		&completed,
		&waiting,
		&processing,
		&total,
		&step.CreatedAt,
		&step.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan process step: %w", err)
	}

	step.ArrivedAtPpicTime = timePtr(arrived)
	step.AddedToWaitingTime = timePtr(added)
	step.AssignedTime = timePtr(assigned)
	step.StartedTime = timePtr(started)
	step.CompletedTime = timePtr(completed)
	step.WaitingDuration = int64Ptr(waiting)
	step.ProcessingDuration = int64Ptr(processing)
	step.TotalDuration = int64Ptr(total)
	return &step, nil
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}
