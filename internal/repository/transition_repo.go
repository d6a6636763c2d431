package repository

import (
	"fmt"

	"github.com/mitrajaya/garment-tracker/internal/models"
	"go.uber.org/zap"
)

// TransitionRepository handles the append-only transition audit trail.
type TransitionRepository struct {
	logger *zap.Logger
}

// NewTransitionRepository creates a new transition repository
func NewTransitionRepository(logger *zap.Logger) *TransitionRepository {
	return &TransitionRepository{logger: logger}
}

// Create appends a transition record. Records are never updated or deleted.
func (r *TransitionRepository) Create(q Querier, t *models.ProcessTransition) error {
	query := `
		INSERT INTO process_transitions (
			order_id, process_step_id, from_state, to_state, transition_time,
			performed_by, process_name, department, quantity, notes
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := q.Exec(query,
		t.OrderID,
		t.ProcessStepID,
		t.FromState,
		t.ToState,
		t.TransitionTime,
		t.PerformedBy,
		t.ProcessName,
		t.Department,
		t.Quantity,
		t.Notes,
	)
	if err != nil {
		r.logger.Error("Failed to create transition",
			zap.Int64("process_step_id", t.ProcessStepID),
			zap.Error(err))
		return fmt.Errorf("failed to create transition: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	t.ID = id
	return nil
}

// ListByStep returns a step's transitions, newest first.
func (r *TransitionRepository) ListByStep(q Querier, stepID int64) ([]*models.ProcessTransition, error) {
	query := `
		SELECT id, order_id, process_step_id, from_state, to_state, transition_time,
			performed_by, process_name, department, quantity, notes
		FROM process_transitions
		WHERE process_step_id = ?
		ORDER BY transition_time DESC, id DESC
	`

	rows, err := q.Query(query, stepID)
	if err != nil {
		r.logger.Error("Failed to list transitions", zap.Int64("process_step_id", stepID), zap.Error(err))
		return nil, fmt.Errorf("failed to list transitions: %w", err)
	}
	defer rows.Close()

	var transitions []*models.ProcessTransition
	for rows.Next() {
		var t models.ProcessTransition
		err := rows.Scan(
			&t.ID,
			&t.OrderID,
			&t.ProcessStepID,
			&t.FromState,
			&t.ToState,
			&t.TransitionTime,
			&t.PerformedBy,
			&t.ProcessName,
			&t.Department,
			&t.Quantity,
			&t.Notes,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transition: %w", err)
		}
		transitions = append(transitions, &t)
	}
	return transitions, rows.Err()
}

// CountByOrder returns how many transitions exist for an order.
func (r *TransitionRepository) CountByOrder(q Querier, orderID int64) (int, error) {
	var count int
	err := q.QueryRow(
		"SELECT COUNT(*) FROM process_transitions WHERE order_id = ?",
		orderID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count transitions: %w", err)
	}
	return count, nil
}
