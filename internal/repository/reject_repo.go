package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mitrajaya/garment-tracker/internal/models"
	"go.uber.org/zap"
)

// RejectRepository handles the reject/rework ledger.
type RejectRepository struct {
	logger *zap.Logger
}

// NewRejectRepository creates a new reject repository
func NewRejectRepository(logger *zap.Logger) *RejectRepository {
	return &RejectRepository{logger: logger}
}

const rejectColumns = `id, order_id, process_step_id, reject_type, reject_category,
	quantity, description, root_cause, action, reported_by, detected_time,
	rework_completed, rework_completed_time, action_taken_by, final_disposition, created_at`

// Create appends a reject log entry.
func (r *RejectRepository) Create(q Querier, log *models.RejectLog) error {
	query := `
		INSERT INTO reject_logs (
			order_id, process_step_id, reject_type, reject_category,
			quantity, description, root_cause, action, reported_by, detected_time,
			rework_completed, rework_completed_time, action_taken_by, final_disposition
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := q.Exec(query,
		log.OrderID,
		log.ProcessStepID,
		log.RejectType,
		log.RejectCategory,
		log.Quantity,
		log.Description,
		log.RootCause,
		log.Action,
		log.ReportedBy,
		log.DetectedTime,
		log.ReworkCompleted,
		nullTime(log.ReworkCompletedTime),
		log.ActionTakenBy,
		log.FinalDisposition,
	)
	if err != nil {
		r.logger.Error("Failed to create reject log",
			zap.Int64("process_step_id", log.ProcessStepID),
			zap.Error(err))
		return fmt.Errorf("failed to create reject log: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	log.ID = id
	return nil
}

// GetByID retrieves a reject log entry. Returns nil, nil when not found.
func (r *RejectRepository) GetByID(q Querier, id int64) (*models.RejectLog, error) {
	query := `SELECT ` + rejectColumns + ` FROM reject_logs WHERE id = ?`

	rows, err := q.Query(query, id)
	if err != nil {
		r.logger.Error("Failed to get reject log", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get reject log: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	log, err := scanReject(rows)
	if err != nil {
		return nil, err
	}
	return log, rows.Err()
}

// ListByStep returns a step's reject entries, oldest first.
func (r *RejectRepository) ListByStep(q Querier, stepID int64) ([]*models.RejectLog, error) {
	query := `SELECT ` + rejectColumns + ` FROM reject_logs WHERE process_step_id = ? ORDER BY id`

	rows, err := q.Query(query, stepID)
	if err != nil {
		r.logger.Error("Failed to list reject logs", zap.Int64("process_step_id", stepID), zap.Error(err))
		return nil, fmt.Errorf("failed to list reject logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.RejectLog
	for rows.Next() {
		log, err := scanReject(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}

// CompleteRework marks a rework entry resolved. Returns false when the entry
// does not exist, is not rework, or was already resolved.
func (r *RejectRepository) CompleteRework(q Querier, id int64, actionTakenBy, finalDisposition string, completedAt time.Time) (bool, error) {
	query := `
		UPDATE reject_logs
		SET rework_completed = 1, rework_completed_time = ?, action_taken_by = ?, final_disposition = ?
		WHERE id = ? AND reject_category = ? AND rework_completed = 0
	`

	result, err := q.Exec(query, completedAt, actionTakenBy, finalDisposition, id, models.RejectCategoryRework)
	if err != nil {
		r.logger.Error("Failed to complete rework", zap.Int64("id", id), zap.Error(err))
		return false, fmt.Errorf("failed to complete rework: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected == 1, nil
}

func scanReject(rows *sql.Rows) (*models.RejectLog, error) {
	var log models.RejectLog
	var reworkCompletedTime sql.NullTime

	err := rows.Scan(
		&log.ID,
		&log.OrderID,
		&log.ProcessStepID,
		&log.RejectType,
		&log.RejectCategory,
		&log.Quantity,
		&log.Description,
		&log.RootCause,
		&log.Action,
		&log.ReportedBy,
		&log.DetectedTime,
		&log.ReworkCompleted,
		&reworkCompletedTime,
		&log.ActionTakenBy,
		&log.FinalDisposition,
		&log.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan reject log: %w", err)
	}

	log.ReworkCompletedTime = timePtr(reworkCompletedTime)
	return &log, nil
}
