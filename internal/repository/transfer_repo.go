package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mitrajaya/garment-tracker/internal/models"
	"go.uber.org/zap"
)

// TransferRepository handles transfer log database operations and the
// per-year transfer number sequence.
type TransferRepository struct {
	logger *zap.Logger
}

// NewTransferRepository creates a new transfer repository
func NewTransferRepository(logger *zap.Logger) *TransferRepository {
	return &TransferRepository{logger: logger}
}

// NextTransferNumber allocates the next TRF-{year}-{seq} number. The
// increment is a single upsert inside the caller's transaction, so two
// concurrent completions in the same year can never draw the same number.
func (r *TransferRepository) NextTransferNumber(q Querier, year int) (string, error) {
	_, err := q.Exec(`
		INSERT INTO transfer_sequences (year, last_number) VALUES (?, 1)
		ON CONFLICT(year) DO UPDATE SET last_number = last_number + 1`,
		year,
	)
	if err != nil {
		r.logger.Error("Failed to advance transfer sequence", zap.Int("year", year), zap.Error(err))
		return "", fmt.Errorf("failed to advance transfer sequence: %w", err)
	}

	var n int64
	if err := q.QueryRow("SELECT last_number FROM transfer_sequences WHERE year = ?", year).Scan(&n); err != nil {
		return "", fmt.Errorf("failed to read transfer sequence: %w", err)
	}

	return fmt.Sprintf("TRF-%04d-%05d", year, n), nil
}

// Create inserts a new transfer log.
func (r *TransferRepository) Create(q Querier, t *models.TransferLog) error {
	query := `
		INSERT INTO transfer_logs (
			transfer_number, order_id, process_step_id,
			from_process, from_department, to_process, to_department,
			transfer_date, handed_over_by,
			quantity_transferred, quantity_completed, quantity_rejected, quantity_rework,
			reject_summary, processing_duration, waiting_duration,
			status, is_received, received_by, received_date, notes
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := q.Exec(query,
		t.TransferNumber,
		t.OrderID,
		t.ProcessStepID,
		t.FromProcess,
		t.FromDepartment,
		t.ToProcess,
		t.ToDepartment,
		t.TransferDate,
		t.HandedOverBy,
		t.QuantityTransferred,
		t.QuantityCompleted,
		t.QuantityRejected,
		t.QuantityRework,
		t.RejectSummary,
		t.ProcessingDuration,
		t.WaitingDuration,
		t.Status,
		t.IsReceived,
		t.ReceivedBy,
		nullTime(t.ReceivedDate),
		t.Notes,
	)
	if err != nil {
		r.logger.Error("Failed to create transfer log",
			zap.String("transfer_number", t.TransferNumber),
			zap.Error(err))
		return fmt.Errorf("failed to create transfer log: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	t.ID = id
	return nil
}

// MarkReceived marks the oldest pending transfer into the given process as
// received. Returns false when no pending transfer matched.
func (r *TransferRepository) MarkReceived(q Querier, orderID int64, toProcess, receivedBy string, receivedAt time.Time) (bool, error) {
	query := `
		UPDATE transfer_logs
		SET status = ?, is_received = 1, received_by = ?, received_date = ?
		WHERE id = (
			SELECT id FROM transfer_logs
			WHERE order_id = ? AND to_process = ? AND status = ?
			ORDER BY id LIMIT 1
		)
	`

	result, err := q.Exec(query,
		models.TransferStatusReceived, receivedBy, receivedAt,
		orderID, toProcess, models.TransferStatusPending,
	)
	if err != nil {
		r.logger.Error("Failed to mark transfer received",
			zap.Int64("order_id", orderID),
			zap.String("to_process", toProcess),
			zap.Error(err))
		return false, fmt.Errorf("failed to mark transfer received: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected == 1, nil
}

// ListByOrder returns an order's transfers, oldest first.
func (r *TransferRepository) ListByOrder(q Querier, orderID int64) ([]*models.TransferLog, error) {
	query := `
		SELECT id, transfer_number, order_id, process_step_id,
			from_process, from_department, to_process, to_department,
			transfer_date, handed_over_by,
			quantity_transferred, quantity_completed, quantity_rejected, quantity_rework,
			reject_summary, processing_duration, waiting_duration,
			status, is_received, received_by, received_date, notes, created_at
		FROM transfer_logs
		WHERE order_id = ?
		ORDER BY id
	`

	rows, err := q.Query(query, orderID)
	if err != nil {
		r.logger.Error("Failed to list transfers", zap.Int64("order_id", orderID), zap.Error(err))
		return nil, fmt.Errorf("failed to list transfers: %w", err)
	}
	defer rows.Close()

	var transfers []*models.TransferLog
	for rows.Next() {
		var t models.TransferLog
		var processing, waiting sql.NullInt64
		var receivedDate sql.NullTime
		err := rows.Scan(
			&t.ID,
			&t.TransferNumber,
			&t.OrderID,
			&t.ProcessStepID,
			&t.FromProcess,
			&t.FromDepartment,
			&t.ToProcess,
			&t.ToDepartment,
			&t.TransferDate,
			&t.HandedOverBy,
			&t.QuantityTransferred,
			&t.QuantityCompleted,
			&t.QuantityRejected,
			&t.QuantityRework,
			&t.RejectSummary,
			&processing,
			&waiting,
			&t.Status,
			&t.IsReceived,
			&t.ReceivedBy,
			&receivedDate,
			&t.Notes,
			&t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transfer log: %w", err)
		}
		t.ProcessingDuration = int64Ptr(processing)
		t.WaitingDuration = int64Ptr(waiting)
		t.ReceivedDate = timePtr(receivedDate)
		transfers = append(transfers, &t)
	}
	return transfers, rows.Err()
}
