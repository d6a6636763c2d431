package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mitrajaya/garment-tracker/internal/models"
	"go.uber.org/zap"
)

// OrderRepository handles order database operations
type OrderRepository struct {
	logger *zap.Logger
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(logger *zap.Logger) *OrderRepository {
	return &OrderRepository{logger: logger}
}

const orderColumns = `id, order_number, customer, style, process_flow,
	current_phase, current_process, current_state,
	total_quantity, total_completed, total_rejected, total_rework,
	production_deadline, delivery_deadline,
	legacy_status, order_date, target_date, created_at, updated_at`

// Create inserts a new order.
func (r *OrderRepository) Create(q Querier, order *models.Order) error {
	query := `
		INSERT INTO orders (
			order_number, customer, style, process_flow,
			current_phase, current_process, current_state,
			total_quantity, total_completed, total_rejected, total_rework,
			production_deadline, delivery_deadline,
			legacy_status, order_date, target_date
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := q.Exec(query,
		order.OrderNumber,
		order.Customer,
		order.Style,
		order.ProcessFlow,
		order.CurrentPhase,
		order.CurrentProcess,
		order.CurrentState,
		order.TotalQuantity,
		order.TotalCompleted,
		order.TotalRejected,
		order.TotalRework,
		nullTime(order.ProductionDeadline),
		nullTime(order.DeliveryDeadline),
		order.LegacyStatus,
		nullTime(order.OrderDate),
		nullTime(order.TargetDate),
	)
	if err != nil {
		r.logger.Error("Failed to create order", zap.String("order_number", order.OrderNumber), zap.Error(err))
		return fmt.Errorf("failed to create order: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	order.ID = id
	return nil
}

// GetByID retrieves an order by ID. Returns nil, nil when not found.
func (r *OrderRepository) GetByID(q Querier, id int64) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = ?`
	return r.scanOrder(q.QueryRow(query, id))
}

// GetByOrderNumber retrieves an order by its human order number.
func (r *OrderRepository) GetByOrderNumber(q Querier, orderNumber string) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE order_number = ?`
	return r.scanOrder(q.QueryRow(query, orderNumber))
}

func (r *OrderRepository) scanOrder(row *sql.Row) (*models.Order, error) {
	var order models.Order
	var productionDeadline, deliveryDeadline, orderDate, targetDate sql.NullTime

	err := row.Scan(
		&order.ID,
		&order.OrderNumber,
		&order.Customer,
		&order.Style,
		&order.ProcessFlow,
		&order.CurrentPhase,
		&order.CurrentProcess,
		&order.CurrentState,
		&order.TotalQuantity,
		&order.TotalCompleted,
		&order.TotalRejected,
		&order.TotalRework,
		&productionDeadline,
		&deliveryDeadline,
		&order.LegacyStatus,
		&orderDate,
		&targetDate,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to scan order", zap.Error(err))
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	order.ProductionDeadline = timePtr(productionDeadline)
	order.DeliveryDeadline = timePtr(deliveryDeadline)
	order.OrderDate = timePtr(orderDate)
	order.TargetDate = timePtr(targetDate)
	return &order, nil
}

// UpdateState updates only the coarse current state pointer.
func (r *OrderRepository) UpdateState(q Querier, id int64, state models.TransitionState) error {
	_, err := q.Exec(
		"UPDATE orders SET current_state = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		state, id,
	)
	if err != nil {
		r.logger.Error("Failed to update order state", zap.Int64("order_id", id), zap.Error(err))
		return fmt.Errorf("failed to update order state: %w", err)
	}
	return nil
}

// UpdateProgress moves the order's current pointer and completed total after
// a step completes or a process is assigned.
func (r *OrderRepository) UpdateProgress(q Querier, id int64, process string, phase models.Phase, state models.TransitionState, totalCompleted int) error {
	_, err := q.Exec(`
		UPDATE orders
		SET current_process = ?, current_phase = ?, current_state = ?,
			total_completed = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		process, phase, state, totalCompleted, id,
	)
	if err != nil {
		r.logger.Error("Failed to update order progress", zap.Int64("order_id", id), zap.Error(err))
		return fmt.Errorf("failed to update order progress: %w", err)
	}
	return nil
}

// UpdateTotals adds to the order's rejected/rework totals.
func (r *OrderRepository) UpdateTotals(q Querier, id int64, rejectedDelta, reworkDelta int) error {
	_, err := q.Exec(`
		UPDATE orders
		SET total_rejected = total_rejected + ?, total_rework = total_rework + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		rejectedDelta, reworkDelta, id,
	)
	if err != nil {
		r.logger.Error("Failed to update order totals", zap.Int64("order_id", id), zap.Error(err))
		return fmt.Errorf("failed to update order totals: %w", err)
	}
	return nil
}

// UpdateMigrated writes everything the backfill derives for one legacy order.
func (r *OrderRepository) UpdateMigrated(q Querier, order *models.Order) error {
	_, err := q.Exec(`
		UPDATE orders
		SET process_flow = ?, current_phase = ?, current_process = ?, current_state = ?,
			production_deadline = ?, delivery_deadline = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		order.ProcessFlow,
		order.CurrentPhase,
		order.CurrentProcess,
		order.CurrentState,
		nullTime(order.ProductionDeadline),
		nullTime(order.DeliveryDeadline),
		order.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update migrated order", zap.Int64("order_id", order.ID), zap.Error(err))
		return fmt.Errorf("failed to update migrated order: %w", err)
	}
	return nil
}

// ListLegacy returns orders still carrying a legacy status string.
func (r *OrderRepository) ListLegacy(q Querier) ([]*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE legacy_status != '' ORDER BY id`

	rows, err := q.Query(query)
	if err != nil {
		r.logger.Error("Failed to list legacy orders", zap.Error(err))
		return nil, fmt.Errorf("failed to list legacy orders: %w", err)
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		var order models.Order
		var productionDeadline, deliveryDeadline, orderDate, targetDate sql.NullTime
		err := rows.Scan(
			&order.ID,
			&order.OrderNumber,
			&order.Customer,
			&order.Style,
			&order.ProcessFlow,
			&order.CurrentPhase,
			&order.CurrentProcess,
			&order.CurrentState,
			&order.TotalQuantity,
			&order.TotalCompleted,
			&order.TotalRejected,
			&order.TotalRework,
			&productionDeadline,
			&deliveryDeadline,
			&order.LegacyStatus,
			&orderDate,
			&targetDate,
			&order.CreatedAt,
			&order.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan legacy order: %w", err)
		}
		order.ProductionDeadline = timePtr(productionDeadline)
		order.DeliveryDeadline = timePtr(deliveryDeadline)
		order.OrderDate = timePtr(orderDate)
		order.TargetDate = timePtr(targetDate)
		orders = append(orders, &order)
	}
	return orders, rows.Err()
}

// OrderNumbersWithout returns order numbers lacking any row in the given
// child table. Used by the migration verification pass.
func (r *OrderRepository) OrderNumbersWithout(q Querier, childTable string) ([]string, error) {
	// childTable is internal, never caller-supplied
	query := fmt.Sprintf(`
		SELECT o.order_number FROM orders o
		WHERE NOT EXISTS (SELECT 1 FROM %s c WHERE c.order_id = o.id)
		ORDER BY o.id`, childTable)

	rows, err := q.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders without %s: %w", childTable, err)
	}
	defer rows.Close()

	var numbers []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		numbers = append(numbers, n)
	}
	return numbers, rows.Err()
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
