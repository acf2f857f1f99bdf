package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shipsync/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const orderColumns = `
	id, source_id, api_id, ship_order_id, order_number, order_status,
	display_name, sku, design, product_name, image_url,
	order_date, ship_by_date, quantity, fast_ship,
	shipping_service, shipping_address,
	customer_email, customer_notes, notes,
	order_total, amount_paid, shipping_amount, tax_amount, payment_method,
	store_id, item_details,
	state, designer, assignment_date, completion_date, turnaround_hours,
	created_at, updated_at`

// orderRepository implements OrderRepository using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

// Create inserts a new order record. The unique index on
// (source_id, order_number) is the last line of defence against two sync runs
// racing on first creation; a violation surfaces as model.ErrDuplicateOrder so
// the caller can fall back to a status update.
func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	query := `
		INSERT INTO orders (
			id, source_id, api_id, ship_order_id, order_number, order_status,
			display_name, sku, design, product_name, image_url,
			order_date, ship_by_date, quantity, fast_ship,
			shipping_service, shipping_address,
			customer_email, customer_notes, notes,
			order_total, amount_paid, shipping_amount, tax_amount, payment_method,
			store_id, item_details, state,
			created_at, updated_at
		)
		VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30
		)
	`

	_, err := r.pool.Exec(ctx, query,
		order.ID, order.SourceID, order.APIID, order.OrderID, order.OrderNumber, order.OrderStatus,
		order.DisplayName, order.SKU, order.Design, order.ProductName, order.ImageURL,
		order.OrderDate, order.ShipByDate, order.Quantity, order.FastShip,
		order.ShippingService, order.ShippingAddress,
		order.CustomerEmail, order.CustomerNotes, order.Notes,
		order.OrderTotal, order.AmountPaid, order.ShippingAmount, order.TaxAmount, order.PaymentMethod,
		order.StoreID, order.ItemDetails, order.State,
		order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			r.logger.Debug().
				Str("order_number", order.OrderNumber).
				Str("source_id", order.SourceID.String()).
				Msg("order already exists")
			return model.ErrDuplicateOrder
		}
		r.logger.Error().
			Err(err).
			Str("order_number", order.OrderNumber).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Str("order_number", order.OrderNumber).
		Msg("order created")

	return nil
}

// MapByOrderNumbers bulk-loads existing records keyed by order number.
func (r *orderRepository) MapByOrderNumbers(ctx context.Context, sourceID uuid.UUID, numbers []string) (map[string]*model.Order, error) {
	existing := make(map[string]*model.Order, len(numbers))
	if len(numbers) == 0 {
		return existing, nil
	}

	query := `SELECT` + orderColumns + ` FROM orders WHERE source_id = $1 AND order_number = ANY($2)`

	rows, err := r.pool.Query(ctx, query, sourceID, numbers)
	if err != nil {
		r.logger.Error().Err(err).Str("source_id", sourceID.String()).Msg("failed to query orders by number")
		return nil, fmt.Errorf("failed to query orders by number: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order row")
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		existing[order.OrderNumber] = order
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order rows")
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	return existing, nil
}

// UpdateStatus rewrites only the order status.
func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders SET order_status = $2, updated_at = $3 WHERE id = $1`,
		id, status, time.Now().UTC())
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to update order status")
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrOrderNotFound
	}

	return nil
}

// GetByID retrieves an order by id.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	row := r.pool.QueryRow(ctx, `SELECT`+orderColumns+` FROM orders WHERE id = $1`, id)
	order, err := scanOrder(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}
	return order, nil
}

// GetByOrderNumber retrieves a source's order by order number.
func (r *orderRepository) GetByOrderNumber(ctx context.Context, sourceID uuid.UUID, number string) (*model.Order, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT`+orderColumns+` FROM orders WHERE source_id = $1 AND order_number = $2`,
		sourceID, number)
	order, err := scanOrder(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_number", number).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}
	return order, nil
}

// List retrieves orders matching the filter, newest first.
func (r *orderRepository) List(ctx context.Context, filter model.OrderFilter) ([]model.Order, error) {
	query := `SELECT` + orderColumns + ` FROM orders WHERE true`
	args := []any{}
	idx := 1

	if filter.SourceID != nil {
		query += fmt.Sprintf(" AND source_id = $%d", idx)
		args = append(args, *filter.SourceID)
		idx++
	}
	if filter.State != "" {
		query += fmt.Sprintf(" AND state = $%d", idx)
		args = append(args, filter.State)
		idx++
	}
	if filter.Designer != "" {
		query += fmt.Sprintf(" AND designer = $%d", idx)
		args = append(args, filter.Designer)
		idx++
	}
	if filter.OrderStatus != "" {
		query += fmt.Sprintf(" AND order_status = $%d", idx)
		args = append(args, filter.OrderStatus)
		idx++
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", idx)
		args = append(args, filter.Limit)
		idx++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", idx)
		args = append(args, filter.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query orders")
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order row")
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *order)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order rows")
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, nil
}

// AssignDesigner sets the designer, keeping the first assignment time.
func (r *orderRepository) AssignDesigner(ctx context.Context, id uuid.UUID, designer string, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE orders SET
			designer = $2,
			assignment_date = COALESCE(assignment_date, $3),
			updated_at = $3
		WHERE id = $1
	`, id, designer, at)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to assign designer")
		return fmt.Errorf("failed to assign designer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrOrderNotFound
	}

	return nil
}

// SetState moves an order to a workflow state. completedAt and
// turnaroundHours are only written when non-nil, so moving back out of done
// does not erase the recorded completion.
func (r *orderRepository) SetState(ctx context.Context, id uuid.UUID, state string, completedAt *time.Time, turnaroundHours *float64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE orders SET
			state = $2,
			completion_date = COALESCE($3, completion_date),
			turnaround_hours = COALESCE($4, turnaround_hours),
			updated_at = $5
		WHERE id = $1
	`, id, state, completedAt, turnaroundHours, time.Now().UTC())
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to set order state")
		return fmt.Errorf("failed to set order state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrOrderNotFound
	}

	return nil
}

// scanOrder scans one order row.
func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	err := row.Scan(
		&o.ID, &o.SourceID, &o.APIID, &o.OrderID, &o.OrderNumber, &o.OrderStatus,
		&o.DisplayName, &o.SKU, &o.Design, &o.ProductName, &o.ImageURL,
		&o.OrderDate, &o.ShipByDate, &o.Quantity, &o.FastShip,
		&o.ShippingService, &o.ShippingAddress,
		&o.CustomerEmail, &o.CustomerNotes, &o.Notes,
		&o.OrderTotal, &o.AmountPaid, &o.ShippingAmount, &o.TaxAmount, &o.PaymentMethod,
		&o.StoreID, &o.ItemDetails,
		&o.State, &o.Designer, &o.AssignmentDate, &o.CompletionDate, &o.TurnaroundHours,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
