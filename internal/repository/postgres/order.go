package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/oozye1/florist-sub000/internal/domain"
	"github.com/oozye1/florist-sub000/internal/repository"
	"github.com/oozye1/florist-sub000/pkg/database"
	apperrors "github.com/oozye1/florist-sub000/pkg/errors"
)

// OrderRepository implements repository.OrderRepository using PostgreSQL.
// Orders are never deleted; cancellation is a status change with history.
type OrderRepository struct {
	pool database.DBTX
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool database.DBTX) *OrderRepository {
	return &OrderRepository{pool: pool}
}

const orderColumns = `o.id, o.order_number, o.subtotal, o.delivery_fee, o.discount_amount,
	o.gift_card_amount, o.total, o.currency, o.coupon_code, o.gift_card_code,
	o.status, o.payment_status, o.provider_payment_id, o.customer, o.delivery_address,
	o.delivery_zone, o.delivery_date, o.notes, o.created_at, o.updated_at`

// itemsAgg folds order items into a JSON array in the same query, avoiding a
// second round trip per order.
const itemsAgg = `COALESCE(
		JSONB_AGG(
			JSONB_BUILD_OBJECT(
				'product_id', oi.product_id,
				'variant_id', oi.variant_id,
				'name', oi.name,
				'unit_price', oi.unit_price,
				'quantity', oi.quantity,
				'image_url', oi.image_url,
				'gift_message', oi.gift_message
			) ORDER BY oi.position
		) FILTER (WHERE oi.order_id IS NOT NULL),
		'[]'::jsonb
	) AS items`

const orderGroupBy = `GROUP BY o.id, o.order_number, o.subtotal, o.delivery_fee, o.discount_amount,
	o.gift_card_amount, o.total, o.currency, o.coupon_code, o.gift_card_code,
	o.status, o.payment_status, o.provider_payment_id, o.customer, o.delivery_address,
	o.delivery_zone, o.delivery_date, o.notes, o.created_at, o.updated_at`

// Create inserts the order, its items and the initial status history entry in
// one transaction.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	customerJSON, err := json.Marshal(o.Customer)
	if err != nil {
		return fmt.Errorf("marshal customer: %w", err)
	}
	addressJSON, err := json.Marshal(o.DeliveryAddress)
	if err != nil {
		return fmt.Errorf("marshal delivery address: %w", err)
	}

	orderQuery := `
		INSERT INTO orders (
			id, order_number, subtotal, delivery_fee, discount_amount,
			gift_card_amount, total, currency, coupon_code, gift_card_code,
			status, payment_status, provider_payment_id, customer, delivery_address,
			delivery_zone, delivery_date, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`

	_, err = tx.Exec(ctx, orderQuery,
		o.ID,
		o.OrderNumber,
		o.Subtotal,
		o.DeliveryFee,
		o.DiscountAmount,
		o.GiftCardAmount,
		o.Total,
		o.Currency,
		o.CouponCode,
		o.GiftCardCode,
		o.Status,
		o.PaymentStatus,
		o.ProviderPaymentID,
		customerJSON,
		addressJSON,
		o.DeliveryZone,
		o.DeliveryDate,
		o.Notes,
		o.CreatedAt,
		o.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("order", "order_number", o.OrderNumber)
		}
		return fmt.Errorf("insert order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (order_id, position, product_id, variant_id, name, unit_price, quantity, image_url, gift_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	for i, item := range o.Items {
		_, err = tx.Exec(ctx, itemQuery,
			o.ID,
			i,
			item.ProductID,
			item.VariantID,
			item.Name,
			item.UnitPrice,
			item.Quantity,
			item.ImageURL,
			item.GiftMessage,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	historyQuery := `
		INSERT INTO order_status_history (id, order_id, from_status, to_status, actor, note, changed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = tx.Exec(ctx, historyQuery,
		uuid.NewString(),
		o.ID,
		"",
		o.Status,
		"system",
		"order placed",
		o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert status history: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// GetByID retrieves an order by its ID, eagerly loading its items.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s
		FROM orders o
		LEFT JOIN order_items oi ON o.id = oi.order_id
		WHERE o.id = $1
		%s`, orderColumns, itemsAgg, orderGroupBy)

	return r.scanOrder(ctx, query, "order", id)
}

// GetByNumber retrieves an order by its customer-facing order number.
func (r *OrderRepository) GetByNumber(ctx context.Context, number string) (*domain.Order, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s
		FROM orders o
		LEFT JOIN order_items oi ON o.id = oi.order_id
		WHERE o.order_number = $1
		%s`, orderColumns, itemsAgg, orderGroupBy)

	return r.scanOrder(ctx, query, "order", number)
}

// List returns orders matching the given filter with the total count.
func (r *OrderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, int, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.Status != nil {
		conditions = append(conditions, cond("o.status", argIndex))
		args = append(args, *filter.Status)
		argIndex++
	}
	if filter.PaymentStatus != nil {
		conditions = append(conditions, cond("o.payment_status", argIndex))
		args = append(args, *filter.PaymentStatus)
		argIndex++
	}
	if filter.Email != nil {
		conditions = append(conditions, fmt.Sprintf("o.customer->>'email' = $%d", argIndex))
		args = append(args, *filter.Email)
		argIndex++
	}
	if filter.CreatedAfter != nil {
		conditions = append(conditions, fmt.Sprintf("o.created_at >= $%d", argIndex))
		args = append(args, *filter.CreatedAfter)
		argIndex++
	}

	query := fmt.Sprintf(`
		SELECT %s, %s, count(*) OVER() AS total_count
		FROM orders o
		LEFT JOIN order_items oi ON o.id = oi.order_id
		%s
		%s
		ORDER BY o.created_at DESC
		LIMIT $%d OFFSET $%d`,
		orderColumns, itemsAgg, buildWhere(conditions), orderGroupBy, argIndex, argIndex+1,
	)

	limit, offset := pageArgs(filter.Page, filter.PerPage)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var (
		orders     []domain.Order
		totalCount int
	)

	for rows.Next() {
		o, err := scanOrderRow(rows, &totalCount)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate order rows: %w", err)
	}

	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, totalCount, nil
}

// ListSince returns all orders created at or after the given instant.
func (r *OrderRepository) ListSince(ctx context.Context, since time.Time) ([]domain.Order, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s
		FROM orders o
		LEFT JOIN order_items oi ON o.id = oi.order_id
		WHERE o.created_at >= $1
		%s
		ORDER BY o.created_at ASC`,
		orderColumns, itemsAgg, orderGroupBy)

	rows, err := r.pool.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("list orders since: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrderRow(rows, nil)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}

	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}

// UpdateStatus persists a status transition and its audit entry in one
// transaction.
func (r *OrderRepository) UpdateStatus(ctx context.Context, o *domain.Order, change *domain.StatusChange) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	ct, err := tx.Exec(ctx,
		`UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3`,
		o.Status, o.UpdatedAt, o.ID,
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("order", o.ID)
	}

	changeID := change.ID
	if changeID == "" {
		changeID = uuid.NewString()
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO order_status_history (id, order_id, from_status, to_status, actor, note, changed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		changeID, change.OrderID, change.FromStatus, change.ToStatus, change.Actor, change.Note, change.ChangedAt,
	)
	if err != nil {
		return fmt.Errorf("insert status history: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// UpdatePaymentStatus changes the payment axis of an order.
func (r *OrderRepository) UpdatePaymentStatus(ctx context.Context, id string, status domain.PaymentStatus) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE orders SET payment_status = $1, updated_at = NOW() WHERE id = $2`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("order", id)
	}

	return nil
}

// StatusHistory returns the audit trail for an order, oldest first.
func (r *OrderRepository) StatusHistory(ctx context.Context, orderID string) ([]domain.StatusChange, error) {
	query := `
		SELECT id, order_id, from_status, to_status, actor, note, changed_at
		FROM order_status_history
		WHERE order_id = $1
		ORDER BY changed_at ASC`

	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("list status history: %w", err)
	}
	defer rows.Close()

	var history []domain.StatusChange
	for rows.Next() {
		var c domain.StatusChange
		if err := rows.Scan(&c.ID, &c.OrderID, &c.FromStatus, &c.ToStatus, &c.Actor, &c.Note, &c.ChangedAt); err != nil {
			return nil, fmt.Errorf("scan status history row: %w", err)
		}
		history = append(history, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status history rows: %w", err)
	}

	if history == nil {
		history = []domain.StatusChange{}
	}
	return history, nil
}

func (r *OrderRepository) scanOrder(ctx context.Context, query, resource, arg string) (*domain.Order, error) {
	row := r.pool.QueryRow(ctx, query, arg)
	o, err := scanOrderFrom(row, nil)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound(resource, arg)
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

func scanOrderRow(rows pgx.Rows, totalCount *int) (*domain.Order, error) {
	o, err := scanOrderFrom(rows, totalCount)
	if err != nil {
		return nil, fmt.Errorf("scan order row: %w", err)
	}
	return o, nil
}

func scanOrderFrom(row rowScanner, totalCount *int) (*domain.Order, error) {
	var (
		o            domain.Order
		customerJSON []byte
		addressJSON  []byte
		itemsJSON    []byte
	)
	dest := []any{
		&o.ID,
		&o.OrderNumber,
		&o.Subtotal,
		&o.DeliveryFee,
		&o.DiscountAmount,
		&o.GiftCardAmount,
		&o.Total,
		&o.Currency,
		&o.CouponCode,
		&o.GiftCardCode,
		&o.Status,
		&o.PaymentStatus,
		&o.ProviderPaymentID,
		&customerJSON,
		&addressJSON,
		&o.DeliveryZone,
		&o.DeliveryDate,
		&o.Notes,
		&o.CreatedAt,
		&o.UpdatedAt,
		&itemsJSON,
	}
	if totalCount != nil {
		dest = append(dest, totalCount)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	if customerJSON != nil {
		if err := json.Unmarshal(customerJSON, &o.Customer); err != nil {
			return nil, fmt.Errorf("unmarshal customer: %w", err)
		}
	}
	if addressJSON != nil {
		if err := json.Unmarshal(addressJSON, &o.DeliveryAddress); err != nil {
			return nil, fmt.Errorf("unmarshal delivery address: %w", err)
		}
	}
	if itemsJSON != nil {
		if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
			return nil, fmt.Errorf("unmarshal order items: %w", err)
		}
	}
	if o.Items == nil {
		o.Items = []domain.LineItem{}
	}

	return &o, nil
}
