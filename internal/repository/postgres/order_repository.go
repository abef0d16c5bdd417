package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/samiul-it/parts-station-server/internal/domain"
	"github.com/samiul-it/parts-station-server/internal/repository"
)

const (
	OrderResource   = "order"
	PaymentResource = "payment"
)

const orderColumns = "id, user_email, items, price, status, paid, transaction_id, created_at"

// OrderRepository provides database operations for orders and their
// settlement against the payments audit table.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository creates a new OrderRepository instance
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{
		pool: pool,
	}
}

// Create persists a new order. Status and paid flag always start at
// placed/false regardless of what the caller put into the struct.
func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	order.Status = domain.OrderStatusPlaced
	order.Paid = false
	order.TransactionID = nil

	query := `
INSERT INTO orders (id, user_email, items, price, status, paid)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING created_at`

	err := r.pool.QueryRow(ctx, query,
		order.ID, order.UserEmail, order.Items, order.Price, order.Status, order.Paid,
	).Scan(&order.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	return nil
}

// GetByID retrieves an order by its ID.
func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := fmt.Sprintf("SELECT %s FROM orders WHERE id = $1", orderColumns)

	order, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &repository.NotFoundError{
				Resource: OrderResource,
				Key:      "id",
				Value:    id.String(),
			}
		}
		return nil, fmt.Errorf("failed to retrieve order with id %s: %w", id, err)
	}

	return order, nil
}

// ListByUserEmail returns all orders owned by email, oldest first.
func (r *OrderRepository) ListByUserEmail(ctx context.Context, email string) ([]domain.Order, error) {
	query := fmt.Sprintf("SELECT %s FROM orders WHERE user_email = $1 ORDER BY created_at", orderColumns)

	rows, err := r.pool.Query(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("query orders for %s: %w", email, err)
	}
	defer rows.Close()

	return collectOrders(rows)
}

// ListAll returns every order. Authorization is the caller's concern.
func (r *OrderRepository) ListAll(ctx context.Context) ([]domain.Order, error) {
	query := fmt.Sprintf("SELECT %s FROM orders ORDER BY created_at", orderColumns)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query all orders: %w", err)
	}
	defer rows.Close()

	return collectOrders(rows)
}

// MarkDelivered sets the order status to delivered. The update is
// unconditional, so a second call is a no-op rather than an error.
func (r *OrderRepository) MarkDelivered(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := fmt.Sprintf(`
UPDATE orders SET status = $2 WHERE id = $1
RETURNING %s`, orderColumns)

	order, err := scanOrder(r.pool.QueryRow(ctx, query, id, domain.OrderStatusDelivered))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &repository.NotFoundError{
				Resource: OrderResource,
				Key:      "id",
				Value:    id.String(),
			}
		}
		return nil, fmt.Errorf("mark order %s delivered: %w", id, err)
	}

	return order, nil
}

// Settle records the payment and flips the order to paid in one
// transaction. Both effects commit together or not at all.
//
// A repeated call with the transaction ID the order is already settled
// under returns the settled order unchanged. A transaction ID already
// claimed by a different order, or an order paid under a different
// transaction ID, is a ConflictError.
func (r *OrderRepository) Settle(ctx context.Context, orderID uuid.UUID, transactionID string) (*domain.Order, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin settlement: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	query := fmt.Sprintf("SELECT %s FROM orders WHERE id = $1 FOR UPDATE", orderColumns)

	order, err := scanOrder(tx.QueryRow(ctx, query, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &repository.NotFoundError{
				Resource: OrderResource,
				Key:      "id",
				Value:    orderID.String(),
			}
		}
		return nil, fmt.Errorf("lock order %s for settlement: %w", orderID, err)
	}

	if order.Paid {
		if order.TransactionID != nil && *order.TransactionID == transactionID {
			// Duplicate confirm; already settled under this transaction.
			return order, nil
		}
		return nil, &repository.ConflictError{
			Resource: OrderResource,
			Key:      "transaction_id",
			Value:    transactionID,
		}
	}

	tag, err := tx.Exec(ctx, `
INSERT INTO payments (id, order_id, transaction_id, amount)
VALUES ($1, $2, $3, $4)
ON CONFLICT (transaction_id) DO NOTHING`,
		uuid.New(), orderID, transactionID, domain.MinorUnits(order.Price),
	)
	if err != nil {
		return nil, fmt.Errorf("insert payment for order %s: %w", orderID, err)
	}
	if tag.RowsAffected() == 0 {
		// Transaction ID already belongs to some other settlement.
		return nil, &repository.ConflictError{
			Resource: PaymentResource,
			Key:      "transaction_id",
			Value:    transactionID,
		}
	}

	if _, err := tx.Exec(ctx, `
UPDATE orders SET paid = TRUE, transaction_id = $2 WHERE id = $1`,
		orderID, transactionID,
	); err != nil {
		return nil, fmt.Errorf("update order %s payment status: %w", orderID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit settlement for order %s: %w", orderID, err)
	}

	order.Paid = true
	order.TransactionID = &transactionID
	return order, nil
}

// PaymentsByOrderID returns the audit records of an order's settlement.
func (r *OrderRepository) PaymentsByOrderID(ctx context.Context, orderID uuid.UUID) ([]domain.Payment, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id, order_id, transaction_id, amount, created_at
FROM payments WHERE order_id = $1 ORDER BY created_at`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query payments for order %s: %w", orderID, err)
	}
	defer rows.Close()

	payments, err := pgx.CollectRows(rows, pgx.RowToStructByPos[domain.Payment])
	if err != nil {
		return nil, fmt.Errorf("scan payments for order %s: %w", orderID, err)
	}

	return payments, nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var order domain.Order
	err := row.Scan(
		&order.ID,
		&order.UserEmail,
		&order.Items,
		&order.Price,
		&order.Status,
		&order.Paid,
		&order.TransactionID,
		&order.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func collectOrders(rows pgx.Rows) ([]domain.Order, error) {
	orders := make([]domain.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}

	return orders, nil
}
