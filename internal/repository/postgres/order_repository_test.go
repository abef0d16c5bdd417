package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samiul-it/parts-station-server/internal/domain"
	"github.com/samiul-it/parts-station-server/internal/repository"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if os.Getenv("POSTGRES_HOST") == "" {
		t.Skip("POSTGRES_HOST not set; skipping database integration tests")
	}

	pg := fmt.Sprintf(
		"postgres://%s:%s@%s/%s?sslmode=%s",
		os.Getenv("POSTGRES_USER"),
		os.Getenv("POSTGRES_PASSWORD"),
		os.Getenv("POSTGRES_HOST"),
		os.Getenv("POSTGRES_DB_TEST"),
		os.Getenv("POSTGRES_SSL"),
	)

	pool, err := pgxpool.New(context.Background(), pg)
	require.NoError(t, err)
	require.NoError(t, RunMigrations(context.Background(), pool))

	t.Cleanup(func() {
		_, err := pool.Exec(context.Background(), "TRUNCATE payments, orders, users, products CASCADE")
		assert.NoError(t, err)
		pool.Close()
	})

	return pool
}

func createTestOrder(t *testing.T, repo *OrderRepository, email string, price float64) *domain.Order {
	t.Helper()

	order := &domain.Order{
		ID:        uuid.New(),
		UserEmail: email,
		Items:     map[string]any{"productId": uuid.NewString(), "quantity": float64(2)},
		Price:     price,
	}
	require.NoError(t, repo.Create(context.Background(), order))
	return order
}

func TestOrderRepository_CreateAndGet(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewOrderRepository(pool)
	ctx := context.Background()

	created := createTestOrder(t, repo, "a@x.com", 42)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)

	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "a@x.com", got.UserEmail)
	assert.Equal(t, domain.OrderStatusPlaced, got.Status)
	assert.False(t, got.Paid)
	assert.Nil(t, got.TransactionID)
	assert.InEpsilon(t, 42.0, got.Price, 1e-9)
}

func TestOrderRepository_GetByIDNotFound(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewOrderRepository(pool)

	_, err := repo.GetByID(context.Background(), uuid.New())

	var notFound *repository.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, OrderResource, notFound.Resource)
}

func TestOrderRepository_ListByUserEmail(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewOrderRepository(pool)
	ctx := context.Background()

	createTestOrder(t, repo, "a@x.com", 10)
	createTestOrder(t, repo, "a@x.com", 20)
	createTestOrder(t, repo, "b@x.com", 30)

	mine, err := repo.ListByUserEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Len(t, mine, 2)
	for _, order := range mine {
		assert.Equal(t, "a@x.com", order.UserEmail)
	}

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	none, err := repo.ListByUserEmail(ctx, "nobody@x.com")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestOrderRepository_MarkDeliveredIsIdempotent(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewOrderRepository(pool)
	ctx := context.Background()

	order := createTestOrder(t, repo, "a@x.com", 42)

	first, err := repo.MarkDelivered(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusDelivered, first.Status)

	second, err := repo.MarkDelivered(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusDelivered, second.Status)

	_, err = repo.MarkDelivered(ctx, uuid.New())
	var notFound *repository.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestOrderRepository_Settle(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewOrderRepository(pool)
	ctx := context.Background()

	order := createTestOrder(t, repo, "a@x.com", 42)

	settled, err := repo.Settle(ctx, order.ID, "txn_1")
	require.NoError(t, err)
	assert.True(t, settled.Paid)
	require.NotNil(t, settled.TransactionID)
	assert.Equal(t, "txn_1", *settled.TransactionID)

	// The order row and the payment record committed together.
	got, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, got.Paid)
	require.NotNil(t, got.TransactionID)
	assert.Equal(t, "txn_1", *got.TransactionID)

	payments, err := repo.PaymentsByOrderID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, "txn_1", payments[0].TransactionID)
	assert.Equal(t, int64(4200), payments[0].Amount)
}

func TestOrderRepository_SettleIsIdempotent(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewOrderRepository(pool)
	ctx := context.Background()

	order := createTestOrder(t, repo, "a@x.com", 42)

	first, err := repo.Settle(ctx, order.ID, "txn_1")
	require.NoError(t, err)

	second, err := repo.Settle(ctx, order.ID, "txn_1")
	require.NoError(t, err)

	assert.Equal(t, first.Paid, second.Paid)
	assert.Equal(t, *first.TransactionID, *second.TransactionID)

	// Still exactly one payment record.
	payments, err := repo.PaymentsByOrderID(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 1)
}

func TestOrderRepository_SettleConflicts(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewOrderRepository(pool)
	ctx := context.Background()

	paidOrder := createTestOrder(t, repo, "a@x.com", 42)
	otherOrder := createTestOrder(t, repo, "b@x.com", 10)

	_, err := repo.Settle(ctx, paidOrder.ID, "txn_1")
	require.NoError(t, err)

	var conflict *repository.ConflictError

	// Same order, different transaction ID.
	_, err = repo.Settle(ctx, paidOrder.ID, "txn_2")
	require.ErrorAs(t, err, &conflict)

	// Different order claiming an already-used transaction ID.
	_, err = repo.Settle(ctx, otherOrder.ID, "txn_1")
	require.ErrorAs(t, err, &conflict)

	// The losing order is untouched.
	got, err := repo.GetByID(ctx, otherOrder.ID)
	require.NoError(t, err)
	assert.False(t, got.Paid)
	assert.Nil(t, got.TransactionID)
}

func TestOrderRepository_SettleUnknownOrder(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewOrderRepository(pool)

	_, err := repo.Settle(context.Background(), uuid.New(), "txn_1")

	var notFound *repository.NotFoundError
	require.ErrorAs(t, err, &notFound)
}
