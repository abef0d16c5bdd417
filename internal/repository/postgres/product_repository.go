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
	ProductResource = "product"
)

const productColumns = "id, name, description, image_url, price, min_order_quantity, available_quantity"

// ProductRepository provides pass-through catalog CRUD.
type ProductRepository struct {
	pool *pgxpool.Pool
}

func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// Create persists a new product.
func (r *ProductRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
INSERT INTO products (id, name, description, image_url, price, min_order_quantity, available_quantity)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		product.ID, product.Name, product.Description, product.ImageURL,
		product.Price, product.MinOrderQuantity, product.AvailableQuantity,
	)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// GetByID retrieves a product by its ID.
func (r *ProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := fmt.Sprintf("SELECT %s FROM products WHERE id = $1", productColumns)

	rows, err := r.pool.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("query product %s: %w", id, err)
	}
	defer rows.Close()

	product, err := pgx.CollectOneRow(rows, pgx.RowToStructByPos[domain.Product])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &repository.NotFoundError{
				Resource: ProductResource,
				Key:      "id",
				Value:    id.String(),
			}
		}
		return nil, fmt.Errorf("scan product %s: %w", id, err)
	}

	return &product, nil
}

// List returns the whole catalog.
func (r *ProductRepository) List(ctx context.Context) ([]domain.Product, error) {
	query := fmt.Sprintf("SELECT %s FROM products ORDER BY name", productColumns)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products, err := pgx.CollectRows(rows, pgx.RowToStructByPos[domain.Product])
	if err != nil {
		return nil, fmt.Errorf("scan products: %w", err)
	}

	return products, nil
}

// Delete removes a product by ID, reporting NotFoundError when the ID
// does not resolve.
func (r *ProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return &repository.NotFoundError{
			Resource: ProductResource,
			Key:      "id",
			Value:    id.String(),
		}
	}

	return nil
}
