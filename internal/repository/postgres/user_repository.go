package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/samiul-it/parts-station-server/internal/domain"
	"github.com/samiul-it/parts-station-server/internal/repository"
)

const (
	UserResource = "user"
)

const userColumns = "email, name, role, city, education, phone, linkedin, review, rating, updated_at"

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Upsert creates the user if absent (role defaults to user) or merges
// the supplied profile fields into the existing record. Nil fields are
// left as they are; role is never written through this path.
func (r *UserRepository) Upsert(ctx context.Context, email string, update domain.ProfileUpdate) (*domain.User, error) {
	if email == "" {
		return nil, fmt.Errorf("email cannot be empty")
	}

	query := fmt.Sprintf(`
INSERT INTO users (email, name, city, education, phone, linkedin, review, rating, updated_at)
VALUES ($1, COALESCE($2, ''), COALESCE($3, ''), COALESCE($4, ''), COALESCE($5, ''), COALESCE($6, ''), COALESCE($7, ''), $8, NOW())
ON CONFLICT (email) DO UPDATE SET
    name       = COALESCE($2, users.name),
    city       = COALESCE($3, users.city),
    education  = COALESCE($4, users.education),
    phone      = COALESCE($5, users.phone),
    linkedin   = COALESCE($6, users.linkedin),
    review     = COALESCE($7, users.review),
    rating     = COALESCE($8, users.rating),
    updated_at = NOW()
RETURNING %s`, userColumns)

	user, err := scanUser(r.pool.QueryRow(ctx, query,
		email, update.Name, update.City, update.Education,
		update.Phone, update.LinkedIn, update.Review, update.Rating,
	))
	if err != nil {
		return nil, fmt.Errorf("upsert user %s: %w", email, err)
	}

	return user, nil
}

// GetByEmail retrieves a user by email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE email = $1", userColumns)

	user, err := scanUser(r.pool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &repository.NotFoundError{
				Resource: UserResource,
				Key:      "email",
				Value:    email,
			}
		}
		return nil, fmt.Errorf("query user by email %s: %w", email, err)
	}

	return user, nil
}

// List returns every user record.
func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users ORDER BY email", userColumns)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user rows: %w", err)
	}

	return users, nil
}

// PromoteToAdmin sets the user's role to admin. There is no demotion.
func (r *UserRepository) PromoteToAdmin(ctx context.Context, email string) (*domain.User, error) {
	query := fmt.Sprintf(`
UPDATE users SET role = $2, updated_at = NOW() WHERE email = $1
RETURNING %s`, userColumns)

	user, err := scanUser(r.pool.QueryRow(ctx, query, email, domain.RoleAdmin))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &repository.NotFoundError{
				Resource: UserResource,
				Key:      "email",
				Value:    email,
			}
		}
		return nil, fmt.Errorf("promote user %s: %w", email, err)
	}

	return user, nil
}

// GetRole returns the role of the user with the given email, or a
// NotFoundError when no such record exists.
func (r *UserRepository) GetRole(ctx context.Context, email string) (domain.Role, error) {
	var role domain.Role
	err := r.pool.QueryRow(ctx, "SELECT role FROM users WHERE email = $1", email).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", &repository.NotFoundError{
				Resource: UserResource,
				Key:      "email",
				Value:    email,
			}
		}
		return "", fmt.Errorf("query role for %s: %w", email, err)
	}

	return role, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.Email,
		&user.Name,
		&user.Role,
		&user.City,
		&user.Education,
		&user.Phone,
		&user.LinkedIn,
		&user.Review,
		&user.Rating,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
