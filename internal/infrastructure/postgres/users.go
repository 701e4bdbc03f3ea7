package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-otp-api/internal/domain"
	"github.com/go-otp-api/internal/pkg/id"
)

// UserRepo is the user directory: lookup-or-create by email. Emails arrive
// already lowercased from the service layer, so the unique index enforces
// case-insensitive uniqueness.
type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

// GetOrCreate returns the user for the email, creating it on first sight.
// INSERT ... ON CONFLICT DO NOTHING keeps concurrent first requests for the
// same address from racing into duplicate rows.
func (r *UserRepo) GetOrCreate(ctx context.Context, email string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email)
		VALUES ($1, $2)
		ON CONFLICT (email) DO NOTHING
	`, id.New(), email)
	if err != nil {
		return nil, storeErr("insert user", err)
	}
	return r.getByEmail(ctx, email)
}

// GetByEmail returns the user for the email or domain.ErrNotFound.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	return r.getByEmail(ctx, email)
}

func (r *UserRepo) getByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, created_at
		FROM users
		WHERE email = $1
	`, email).Scan(&u.UserID, &u.Email, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, storeErr("query user", err)
	}
	return &u, nil
}
