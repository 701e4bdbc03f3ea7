package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-otp-api/internal/domain"
)

// VerificationRepo is the verification-code store. Every infrastructure
// failure wraps domain.ErrStoreUnavailable so callers can tell transient
// faults from policy outcomes.
type VerificationRepo struct {
	db *sql.DB
}

func NewVerificationRepo(db *sql.DB) *VerificationRepo {
	return &VerificationRepo{db: db}
}

// Issue runs the {rate-count, invalidate-prior, insert-new} sequence in one
// transaction serialized per user, so two concurrent requests for the same
// user cannot both pass the count or leave two active rows. Returns
// domain.ErrRateLimited when the user already has limit codes created since
// the window start.
func (r *VerificationRepo) Issue(ctx context.Context, v *domain.VerificationCode, since time.Time, limit int) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("begin tx", err)
	}
	defer tx.Rollback()

	// Advisory lock: serializes code issuance per user. Held until
	// COMMIT/ROLLBACK.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(1, hashtext($1))`, v.UserID); err != nil {
		return storeErr("advisory lock", err)
	}

	var count int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM verification_codes
		WHERE user_id = $1 AND created_at >= $2
	`, v.UserID, since).Scan(&count)
	if err != nil {
		return storeErr("count recent codes", err)
	}
	if count >= limit {
		return domain.ErrRateLimited
	}

	// Invalidate every prior active code, expired or not, before inserting
	// the replacement.
	_, err = tx.ExecContext(ctx, `
		UPDATE verification_codes
		SET used = TRUE
		WHERE user_id = $1 AND NOT used
	`, v.UserID)
	if err != nil {
		return storeErr("invalidate prior codes", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO verification_codes (id, user_id, code_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, v.CodeID, v.UserID, v.CodeHash, v.ExpiresAt, v.CreatedAt)
	if err != nil {
		return storeErr("insert code", err)
	}

	if err := tx.Commit(); err != nil {
		return storeErr("commit", err)
	}
	return nil
}

// GetActive returns the newest unused, unexpired code for the user, or
// domain.ErrNotFound. Ordering by created_at is a defensive tie-break; the
// Issue transaction keeps more than one active row from existing.
func (r *VerificationRepo) GetActive(ctx context.Context, userID string, now time.Time) (*domain.VerificationCode, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var v domain.VerificationCode
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, code_hash, expires_at, used, attempts, created_at
		FROM verification_codes
		WHERE user_id = $1 AND NOT used AND expires_at > $2
		ORDER BY created_at DESC
		LIMIT 1
	`, userID, now).Scan(&v.CodeID, &v.UserID, &v.CodeHash, &v.ExpiresAt, &v.Used, &v.Attempts, &v.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("active code %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, storeErr("query active code", err)
	}
	return &v, nil
}

// CountSince returns how many codes were created for the user at or after
// the given instant.
func (r *VerificationRepo) CountSince(ctx context.Context, userID string, since time.Time) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM verification_codes
		WHERE user_id = $1 AND created_at >= $2
	`, userID, since).Scan(&count)
	if err != nil {
		return 0, storeErr("count recent codes", err)
	}
	return count, nil
}

// IncrementAttempts bumps the failed-attempt counter and returns the new
// value. Conditional on NOT used: a concurrently terminalized code surfaces
// as domain.ErrNotFound instead of a lost update.
func (r *VerificationRepo) IncrementAttempts(ctx context.Context, codeID string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var attempts int
	err := r.db.QueryRowContext(ctx, `
		UPDATE verification_codes
		SET attempts = attempts + 1
		WHERE id = $1 AND NOT used
		RETURNING attempts
	`, codeID).Scan(&attempts)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("code %w", domain.ErrNotFound)
	}
	if err != nil {
		return 0, storeErr("increment attempts", err)
	}
	return attempts, nil
}

// Consume terminalizes the code. Conditional on NOT used, so of two
// concurrent redemptions at most one wins; the loser gets
// domain.ErrNotFound.
func (r *VerificationRepo) Consume(ctx context.Context, codeID string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE verification_codes
		SET used = TRUE
		WHERE id = $1 AND NOT used
	`, codeID)
	if err != nil {
		return storeErr("consume code", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("code %w", domain.ErrNotFound)
	}
	return nil
}

// DeleteExpired removes every code that expired before the cutoff and
// returns how many rows went away. Idempotent.
func (r *VerificationRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		DELETE FROM verification_codes WHERE expires_at < $1
	`, before)
	if err != nil {
		return 0, storeErr("delete expired codes", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %s: %w", op, err, domain.ErrStoreUnavailable)
}
