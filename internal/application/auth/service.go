package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-otp-api/internal/domain"
	"github.com/go-otp-api/internal/pkg/clock"
	"github.com/go-otp-api/internal/pkg/id"
	"github.com/go-otp-api/internal/pkg/otp"
)

// UserDirectory is the lookup-or-create gateway for users.
type UserDirectory interface {
	GetOrCreate(ctx context.Context, email string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// CodeStore is the persistence gateway for verification codes. Issue must
// run the {rate-count, invalidate-prior, insert-new} sequence atomically per
// user and return domain.ErrRateLimited when the window is full;
// IncrementAttempts and Consume must be conditional on the code not already
// being terminal.
type CodeStore interface {
	Issue(ctx context.Context, v *domain.VerificationCode, since time.Time, limit int) error
	GetActive(ctx context.Context, userID string, now time.Time) (*domain.VerificationCode, error)
	CountSince(ctx context.Context, userID string, since time.Time) (int, error)
	IncrementAttempts(ctx context.Context, codeID string) (int, error)
	Consume(ctx context.Context, codeID string) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// Notifier delivers a plaintext passcode out-of-band.
type Notifier interface {
	Deliver(ctx context.Context, to, code string) error
}

// Hasher is the one-way passcode hasher.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Matches(plaintext, digest string) bool
}

// TokenProvider mints and validates bearer tokens.
type TokenProvider interface {
	Sign(identity domain.Identity) (string, error)
	Verify(token string) (domain.Identity, error)
}

type Service interface {
	RequestCode(ctx context.Context, email string) error
	RedeemCode(ctx context.Context, email, code string) (bearer string, user *domain.User, err error)
	CleanupExpired(ctx context.Context) (int64, error)
	ValidateToken(token string) (domain.Identity, error)
}

// Policy is the configured passcode policy.
type Policy struct {
	CodeTTL      time.Duration
	MaxAttempts  int
	RateLimit    int
	RateWindow   time.Duration
	CleanupGrace time.Duration
}

type ServiceDeps struct {
	Users    UserDirectory
	Codes    CodeStore
	Notifier Notifier
	Hasher   Hasher
	Tokens   TokenProvider
	Clock    clock.Clock
	Policy   Policy
}

type service struct {
	users    UserDirectory
	codes    CodeStore
	notifier Notifier
	hasher   Hasher
	tokens   TokenProvider
	clock    clock.Clock
	policy   Policy
}

func NewService(deps ServiceDeps) Service {
	c := deps.Clock
	if c == nil {
		c = clock.System{}
	}
	return &service{
		users:    deps.Users,
		codes:    deps.Codes,
		notifier: deps.Notifier,
		hasher:   deps.Hasher,
		tokens:   deps.Tokens,
		clock:    c,
		policy:   deps.Policy,
	}
}

// RequestCode resolves (or lazily creates) the user, enforces the trailing
// rate-limit window, replaces any prior active code with a freshly generated
// one, and hands the plaintext to the notifier. The plaintext only ever
// exists on the stack of this call; the store sees the bcrypt digest.
//
// Delivery failure does not roll back the persisted code: the code remains
// redeemable and the caller gets domain.ErrDeliveryFailed. Rolling back would
// spend a slot of the user's rate budget on a delivery blip and would require
// holding the transaction open across SMTP I/O.
func (s *service) RequestCode(ctx context.Context, email string) error {
	email = canonical(email)
	u, err := s.users.GetOrCreate(ctx, email)
	if err != nil {
		return fmt.Errorf("resolve user: %w", err)
	}

	now := s.clock.Now()
	since := now.Add(-s.policy.RateWindow)

	// Fast-fail before the expensive bcrypt hash. The Issue transaction
	// re-checks the count under the per-user lock, so this read racing a
	// concurrent request cannot oversell the window.
	count, err := s.codes.CountSince(ctx, u.UserID, since)
	if err != nil {
		return fmt.Errorf("rate check: %w", err)
	}
	if count >= s.policy.RateLimit {
		slog.Info("code request rate limited", "user_id", u.UserID, "recent", count)
		return fmt.Errorf("request code: %w", domain.ErrRateLimited)
	}

	plaintext, err := otp.New()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}
	digest, err := s.hasher.Hash(plaintext)
	if err != nil {
		return fmt.Errorf("hash code: %w", err)
	}

	v := &domain.VerificationCode{
		CodeID:    id.New(),
		UserID:    u.UserID,
		CodeHash:  digest,
		ExpiresAt: now.Add(s.policy.CodeTTL),
		CreatedAt: now,
	}
	if err := s.codes.Issue(ctx, v, since, s.policy.RateLimit); err != nil {
		if errors.Is(err, domain.ErrRateLimited) {
			slog.Info("code request rate limited", "user_id", u.UserID)
			return fmt.Errorf("request code: %w", domain.ErrRateLimited)
		}
		return fmt.Errorf("issue code: %w", err)
	}

	if err := s.notifier.Deliver(ctx, u.Email, plaintext); err != nil {
		slog.Warn("code delivery failed", "user_id", u.UserID, "err", err)
		return fmt.Errorf("deliver code: %s: %w", err, domain.ErrDeliveryFailed)
	}
	slog.Info("code issued", "user_id", u.UserID, "expires_at", v.ExpiresAt)
	return nil
}

// RedeemCode verifies the submitted passcode against the user's single
// active code and issues a bearer token on match.
//
// The attempt-limit check runs before the hash comparison, so a caller who
// has exhausted the budget gets no further comparison oracle. A bare
// mismatch increments attempts and leaves the code live; limit exhaustion
// and success both terminalize it.
func (s *service) RedeemCode(ctx context.Context, email, code string) (string, *domain.User, error) {
	email = canonical(email)
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", nil, fmt.Errorf("resolve user: %w", err)
	}

	v, err := s.codes.GetActive(ctx, u.UserID, s.clock.Now())
	if err != nil {
		return "", nil, fmt.Errorf("fetch code: %w", err)
	}

	if v.Attempts >= s.policy.MaxAttempts {
		if err := s.codes.Consume(ctx, v.CodeID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return "", nil, fmt.Errorf("terminalize code: %w", err)
		}
		slog.Info("code attempts exhausted", "user_id", u.UserID, "attempts", v.Attempts)
		return "", nil, fmt.Errorf("redeem code: %w", domain.ErrMaxAttempts)
	}

	if !s.hasher.Matches(code, v.CodeHash) {
		attempts, err := s.codes.IncrementAttempts(ctx, v.CodeID)
		if err != nil {
			// A concurrent call may have terminalized the code between our
			// read and this write; surface that as the terminal outcome.
			if errors.Is(err, domain.ErrNotFound) {
				return "", nil, fmt.Errorf("redeem code: %w", domain.ErrNotFound)
			}
			return "", nil, fmt.Errorf("record attempt: %w", err)
		}
		slog.Info("code mismatch", "user_id", u.UserID, "attempts", attempts)
		return "", nil, fmt.Errorf("redeem code: %w", domain.ErrCodeMismatch)
	}

	// Conditional consume: of two concurrent redemptions at most one reaches
	// this line and wins the row; the loser observes ErrNotFound.
	if err := s.codes.Consume(ctx, v.CodeID); err != nil {
		return "", nil, fmt.Errorf("consume code: %w", err)
	}

	bearer, err := s.tokens.Sign(domain.Identity{UserID: u.UserID, Email: u.Email})
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	slog.Info("code redeemed", "user_id", u.UserID)
	return bearer, u, nil
}

// CleanupExpired bulk-deletes codes whose expiry is older than the grace
// cutoff. Idempotent and safe alongside concurrent redemptions: expiry is
// checked on every read, so correctness never depends on deletion.
func (s *service) CleanupExpired(ctx context.Context) (int64, error) {
	before := s.clock.Now().Add(-s.policy.CleanupGrace)
	n, err := s.codes.DeleteExpired(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("cleanup expired codes: %w", err)
	}
	if n > 0 {
		slog.Info("expired codes removed", "count", n, "before", before)
	}
	return n, nil
}

// ValidateToken checks the bearer token and returns its identity.
func (s *service) ValidateToken(token string) (domain.Identity, error) {
	return s.tokens.Verify(token)
}

// canonical lowercases and trims an email so lookups and the unique index
// are case-insensitive.
func canonical(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
