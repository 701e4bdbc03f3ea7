package domain

import "time"

// VerificationCode is a single one-time passcode issued to a user. Only the
// bcrypt digest of the code is ever stored. A code is active while
// used=false and ExpiresAt is in the future; at most one active code exists
// per user at any instant. used is monotonic false→true and terminal:
// once set, the row is never mutated again.
type VerificationCode struct {
	CodeID    string    `json:"id"`
	UserID    string    `json:"user_id"`
	CodeHash  string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	Used      bool      `json:"used"`
	Attempts  int       `json:"attempts"`
	CreatedAt time.Time `json:"created_at"`
}

// Active reports whether the code can still be redeemed at the given instant.
// Expiry dominates every other check.
func (v *VerificationCode) Active(now time.Time) bool {
	return !v.Used && v.ExpiresAt.After(now)
}
