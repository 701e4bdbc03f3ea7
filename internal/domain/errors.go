package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking
// infrastructure details. Rate and attempt limits are policy outcomes, not
// faults; ErrStoreUnavailable and ErrDeliveryFailed are transient and
// retryable by the caller.
var (
	ErrNotFound         = errors.New("not found")
	ErrRateLimited      = errors.New("rate limit exceeded")
	ErrMaxAttempts      = errors.New("max attempts exceeded")
	ErrCodeMismatch     = errors.New("code mismatch")
	ErrInvalidToken     = errors.New("invalid token")
	ErrDeliveryFailed   = errors.New("delivery failed")
	ErrStoreUnavailable = errors.New("store unavailable")
)
