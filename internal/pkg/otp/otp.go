package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Digits is the fixed width of a generated passcode.
const Digits = 6

// New generates a six-digit passcode from the process CSPRNG. Leading zeros
// are preserved, so the full 10^6 space is used.
func New() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("generate passcode: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
