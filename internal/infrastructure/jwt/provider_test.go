package jwtinfra

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-otp-api/internal/config"
	"github.com/go-otp-api/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestProvider generates a fresh RSA key pair, writes it to temp files,
// and returns a Provider with the given expiry.
func newTestProvider(t *testing.T, expiry time.Duration) *Provider {
	t.Helper()
	privKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	dir := t.TempDir()
	privPath := filepath.Join(dir, "private.pem")
	pubPath := filepath.Join(dir, "public.pem")

	privPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(privKey)})
	require.NoError(t, os.WriteFile(privPath, privPEM, 0600))

	pubBytes, err := x509.MarshalPKIXPublicKey(&privKey.PublicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubBytes})
	require.NoError(t, os.WriteFile(pubPath, pubPEM, 0600))

	p, err := NewProvider(&config.Config{
		JWTPrivateKeyPath: privPath,
		JWTPublicKeyPath:  pubPath,
		JWTExpiry:         expiry,
	})
	require.NoError(t, err)
	return p
}

func TestSignAndVerify_RoundTrip(t *testing.T) {
	p := newTestProvider(t, 24*time.Hour)

	token, err := p.Sign(domain.Identity{UserID: "u1", Email: "a@x.com"})
	require.NoError(t, err)

	identity, err := p.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", identity.UserID)
	assert.Equal(t, "a@x.com", identity.Email)
}

func TestVerify_Expired(t *testing.T) {
	p := newTestProvider(t, -time.Minute)

	token, err := p.Sign(domain.Identity{UserID: "u1", Email: "a@x.com"})
	require.NoError(t, err)

	_, err = p.Verify(token)
	require.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestVerify_Malformed(t *testing.T) {
	p := newTestProvider(t, time.Hour)
	_, err := p.Verify("not-a-token")
	require.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestVerify_WrongKey(t *testing.T) {
	signer := newTestProvider(t, time.Hour)
	verifier := newTestProvider(t, time.Hour)

	token, err := signer.Sign(domain.Identity{UserID: "u1", Email: "a@x.com"})
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestVerify_RejectsHMACToken(t *testing.T) {
	p := newTestProvider(t, time.Hour)

	claims := Claims{
		UserID: "u1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	hmacToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = p.Verify(hmacToken)
	require.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestExtract_DoesNotVerifySignature(t *testing.T) {
	signer := newTestProvider(t, time.Hour)
	other := newTestProvider(t, time.Hour)

	token, err := signer.Sign(domain.Identity{UserID: "u1", Email: "a@x.com"})
	require.NoError(t, err)

	// Extract succeeds even against the wrong key pair: it only parses.
	identity, err := other.Extract(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", identity.UserID)

	_, err = other.Extract("garbage")
	require.ErrorIs(t, err, domain.ErrInvalidToken)
}
