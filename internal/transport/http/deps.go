package http

import (
	"github.com/go-otp-api/internal/application/auth"
	"github.com/go-otp-api/internal/pkg/clock"
)

// Deps holds the collaborators the router wires into the auth service. All
// fields are the narrow interfaces the service consumes, so tests and main
// can supply mocks or real infrastructure interchangeably.
type Deps struct {
	Users    auth.UserDirectory
	Codes    auth.CodeStore
	Notifier auth.Notifier
	Hasher   auth.Hasher
	Tokens   auth.TokenProvider
	Clock    clock.Clock
}
