// Package auth implements shared-secret bearer token verification for the
// contact endpoint.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
)

// ErrUnauthorized is the base error for every rejected request.
var ErrUnauthorized = errors.New("unauthorized")

var (
	// ErrSecretNotConfigured is returned when no shared secret is set.
	// Every request is denied in that state.
	ErrSecretNotConfigured = fmt.Errorf("%w: shared secret not configured", ErrUnauthorized)

	// ErrInvalidToken is returned when the presented token does not match.
	ErrInvalidToken = fmt.Errorf("%w: invalid token", ErrUnauthorized)
)

// Guard checks Authorization header values against the configured secret.
type Guard struct {
	secret string
}

// NewGuard creates a Guard for the given secret. An empty secret produces
// a Guard that denies everything.
func NewGuard(secret string) *Guard {
	return &Guard{secret: secret}
}

// Enabled returns true if a secret is configured.
func (g *Guard) Enabled() bool {
	return g.secret != ""
}

// Authorize verifies an Authorization header value. The header is trimmed;
// when it contains whitespace the last field is the token, so both
// "Bearer <token>" and a bare "<token>" are accepted.
func (g *Guard) Authorize(header string) error {
	if !g.Enabled() {
		return ErrSecretNotConfigured
	}

	token := Token(header)
	if subtle.ConstantTimeCompare([]byte(token), []byte(g.secret)) != 1 {
		return ErrInvalidToken
	}
	return nil
}

// Token extracts the presented token from an Authorization header value.
func Token(header string) string {
	fields := strings.Fields(header)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

// Message returns the client-facing message for an authorization error.
func Message(err error) string {
	if errors.Is(err, ErrSecretNotConfigured) {
		return "You must set the TOKEN environment variable."
	}
	return "Unauthorized"
}
