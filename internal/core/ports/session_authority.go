package ports

import (
	"context"

	"github.com/99minutos/account-service/internal/core/domain"
)

// SessionAuthority mints and verifies session tokens.
type SessionAuthority interface {
	// Issue signs claims into a token that expires one TTL from now.
	Issue(claims domain.SessionClaims) (string, error)
	// Authorize verifies token and, when valid, returns its claims together
	// with a freshly signed token carrying the same claims.
	// Invalid tokens yield domain.ErrInvalidSession.
	Authorize(ctx context.Context, token string) (*domain.SessionClaims, string, error)
	// Revoke invalidates the session named by claims before its natural expiry.
	Revoke(ctx context.Context, claims domain.SessionClaims) error
}
