package service

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/99minutos/account-service/internal/core/domain"
)

// DefaultSessionTTL is the validity window of every issued session token.
const DefaultSessionTTL = 3 * time.Hour

// SessionDenylist abstracts the revoked-session store (Redis).
type SessionDenylist interface {
	Revoke(ctx context.Context, sessionID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
}

// sessionClaims is the JWT payload. The session id travels as jti and the
// account id as sub.
type sessionClaims struct {
	jwt.RegisteredClaims
	Email    string `json:"email"`
	Username string `json:"username"`
}

// SessionAuthority issues and verifies HS256 session tokens.
type SessionAuthority struct {
	secret   []byte
	ttl      time.Duration
	denylist SessionDenylist
	now      func() time.Time
	log      zerolog.Logger
}

// SessionOption customises a SessionAuthority.
type SessionOption func(*SessionAuthority)

// WithDenylist enables revocation checks against d.
func WithDenylist(d SessionDenylist) SessionOption {
	return func(s *SessionAuthority) { s.denylist = d }
}

// WithClock overrides the time source used for issuing and validating tokens.
func WithClock(now func() time.Time) SessionOption {
	return func(s *SessionAuthority) { s.now = now }
}

// NewSessionAuthority signs with secret. A non-positive ttl falls back to DefaultSessionTTL.
func NewSessionAuthority(secret string, ttl time.Duration, log zerolog.Logger, opts ...SessionOption) *SessionAuthority {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	s := &SessionAuthority{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
		log:    log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue signs a token for c that expires one TTL from now.
func (s *SessionAuthority) Issue(c domain.SessionClaims) (string, error) {
	now := s.now()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        c.SessionID,
			Subject:   c.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Email:    c.Email,
		Username: c.Username,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Authorize verifies token and returns its claims with a re-issued token carrying the same session id.
func (s *SessionAuthority) Authorize(ctx context.Context, token string) (*domain.SessionClaims, string, error) {
	if token == "" {
		return nil, "", domain.ErrInvalidSession
	}

	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		s.log.Debug().Err(err).Msg("session token rejected")
		return nil, "", domain.ErrInvalidSession
	}

	if s.denylist != nil && claims.ID != "" {
		revoked, err := s.denylist.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, "", fmt.Errorf("check session denylist: %w", err)
		}
		if revoked {
			return nil, "", domain.ErrInvalidSession
		}
	}

	out := &domain.SessionClaims{
		SessionID: claims.ID,
		UserID:    claims.Subject,
		Email:     claims.Email,
		Username:  claims.Username,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}

	refreshed, err := s.Issue(*out)
	if err != nil {
		return nil, "", err
	}
	return out, refreshed, nil
}

// Revoke denylists the session. It is a no-op when no denylist is configured.
func (s *SessionAuthority) Revoke(ctx context.Context, c domain.SessionClaims) error {
	if s.denylist == nil || c.SessionID == "" {
		return nil
	}
	// Any token of this session expires at most one TTL after the last refresh.
	if err := s.denylist.Revoke(ctx, c.SessionID, s.ttl); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

