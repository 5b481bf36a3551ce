package ports

import (
	"context"

	"github.com/99minutos/account-service/internal/core/domain"
)

// AccountInput carries the four user-supplied fields of an account.
type AccountInput struct {
	Name     string
	Username string
	Email    string
	Password string
}

// SessionResult is returned whenever a session token is minted.
type SessionResult struct {
	User  *domain.User
	Token string
}

// AccountService orchestrates the credential and session lifecycle.
type AccountService interface {
	Register(ctx context.Context, in AccountInput) (*SessionResult, error)
	Login(ctx context.Context, email, password string) (*SessionResult, error)
	Logout(ctx context.Context, claims domain.SessionClaims) error
	Me(ctx context.Context, claims domain.SessionClaims) (*domain.User, error)
	UpdateSelf(ctx context.Context, claims domain.SessionClaims, in AccountInput) (*SessionResult, error)
	DeleteSelf(ctx context.Context, claims domain.SessionClaims, id string) error
}
