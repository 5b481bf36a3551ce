package service

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/account-service/internal/core/domain"
	"github.com/99minutos/account-service/internal/core/ports"
)

// AccountService implements registration, login and the self-service
// operations of an authenticated account.
type AccountService struct {
	store    ports.AccountStore
	sessions ports.SessionAuthority
	hashCost int
	log      zerolog.Logger
}

func NewAccountService(store ports.AccountStore, sessions ports.SessionAuthority, hashCost int, log zerolog.Logger) *AccountService {
	if hashCost < bcrypt.MinCost || hashCost > bcrypt.MaxCost {
		hashCost = bcrypt.DefaultCost
	}
	return &AccountService{store: store, sessions: sessions, hashCost: hashCost, log: log}
}

// Register creates an account and opens a session for it. The session is only
// issued once the store has confirmed the write.
func (s *AccountService) Register(ctx context.Context, in ports.AccountInput) (*ports.SessionResult, error) {
	if err := validateAccountInput(in); err != nil {
		return nil, err
	}
	if err := s.checkAvailable(ctx, in.Email, in.Username, ""); err != nil {
		return nil, err
	}

	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
	}

	// The store's unique constraints catch registrations racing past checkAvailable.
	if err := s.store.Insert(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.sessions.Issue(domain.ClaimsFor(user, uuid.NewString()))
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("user registered")
	return &ports.SessionResult{User: user, Token: token}, nil
}

// Login verifies credentials and opens a new session.
func (s *AccountService) Login(ctx context.Context, email, password string) (*ports.SessionResult, error) {
	found, err := s.store.FindBy(ctx, domain.FieldEmail, email)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, domain.ErrUserNotFound
	}
	user := found[0]

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		s.log.Info().Str("user_id", user.ID).Msg("login rejected: invalid password")
		return nil, domain.ErrInvalidPassword
	}

	token, err := s.sessions.Issue(domain.ClaimsFor(user, uuid.NewString()))
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", user.ID).Msg("user logged in")
	return &ports.SessionResult{User: user, Token: token}, nil
}

// Logout ends the session described by claims.
func (s *AccountService) Logout(ctx context.Context, claims domain.SessionClaims) error {
	if err := s.sessions.Revoke(ctx, claims); err != nil {
		return err
	}
	s.log.Info().Str("user_id", claims.UserID).Msg("user logged out")
	return nil
}

// Me re-reads the account named by the session's email claim.
func (s *AccountService) Me(ctx context.Context, claims domain.SessionClaims) (*domain.User, error) {
	found, err := s.store.FindBy(ctx, domain.FieldEmail, claims.Email)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, domain.ErrUserNotFound
	}
	return found[0], nil
}

// UpdateSelf revalidates and replaces all four account fields, then re-issues
// the session token so its claims follow the new email and username.
func (s *AccountService) UpdateSelf(ctx context.Context, claims domain.SessionClaims, in ports.AccountInput) (*ports.SessionResult, error) {
	if err := validateAccountInput(in); err != nil {
		return nil, err
	}

	found, err := s.store.FindBy(ctx, domain.FieldID, claims.UserID)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, domain.ErrUserNotFound
	}
	current := found[0]

	if err := s.checkAvailable(ctx, in.Email, in.Username, current.ID); err != nil {
		return nil, err
	}

	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}

	updated := &domain.User{
		ID:           current.ID,
		Name:         in.Name,
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
	}
	if err := s.store.Update(ctx, current.ID, updated); err != nil {
		return nil, err
	}

	token, err := s.sessions.Issue(domain.ClaimsFor(updated, claims.SessionID))
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", updated.ID).Msg("user updated")
	return &ports.SessionResult{User: updated, Token: token}, nil
}

// DeleteSelf removes the session owner's account. id must name that account.
func (s *AccountService) DeleteSelf(ctx context.Context, claims domain.SessionClaims, id string) error {
	if id != claims.UserID {
		return domain.ErrForbidden
	}
	if err := s.store.DeleteByID(ctx, id); err != nil {
		return err
	}
	if err := s.sessions.Revoke(ctx, claims); err != nil {
		return err
	}

	s.log.Info().Str("user_id", id).Msg("user deleted")
	return nil
}

// checkAvailable reports a conflict when email or username belongs to an
// account other than selfID.
func (s *AccountService) checkAvailable(ctx context.Context, email, username, selfID string) error {
	byEmail, err := s.store.FindBy(ctx, domain.FieldEmail, email)
	if err != nil {
		return err
	}
	if takenByOther(byEmail, selfID) {
		return domain.ErrEmailInUse
	}

	byUsername, err := s.store.FindBy(ctx, domain.FieldUsername, username)
	if err != nil {
		return err
	}
	if takenByOther(byUsername, selfID) {
		return domain.ErrUsernameInUse
	}
	return nil
}

func (s *AccountService) hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func takenByOther(users []*domain.User, selfID string) bool {
	for _, u := range users {
		if u.ID != selfID {
			return true
		}
	}
	return false
}

func validateAccountInput(in ports.AccountInput) error {
	if in.Name == "" || in.Username == "" || in.Email == "" || in.Password == "" {
		return domain.ErrMissingData
	}
	if utf8.RuneCountInString(in.Password) < domain.MinPasswordLength {
		return domain.ErrPasswordTooShort
	}
	// bcrypt's ceiling is in bytes.
	if len(in.Password) > domain.MaxPasswordLength {
		return domain.ErrPasswordTooLong
	}
	return nil
}
