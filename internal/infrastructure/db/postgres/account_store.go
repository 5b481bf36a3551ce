package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/99minutos/account-service/internal/core/domain"
	"github.com/99minutos/account-service/internal/core/ports"
)

const (
	uniqueViolation        = "23505"
	emailConstraintName    = "users_email_key"
	usernameConstraintName = "users_username_key"
	selectUserColumns      = `SELECT id, name, username, email, password_hash FROM users`
)

var _ ports.AccountStore = (*AccountStore)(nil)

// columns maps lookup fields to their column names. Only these are ever
// interpolated into SQL.
var columns = map[domain.LookupField]string{
	domain.FieldID:       "id",
	domain.FieldEmail:    "email",
	domain.FieldUsername: "username",
}

type AccountStore struct {
	db      *sql.DB
	timeout time.Duration
}

// NewAccountStore returns a store bounding every call by timeout (no bound
// when timeout <= 0).
func NewAccountStore(db *sql.DB, timeout time.Duration) *AccountStore {
	return &AccountStore{db: db, timeout: timeout}
}

func (s *AccountStore) Insert(ctx context.Context, user *domain.User) error {
	if err := user.Validate(); err != nil {
		return err
	}
	if !isUUID(user.ID) {
		return fmt.Errorf("%w: id must be a uuid", domain.ErrInvalidRecord)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := `INSERT INTO users (id, name, username, email, password_hash)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := s.db.ExecContext(ctx, query, user.ID, user.Name, user.Username, user.Email, user.PasswordHash)
	if err != nil {
		return mapWriteError("insert user", err)
	}
	return nil
}

func (s *AccountStore) FindBy(ctx context.Context, field domain.LookupField, value string) ([]*domain.User, error) {
	column, ok := columns[field]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidField, field)
	}
	// The id column is a UUID; anything else cannot match.
	if field == domain.FieldID && !isUUID(value) {
		return []*domain.User{}, nil
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, selectUserColumns+` WHERE `+column+` = $1`, value)
	if err != nil {
		return nil, fmt.Errorf("find users by %s: %w", field, err)
	}
	defer rows.Close()

	users := []*domain.User{}
	for rows.Next() {
		u := &domain.User{}
		if err := rows.Scan(&u.ID, &u.Name, &u.Username, &u.Email, &u.PasswordHash); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

func (s *AccountStore) Update(ctx context.Context, id string, user *domain.User) error {
	if err := user.Validate(); err != nil {
		return err
	}
	if !isUUID(id) {
		return nil
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := `UPDATE users SET name = $2, username = $3, email = $4, password_hash = $5
		WHERE id = $1`

	if _, err := s.db.ExecContext(ctx, query, id, user.Name, user.Username, user.Email, user.PasswordHash); err != nil {
		return mapWriteError("update user", err)
	}
	return nil
}

func (s *AccountStore) DeleteByID(ctx context.Context, id string) error {
	if !isUUID(id) {
		return nil
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

func (s *AccountStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *AccountStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// mapWriteError turns unique violations into the matching in-use error and
// wraps everything else as an infrastructure failure.
func mapWriteError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		switch pgErr.ConstraintName {
		case emailConstraintName:
			return domain.ErrEmailInUse
		case usernameConstraintName:
			return domain.ErrUsernameInUse
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
