package domain

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest plaintext password, in characters,
// accepted at registration and profile update.
const MinPasswordLength = 8

// MaxPasswordLength is the longest password, in bytes, bcrypt can hash.
const MaxPasswordLength = 72

// LookupField names a user attribute that can be used to find records.
type LookupField string

const (
	FieldID       LookupField = "id"
	FieldEmail    LookupField = "email"
	FieldUsername LookupField = "username"
)

// Valid reports whether f is one of the supported lookup fields.
func (f LookupField) Valid() bool {
	switch f {
	case FieldID, FieldEmail, FieldUsername:
		return true
	}
	return false
}

// User models a registered account. PasswordHash always holds a bcrypt hash.
type User struct {
	ID           string `json:"id"`
	Name         string `json:"name" validate:"required"`
	Username     string `json:"username" validate:"required"`
	Email        string `json:"email" validate:"required"`
	PasswordHash string `json:"-" validate:"required"`
}

var recordValidator = validator.New()

// Validate checks that every string field is present and that the password
// field carries a bcrypt hash rather than a plaintext secret.
func (u *User) Validate() error {
	if u == nil {
		return fmt.Errorf("%w: nil user", ErrInvalidRecord)
	}
	if err := recordValidator.Struct(u); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			return fmt.Errorf("%w: %s is required", ErrInvalidRecord, ve[0].Field())
		}
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if _, err := bcrypt.Cost([]byte(u.PasswordHash)); err != nil {
		return fmt.Errorf("%w: password is not hashed", ErrInvalidRecord)
	}
	return nil
}

// UserView is the public projection of a User; it never carries the password.
type UserView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// View returns the password-free projection of u.
func (u *User) View() UserView {
	return UserView{
		ID:       u.ID,
		Name:     u.Name,
		Username: u.Username,
		Email:    u.Email,
	}
}
