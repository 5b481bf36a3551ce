package handler

import (
	"errors"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/account-service/internal/core/domain"
)

type probe struct {
	Name  string `validate:"required"`
	Email string `validate:"omitempty,email"`
	Nick  string `validate:"max=3"`
}

func TestValidator(t *testing.T) {
	v := NewValidator()

	if err := v.Validate(&probe{Name: "a"}); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}

	if err := v.Validate(&probe{Nick: "toolong"}); !errors.Is(err, domain.ErrMissingData) {
		t.Fatalf("expected missing data to win, got %v", err)
	}

	err := v.Validate(&probe{Name: "a", Email: "nope", Nick: "toolong"})
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 http error, got %v", err)
	}
	if he.Message != "email must be a valid email; nick must be at most 3 characters" {
		t.Fatalf("unexpected message %q", he.Message)
	}
}
