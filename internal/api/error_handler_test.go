package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/account-service/internal/core/domain"
)

func TestHTTPErrorHandler(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{"missing data", domain.ErrMissingData, http.StatusBadRequest, "Missing data"},
		{"short password", domain.ErrPasswordTooShort, http.StatusBadRequest, "Password too short"},
		{"email in use", domain.ErrEmailInUse, http.StatusBadRequest, "Email is already being used"},
		{"username in use", domain.ErrUsernameInUse, http.StatusBadRequest, "Username already being used"},
		{"not found", domain.ErrUserNotFound, http.StatusBadRequest, "User not found"},
		{"invalid password", domain.ErrInvalidPassword, http.StatusBadRequest, "Invalid password"},
		{"forbidden", domain.ErrForbidden, http.StatusForbidden, "Forbidden"},
		{"wrapped record error", fmt.Errorf("%w: email is required", domain.ErrInvalidRecord), http.StatusBadRequest, "Invalid user data"},
		{"echo error", echo.NewHTTPError(http.StatusNotFound, "Not Found"), http.StatusNotFound, "Not Found"},
		{"storage failure", fmt.Errorf("insert user: %w", errors.New("connection reset")), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			handler := NewHTTPErrorHandler(zerolog.New(&logs))

			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodPost, "/register", nil), rec)

			handler(tt.err, c)

			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, rec.Code)
			}
			var resp map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if resp["message"] != tt.wantMsg {
				t.Fatalf("expected %q, got %q", tt.wantMsg, resp["message"])
			}

			logged := logs.Len() > 0
			if logged != (tt.wantCode == http.StatusInternalServerError) {
				t.Fatalf("unexpected logging: %q", logs.String())
			}
			if tt.wantCode == http.StatusInternalServerError && strings.Contains(rec.Body.String(), "connection reset") {
				t.Fatalf("internal cause leaked to client")
			}
		})
	}
}

func TestHTTPErrorHandler_CommittedResponse(t *testing.T) {
	handler := NewHTTPErrorHandler(zerolog.Nop())

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	_ = c.String(http.StatusTeapot, "already sent")

	handler(errors.New("late"), c)

	if rec.Code != http.StatusTeapot || rec.Body.String() != "already sent" {
		t.Fatalf("committed response was modified: %d %q", rec.Code, rec.Body.String())
	}
}
