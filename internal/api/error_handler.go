package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/account-service/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Message string `json:"message"`
}

// clientErrors lists the domain errors that are reported verbatim to the
// client, with their status and message.
var clientErrors = []struct {
	err  error
	code int
	msg  string
}{
	{domain.ErrMissingData, http.StatusBadRequest, "Missing data"},
	{domain.ErrPasswordTooShort, http.StatusBadRequest, "Password too short"},
	{domain.ErrPasswordTooLong, http.StatusBadRequest, "Password too long"},
	{domain.ErrInvalidRecord, http.StatusBadRequest, "Invalid user data"},
	{domain.ErrEmailInUse, http.StatusBadRequest, "Email is already being used"},
	{domain.ErrUsernameInUse, http.StatusBadRequest, "Username already being used"},
	{domain.ErrUserNotFound, http.StatusBadRequest, "User not found"},
	{domain.ErrInvalidPassword, http.StatusBadRequest, "Invalid password"},
	{domain.ErrForbidden, http.StatusForbidden, "Forbidden"},
	{domain.ErrInvalidSession, http.StatusUnauthorized, "Invalid session"},
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their HTTP status codes and messages.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"message": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Message: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (router 404/405, body limits, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	for _, ce := range clientErrors {
		if errors.Is(err, ce.err) {
			return ce.code, ce.msg
		}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "Internal server error"
}
