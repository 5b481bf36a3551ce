package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/99minutos/account-service/internal/api/middleware"
	"github.com/99minutos/account-service/internal/core/domain"
)

// ctxClaims extracts the session claims injected by the Session middleware.
// A route mounted without the gate has no claims and is treated as an
// invalid session.
func ctxClaims(c echo.Context) (domain.SessionClaims, error) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok || claims.UserID == "" {
		return domain.SessionClaims{}, domain.ErrInvalidSession
	}
	return claims, nil
}
