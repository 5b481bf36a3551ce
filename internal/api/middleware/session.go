package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/account-service/internal/api/metrics"
	"github.com/99minutos/account-service/internal/core/domain"
	"github.com/99minutos/account-service/internal/core/ports"
)

const claimsKey = "session_claims"

// Session gates a route on the session cookie.
//
// A missing, tampered, expired or revoked token clears the cookie and
// redirects to "/". A valid token is re-issued with a fresh expiry and its
// claims are stored in the context for ClaimsFromContext.
func Session(sessions ports.SessionAuthority, m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var token string
			if cookie, err := c.Cookie(CookieName); err == nil {
				token = cookie.Value
			}

			claims, refreshed, err := sessions.Authorize(c.Request().Context(), token)
			if errors.Is(err, domain.ErrInvalidSession) {
				m.SessionChecksTotal.WithLabelValues(metrics.ResultInvalid).Inc()
				ClearSessionCookie(c)
				return c.Redirect(http.StatusFound, "/")
			}
			if err != nil {
				m.SessionChecksTotal.WithLabelValues(metrics.ResultError).Inc()
				return err
			}

			m.SessionChecksTotal.WithLabelValues(metrics.ResultSuccess).Inc()
			SetSessionCookie(c, refreshed)
			c.Set(claimsKey, *claims)

			return next(c)
		}
	}
}

// ClaimsFromContext returns the claims stored by Session.
func ClaimsFromContext(c echo.Context) (domain.SessionClaims, bool) {
	claims, ok := c.Get(claimsKey).(domain.SessionClaims)
	return claims, ok
}
