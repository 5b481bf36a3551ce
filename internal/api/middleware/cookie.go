package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// CookieName is the cookie carrying the session token.
const CookieName = "token"

// SetSessionCookie queues token as the response's session cookie, replacing
// any session cookie queued earlier in the same response.
func SetSessionCookie(c echo.Context, token string) {
	dropSessionCookies(c)
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie instructs the client to discard its session cookie.
func ClearSessionCookie(c echo.Context) {
	dropSessionCookies(c)
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

func dropSessionCookies(c echo.Context) {
	h := c.Response().Header()
	queued := h.Values(echo.HeaderSetCookie)
	if len(queued) == 0 {
		return
	}

	kept := make([]string, 0, len(queued))
	for _, v := range queued {
		if !strings.HasPrefix(v, CookieName+"=") {
			kept = append(kept, v)
		}
	}
	h.Del(echo.HeaderSetCookie)
	for _, v := range kept {
		h.Add(echo.HeaderSetCookie, v)
	}
}
