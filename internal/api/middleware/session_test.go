package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/99minutos/account-service/internal/api/metrics"
	"github.com/99minutos/account-service/internal/core/domain"
)

type stubSessions struct {
	authorizeFn func(ctx context.Context, token string) (*domain.SessionClaims, string, error)
}

func (s *stubSessions) Issue(domain.SessionClaims) (string, error) { return "", nil }

func (s *stubSessions) Authorize(ctx context.Context, token string) (*domain.SessionClaims, string, error) {
	return s.authorizeFn(ctx, token)
}

func (s *stubSessions) Revoke(context.Context, domain.SessionClaims) error { return nil }

func newGateContext(cookie string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/user", nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: CookieName, Value: cookie})
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func sessionCookies(rec *httptest.ResponseRecorder) []*http.Cookie {
	var out []*http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == CookieName {
			out = append(out, c)
		}
	}
	return out
}

func TestSession_ValidToken(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	stub := &stubSessions{
		authorizeFn: func(_ context.Context, token string) (*domain.SessionClaims, string, error) {
			if token != "old-token" {
				t.Fatalf("unexpected token %q", token)
			}
			return &domain.SessionClaims{SessionID: "s1", UserID: "u1", Email: "a@x.com"}, "new-token", nil
		},
	}
	c, rec := newGateContext("old-token")

	called := false
	handler := Session(stub, m)(func(c echo.Context) error {
		called = true
		claims, ok := ClaimsFromContext(c)
		if !ok || claims.UserID != "u1" || claims.Email != "a@x.com" {
			t.Fatalf("claims not stored: %+v", claims)
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}

	cookies := sessionCookies(rec)
	if len(cookies) != 1 {
		t.Fatalf("expected one session cookie, got %d", len(cookies))
	}
	if cookies[0].Value != "new-token" || !cookies[0].HttpOnly || cookies[0].Path != "/" {
		t.Fatalf("unexpected cookie: %+v", cookies[0])
	}
	if got := testutil.ToFloat64(m.SessionChecksTotal.WithLabelValues(metrics.ResultSuccess)); got != 1 {
		t.Fatalf("expected 1 successful check, got %v", got)
	}
}

func TestSession_InvalidTokenRedirects(t *testing.T) {
	for _, cookie := range []string{"", "garbage"} {
		m := metrics.New(prometheus.NewRegistry())
		stub := &stubSessions{
			authorizeFn: func(context.Context, string) (*domain.SessionClaims, string, error) {
				return nil, "", domain.ErrInvalidSession
			},
		}
		c, rec := newGateContext(cookie)

		handler := Session(stub, m)(func(c echo.Context) error {
			t.Fatalf("next must not be called")
			return nil
		})

		if err := handler(c); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		if rec.Code != http.StatusFound {
			t.Fatalf("expected 302, got %d", rec.Code)
		}
		if loc := rec.Header().Get(echo.HeaderLocation); loc != "/" {
			t.Fatalf("expected redirect to /, got %q", loc)
		}
		cookies := sessionCookies(rec)
		if len(cookies) != 1 || cookies[0].MaxAge >= 0 || cookies[0].Value != "" {
			t.Fatalf("expected cleared cookie, got %+v", cookies)
		}
		if got := testutil.ToFloat64(m.SessionChecksTotal.WithLabelValues(metrics.ResultInvalid)); got != 1 {
			t.Fatalf("expected 1 invalid check, got %v", got)
		}
	}
}

func TestSession_InfrastructureErrorPropagates(t *testing.T) {
	boom := errors.New("redis down")
	stub := &stubSessions{
		authorizeFn: func(context.Context, string) (*domain.SessionClaims, string, error) {
			return nil, "", boom
		},
	}
	c, rec := newGateContext("token")

	handler := Session(stub, metrics.New(prometheus.NewRegistry()))(func(c echo.Context) error {
		t.Fatalf("next must not be called")
		return nil
	})

	if err := handler(c); !errors.Is(err, boom) {
		t.Fatalf("expected infrastructure error, got %v", err)
	}
	if len(sessionCookies(rec)) != 0 {
		t.Fatalf("cookie must be left alone on infrastructure errors")
	}
}

func TestClearSessionCookie_ReplacesQueuedCookie(t *testing.T) {
	c, rec := newGateContext("")
	c.SetCookie(&http.Cookie{Name: "theme", Value: "dark"})

	SetSessionCookie(c, "fresh")
	ClearSessionCookie(c)

	all := rec.Result().Cookies()
	if len(all) != 2 {
		t.Fatalf("expected 2 cookies, got %d", len(all))
	}
	cookies := sessionCookies(rec)
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Fatalf("expected only the clearing cookie, got %+v", cookies)
	}
}
