package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/account-service/internal/api/metrics"
	"github.com/99minutos/account-service/internal/api/middleware"
	"github.com/99minutos/account-service/internal/core/domain"
	"github.com/99minutos/account-service/internal/core/ports"
)

type AccountHandler struct {
	accounts ports.AccountService
	metrics  *metrics.Metrics
}

func NewAccountHandler(accounts ports.AccountService, m *metrics.Metrics) *AccountHandler {
	return &AccountHandler{accounts: accounts, metrics: m}
}

type accountRequest struct {
	Name     string `json:"name" validate:"required"`
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (r accountRequest) input() ports.AccountInput {
	return ports.AccountInput{
		Name:     r.Name,
		Username: r.Username,
		Email:    r.Email,
		Password: r.Password,
	}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type userResponse struct {
	User domain.UserView `json:"user"`
}

func invalidPayload(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, messageResponse{Message: "Invalid payload"})
}

// Home answers the landing route gated requests are redirected to.
//
// @Summary      Home
// @Tags         account
// @Produce      json
// @Success      200  {object}  messageResponse
// @Router       / [get]
func (h *AccountHandler) Home(c echo.Context) error {
	return c.JSON(http.StatusOK, messageResponse{Message: "Home"})
}

// Register creates an account and opens a session for it.
//
// @Summary      Register a new user
// @Tags         account
// @Accept       json
// @Produce      json
// @Param        body  body      accountRequest  true  "Account details"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  messageResponse
// @Failure      500   {object}  messageResponse
// @Router       /register [post]
func (h *AccountHandler) Register(c echo.Context) error {
	var req accountRequest
	if err := c.Bind(&req); err != nil {
		return invalidPayload(c)
	}
	if err := c.Validate(&req); err != nil {
		h.metrics.RegistrationsTotal.WithLabelValues(metrics.ResultRejected).Inc()
		return err
	}

	res, err := h.accounts.Register(c.Request().Context(), req.input())
	h.metrics.RegistrationsTotal.WithLabelValues(outcome(err)).Inc()
	if err != nil {
		return err
	}

	middleware.SetSessionCookie(c, res.Token)
	return c.JSON(http.StatusOK, messageResponse{Message: "User created"})
}

// Login verifies credentials and opens a session.
//
// @Summary      Login
// @Tags         account
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  messageResponse
// @Failure      500   {object}  messageResponse
// @Router       /login [post]
func (h *AccountHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return invalidPayload(c)
	}
	if err := c.Validate(&req); err != nil {
		h.metrics.LoginsTotal.WithLabelValues(metrics.ResultRejected).Inc()
		return err
	}

	res, err := h.accounts.Login(c.Request().Context(), req.Email, req.Password)
	h.metrics.LoginsTotal.WithLabelValues(outcome(err)).Inc()
	if err != nil {
		return err
	}

	middleware.SetSessionCookie(c, res.Token)
	return c.JSON(http.StatusOK, messageResponse{Message: "User logged in"})
}

// Logout ends the current session.
//
// @Summary      Logout
// @Tags         account
// @Produce      json
// @Success      200  {object}  messageResponse
// @Success      302  "No valid session; redirected to /"
// @Router       /logout [get]
func (h *AccountHandler) Logout(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	if err := h.accounts.Logout(c.Request().Context(), claims); err != nil {
		return err
	}

	middleware.ClearSessionCookie(c)
	return c.JSON(http.StatusOK, messageResponse{Message: "User logged out"})
}

// Me returns the session owner's account.
//
// @Summary      Current user
// @Tags         account
// @Produce      json
// @Success      200  {object}  userResponse
// @Success      302  "No valid session; redirected to /"
// @Failure      400  {object}  messageResponse
// @Router       /user [get]
func (h *AccountHandler) Me(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}

	user, err := h.accounts.Me(c.Request().Context(), claims)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{User: user.View()})
}

// UpdateSelf replaces the session owner's name, username, email and password.
//
// @Summary      Update current user
// @Tags         account
// @Accept       json
// @Produce      json
// @Param        body  body      accountRequest  true  "New account details"
// @Success      200   {object}  messageResponse
// @Success      302   "No valid session; redirected to /"
// @Failure      400   {object}  messageResponse
// @Router       /user [put]
func (h *AccountHandler) UpdateSelf(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}

	var req accountRequest
	if err := c.Bind(&req); err != nil {
		return invalidPayload(c)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	res, err := h.accounts.UpdateSelf(c.Request().Context(), claims, req.input())
	if err != nil {
		return err
	}

	middleware.SetSessionCookie(c, res.Token)
	return c.JSON(http.StatusOK, messageResponse{Message: "User updated"})
}

// DeleteSelf removes the session owner's account.
//
// @Summary      Delete current user
// @Tags         account
// @Produce      json
// @Param        id   path      string  true  "Account id; must be the session owner"
// @Success      200  {object}  messageResponse
// @Success      302  "No valid session; redirected to /"
// @Failure      403  {object}  messageResponse
// @Router       /user/{id} [delete]
func (h *AccountHandler) DeleteSelf(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	if err := h.accounts.DeleteSelf(c.Request().Context(), claims, c.Param("id")); err != nil {
		return err
	}

	h.metrics.AccountsDeletedTotal.Inc()
	middleware.ClearSessionCookie(c)
	return c.JSON(http.StatusOK, messageResponse{Message: "User deleted"})
}

// outcome labels err for the registration and login counters.
func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case errors.Is(err, domain.ErrUserNotFound):
		return metrics.ResultNotFound
	case errors.Is(err, domain.ErrInvalidPassword):
		return metrics.ResultInvalidPassword
	case errors.Is(err, domain.ErrMissingData),
		errors.Is(err, domain.ErrPasswordTooShort),
		errors.Is(err, domain.ErrPasswordTooLong),
		errors.Is(err, domain.ErrEmailInUse),
		errors.Is(err, domain.ErrUsernameInUse):
		return metrics.ResultRejected
	default:
		return metrics.ResultError
	}
}
