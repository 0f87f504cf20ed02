package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/happyfeet/storefront/internal/auth"
	"github.com/happyfeet/storefront/internal/transport"
	"github.com/happyfeet/storefront/pkg/logging"
	authmw "github.com/happyfeet/storefront/pkg/middleware/auth"
	"github.com/happyfeet/storefront/pkg/tokens"
)

type AuthHTTP struct {
	Svc          *auth.Service
	CookieSecure bool
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "login_error", "invalid body", err)
	}

	res, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return fail(l, "login_failed", err)
	}

	authmw.SetSessionCookies(c, res, h.CookieSecure)
	return c.JSON(http.StatusOK, echo.Map{"email": res.Principal.Email})
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_refresh")

	ck, err := c.Cookie(tokens.RefreshCookie)
	if err != nil || ck.Value == "" {
		l.Warn("refresh_failed", "status", 401, "reason", "refresh token missing")
		return echo.NewHTTPError(http.StatusUnauthorized, "refresh token missing")
	}

	res, err := h.Svc.Refresh(ctx, ck.Value)
	if err != nil {
		authmw.ClearSessionCookies(c, h.CookieSecure)
		return fail(l, "refresh_failed", err)
	}

	authmw.SetSessionCookies(c, res, h.CookieSecure)
	return c.JSON(http.StatusOK, echo.Map{"email": res.Principal.Email})
}

func (h *AuthHTTP) LogOut(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_logout")

	if ck, err := c.Cookie(tokens.RefreshCookie); err == nil && ck.Value != "" {
		if err := h.Svc.LogOut(ctx, ck.Value); err != nil {
			authmw.ClearSessionCookies(c, h.CookieSecure)
			return fail(l, "logout_failed", err)
		}
	}

	authmw.ClearSessionCookies(c, h.CookieSecure)
	l.Info("successful_logout")
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}
