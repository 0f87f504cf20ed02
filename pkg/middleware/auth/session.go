package authmw

import (
	"context"
	"errors"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/happyfeet/storefront/internal/auth"
	"github.com/happyfeet/storefront/pkg/authz"
	"github.com/happyfeet/storefront/pkg/logging"
	"github.com/happyfeet/storefront/pkg/tokens"
)

type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*auth.Tokens, error)
}

// Session authenticates admin requests from the access cookie, refreshing an
// expired access token in place when a valid refresh cookie is present.
type Session struct {
	AccessSecret []byte
	Refresher    Refresher
	Admins       *authz.AllowList
	CookieSecure bool
}

func (m *Session) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		l := logging.FromContext(ctx).With("middleware", "require_admin")

		principal, err := m.authenticate(c)
		if err != nil {
			l.Warn("auth_failed", "status", 401, "reason", err.Error())
			return err
		}

		ctx = authz.IntoContext(ctx, principal)
		if _, err := m.Admins.RequireAdmin(ctx); err != nil {
			l.Warn("auth_failed", "status", 403, "email", principal.Email, "error", err)
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}

		c.SetRequest(c.Request().WithContext(ctx))
		c.Set("user_id", principal.UserID)
		return next(c)
	}
}

func (m *Session) authenticate(c echo.Context) (authz.Principal, error) {
	accessCookie, err := c.Cookie(tokens.AccessCookie)
	if err == nil && accessCookie.Value != "" {
		claims, err := tokens.AccessClaimsFromToken(accessCookie.Value, m.AccessSecret)
		if err == nil {
			return authz.Principal{UserID: claims.Subject, Email: claims.Email}, nil
		}
		if !errors.Is(err, jwt.ErrTokenExpired) {
			m.clearCookies(c)
			return authz.Principal{}, echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
		}
	}

	refreshCookie, err := c.Cookie(tokens.RefreshCookie)
	if err != nil || refreshCookie.Value == "" {
		return authz.Principal{}, echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
	}

	res, err := m.Refresher.Refresh(c.Request().Context(), refreshCookie.Value)
	if err != nil {
		m.clearCookies(c)
		return authz.Principal{}, echo.NewHTTPError(http.StatusUnauthorized, "session expired")
	}

	SetSessionCookies(c, res, m.CookieSecure)
	return res.Principal, nil
}

func (m *Session) clearCookies(c echo.Context) {
	ClearSessionCookies(c, m.CookieSecure)
}

func SetSessionCookies(c echo.Context, t *auth.Tokens, secure bool) {
	c.SetCookie(tokens.CreateCookie(tokens.AccessCookie, t.AccessToken, "/", t.AccessExp, secure))
	c.SetCookie(tokens.CreateCookie(tokens.RefreshCookie, t.RefreshToken, "/", t.RefreshExp, secure))
}

func ClearSessionCookies(c echo.Context, secure bool) {
	c.SetCookie(tokens.DeleteCookie(tokens.AccessCookie, "/", secure))
	c.SetCookie(tokens.DeleteCookie(tokens.RefreshCookie, "/", secure))
}
