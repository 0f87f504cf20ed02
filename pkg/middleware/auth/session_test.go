package authmw

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/happyfeet/storefront/internal/auth"
	"github.com/happyfeet/storefront/pkg/authz"
	"github.com/happyfeet/storefront/pkg/tokens"
)

var secret = []byte("test-access-secret")

type fakeRefresher struct {
	calls int
	res   *auth.Tokens
	err   error
}

func (f *fakeRefresher) Refresh(context.Context, string) (*auth.Tokens, error) {
	f.calls++
	return f.res, f.err
}

func accessToken(t *testing.T, email string, exp time.Time) string {
	t.Helper()
	tok, err := tokens.NewAccessToken("user-1", email, exp, secret)
	require.NoError(t, err)
	return tok
}

func run(t *testing.T, m *Session, cookies ...*http.Cookie) (*httptest.ResponseRecorder, *authz.Principal, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen *authz.Principal
	err := m.RequireAdmin(func(c echo.Context) error {
		p, ok := authz.FromContext(c.Request().Context())
		if ok {
			seen = &p
		}
		return c.NoContent(http.StatusNoContent)
	})(c)
	return rec, seen, err
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	require.True(t, errors.As(err, &he), "expected echo.HTTPError, got %v", err)
	return he.Code
}

func newSession(r Refresher) *Session {
	return &Session{
		AccessSecret: secret,
		Refresher:    r,
		Admins:       authz.NewAllowList([]string{"owner@happyfeet.test"}),
	}
}

func TestRequireAdmin_ValidAccessToken(t *testing.T) {
	r := &fakeRefresher{}
	tok := accessToken(t, "owner@happyfeet.test", time.Now().Add(time.Minute))

	rec, p, err := run(t, newSession(r), &http.Cookie{Name: tokens.AccessCookie, Value: tok})
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, p)
	assert.Equal(t, "owner@happyfeet.test", p.Email)
	assert.Zero(t, r.calls)
}

func TestRequireAdmin_NotOnAllowList(t *testing.T) {
	tok := accessToken(t, "someone@else.test", time.Now().Add(time.Minute))

	_, p, err := run(t, newSession(&fakeRefresher{}), &http.Cookie{Name: tokens.AccessCookie, Value: tok})
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))
	assert.Nil(t, p)
}

func TestRequireAdmin_NoCookies(t *testing.T) {
	_, _, err := run(t, newSession(&fakeRefresher{}))
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
}

func TestRequireAdmin_TamperedToken(t *testing.T) {
	r := &fakeRefresher{}
	_, _, err := run(t, newSession(r),
		&http.Cookie{Name: tokens.AccessCookie, Value: "abc.def.ghi"},
		&http.Cookie{Name: tokens.RefreshCookie, Value: "r"},
	)
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
	assert.Zero(t, r.calls)
}

func TestRequireAdmin_RefreshesExpiredToken(t *testing.T) {
	r := &fakeRefresher{res: &auth.Tokens{
		AccessToken:  "new-access",
		RefreshToken: "new-refresh",
		AccessExp:    time.Now().Add(15 * time.Minute),
		RefreshExp:   time.Now().Add(time.Hour),
		Principal:    authz.Principal{UserID: "user-1", Email: "owner@happyfeet.test"},
	}}
	expired := accessToken(t, "owner@happyfeet.test", time.Now().Add(-time.Minute))

	rec, p, err := run(t, newSession(r),
		&http.Cookie{Name: tokens.AccessCookie, Value: expired},
		&http.Cookie{Name: tokens.RefreshCookie, Value: "old-refresh"},
	)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, 1, r.calls)

	var names []string
	for _, ck := range rec.Result().Cookies() {
		names = append(names, ck.Name+"="+ck.Value)
	}
	assert.ElementsMatch(t, []string{"accessToken=new-access", "refreshToken=new-refresh"}, names)
}

func TestRequireAdmin_RefreshFails(t *testing.T) {
	r := &fakeRefresher{err: auth.ErrTokenRevoked}
	rec, _, err := run(t, newSession(r), &http.Cookie{Name: tokens.RefreshCookie, Value: "revoked"})
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))

	for _, ck := range rec.Result().Cookies() {
		assert.Empty(t, ck.Value)
	}
}
