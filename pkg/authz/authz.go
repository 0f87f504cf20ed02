// Package authz holds the one capability check guarding the back office.
// The HTTP edge and every mutating service method call RequireAdmin, so the
// two checks cannot drift apart.
package authz

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

type Principal struct {
	UserID string
	Email  string
}

type ctxKey struct{}

func IntoContext(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(Principal)
	return p, ok
}

type AllowList struct {
	emails map[string]struct{}
}

func NewAllowList(emails []string) *AllowList {
	a := &AllowList{emails: make(map[string]struct{}, len(emails))}
	for _, e := range emails {
		if n := normalize(e); n != "" {
			a.emails[n] = struct{}{}
		}
	}
	return a
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (a *AllowList) Allowed(email string) bool {
	if a == nil {
		return false
	}
	_, ok := a.emails[normalize(email)]
	return ok
}

func (a *AllowList) Len() int {
	if a == nil {
		return 0
	}
	return len(a.emails)
}

// RequireAdmin returns the principal carried by ctx if it is on the allow-list.
func (a *AllowList) RequireAdmin(ctx context.Context) (Principal, error) {
	p, ok := FromContext(ctx)
	if !ok || p.Email == "" {
		return Principal{}, ErrUnauthenticated
	}
	if !a.Allowed(p.Email) {
		return Principal{}, ErrForbidden
	}
	return p, nil
}
