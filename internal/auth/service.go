package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/happyfeet/storefront/internal/models"
	"github.com/happyfeet/storefront/pkg/authz"
	"github.com/happyfeet/storefront/pkg/hash"
	"github.com/happyfeet/storefront/pkg/logging"
	"github.com/happyfeet/storefront/pkg/tokens"
)

const (
	AccessTTL  = 15 * time.Minute
	RefreshTTL = 7 * 24 * time.Hour

	minPasswordLen = 8
)

var (
	ErrValidation         = errors.New("validation error")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

type Service struct {
	Repo          *GormRepo
	Admins        *authz.AllowList
	AccessSecret  []byte
	RefreshSecret []byte
	Now           func() time.Time
}

// Tokens is a freshly issued access/refresh pair.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
	Principal    authz.Principal
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Login accepts only allow-listed accounts. Unknown emails and wrong
// passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*Tokens, error) {
	email = normalizeEmail(email)
	l := logging.FromContext(ctx).With("svc", "auth.login", "email", email)

	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrValidation)
	}
	if !s.Admins.Allowed(email) {
		l.Warn("login_failed", "status", 401, "reason", "email not on admin allow-list")
		return nil, ErrInvalidCredentials
	}

	user, err := s.Repo.FindAdminByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		l.Warn("login_failed", "status", 401, "reason", "no admin account")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		l.Error("login_failed", "status", 500, "error", err)
		return nil, err
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "status", 401, "reason", "wrong password")
		return nil, ErrInvalidCredentials
	}

	t, stored, err := s.issue(user)
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot sign tokens", "error", err)
		return nil, err
	}
	if err := s.Repo.AddRefreshToken(ctx, stored); err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot store refresh token", "error", err)
		return nil, err
	}

	l.Info("login_successful")
	return t, nil
}

func (s *Service) issue(user *models.AdminUser) (*Tokens, *models.RefreshToken, error) {
	now := s.now()
	accessExp := now.Add(AccessTTL)
	refreshExp := now.Add(RefreshTTL)

	access, err := tokens.NewAccessToken(user.ID.String(), user.Email, accessExp, s.AccessSecret)
	if err != nil {
		return nil, nil, err
	}
	refresh, jti, err := tokens.NewRefreshToken(user.ID.String(), refreshExp, s.RefreshSecret)
	if err != nil {
		return nil, nil, err
	}

	stored := &models.RefreshToken{
		Token:     tokens.Sha256Hex(refresh),
		UserID:    user.ID,
		JTI:       jti,
		ExpiresAt: refreshExp.Unix(),
	}
	return &Tokens{
		AccessToken:  access,
		RefreshToken: refresh,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
		Principal:    authz.Principal{UserID: user.ID.String(), Email: user.Email},
	}, stored, nil
}

// Refresh exchanges a refresh token for a new pair. The presented token is
// revoked in the same transaction that stores its successor.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*Tokens, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	claims, err := tokens.RefreshClaimsFromToken(refreshToken, s.RefreshSecret)
	if err != nil {
		l.Warn("refresh_failed", "status", 401, "reason", "invalid refresh token", "error", err)
		return nil, ErrTokenRevoked
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrTokenRevoked
	}

	user, err := s.Repo.FindAdminByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTokenRevoked
	}
	if err != nil {
		l.Error("refresh_failed", "status", 500, "error", err)
		return nil, err
	}
	if !s.Admins.Allowed(user.Email) {
		l.Warn("refresh_failed", "status", 401, "reason", "email removed from allow-list")
		return nil, ErrTokenRevoked
	}

	t, stored, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.RotateRefreshToken(ctx, claims.ID, tokens.Sha256Hex(refreshToken), stored, s.now()); err != nil {
		if !errors.Is(err, ErrTokenRevoked) {
			l.Error("refresh_failed", "status", 500, "error", err)
		}
		return nil, err
	}
	return t, nil
}

// LogOut revokes the refresh token. Tokens that no longer parse are ignored.
func (s *Service) LogOut(ctx context.Context, refreshToken string) error {
	claims, err := tokens.RefreshClaimsFromToken(refreshToken, s.RefreshSecret)
	if err != nil {
		return nil
	}
	return s.Repo.RevokeRefreshToken(ctx, claims.ID)
}

// EnsureAdmin creates the account or resets its password. It reports whether
// the account is new.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	email = normalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return false, fmt.Errorf("%w: invalid email %q", ErrValidation, email)
	}
	if len(password) < minPasswordLen {
		return false, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLen)
	}
	pwHash, err := hash.HashPassword(password)
	if err != nil {
		return false, err
	}
	return s.Repo.SaveAdmin(ctx, email, pwHash)
}
