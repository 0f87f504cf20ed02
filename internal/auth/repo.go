package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/happyfeet/storefront/internal/models"
)

var ErrTokenRevoked = errors.New("refresh token expired or revoked")

type GormRepo struct {
	DB *gorm.DB
}

func (r *GormRepo) FindAdminByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	var u models.AdminUser
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormRepo) FindAdminByID(ctx context.Context, id uuid.UUID) (*models.AdminUser, error) {
	var u models.AdminUser
	if err := r.DB.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// SaveAdmin creates the account or replaces its password hash.
func (r *GormRepo) SaveAdmin(ctx context.Context, email, passwordHash string) (bool, error) {
	created := false
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u models.AdminUser
		err := tx.Where("email = ?", email).First(&u).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			created = true
			return tx.Create(&models.AdminUser{Email: email, PasswordHash: passwordHash}).Error
		}
		if err != nil {
			return err
		}
		return tx.Model(&u).Update("password_hash", passwordHash).Error
	})
	return created, err
}

func (r *GormRepo) AddRefreshToken(ctx context.Context, t *models.RefreshToken) error {
	return r.DB.WithContext(ctx).Create(t).Error
}

func refreshUsable(tx *gorm.DB, jti, hashed string, now time.Time) error {
	var t models.RefreshToken
	err := tx.Where("jti = ?", jti).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrTokenRevoked
	}
	if err != nil {
		return err
	}
	if t.Revoked || t.ExpiresAt < now.Unix() || t.Token != hashed {
		return ErrTokenRevoked
	}
	return nil
}

func revoke(tx *gorm.DB, jti string) error {
	return tx.Model(&models.RefreshToken{}).Where("jti = ?", jti).Update("revoked", true).Error
}

// RotateRefreshToken revokes the old token and stores its replacement in one
// transaction, so a token can be exchanged only once.
func (r *GormRepo) RotateRefreshToken(ctx context.Context, oldJTI, oldHash string, next *models.RefreshToken, now time.Time) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := refreshUsable(tx, oldJTI, oldHash, now); err != nil {
			return err
		}
		if err := revoke(tx, oldJTI); err != nil {
			return err
		}
		return tx.Create(next).Error
	})
}

func (r *GormRepo) RevokeRefreshToken(ctx context.Context, jti string) error {
	return revoke(r.DB.WithContext(ctx), jti)
}
