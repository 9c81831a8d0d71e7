package store

import (
	"context"
	"fmt"

	"dompet/models"

	"gorm.io/gorm"
)

// Users provides access to user records.
type Users struct {
	db *gorm.DB
}

// NewUsers creates a user repository.
func NewUsers(db *gorm.DB) *Users {
	return &Users{db: db}
}

// Create inserts u. A taken email yields ErrDuplicate.
func (r *Users) Create(ctx context.Context, u *models.User) error {
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		if isUniqueConstraintError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// FindByEmail looks a user up by exact (case-sensitive) email.
func (r *Users) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// SetRefreshToken overwrites the stored refresh token. An empty token ends the session.
func (r *Users) SetRefreshToken(ctx context.Context, id uint, token string) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("refresh_token", token)
	if res.Error != nil {
		return fmt.Errorf("store refresh token: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ActiveSessions counts users holding a refresh token.
func (r *Users) ActiveSessions(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("refresh_token IS NOT NULL AND refresh_token <> ''").
		Count(&n).Error
	return n, err
}

// ClearAllRefreshTokens empties every stored refresh token and returns the
// number of sessions ended.
func (r *Users) ClearAllRefreshTokens(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("refresh_token IS NOT NULL AND refresh_token <> ''").
		Update("refresh_token", "")
	return res.RowsAffected, res.Error
}

// SetPassword replaces the password hash.
func (r *Users) SetPassword(ctx context.Context, id uint, hash []byte) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("hashed_password", hash)
	if res.Error != nil {
		return fmt.Errorf("update password: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
