package auth

import (
	"context"
	"crypto/subtle"

	"dompet/models"
)

// UserRepository is the storage the auth flow needs.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, u *models.User) error
	SetRefreshToken(ctx context.Context, id uint, token string) error
}

// SessionStore keeps one refresh token per user on the user record.
// Storing a new token supersedes the previous one.
type SessionStore struct {
	users UserRepository
}

// NewSessionStore wraps users.
func NewSessionStore(users UserRepository) *SessionStore {
	return &SessionStore{users: users}
}

// Activate stores token as the user's current refresh token.
func (s *SessionStore) Activate(ctx context.Context, userID uint, token string) error {
	return s.users.SetRefreshToken(ctx, userID, token)
}

// Revoke clears the user's refresh token.
func (s *SessionStore) Revoke(ctx context.Context, userID uint) error {
	return s.users.SetRefreshToken(ctx, userID, "")
}

// Current reports whether presented is the refresh token stored for u.
func (s *SessionStore) Current(u *models.User, presented string) bool {
	if u == nil || u.RefreshToken == nil || presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(*u.RefreshToken), []byte(presented)) == 1
}
