// Package auth implements password checks, token issuance and the
// login/register/refresh/logout flow with a single refresh-token slot per user.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"dompet/models"
	"dompet/pkg/apperr"
	"dompet/pkg/store"

	"golang.org/x/crypto/bcrypt"
)

// PublicUser is the user projection returned to clients.
type PublicUser struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Lastname string `json:"lastname"`
	Email    string `json:"email"`
}

// Project maps a user record to its public projection.
func Project(u *models.User) PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, Lastname: u.Lastname, Email: u.Email}
}

// Session is the result of a successful login or registration.
type Session struct {
	User         PublicUser
	AccessToken  string
	RefreshToken string
}

// Registration carries the fields needed to create an account.
type Registration struct {
	Name     string
	Lastname string
	Email    string
	Password string
}

// Flow coordinates credentials, tokens and the refresh-token slot.
type Flow struct {
	users    UserRepository
	verifier *CredentialVerifier
	tokens   *TokenService
	sessions *SessionStore
	// compared against when the email is unknown so both failure paths cost a bcrypt check
	dummyHash []byte
}

// NewFlow wires the auth flow.
func NewFlow(users UserRepository, verifier *CredentialVerifier, tokens *TokenService) *Flow {
	dummy, err := bcrypt.GenerateFromPassword([]byte("dompet-dummy-password"), bcrypt.MinCost)
	if err != nil {
		log.Printf("auth: dummy hash: %v", err)
	}
	return &Flow{
		users:     users,
		verifier:  verifier,
		tokens:    tokens,
		sessions:  NewSessionStore(users),
		dummyHash: dummy,
	}
}

// Login verifies credentials and starts a new session, superseding any
// previous refresh token. Unknown email and wrong password fail identically.
func (f *Flow) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := f.users.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			f.verifier.Verify(password, f.dummyHash)
			return nil, fmt.Errorf("invalid email or password: %w", apperr.ErrAuthentication)
		}
		return nil, err
	}
	if !f.verifier.Verify(password, u.HashedPassword) {
		return nil, fmt.Errorf("invalid email or password: %w", apperr.ErrAuthentication)
	}
	return f.start(ctx, u)
}

// Register creates the account and logs it in.
func (f *Flow) Register(ctx context.Context, r Registration) (*Session, error) {
	email := strings.TrimSpace(r.Email)
	if _, err := f.users.FindByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("user already exists: %w", apperr.ErrConflict)
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	hash, err := f.verifier.Hash(r.Password)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, fmt.Errorf("password too long: %w", apperr.ErrValidation)
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &models.User{
		Name:           strings.TrimSpace(r.Name),
		Lastname:       strings.TrimSpace(r.Lastname),
		Email:          email,
		HashedPassword: hash,
	}
	if err := f.users.Create(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicate) { // lost a race with another registration
			return nil, fmt.Errorf("user already exists: %w", apperr.ErrConflict)
		}
		return nil, err
	}
	return f.start(ctx, u)
}

func (f *Flow) start(ctx context.Context, u *models.User) (*Session, error) {
	access, err := f.tokens.IssueAccessToken(u.Email)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := f.tokens.IssueRefreshToken(u.Email)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	if err := f.sessions.Activate(ctx, u.ID, refresh); err != nil {
		return nil, err
	}
	u.RefreshToken = &refresh
	return &Session{User: Project(u), AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh exchanges the stored refresh token for a new access token. The
// refresh token itself is not rotated.
func (f *Flow) Refresh(ctx context.Context, presented string) (string, error) {
	if presented == "" {
		return "", fmt.Errorf("refresh token is required: %w", apperr.ErrAuthentication)
	}
	email, err := f.tokens.SubjectOf(presented, KindRefresh)
	if err != nil {
		return "", fmt.Errorf("invalid refresh token: %w", apperr.ErrAuthentication)
	}
	u, err := f.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", fmt.Errorf("invalid refresh token: %w", apperr.ErrAuthentication)
		}
		return "", err
	}
	if !f.sessions.Current(u, presented) {
		return "", fmt.Errorf("invalid refresh token: %w", apperr.ErrAuthentication)
	}
	access, err := f.tokens.IssueAccessToken(email)
	if err != nil {
		return "", fmt.Errorf("issue access token: %w", err)
	}
	return access, nil
}

// Logout clears the stored refresh token when presented is the current one.
// Calling it again, or with an unknown or stale token, is a no-op.
func (f *Flow) Logout(ctx context.Context, presented string) error {
	if presented == "" {
		return nil
	}
	email, err := f.tokens.SubjectOf(presented, KindRefresh)
	if err != nil {
		return nil
	}
	u, err := f.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}
	if !f.sessions.Current(u, presented) {
		return nil
	}
	return f.sessions.Revoke(ctx, u.ID)
}

// Identify resolves the user behind a valid access token.
func (f *Flow) Identify(ctx context.Context, accessToken string) (*models.User, error) {
	email, err := f.tokens.SubjectOf(accessToken, KindAccess)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", apperr.ErrAuthentication)
	}
	u, err := f.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("unknown user: %w", apperr.ErrAuthentication)
		}
		return nil, err
	}
	return u, nil
}

// VerifyAccess reports whether token is a currently valid access token.
func (f *Flow) VerifyAccess(token string) bool {
	_, err := f.tokens.SubjectOf(token, KindAccess)
	return err == nil
}
