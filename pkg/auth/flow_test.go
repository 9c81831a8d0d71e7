package auth_test

import (
	"context"
	"testing"

	"dompet/pkg/apperr"
	"dompet/pkg/auth"
	"dompet/pkg/store"
	"dompet/pkg/store/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newFlow(t *testing.T) (*auth.Flow, *store.Users, *auth.TokenService) {
	t.Helper()
	users := store.NewUsers(storetest.Open(t))
	tokens, err := auth.NewTokenService("flow-test-secret")
	require.NoError(t, err)
	return auth.NewFlow(users, auth.NewCredentialVerifier(bcrypt.MinCost), tokens), users, tokens
}

func register(t *testing.T, f *auth.Flow) *auth.Session {
	t.Helper()
	s, err := f.Register(context.Background(), auth.Registration{
		Name: "Ana", Lastname: "Perez", Email: "a@x.com", Password: "secret1",
	})
	require.NoError(t, err)
	return s
}

func TestRegister(t *testing.T) {
	f, users, tokens := newFlow(t)
	ctx := context.Background()

	s := register(t, f)
	assert.Equal(t, "a@x.com", s.User.Email)
	assert.Equal(t, "Ana", s.User.Name)
	assert.True(t, tokens.Validate(s.AccessToken))
	assert.True(t, tokens.Validate(s.RefreshToken))

	u, err := users.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.NotNil(t, u.RefreshToken)
	assert.Equal(t, s.RefreshToken, *u.RefreshToken)
	assert.NotEqual(t, "secret1", string(u.HashedPassword))

	_, err = f.Register(ctx, auth.Registration{Name: "B", Lastname: "C", Email: "a@x.com", Password: "other12"})
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestLogin(t *testing.T) {
	f, _, _ := newFlow(t)
	ctx := context.Background()
	register(t, f)

	s, err := f.Login(ctx, "a@x.com", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, s.AccessToken)
	assert.Equal(t, "Perez", s.User.Lastname)

	_, err = f.Login(ctx, "a@x.com", "wrong-password")
	assert.ErrorIs(t, err, apperr.ErrAuthentication)

	_, err = f.Login(ctx, "nobody@x.com", "secret1")
	assert.ErrorIs(t, err, apperr.ErrAuthentication)
}

func TestRefresh_SupersededBySecondLogin(t *testing.T) {
	f, _, tokens := newFlow(t)
	ctx := context.Background()
	first := register(t, f)

	access, err := f.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.True(t, tokens.Validate(access))

	second, err := f.Login(ctx, "a@x.com", "secret1")
	require.NoError(t, err)

	_, err = f.Refresh(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, apperr.ErrAuthentication, "older session must be superseded")

	_, err = f.Refresh(ctx, second.RefreshToken)
	assert.NoError(t, err)
}

func TestRefresh_Rejections(t *testing.T) {
	f, _, tokens := newFlow(t)
	ctx := context.Background()
	register(t, f)

	_, err := f.Refresh(ctx, "")
	assert.ErrorIs(t, err, apperr.ErrAuthentication)

	_, err = f.Refresh(ctx, "garbage")
	assert.ErrorIs(t, err, apperr.ErrAuthentication)

	// well signed, but never stored
	orphan, err := tokens.IssueRefreshToken("a@x.com")
	require.NoError(t, err)
	_, err = f.Refresh(ctx, orphan)
	assert.ErrorIs(t, err, apperr.ErrAuthentication)

	ghost, err := tokens.IssueRefreshToken("ghost@x.com")
	require.NoError(t, err)
	_, err = f.Refresh(ctx, ghost)
	assert.ErrorIs(t, err, apperr.ErrAuthentication)
}

func TestRefresh_SameMessageForEveryRejection(t *testing.T) {
	f, _, _ := newFlow(t)
	ctx := context.Background()
	first := register(t, f)
	_, err := f.Login(ctx, "a@x.com", "secret1")
	require.NoError(t, err)

	_, superseded := f.Refresh(ctx, first.RefreshToken)
	_, garbage := f.Refresh(ctx, "garbage")
	require.Error(t, superseded)
	require.Error(t, garbage)
	assert.Equal(t, garbage.Error(), superseded.Error())
}

func TestLogout(t *testing.T) {
	f, users, _ := newFlow(t)
	ctx := context.Background()
	s := register(t, f)

	require.NoError(t, f.Logout(ctx, s.RefreshToken))
	u, err := users.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "", *u.RefreshToken)

	_, err = f.Refresh(ctx, s.RefreshToken)
	assert.ErrorIs(t, err, apperr.ErrAuthentication)

	// idempotent
	require.NoError(t, f.Logout(ctx, s.RefreshToken))
	require.NoError(t, f.Logout(ctx, ""))
}

func TestLogout_StaleTokenKeepsNewerSession(t *testing.T) {
	f, _, _ := newFlow(t)
	ctx := context.Background()
	first := register(t, f)
	second, err := f.Login(ctx, "a@x.com", "secret1")
	require.NoError(t, err)

	require.NoError(t, f.Logout(ctx, first.RefreshToken))
	_, err = f.Refresh(ctx, second.RefreshToken)
	assert.NoError(t, err)
}

func TestIdentify(t *testing.T) {
	f, _, _ := newFlow(t)
	ctx := context.Background()
	s := register(t, f)

	u, err := f.Identify(ctx, s.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, s.User.ID, u.ID)

	_, err = f.Identify(ctx, "nope")
	assert.ErrorIs(t, err, apperr.ErrAuthentication)

	_, err = f.Identify(ctx, s.RefreshToken)
	assert.ErrorIs(t, err, apperr.ErrAuthentication)
}

func TestTokenKindsAreNotInterchangeable(t *testing.T) {
	f, _, _ := newFlow(t)
	ctx := context.Background()
	s := register(t, f)

	assert.True(t, f.VerifyAccess(s.AccessToken))
	assert.False(t, f.VerifyAccess(s.RefreshToken))

	_, err := f.Refresh(ctx, s.AccessToken)
	assert.ErrorIs(t, err, apperr.ErrAuthentication)

	// an access token does not end the session
	require.NoError(t, f.Logout(ctx, s.AccessToken))
	_, err = f.Refresh(ctx, s.RefreshToken)
	assert.NoError(t, err)
}
