package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	types "github.com/jCool10/LearnSmart-sub001/internal/domain"
	"github.com/jCool10/LearnSmart-sub001/internal/pkg/pointers"
	"github.com/jCool10/LearnSmart-sub001/internal/platform/apierr"
	"github.com/jCool10/LearnSmart-sub001/internal/platform/ctxutil"
)

func registerInput(email string) RegisterInput {
	return RegisterInput{
		Email:     pointers.String(email),
		Password:  pointers.String("correct-horse"),
		FirstName: pointers.String("Ada"),
		LastName:  pointers.String("Lovelace"),
	}
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)

	u, err := env.auth.Register(env.ctx, registerInput("  Ada@Example.com "))
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.Equal(t, types.RoleUser, u.Role)
	assert.NotEqual(t, "correct-horse", u.Password)

	_, err = env.auth.Register(env.ctx, registerInput("ada@example.com"))
	assert.True(t, apierr.IsConflict(err))

	bad := registerInput("not-an-email")
	bad.Password = pointers.String("short")
	_, err = env.auth.Register(env.ctx, bad)
	ae, ok := apierr.As(err)
	require.True(t, ok)
	assert.Len(t, ae.Fields, 2)

	_, err = env.auth.Login(env.ctx, LoginInput{Email: pointers.String("ada@example.com"), Password: pointers.String("wrong")})
	assert.Equal(t, 401, apierr.StatusOf(err))
	_, err = env.auth.Login(env.ctx, LoginInput{Email: pointers.String("nobody@example.com"), Password: pointers.String("correct-horse")})
	assert.Equal(t, 401, apierr.StatusOf(err))

	pair, err := env.auth.Login(env.ctx, LoginInput{Email: pointers.String("ADA@example.com"), Password: pointers.String("correct-horse")})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.Equal(t, int64((15 * time.Minute).Seconds()), pair.ExpiresIn)
	assert.NotEmpty(t, pair.RefreshToken)

	ctx, err := env.auth.SetContextFromToken(env.ctx, pair.AccessToken)
	require.NoError(t, err)
	rd := ctxutil.GetRequestData(ctx)
	require.NotNil(t, rd)
	assert.Equal(t, u.ID, rd.UserID)
	assert.Equal(t, types.RoleUser, rd.Role)

	me, err := env.userSvc.GetMe(ctx)
	require.NoError(t, err)
	assert.Equal(t, u.ID, me.ID)
}

func TestLoginRejectsDisabledAccount(t *testing.T) {
	env := newTestEnv(t)
	u, err := env.auth.Register(env.ctx, registerInput("off@example.com"))
	require.NoError(t, err)
	require.NoError(t, env.db.Model(&types.User{}).Where("id = ?", u.ID).Update("is_active", false).Error)

	_, err = env.auth.Login(env.ctx, LoginInput{Email: pointers.String("off@example.com"), Password: pointers.String("correct-horse")})
	assert.Equal(t, 403, apierr.StatusOf(err))
}

func TestRefreshRotatesAndLogoutEndsSession(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.auth.Register(env.ctx, registerInput("rot@example.com"))
	require.NoError(t, err)
	first, err := env.auth.Login(env.ctx, LoginInput{Email: pointers.String("rot@example.com"), Password: pointers.String("correct-horse")})
	require.NoError(t, err)

	second, err := env.auth.Refresh(env.ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.NotEqual(t, first.AccessToken, second.AccessToken)

	_, err = env.auth.Refresh(env.ctx, first.RefreshToken)
	assert.Equal(t, 401, apierr.StatusOf(err), "old refresh token is single use")
	_, err = env.auth.SetContextFromToken(env.ctx, first.AccessToken)
	assert.Equal(t, 401, apierr.StatusOf(err), "rotated access token no longer has a session")

	ctx, err := env.auth.SetContextFromToken(env.ctx, second.AccessToken)
	require.NoError(t, err)
	require.NoError(t, env.auth.Logout(ctx))
	_, err = env.auth.SetContextFromToken(env.ctx, second.AccessToken)
	assert.Equal(t, 401, apierr.StatusOf(err))

	assert.Equal(t, 401, apierr.StatusOf(env.auth.Logout(env.ctx)))
}

func TestRefreshExpired(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.auth.Register(env.ctx, registerInput("late@example.com"))
	require.NoError(t, err)
	pair, err := env.auth.Login(env.ctx, LoginInput{Email: pointers.String("late@example.com"), Password: pointers.String("correct-horse")})
	require.NoError(t, err)

	env.auth.(*authService).now = func() time.Time { return time.Now().UTC().Add(48 * time.Hour) }
	_, err = env.auth.Refresh(env.ctx, pair.RefreshToken)
	require.Equal(t, 401, apierr.StatusOf(err))
	assert.Contains(t, err.Error(), "expired")

	env.auth.(*authService).now = func() time.Time { return time.Now().UTC() }
	_, err = env.auth.Refresh(env.ctx, pair.RefreshToken)
	assert.Contains(t, err.Error(), "invalid", "expired row was pruned")
}

func TestSetContextFromTokenRejectsGarbage(t *testing.T) {
	env := newTestEnv(t)
	for _, tok := range []string{"", "abc.def.ghi"} {
		_, err := env.auth.SetContextFromToken(env.ctx, tok)
		assert.Equal(t, 401, apierr.StatusOf(err), "token %q", tok)
	}
}

func TestSetRole(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.auth.Register(env.ctx, registerInput("grace@example.com"))
	require.NoError(t, err)
	pair, err := env.auth.Login(env.ctx, LoginInput{Email: pointers.String("grace@example.com"), Password: pointers.String("correct-horse")})
	require.NoError(t, err)

	got, err := env.userSvc.SetRole(env.ctx, "grace@example.com", "ADMIN")
	require.NoError(t, err)
	assert.Equal(t, types.RoleAdmin, got.Role)

	// the old token still claims the previous role, so it no longer works
	_, err = env.auth.SetContextFromToken(env.ctx, pair.AccessToken)
	assert.Equal(t, 401, apierr.StatusOf(err))
	pair, err = env.auth.Login(env.ctx, LoginInput{Email: pointers.String("grace@example.com"), Password: pointers.String("correct-horse")})
	require.NoError(t, err)
	ctx, err := env.auth.SetContextFromToken(env.ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.True(t, ctxutil.GetRequestData(ctx).IsAdmin())

	got, err = env.userSvc.SetRole(env.ctx, "grace@example.com", types.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, types.RoleAdmin, got.Role)
	_, err = env.auth.SetContextFromToken(env.ctx, pair.AccessToken)
	assert.NoError(t, err, "re-applying the same role keeps sessions")

	_, err = env.userSvc.SetRole(env.ctx, "grace@example.com", "root")
	assert.True(t, apierr.IsValidation(err))
	_, err = env.userSvc.SetRole(env.ctx, "ghost@example.com", types.RoleAdmin)
	assert.True(t, apierr.IsNotFound(err))
}
