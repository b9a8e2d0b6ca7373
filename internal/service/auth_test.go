package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fraudcheck/cli/internal/models"
	"github.com/fraudcheck/cli/internal/operation"
	"github.com/fraudcheck/cli/internal/utils"
)

func TestAuthService_Login(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("signs in and caches the profile", func(t *testing.T) {
		e := newEnv(t, 0)

		res, err := e.auth.Login(ctx, models.LoginRequest{Email: " " + testEmail + " ", Password: testPassword})

		require.NoError(t, err)
		require.NotNil(t, res.User)
		require.Equal(t, testEmail, res.User.Email)
		require.NotEmpty(t, res.Tokens.AccessToken)

		sess := e.auth.Session()
		require.True(t, sess.IsAuthenticated)
		require.NotNil(t, sess.User)
		require.Equal(t, testEmail, sess.User.Email)

		require.Equal(t, operation.Fulfilled, e.auth.LoginState().Snapshot().Status)
		require.Equal(t, operation.Fulfilled, e.auth.ProfileState().Snapshot().Status)
	})

	t.Run("profile failure still signs in", func(t *testing.T) {
		e := newEnv(t, 0)
		e.backend.FailProfile(true)

		res, err := e.auth.Login(ctx, models.LoginRequest{Email: testEmail, Password: testPassword})

		require.NoError(t, err)
		require.Nil(t, res.User)

		sess := e.auth.Session()
		require.True(t, sess.IsAuthenticated)
		require.Nil(t, sess.User)

		require.Equal(t, operation.Fulfilled, e.auth.LoginState().Snapshot().Status)
		profile := e.auth.ProfileState().Snapshot()
		require.Equal(t, operation.Rejected, profile.Status)
		require.Equal(t, "Service unavailable", profile.Error)
	})

	t.Run("session ending during profile fetch rejects login", func(t *testing.T) {
		e := newEnv(t, 0)
		e.backend.RejectAll(true)
		e.backend.FailRefresh(true)

		res, err := e.auth.Login(ctx, models.LoginRequest{Email: testEmail, Password: testPassword})

		require.ErrorIs(t, err, utils.ErrSessionExpired)
		require.Nil(t, res)
		require.False(t, e.auth.Session().IsAuthenticated)

		rec := e.auth.LoginState().Snapshot()
		require.Equal(t, operation.Rejected, rec.Status)
		require.Equal(t, "session expired, please login again", rec.Error)
		require.Equal(t, int32(1), e.ended.Load())
	})

	t.Run("wrong password", func(t *testing.T) {
		e := newEnv(t, 0)

		_, err := e.auth.Login(ctx, models.LoginRequest{Email: testEmail, Password: "nope"})

		require.ErrorIs(t, err, utils.ErrUnauthorized)
		rec := e.auth.LoginState().Snapshot()
		require.Equal(t, operation.Rejected, rec.Status)
		require.Equal(t, "Invalid email or password", rec.Error)
		require.False(t, e.auth.Session().IsAuthenticated)
		require.Zero(t, e.backend.RefreshCalls())
		require.Zero(t, e.ended.Load())
	})

	t.Run("invalid email rejected before the network", func(t *testing.T) {
		e := newEnv(t, 0)

		_, err := e.auth.Login(ctx, models.LoginRequest{Email: "not-an-email", Password: testPassword})

		var validationErr *utils.ValidationError
		require.ErrorAs(t, err, &validationErr)
		require.Equal(t, "email", validationErr.Field)

		rec := e.auth.LoginState().Snapshot()
		require.Equal(t, operation.Rejected, rec.Status)
		require.Equal(t, "email: invalid email format", rec.Error)
	})
}

func TestAuthService_Register(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("creates the account", func(t *testing.T) {
		e := newEnv(t, 0)

		user, err := e.auth.Register(ctx, models.RegisterRequest{
			Email:       "ravi@example.com",
			Password:    "An0ther!one",
			FullName:    "Ravi Kumar",
			PhoneNumber: "+91 98765-43210",
		})

		require.NoError(t, err)
		require.Equal(t, "ravi@example.com", user.Email)
		require.Equal(t, operation.Fulfilled, e.auth.RegisterState().Snapshot().Status)
		require.False(t, e.auth.Session().IsAuthenticated)
	})

	t.Run("weak password lists every broken rule", func(t *testing.T) {
		e := newEnv(t, 0)

		_, err := e.auth.Register(ctx, models.RegisterRequest{
			Email:       "ravi@example.com",
			Password:    "short",
			FullName:    "Ravi Kumar",
			PhoneNumber: "9876543210",
		})

		require.Error(t, err)
		msg := e.auth.RegisterState().Snapshot().Error
		require.Contains(t, msg, "at least 8 characters")
		require.Contains(t, msg, "uppercase")
		require.Contains(t, msg, "number")
		require.Contains(t, msg, "special character")
	})

	t.Run("existing account", func(t *testing.T) {
		e := newEnv(t, 0)

		_, err := e.auth.Register(ctx, models.RegisterRequest{
			Email:       testEmail,
			Password:    testPassword,
			FullName:    "Asha",
			PhoneNumber: "9876543210",
		})

		var apiErr *utils.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, 409, apiErr.StatusCode)
	})
}

func TestAuthService_Logout(t *testing.T) {
	t.Parallel()

	e := newEnv(t, 0)
	e.signIn(t)

	require.NoError(t, e.auth.Logout())
	require.NoError(t, e.auth.Logout())

	sess := e.auth.Session()
	require.False(t, sess.IsAuthenticated)
	require.Nil(t, sess.User)
	require.Nil(t, e.auth.LoginState().Snapshot().Result)
	require.Zero(t, e.ended.Load())

	_, err := e.auth.Profile(context.Background())
	require.True(t, errors.Is(err, utils.ErrSessionExpired))
	require.Equal(t, "session expired, please login again", e.auth.ProfileState().Snapshot().Error)
}
