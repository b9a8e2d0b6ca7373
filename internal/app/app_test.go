package app

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fraudcheck/cli/internal/config"
	"github.com/fraudcheck/cli/internal/models"
	"github.com/fraudcheck/cli/internal/operation"
	"github.com/fraudcheck/cli/internal/testutil"
	"github.com/fraudcheck/cli/internal/utils"
)

func testConfig(t *testing.T, url string) config.Config {
	cfg := config.Defaults()
	cfg.Server.URL = url
	cfg.Server.RateLimit = 0
	cfg.Session.File = filepath.Join(t.TempDir(), "session.yaml")
	return cfg
}

func TestNew(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("session survives a restart", func(t *testing.T) {
		backend := testutil.NewBackend(t)
		backend.AddUser("asha@example.com", "Str0ng!pass")
		cfg := testConfig(t, backend.URL)

		first, err := New(Options{Config: cfg, LogOutput: &bytes.Buffer{}})
		require.NoError(t, err)
		_, err = first.Auth.Login(ctx, models.LoginRequest{Email: "asha@example.com", Password: "Str0ng!pass"})
		require.NoError(t, err)

		second, err := New(Options{Config: cfg, LogOutput: &bytes.Buffer{}})
		require.NoError(t, err)

		sess := second.Auth.Session()
		require.True(t, sess.IsAuthenticated)
		require.Equal(t, "asha@example.com", sess.User.Email)

		_, err = second.Verification.Stats(ctx)
		require.NoError(t, err)
	})

	t.Run("ended session is logged", func(t *testing.T) {
		backend := testutil.NewBackend(t)
		backend.AddUser("asha@example.com", "Str0ng!pass")
		cfg := testConfig(t, backend.URL)

		var logs bytes.Buffer
		a, err := New(Options{Config: cfg, LogOutput: &logs})
		require.NoError(t, err)
		require.NoError(t, a.Store.SetPair(backend.ExpiredPair("asha@example.com")))
		backend.FailRefresh(true)

		_, err = a.Reports.Stats(ctx)

		require.ErrorIs(t, err, utils.ErrSessionExpired)
		require.Contains(t, logs.String(), "session ended")
		require.False(t, a.Auth.Session().IsAuthenticated)
	})

	t.Run("debug overrides the configured level", func(t *testing.T) {
		cfg := testConfig(t, "http://localhost:1")

		a, err := New(Options{Config: cfg, Debug: true, LogOutput: &bytes.Buffer{}})

		require.NoError(t, err)
		require.Equal(t, "debug", a.Log.GetLevel().String())
	})

	t.Run("bad timeout", func(t *testing.T) {
		cfg := testConfig(t, "http://localhost:1")
		cfg.Server.Timeout = "eventually"

		_, err := New(Options{Config: cfg})

		require.Error(t, err)
	})
}

func TestFailure(t *testing.T) {
	t.Parallel()

	tr := operation.New[models.User](operation.KindProfile)
	tr.Fail(tr.Dispatch(), utils.NewAPIError(500, "Service unavailable", ""))

	require.EqualError(t, Failure(tr.Snapshot()), "failed to fetch profile: Service unavailable")
}
