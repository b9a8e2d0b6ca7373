package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fraudcheck/cli/internal/app"
	"github.com/fraudcheck/cli/internal/format"
	"github.com/fraudcheck/cli/internal/testutil"
)

// The App is built once per process, so every command here runs against
// the same backend and config file.
func TestExecute(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.AddUser("asha@example.com", "Str0ng!pass")

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	cfg := fmt.Sprintf(`server:
  url: %s
  timeout: 5s
session:
  file: %s
format:
  default: json
  colors: false
log:
  level: error
`, backend.URL, filepath.Join(dir, "session.yaml"))
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0600))

	var buf bytes.Buffer
	restore := format.SetOutput(&buf)
	defer restore()

	run := func(args ...string) error {
		buf.Reset()
		rootCmd.SetArgs(append(args, "--config", cfgPath, "-o", "json"))
		return Execute(context.Background())
	}

	t.Run("failure carries the operation default and the record error", func(t *testing.T) {
		err := run("verify", "get", "not-a-uuid")

		require.EqualError(t, err, "failed to fetch verification: id: must be a valid UUID")
	})

	t.Run("signed out request ends the session", func(t *testing.T) {
		err := run("verify", "stats")

		require.EqualError(t, err, "failed to fetch stats: session expired, please login again")
		require.Contains(t, buf.String(), app.SessionEndedMessage)
	})

	t.Run("signed in check prints the verdict", func(t *testing.T) {
		require.NoError(t, run("auth", "login", "-e", "asha@example.com", "-p", "Str0ng!pass"))

		require.NoError(t, run("verify", "check", "Your KYC will expire, click now", "-s", "VM-UPDATE", "-t", "SMS"))

		require.Contains(t, buf.String(), `"risk_level"`)
		require.Contains(t, buf.String(), `"is_fraud": true`)
	})
}
