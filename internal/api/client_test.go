package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/fraudcheck/cli/internal/metrics"
	"github.com/fraudcheck/cli/internal/models"
	"github.com/fraudcheck/cli/internal/session"
	"github.com/fraudcheck/cli/internal/testutil"
	"github.com/fraudcheck/cli/internal/utils"
)

const (
	testEmail    = "asha@example.com"
	testPassword = "Str0ng!pass"
)

type fixture struct {
	backend *testutil.Backend
	store   *session.Store
	metrics *metrics.Metrics
	client  *Client
	ended   atomic.Int32
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{backend: testutil.NewBackend(t), metrics: metrics.New()}
	f.backend.AddUser(testEmail, testPassword)

	store, err := session.NewStore(session.NewMemoryBackend())
	require.NoError(t, err)
	f.store = store

	signal := session.NewSignal()
	signal.Subscribe(func(error) { f.ended.Add(1) })

	f.client = NewClient(Config{BaseURL: f.backend.URL, Metrics: f.metrics}, store, signal)
	return f
}

func (f *fixture) login(t *testing.T, pair models.TokenPair) {
	t.Helper()
	require.NoError(t, f.store.SetPair(pair))
}

func Test_Client_Send(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("attaches bearer token", func(t *testing.T) {
		f := newFixture(t)
		pair := f.backend.IssuePair(testEmail)
		f.login(t, pair)

		var user models.User
		err := f.client.Get(ctx, "/profile", nil, &user)

		require.NoError(t, err)
		require.Equal(t, testEmail, user.Email)
		require.Equal(t, []string{pair.AccessToken}, f.backend.Bearers("profile"))
		require.Zero(t, f.backend.RefreshCalls())
	})

	t.Run("single 401 refreshes and replays the original request", func(t *testing.T) {
		f := newFixture(t)
		pair := f.backend.ExpiredPair(testEmail)
		f.login(t, pair)

		var user models.User
		err := f.client.Get(ctx, "/profile", nil, &user)

		require.NoError(t, err)
		require.Equal(t, testEmail, user.Email)
		require.Equal(t, 1, f.backend.RefreshCalls())
		require.NotEqual(t, pair.AccessToken, f.store.AccessToken())
		require.NotEqual(t, pair.RefreshToken, f.store.RefreshToken())
		require.Equal(t, []string{f.store.AccessToken()}, f.backend.Bearers("profile"))
		require.True(t, f.store.IsAuthenticated())
		require.Equal(t, float64(1), promtest.ToFloat64(f.metrics.Refreshes(metrics.RefreshSucceeded)))
		require.Equal(t, float64(1), promtest.ToFloat64(f.metrics.Retries()))
	})

	t.Run("concurrent 401s share one refresh", func(t *testing.T) {
		f := newFixture(t)
		f.login(t, f.backend.ExpiredPair(testEmail))
		release := f.backend.HoldRefresh()
		defer release()

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				var user models.User
				errs[i] = f.client.Get(ctx, "/profile", nil, &user)
			}(i)
		}

		require.Eventually(t, func() bool {
			return f.backend.Unauthorized() == 2 && f.backend.RefreshCalls() == 1
		}, 2*time.Second, 5*time.Millisecond)
		release()
		wg.Wait()

		require.NoError(t, errs[0])
		require.NoError(t, errs[1])
		require.Equal(t, 1, f.backend.RefreshCalls())

		fresh := f.store.AccessToken()
		require.Equal(t, []string{fresh, fresh}, f.backend.Bearers("profile"))
		require.Equal(t, float64(2), promtest.ToFloat64(f.metrics.Retries()))
	})

	t.Run("logout during refresh is not undone", func(t *testing.T) {
		f := newFixture(t)
		f.login(t, f.backend.ExpiredPair(testEmail))
		release := f.backend.HoldRefresh()
		defer release()

		done := make(chan error, 1)
		go func() {
			done <- f.client.Get(ctx, "/profile", nil, &models.User{})
		}()

		require.Eventually(t, func() bool {
			return f.backend.RefreshCalls() == 1
		}, 2*time.Second, 5*time.Millisecond)
		require.NoError(t, f.store.Clear())
		require.False(t, f.store.IsAuthenticated())
		release()

		err := <-done
		require.ErrorIs(t, err, utils.ErrSessionExpired)
		require.Empty(t, f.store.AccessToken())
		require.Empty(t, f.store.RefreshToken())
		require.False(t, f.store.IsAuthenticated())
		require.Empty(t, f.backend.Bearers("profile"))
		require.Zero(t, f.ended.Load())
		require.Equal(t, float64(1), promtest.ToFloat64(f.metrics.Refreshes(metrics.RefreshDiscarded)))
	})

	t.Run("second 401 is final", func(t *testing.T) {
		f := newFixture(t)
		f.login(t, f.backend.IssuePair(testEmail))
		f.backend.RejectAll(true)

		err := f.client.Get(ctx, "/profile", nil, &models.User{})

		require.ErrorIs(t, err, utils.ErrUnauthorized)
		require.NotErrorIs(t, err, utils.ErrSessionExpired)
		require.Equal(t, 1, f.backend.RefreshCalls())
		require.Equal(t, 2, f.backend.Unauthorized())
		require.True(t, f.store.IsAuthenticated())
		require.Zero(t, f.ended.Load())
	})

	t.Run("missing refresh token ends the session without a network call", func(t *testing.T) {
		f := newFixture(t)
		f.login(t, models.TokenPair{AccessToken: "stale-token"})

		err := f.client.Get(ctx, "/verify/stats", nil, &models.VerificationStats{})

		require.ErrorIs(t, err, utils.ErrSessionExpired)
		require.Zero(t, f.backend.RefreshCalls())
		require.Empty(t, f.store.AccessToken())
		require.False(t, f.store.IsAuthenticated())
		require.Equal(t, int32(1), f.ended.Load())
		require.Equal(t, float64(1), promtest.ToFloat64(f.metrics.Refreshes(metrics.RefreshNoToken)))
	})

	t.Run("failed refresh ends the session", func(t *testing.T) {
		f := newFixture(t)
		f.login(t, f.backend.ExpiredPair(testEmail))
		f.backend.FailRefresh(true)

		err := f.client.Get(ctx, "/profile", nil, &models.User{})

		require.ErrorIs(t, err, utils.ErrSessionExpired)
		require.Equal(t, 1, f.backend.RefreshCalls())
		require.Empty(t, f.store.AccessToken())
		require.Empty(t, f.store.RefreshToken())
		require.Equal(t, int32(1), f.ended.Load())
		require.Equal(t, float64(1), promtest.ToFloat64(f.metrics.Refreshes(metrics.RefreshFailed)))
		require.Equal(t, "session expired, please login again", utils.Message(err))
	})

	t.Run("abandoned waiter does not cancel the shared refresh", func(t *testing.T) {
		f := newFixture(t)
		pair := f.backend.ExpiredPair(testEmail)
		f.login(t, pair)
		release := f.backend.HoldRefresh()
		defer release()

		reqCtx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func() {
			done <- f.client.Get(reqCtx, "/profile", nil, &models.User{})
		}()

		require.Eventually(t, func() bool { return f.backend.RefreshCalls() == 1 }, 2*time.Second, 5*time.Millisecond)
		cancel()
		require.ErrorIs(t, <-done, context.Canceled)

		release()
		require.Eventually(t, func() bool {
			token := f.store.AccessToken()
			return token != "" && token != pair.AccessToken
		}, 2*time.Second, 5*time.Millisecond)
		require.Zero(t, f.ended.Load())
	})

	t.Run("remote error carries the backend message", func(t *testing.T) {
		f := newFixture(t)
		f.login(t, f.backend.IssuePair(testEmail))

		err := f.client.Get(ctx, "/reports/0b6f5c1e-58a4-4c3b-9d59-3a3d1c1f0a11", nil, &models.Report{})

		var apiErr *utils.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusNotFound, apiErr.StatusCode)
		require.Equal(t, "Resource not found", apiErr.Message)
		require.True(t, utils.IsNotFoundError(err))
		require.Zero(t, f.backend.RefreshCalls())
	})

	t.Run("anonymous 401 is not refreshed", func(t *testing.T) {
		f := newFixture(t)

		err := f.client.Do(ctx, Request{
			Method:    http.MethodPost,
			Path:      "/auth/login",
			Body:      models.LoginRequest{Email: testEmail, Password: "wrong"},
			Anonymous: true,
		}, &models.TokenPair{})

		require.ErrorIs(t, err, utils.ErrUnauthorized)
		require.Equal(t, "Invalid email or password", utils.Message(err))
		require.Zero(t, f.backend.RefreshCalls())
		require.Zero(t, f.ended.Load())
	})
}

func Test_Client_Transport(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	newClient := func(t *testing.T, url string) *Client {
		store, err := session.NewStore(session.NewMemoryBackend())
		require.NoError(t, err)
		return NewClient(Config{BaseURL: url}, store, nil)
	}

	t.Run("network failure", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		err := newClient(t, url).Get(ctx, "/verify/stats", nil, &models.VerificationStats{})

		var netErr *utils.NetworkError
		require.ErrorAs(t, err, &netErr)
		require.Equal(t, "GET /verify/stats", netErr.Op)
		require.Contains(t, utils.Message(err), "network error")
	})

	t.Run("unsuccessful envelope", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"success":false}`))
		}))
		defer srv.Close()

		err := newClient(t, srv.URL).Get(ctx, "/verify/stats", nil, &models.VerificationStats{})

		var apiErr *utils.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusOK, apiErr.StatusCode)
	})

	t.Run("error body without json", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("upstream down"))
		}))
		defer srv.Close()

		err := newClient(t, srv.URL).Get(ctx, "/verify/stats", nil, &models.VerificationStats{})

		var apiErr *utils.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
		require.Equal(t, "bad gateway", apiErr.Message)
	})

	t.Run("request headers", func(t *testing.T) {
		headers := make(chan http.Header, 1)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			headers <- r.Header.Clone()
			_, _ = w.Write([]byte(`{"success":true,"data":{}}`))
		}))
		defer srv.Close()

		err := newClient(t, srv.URL).Post(ctx, "/verify", models.VerificationRequest{Content: "hi", SenderHeader: "AX-BANK"}, nil)
		require.NoError(t, err)

		h := <-headers
		require.Equal(t, "application/json", h.Get("Content-Type"))
		require.NotEmpty(t, h.Get("X-Request-ID"))
		require.Empty(t, h.Get("Authorization"))
	})

	t.Run("request counters", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"success":true,"data":{}}`))
		}))
		defer srv.Close()

		m := metrics.New()
		store, err := session.NewStore(session.NewMemoryBackend())
		require.NoError(t, err)
		client := NewClient(Config{BaseURL: srv.URL, Metrics: m, RateLimit: 100}, store, nil)

		for i := 0; i < 3; i++ {
			require.NoError(t, client.Get(ctx, "/verify/stats", nil, &models.VerificationStats{}))
		}
		series, err := promtest.GatherAndCount(m.Registry, "fraudcheck_client_requests_total")
		require.NoError(t, err)
		require.Equal(t, 1, series)
	})
}

func Test_Client_RefreshErrors(t *testing.T) {
	t.Parallel()

	t.Run("refresh without access token in response", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/auth/refresh" {
				_, _ = w.Write([]byte(`{"success":true,"data":{"refresh_token":"r2"}}`))
				return
			}
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		store, err := session.NewStore(session.NewMemoryBackend())
		require.NoError(t, err)
		require.NoError(t, store.SetPair(models.TokenPair{AccessToken: "a1", RefreshToken: "r1"}))

		var reasons []error
		signal := session.NewSignal()
		signal.Subscribe(func(reason error) { reasons = append(reasons, reason) })

		err = NewClient(Config{BaseURL: srv.URL}, store, signal).Get(context.Background(), "/profile", nil, &models.User{})

		require.ErrorIs(t, err, utils.ErrSessionExpired)
		require.Len(t, reasons, 1)
		require.True(t, errors.Is(reasons[0], utils.ErrSessionExpired))
		require.Empty(t, store.RefreshToken())
	})
}
