// Package app assembles the client stack from configuration.
package app

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/fraudcheck/cli/internal/api"
	"github.com/fraudcheck/cli/internal/config"
	"github.com/fraudcheck/cli/internal/format"
	"github.com/fraudcheck/cli/internal/logging"
	"github.com/fraudcheck/cli/internal/metrics"
	"github.com/fraudcheck/cli/internal/operation"
	"github.com/fraudcheck/cli/internal/service"
	"github.com/fraudcheck/cli/internal/session"
)

// SessionEndedMessage is shown when the credentials could not be renewed
const SessionEndedMessage = "Session expired. Please run 'fraudcheck auth login'."

// Options configures New
type Options struct {
	Config config.Config
	Debug  bool

	// LogOutput defaults to stderr
	LogOutput io.Writer
	// SessionBackend overrides the configured session file
	SessionBackend session.Backend
	HTTPClient     *http.Client
}

// App holds one instance of every component
type App struct {
	Config  config.Config
	Log     *logrus.Logger
	Metrics *metrics.Metrics

	Store  *session.Store
	Ended  *session.Signal
	Client *api.Client

	Auth         *service.AuthService
	Verification *service.VerificationService
	Reports      *service.ReportService
}

// New wires the components together
func New(opts Options) (*App, error) {
	cfg := opts.Config

	logOut := opts.LogOutput
	if logOut == nil {
		logOut = os.Stderr
	}
	level := cfg.Log.Level
	if opts.Debug {
		level = logging.LevelDebug
	}
	log, err := logging.New(level, cfg.Log.Format, logOut)
	if err != nil {
		return nil, err
	}

	timeout, err := cfg.Server.TimeoutDuration()
	if err != nil {
		return nil, err
	}

	backend := opts.SessionBackend
	if backend == nil {
		path, err := cfg.Session.SessionPath()
		if err != nil {
			return nil, err
		}
		backend = session.NewFileBackend(path)
	}

	store, err := session.NewStore(backend)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	m := metrics.New()
	ended := session.NewSignal()
	ended.Subscribe(func(reason error) {
		log.WithError(reason).Warn("session ended")
	})

	client := api.NewClient(api.Config{
		BaseURL:    cfg.Server.URL,
		Timeout:    timeout,
		RateLimit:  cfg.Server.RateLimit,
		HTTPClient: opts.HTTPClient,
		Logger:     log,
		Metrics:    m,
	}, store, ended)

	return &App{
		Config:       cfg,
		Log:          log,
		Metrics:      m,
		Store:        store,
		Ended:        ended,
		Client:       client,
		Auth:         service.NewAuthService(client, store, log),
		Verification: service.NewVerificationService(client, cfg.Verify.HistorySize, log),
		Reports:      service.NewReportService(client, log),
	}, nil
}

var (
	currentOnce sync.Once
	current     *App
	currentErr  error
)

// Current builds the process-wide App from the loaded configuration on
// first use and tells the user when their session ends.
func Current() (*App, error) {
	currentOnce.Do(func() {
		current, currentErr = New(Options{
			Config: *config.Get(),
			Debug:  config.IsDebug(),
		})
		if currentErr == nil {
			current.Ended.Subscribe(func(error) {
				format.PrintWarning(SessionEndedMessage)
			})
		}
	})
	return current, currentErr
}

// Loaded returns the process-wide App if Current has built one
func Loaded() *App {
	return current
}

// Failure turns a rejected operation record into a command error
func Failure[T any](rec operation.Record[T]) error {
	msg := rec.Error
	if msg == "" {
		msg = "unknown error"
	}
	return fmt.Errorf("%s: %s", rec.Kind.DefaultMessage(), msg)
}
