package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/fraudcheck/cli/internal/api"
	"github.com/fraudcheck/cli/internal/models"
	"github.com/fraudcheck/cli/internal/operation"
	"github.com/fraudcheck/cli/internal/utils"
)

// Credentials is the session storage the auth adapter writes
type Credentials interface {
	SetPair(pair models.TokenPair) error
	SetUser(user *models.User) error
	User() *models.User
	IsAuthenticated() bool
	Clear() error
}

// Session is the derived view of the current sign-in
type Session struct {
	User            *models.User `json:"user" yaml:"user"`
	IsAuthenticated bool         `json:"is_authenticated" yaml:"is_authenticated"`
}

// AuthService signs users in and out and keeps their profile cached
type AuthService struct {
	client Transport
	store  Credentials
	log    logrus.FieldLogger

	login    *operation.Tracker[models.LoginResult]
	register *operation.Tracker[models.User]
	profile  *operation.Tracker[models.User]
}

// NewAuthService creates the auth adapter
func NewAuthService(client Transport, store Credentials, log logrus.FieldLogger) *AuthService {
	return &AuthService{
		client:   client,
		store:    store,
		log:      log.WithField("component", "auth"),
		login:    operation.New[models.LoginResult](operation.KindLogin),
		register: operation.New[models.User](operation.KindRegister),
		profile:  operation.New[models.User](operation.KindProfile),
	}
}

// Register creates an account. It does not sign the user in.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	req.Email = strings.TrimSpace(req.Email)

	user, err := operation.Run(ctx, s.register, func(ctx context.Context) (models.User, error) {
		if err := utils.ValidateStruct(req); err != nil {
			return models.User{}, err
		}

		var user models.User
		err := s.client.Do(ctx, api.Request{
			Method:    http.MethodPost,
			Path:      "/auth/register",
			Body:      req,
			Anonymous: true,
		}, &user)
		return user, err
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Login exchanges credentials for a token pair, stores it and fetches the
// profile. A failed profile fetch leaves the user signed in with no
// cached profile, unless the session already ended.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResult, error) {
	req.Email = strings.TrimSpace(req.Email)

	result, err := operation.Run(ctx, s.login, func(ctx context.Context) (models.LoginResult, error) {
		if err := utils.ValidateStruct(req); err != nil {
			return models.LoginResult{}, err
		}

		var pair models.TokenPair
		err := s.client.Do(ctx, api.Request{
			Method:    http.MethodPost,
			Path:      "/auth/login",
			Body:      req,
			Anonymous: true,
		}, &pair)
		if err != nil {
			return models.LoginResult{}, err
		}
		if pair.AccessToken == "" {
			return models.LoginResult{}, utils.NewAPIError(http.StatusBadGateway, "login response carried no access token", "invalid_response")
		}

		if err := s.store.SetPair(pair); err != nil {
			return models.LoginResult{}, fmt.Errorf("failed to store credentials: %w", err)
		}

		result := models.LoginResult{Tokens: pair}
		user, err := s.Profile(ctx)
		switch {
		case errors.Is(err, utils.ErrSessionExpired):
			// The new pair was discarded before the profile arrived.
			return models.LoginResult{}, err
		case err != nil:
			s.log.WithError(err).Warn("signed in but the profile could not be fetched")
		default:
			result.User = user
		}
		return result, nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithField("email", req.Email).Debug("signed in")
	return &result, nil
}

// Profile fetches the signed-in user's profile and caches it
func (s *AuthService) Profile(ctx context.Context) (*models.User, error) {
	user, err := operation.Run(ctx, s.profile, func(ctx context.Context) (models.User, error) {
		var user models.User
		if err := s.client.Get(ctx, "/profile", nil, &user); err != nil {
			return models.User{}, err
		}
		if err := s.store.SetUser(&user); err != nil {
			return models.User{}, fmt.Errorf("failed to cache profile: %w", err)
		}
		return user, nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout forgets the credentials locally. The backend keeps no session to end.
func (s *AuthService) Logout() error {
	if err := s.store.Clear(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	s.login.ClearResult()
	s.profile.ClearResult()
	return nil
}

// Session reports the current sign-in state
func (s *AuthService) Session() Session {
	return Session{
		User:            s.store.User(),
		IsAuthenticated: s.store.IsAuthenticated(),
	}
}

// LoginState exposes the login tracker
func (s *AuthService) LoginState() *operation.Tracker[models.LoginResult] {
	return s.login
}

// RegisterState exposes the registration tracker
func (s *AuthService) RegisterState() *operation.Tracker[models.User] {
	return s.register
}

// ProfileState exposes the profile tracker
func (s *AuthService) ProfileState() *operation.Tracker[models.User] {
	return s.profile
}
