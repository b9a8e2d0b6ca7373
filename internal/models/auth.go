package models

import "time"

// User represents the authenticated user's profile
type User struct {
	ID          string     `json:"id" yaml:"id"`
	Email       string     `json:"email" yaml:"email"`
	FullName    string     `json:"full_name" yaml:"full_name"`
	PhoneNumber string     `json:"phone_number" yaml:"phone_number"`
	IsActive    bool       `json:"is_active" yaml:"is_active"`
	IsVerified  bool       `json:"is_verified" yaml:"is_verified"`
	CreatedAt   time.Time  `json:"created_at" yaml:"created_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty" yaml:"last_login_at,omitempty"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" yaml:"email" validate:"required,email"`
	Password string `json:"password" yaml:"password" validate:"required"`
}

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Email       string `json:"email" yaml:"email" validate:"required,email"`
	Password    string `json:"password" yaml:"password" validate:"required,password"`
	FullName    string `json:"full_name" yaml:"full_name" validate:"required,max=255"`
	PhoneNumber string `json:"phone_number" yaml:"phone_number" validate:"required,phone"`
}

// TokenPair is the credential pair issued by login and refresh
type TokenPair struct {
	AccessToken  string `json:"access_token" yaml:"access_token"`
	RefreshToken string `json:"refresh_token" yaml:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in" yaml:"expires_in"`
	TokenType    string `json:"token_type" yaml:"token_type"`
}

// RefreshRequest is the body of the token refresh call
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// LoginResult is what a completed login yields. User is nil when the
// token exchange succeeded but the follow-up profile fetch did not.
type LoginResult struct {
	User   *User     `json:"user" yaml:"user"`
	Tokens TokenPair `json:"tokens" yaml:"tokens"`
}
