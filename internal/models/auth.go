package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating an account.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the issued token and account info.
type LoginResponse struct {
	AccessToken string      `json:"access_token"`
	ExpiresIn   int64       `json:"expires_in"`
	User        AccountInfo `json:"user"`
	IssuedAt    time.Time   `json:"issued_at"`
}

// ChangePasswordRequest payload for updating the caller's password.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

// AccountInfo describes the authenticated account in responses.
type AccountInfo struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Role       Role       `json:"role"`
	Department Department `json:"department"`
	Year       int        `json:"year"`
}

// JWTClaims represents the JWT payload for access tokens. Department and
// year ride along so the access policy can scope requests without a user
// lookup.
type JWTClaims struct {
	UserID     string     `json:"user_id"`
	Role       Role       `json:"role"`
	Email      string     `json:"email"`
	Department Department `json:"department"`
	Year       int        `json:"year"`
	jwt.RegisteredClaims
}
