package handler

import (
	"time"

	"github.com/google/uuid"
)

// RegisterRequest is the request body for account registration
type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email"`
	DisplayName string `json:"displayName" binding:"required,min=1,max=50"`
	Password    string `json:"password" binding:"required,min=8,max=72"`
}

// LoginRequest is the request body for login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshTokenRequest is the request body for token refresh. The token
// may come from the refresh cookie instead, in which case the body is
// optional.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// UpdateProfileRequest is the request body for a profile update
type UpdateProfileRequest struct {
	DisplayName string `json:"displayName" binding:"required,min=1,max=50"`
	PhotoURL    string `json:"photoUrl" binding:"omitempty,url"`
}

// ChangePasswordRequest is the request body for a password change
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=8,max=72"`
}

// TokenResponse contains an issued token pair
type TokenResponse struct {
	AccessToken           string    `json:"accessToken"`
	RefreshToken          string    `json:"refreshToken"`
	AccessTokenExpiresAt  time.Time `json:"accessTokenExpiresAt"`
	RefreshTokenExpiresAt time.Time `json:"refreshTokenExpiresAt"`
	TokenType             string    `json:"tokenType"`
}

// AuthUserResponse contains the authenticated user's profile
type AuthUserResponse struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	PhotoURL    string    `json:"photoUrl,omitempty"`
}

// LoginResponse is returned after registration and login
type LoginResponse struct {
	Token TokenResponse    `json:"token"`
	User  AuthUserResponse `json:"user"`
}

// RefreshTokenResponse is returned after a token refresh
type RefreshTokenResponse struct {
	Token TokenResponse `json:"token"`
}

// CurrentUserResponse is returned by the me endpoint
type CurrentUserResponse struct {
	User AuthUserResponse `json:"user"`
}

// LogoutResponse is returned after logout
type LogoutResponse struct {
	Message string `json:"message"`
}
