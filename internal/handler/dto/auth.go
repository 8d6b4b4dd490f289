// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"time"

	"github.com/gatekey/gatekey/internal/model"
)

// RegisterRequest represents the request body for registration.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileRequest represents the request body for profile updates.
type UpdateProfileRequest struct {
	Name string `json:"name"`
}

// ProfileResponse represents a profile in API responses.
// It is built from the sanitized view; a password hash cannot appear
// here because the source type does not carry one.
type ProfileResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AuthResponse represents a successful registration or login.
type AuthResponse struct {
	Profile ProfileResponse `json:"profile"`
	Token   string          `json:"token"`
}

// SessionResponse describes the current authenticated session.
type SessionResponse struct {
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ToProfileResponse converts a ProfileView to a ProfileResponse DTO.
func ToProfileResponse(v model.ProfileView) ProfileResponse {
	return ProfileResponse{
		ID:        v.ID,
		Email:     v.Email,
		Name:      v.Name,
		CreatedAt: v.CreatedAt,
		UpdatedAt: v.UpdatedAt,
	}
}

// ToAuthResponse converts an auth result to an AuthResponse DTO.
func ToAuthResponse(profile model.ProfileView, token string) *AuthResponse {
	return &AuthResponse{
		Profile: ToProfileResponse(profile),
		Token:   token,
	}
}

// ToSessionResponse converts a Session to a SessionResponse DTO.
func ToSessionResponse(s *model.Session) *SessionResponse {
	return &SessionResponse{
		UserID:    s.UserID,
		ExpiresAt: s.Expires,
	}
}
