// Package model defines domain entities for the application.
package model

import "time"

// Profile represents a marketplace account holder.
// PasswordHash is the internal variant used only for credential
// verification; it is never serialized.
type Profile struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ProfileView is the sanitized representation returned to callers.
// It carries no secret material by construction.
type ProfileView struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// View strips secret fields from a Profile.
func (p *Profile) View() ProfileView {
	return ProfileView{
		ID:        p.ID,
		Email:     p.Email,
		Name:      p.Name,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// Session describes an authenticated request principal.
// Populated by the session middleware from a verified token.
type Session struct {
	UserID  string
	TokenID string
	Expires time.Time
}
