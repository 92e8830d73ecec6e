package dto

import (
	"time"

	"github.com/spec-kit/isp-workboard/internal/domain"
)

// LoginRequest payload for operator sign-in.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AccountResponse describes the signed-in operator and what they may do.
type AccountResponse struct {
	Username       string              `json:"username"`
	Name           string              `json:"name"`
	Role           domain.Role         `json:"role"`
	TechnicianCode domain.Assignee     `json:"technician_code,omitempty"`
	Capabilities   []domain.Capability `json:"capabilities"`
}
