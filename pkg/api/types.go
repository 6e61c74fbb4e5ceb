package api

import "time"

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenTypeBearer is the only token type tokengate issues.
const TokenTypeBearer = "Bearer"

// LoginResponse is written on a successful login.
type LoginResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IdentityResponse describes the caller of a protected resource.
type IdentityResponse struct {
	Subject string   `json:"subject"`
	Roles   []string `json:"roles"`
}

// ResourceResponse is returned by the sample protected resource.
type ResourceResponse struct {
	Message string `json:"message"`
	Subject string `json:"subject"`
}

// StatsResponse is returned by the admin statistics endpoint.
type StatsResponse struct {
	Store           string    `json:"store"`
	TokenTTLSeconds int64     `json:"token_ttl_seconds"`
	StartedAt       time.Time `json:"started_at"`
	UptimeSeconds   int64     `json:"uptime_seconds"`
}
