package authapi

import "leadflow/cmd/internal/crm"

// LoginRequest carries email/password credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest creates a tenant and its owner in one step.
type RegisterRequest struct {
	CompanyName string `json:"company_name"`
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Phone       string `json:"phone,omitempty"`
}

// TokenPair is the credential part of an auth answer.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type,omitempty"`

	// ExpiresIn is the access token lifetime in seconds; 0 when not sent.
	ExpiresIn int64 `json:"expires_in,omitempty"`
}

// AuthResponse is returned by login and register.
type AuthResponse struct {
	TokenPair
	User    crm.User   `json:"user"`
	Tenant  crm.Tenant `json:"tenant"`
	Message string     `json:"message,omitempty"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}
