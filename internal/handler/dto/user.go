// Package dto provides Data Transfer Objects for API requests and responses.
package dto

// SignupRequest represents the request body for POST /signup.
type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents the request body for POST /login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse is returned by a successful signup or login.
type TokenResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
}

// ErrorsResponse is the failure body of the account and cart endpoints.
type ErrorsResponse struct {
	Success bool   `json:"success"`
	Errors  string `json:"errors"`
}
