package shopsdk

import (
	"context"
	"net/http"
)

// Register creates an unverified account. The server emails a verification
// link; the account cannot log in until VerifyEmail succeeds.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*UserResponse, error) {
	var out UserEnvelope
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/register", "", req, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Login authenticates with email and password and returns a session.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	var out LoginResponse
	req := LoginRequest{Email: email, Password: password}
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", "", req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &Session{client: c, token: out.Token, user: out.User}, nil
}

// ForgotPassword asks the server to email a password reset link.
func (c *Client) ForgotPassword(ctx context.Context, email string) (*MessageResponse, error) {
	var out MessageResponse
	req := ForgotPasswordRequest{Email: email}
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/forgot-password", "", req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResetPassword consumes a reset token and sets a new password.
func (c *Client) ResetPassword(ctx context.Context, req ResetPasswordRequest) (*MessageResponse, error) {
	var out MessageResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/reset-password", "", req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyEmail consumes a verification token, marking the account verified
// and setting its password.
func (c *Client) VerifyEmail(ctx context.Context, req VerifyEmailRequest) (*MessageResponse, error) {
	var out MessageResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/verify-email", "", req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}
