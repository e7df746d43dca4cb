package wani

import (
	"context"
	"fmt"
)

// AuthService handles authentication endpoints.
type AuthService struct {
	client *Client
}

type loginResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		User   User    `json:"user"`
		Tokens *Tokens `json:"tokens"`
	} `json:"data"`
}

type userResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		User User `json:"user"`
	} `json:"data"`
}

// Login authenticates with email and password and returns the user
// and token pair. The caller (normally the session) owns what happens
// with them.
func (s *AuthService) Login(ctx context.Context, email, password string) (*User, *Tokens, error) {
	var resp loginResponse
	err := s.client.post(ctx, "/auth/login", LoginRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return nil, nil, err
	}
	if resp.Data.Tokens == nil {
		return nil, nil, fmt.Errorf("login response missing tokens")
	}
	return &resp.Data.User, resp.Data.Tokens, nil
}

// Register creates a new account. Tokens may be nil: some deployments
// require email verification before issuing tokens, in which case the
// caller must direct the user to verify and then log in. Callers must
// not assume a token pair is present.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*User, *Tokens, error) {
	var resp loginResponse
	if err := s.client.post(ctx, "/auth/register", req, &resp); err != nil {
		return nil, nil, err
	}
	return &resp.Data.User, resp.Data.Tokens, nil
}

// Refresh exchanges a refresh token for a new token pair. The request
// pipeline performs this automatically on 401; calling it directly is
// only needed for manual session management.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Tokens, error) {
	return s.client.refresh(ctx, refreshToken)
}

// Me returns the full identity of the authenticated user. Used after
// a restore, where only id and email survive the round trip through
// storage.
func (s *AuthService) Me(ctx context.Context) (*User, error) {
	var resp userResponse
	if err := s.client.get(ctx, "/auth/me", &resp); err != nil {
		return nil, err
	}
	return &resp.Data.User, nil
}

// Logout invalidates the tokens server-side. The local session is
// cleared separately by session.Logout, which must run even when this
// call fails.
func (s *AuthService) Logout(ctx context.Context) error {
	return s.client.post(ctx, "/auth/logout", nil, nil)
}

// RequestPasswordReset sends a password reset email.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	return s.client.post(ctx, "/auth/password-reset", map[string]string{"email": email}, nil)
}

// ConfirmPasswordReset sets a new password using a reset token.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	body := map[string]string{
		"token":        token,
		"new_password": newPassword,
	}
	return s.client.post(ctx, "/auth/password-reset/confirm", body, nil)
}

// ChangePassword changes the password of the authenticated user.
func (s *AuthService) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	body := map[string]string{
		"current_password": currentPassword,
		"new_password":     newPassword,
	}
	return s.client.post(ctx, "/auth/change-password", body, nil)
}

// VerifyEmail confirms an email address with a verification token.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	return s.client.post(ctx, "/auth/verify-email", map[string]string{"token": token}, nil)
}

// ResendVerification re-sends the verification email for the
// authenticated user.
func (s *AuthService) ResendVerification(ctx context.Context) error {
	return s.client.post(ctx, "/auth/resend-verification", nil, nil)
}
