package shopsdk

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
)

// AvatarFormField is the multipart field carrying an avatar upload.
const AvatarFormField = "avatar"

// Session performs operations on behalf of a logged-in user. Session tokens
// are long lived and not refreshed; log in again once one expires.
type Session struct {
	client *Client
	token  string
	user   UserResponse
}

// Token returns the session token.
func (s *Session) Token() string { return s.token }

// User returns the user as of login. It is empty for sessions created with
// Client.NewSession.
func (s *Session) User() UserResponse { return s.user }

func (s *Session) do(ctx context.Context, method, path string, payload, target any, expectedStatus int) error {
	return s.client.doJSON(ctx, method, path, s.token, payload, target, expectedStatus)
}

// ============================================================================
// Account
// ============================================================================

func (s *Session) UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (*UserResponse, error) {
	var out UserEnvelope
	if err := s.do(ctx, http.MethodPut, "/api/auth/profile/"+url.PathEscape(userID), req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (s *Session) UpdatePassword(ctx context.Context, userID string, req UpdatePasswordRequest) (*UserResponse, error) {
	var out UserEnvelope
	if err := s.do(ctx, http.MethodPut, "/api/auth/password/"+url.PathEscape(userID), req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// UpdateAvatar uploads an avatar image as multipart form data.
func (s *Session) UpdateAvatar(ctx context.Context, userID, filename string, image io.Reader) (*UserResponse, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(AvatarFormField, filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, image); err != nil {
		return nil, fmt.Errorf("failed to copy avatar: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close form: %w", err)
	}

	resp, err := s.client.doRequest(ctx, http.MethodPost, "/api/auth/avatar/"+url.PathEscape(userID), s.token,
		&buf, map[string]string{"Content-Type": mw.FormDataContentType()})
	if err != nil {
		return nil, err
	}

	var out UserEnvelope
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// ============================================================================
// Products
// ============================================================================

func (s *Session) CreateProduct(ctx context.Context, req ProductRequest) (*ProductResponse, error) {
	var out ProductResponse
	if err := s.do(ctx, http.MethodPost, "/api/products", req, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProduct replaces a product the session user owns.
func (s *Session) UpdateProduct(ctx context.Context, id string, req ProductRequest) (*ProductResponse, error) {
	var out ProductResponse
	if err := s.do(ctx, http.MethodPut, "/api/products/"+url.PathEscape(id), req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) DeleteProduct(ctx context.Context, id string) error {
	return s.do(ctx, http.MethodDelete, "/api/products/"+url.PathEscape(id), nil, nil, http.StatusNoContent)
}

// ============================================================================
// Cart
// ============================================================================

func (s *Session) CreateCartItem(ctx context.Context, req CartItemRequest) (*CartItemResponse, error) {
	var out CartItemResponse
	if err := s.do(ctx, http.MethodPost, "/api/carts", req, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) UpdateCartItem(ctx context.Context, id string, req CartItemRequest) (*CartItemResponse, error) {
	var out CartItemResponse
	if err := s.do(ctx, http.MethodPut, "/api/carts/"+url.PathEscape(id), req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) DeleteCartItem(ctx context.Context, id string) error {
	return s.do(ctx, http.MethodDelete, "/api/carts/"+url.PathEscape(id), nil, nil, http.StatusNoContent)
}

// ============================================================================
// Admin
// ============================================================================

// CreateUser invites a user. Requires the admin role.
func (s *Session) CreateUser(ctx context.Context, req CreateUserRequest) (*UserResponse, error) {
	var out UserEnvelope
	if err := s.do(ctx, http.MethodPost, "/api/users", req, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// ListUsers requires the admin role.
func (s *Session) ListUsers(ctx context.Context) ([]UserResponse, error) {
	var out ListUsersResponse
	if err := s.do(ctx, http.MethodGet, "/api/users", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.Users, nil
}

// GetUser requires the admin role.
func (s *Session) GetUser(ctx context.Context, id string) (*UserResponse, error) {
	var out UserEnvelope
	if err := s.do(ctx, http.MethodGet, "/api/users/"+url.PathEscape(id), nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// DeleteUser removes a user with everything they own. Requires the admin role.
func (s *Session) DeleteUser(ctx context.Context, id string) error {
	return s.do(ctx, http.MethodDelete, "/api/users/"+url.PathEscape(id), nil, nil, http.StatusNoContent)
}
