package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/aussiebroadwan/shopfront/internal/shop/filestore"
	"github.com/aussiebroadwan/shopfront/internal/shop/service"
	"github.com/aussiebroadwan/shopfront/pkg/httpx"
	"github.com/aussiebroadwan/shopfront/pkg/shopsdk"
)

// MaxAvatarBytes caps avatar uploads.
const MaxAvatarBytes = 5 << 20

// AuthHandler serves the account endpoints under /api/auth.
type AuthHandler struct {
	AuthService *service.AuthService
	Files       filestore.FileStore

	// PublicBaseURL is the front-end origin used in emailed links.
	PublicBaseURL string
	// AllowedOrigins may replace PublicBaseURL through the Origin header.
	AllowedOrigins []string
}

func (h *AuthHandler) origin(r *http.Request) string {
	return requestOrigin(r, h.PublicBaseURL, h.AllowedOrigins)
}

// HandleRegister creates an account.
//
//	@Summary		Register
//	@Description	Creates an unverified account and emails a verification link. The first account ever created is an admin.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		shopsdk.RegisterRequest			true	"Account details"
//	@Success		201		{object}	shopsdk.UserEnvelope			"Created account"
//	@Failure		400		{object}	shopsdk.ValidationErrorResponse	"Validation failed"
//	@Failure		400		{object}	shopsdk.ErrorResponse			"duplicate_email"
//	@Failure		500		{object}	shopsdk.ErrorResponse			"Internal server error"
//	@Router			/api/auth/register [post].
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req shopsdk.RegisterRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	u, err := h.AuthService.Register(r.Context(), service.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	}, h.origin(r))
	if err != nil {
		writeServiceError(w, r, err, nil)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, shopsdk.UserEnvelope{User: userResponse(u, h.Files)})
}

// HandleLogin exchanges credentials for a session token.
//
//	@Summary		Log in
//	@Description	Returns the user and a session token valid for 30 days. The account must be verified.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		shopsdk.LoginRequest	true	"Credentials"
//	@Success		200		{object}	shopsdk.LoginResponse	"User and session token"
//	@Failure		400		{object}	shopsdk.ErrorResponse	"not_verified, bad_credentials or validation_error"
//	@Failure		404		{object}	shopsdk.ErrorResponse	"not_found"
//	@Failure		500		{object}	shopsdk.ErrorResponse	"Internal server error"
//	@Router			/api/auth/login [post].
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req shopsdk.LoginRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	u, token, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err, map[error]*shopsdk.APIError{service.ErrNotFound: errUserNotFound})
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, shopsdk.LoginResponse{
		User:  userResponse(u, h.Files),
		Token: token,
	})
}

// HandleForgotPassword emails a password reset link.
//
//	@Summary		Forgot password
//	@Description	Emails a single-use password reset link valid for 24 hours.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		shopsdk.ForgotPasswordRequest	true	"Account email"
//	@Success		200		{object}	shopsdk.MessageResponse			"Instructions sent"
//	@Failure		400		{object}	shopsdk.ErrorResponse			"not_found or validation_error"
//	@Failure		500		{object}	shopsdk.ErrorResponse			"Internal server error"
//	@Router			/api/auth/forgot-password [post].
func (h *AuthHandler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req shopsdk.ForgotPasswordRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	err := h.AuthService.ForgotPassword(r.Context(), req.Email, h.origin(r))
	if err != nil {
		writeServiceError(w, r, err, map[error]*shopsdk.APIError{
			service.ErrNotFound: shopsdk.NewAPIError(http.StatusBadRequest, shopsdk.ErrorCodeNotFound, "user not found"),
		})
		return
	}

	httpx.WriteJSON(w, http.StatusOK, shopsdk.MessageResponse{
		Message: "check your email for instructions to reset your password",
	})
}

// HandleResetPassword sets a new password with a reset token.
//
//	@Summary		Reset password
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		shopsdk.ResetPasswordRequest	true	"Reset token and new password"
//	@Success		200		{object}	shopsdk.MessageResponse			"Password reset"
//	@Failure		400		{object}	shopsdk.ErrorResponse			"invalid_or_expired_token, password_mismatch or validation_error"
//	@Failure		500		{object}	shopsdk.ErrorResponse			"Internal server error"
//	@Router			/api/auth/reset-password [post].
func (h *AuthHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req shopsdk.ResetPasswordRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	if err := h.AuthService.ResetPassword(r.Context(), req.Token, req.Password, req.ConfirmPassword); err != nil {
		writeServiceError(w, r, err, nil)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, shopsdk.MessageResponse{Message: "password reset successfully"})
}

// HandleVerifyEmail verifies an account and sets its password.
//
//	@Summary		Verify email
//	@Description	Consumes the emailed verification token, marks the account verified and sets its password.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		shopsdk.VerifyEmailRequest	true	"Verification token and password"
//	@Success		200		{object}	shopsdk.MessageResponse		"Account verified"
//	@Failure		400		{object}	shopsdk.ErrorResponse		"invalid_token, password_mismatch or validation_error"
//	@Failure		500		{object}	shopsdk.ErrorResponse		"Internal server error"
//	@Router			/api/auth/verify-email [post].
func (h *AuthHandler) HandleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req shopsdk.VerifyEmailRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	if err := h.AuthService.VerifyEmail(r.Context(), req.Token, req.Password, req.ConfirmPassword); err != nil {
		writeServiceError(w, r, err, nil)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, shopsdk.MessageResponse{Message: "email verified, you can now log in"})
}

// HandleUpdateProfile overwrites the caller's names and email.
//
//	@Summary		Update profile
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string						true	"User ID (must be the caller)"
//	@Param			request	body		shopsdk.UpdateProfileRequest	true	"Profile"
//	@Success		200		{object}	shopsdk.UserEnvelope		"Updated user"
//	@Failure		400		{object}	shopsdk.ErrorResponse		"unauthorized, duplicate_email or validation_error"
//	@Failure		403		{object}	shopsdk.ErrorResponse		"no_token_provided"
//	@Failure		404		{object}	shopsdk.ErrorResponse		"not_found"
//	@Security		BearerAuth
//	@Router			/api/auth/profile/{id} [put].
func (h *AuthHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req shopsdk.UpdateProfileRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	ctx := r.Context()
	u, err := h.AuthService.UpdateProfile(ctx, httpx.UserIDFromContext(ctx), r.PathValue("id"), service.ProfileInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
	})
	if err != nil {
		writeServiceError(w, r, err, map[error]*shopsdk.APIError{
			service.ErrUnauthorized: unauthorized(http.StatusBadRequest),
			service.ErrNotFound:     errUserNotFound,
		})
		return
	}

	httpx.WriteJSON(w, http.StatusOK, shopsdk.UserEnvelope{User: userResponse(u, h.Files)})
}

// HandleUpdatePassword replaces the caller's password.
//
//	@Summary		Update password
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string							true	"User ID (must be the caller)"
//	@Param			request	body		shopsdk.UpdatePasswordRequest	true	"Old and new password"
//	@Success		200		{object}	shopsdk.UserEnvelope			"Updated user"
//	@Failure		400		{object}	shopsdk.ErrorResponse			"bad_credentials, password_mismatch or validation_error"
//	@Failure		401		{object}	shopsdk.ErrorResponse			"unauthorized"
//	@Failure		404		{object}	shopsdk.ErrorResponse			"not_found"
//	@Security		BearerAuth
//	@Router			/api/auth/password/{id} [put].
func (h *AuthHandler) HandleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req shopsdk.UpdatePasswordRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	ctx := r.Context()
	u, err := h.AuthService.UpdatePassword(ctx, httpx.UserIDFromContext(ctx), r.PathValue("id"),
		req.OldPassword, req.NewPassword, req.RepeatPassword)
	if err != nil {
		writeServiceError(w, r, err, map[error]*shopsdk.APIError{service.ErrNotFound: errUserNotFound})
		return
	}

	httpx.WriteJSON(w, http.StatusOK, shopsdk.UserEnvelope{User: userResponse(u, h.Files)})
}

// HandleUpdateAvatar replaces the caller's avatar image.
//
//	@Summary		Upload avatar
//	@Description	Multipart upload in the "avatar" field, at most 5 MB.
//	@Tags			Auth
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			id		path		string					true	"User ID (must be the caller)"
//	@Param			avatar	formData	file					true	"Avatar image"
//	@Success		200		{object}	shopsdk.UserEnvelope	"Updated user"
//	@Failure		400		{object}	shopsdk.ErrorResponse	"no_file"
//	@Failure		401		{object}	shopsdk.ErrorResponse	"unauthorized"
//	@Security		BearerAuth
//	@Router			/api/auth/avatar/{id} [post].
func (h *AuthHandler) HandleUpdateAvatar(w http.ResponseWriter, r *http.Request) {
	up, err := readAvatar(w, r)
	if err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, shopsdk.ErrorResponse{
			Error:            shopsdk.ErrorCodeInvalidRequest,
			ErrorDescription: err.Error(),
		})
		return
	}

	ctx := r.Context()
	u, err := h.AuthService.UpdateAvatar(ctx, httpx.UserIDFromContext(ctx), r.PathValue("id"), up)
	if err != nil {
		writeServiceError(w, r, err, map[error]*shopsdk.APIError{service.ErrNotFound: errUserNotFound})
		return
	}

	httpx.WriteJSON(w, http.StatusOK, shopsdk.UserEnvelope{User: userResponse(u, h.Files)})
}

// readAvatar returns the uploaded avatar, or nil when the request carries
// none.
func readAvatar(w http.ResponseWriter, r *http.Request) (*service.Upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxAvatarBytes+(64<<10))

	f, hdr, err := r.FormFile(shopsdk.AvatarFormField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return nil, errors.New("avatar must be at most 5 MB")
		case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
			return nil, nil
		default:
			return nil, errors.New("invalid multipart body")
		}
	}
	defer f.Close()

	if hdr.Size > MaxAvatarBytes {
		return nil, errors.New("avatar must be at most 5 MB")
	}
	data, err := io.ReadAll(io.LimitReader(f, MaxAvatarBytes+1))
	if err != nil {
		return nil, errors.New("failed to read avatar")
	}
	if len(data) > MaxAvatarBytes {
		return nil, errors.New("avatar must be at most 5 MB")
	}

	contentType := hdr.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	return &service.Upload{Filename: hdr.Filename, ContentType: contentType, Data: data}, nil
}
