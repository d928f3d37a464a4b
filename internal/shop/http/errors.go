package http

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/aussiebroadwan/shopfront/internal/shop/service"
	"github.com/aussiebroadwan/shopfront/pkg/httpx"
	"github.com/aussiebroadwan/shopfront/pkg/shopsdk"
	"github.com/aussiebroadwan/shopfront/pkg/slogx"
)

var (
	errDuplicateEmail = shopsdk.NewAPIError(http.StatusBadRequest, shopsdk.ErrorCodeDuplicateEmail,
		"email is already registered")
	errNotFound = shopsdk.NewAPIError(http.StatusNotFound, shopsdk.ErrorCodeNotFound,
		"resource not found")
	errUserNotFound = shopsdk.NewAPIError(http.StatusNotFound, shopsdk.ErrorCodeNotFound,
		"user not found")
	errNotVerified = shopsdk.NewAPIError(http.StatusBadRequest, shopsdk.ErrorCodeNotVerified,
		"check your email to verify your account")
	errBadCredentials = shopsdk.NewAPIError(http.StatusBadRequest, shopsdk.ErrorCodeBadCredentials,
		"incorrect password")
	errPasswordMismatch = shopsdk.NewAPIError(http.StatusBadRequest, shopsdk.ErrorCodePasswordMismatch,
		"passwords do not match")
	errInvalidOrExpiredToken = shopsdk.NewAPIError(http.StatusBadRequest, shopsdk.ErrorCodeInvalidOrExpiredToken,
		"reset token is invalid or has expired")
	errInvalidToken = shopsdk.NewAPIError(http.StatusBadRequest, shopsdk.ErrorCodeInvalidToken,
		"verification token is invalid")
	errNoFile = shopsdk.NewAPIError(http.StatusBadRequest, shopsdk.ErrorCodeNoFile,
		"no file was uploaded")
	errNotOwner = shopsdk.NewAPIError(http.StatusBadRequest, shopsdk.ErrorCodeNotOwner,
		"only the owner may change this resource")
)

// unauthorized returns the caller-mismatch error with the given status;
// profile updates report it as 400, password and avatar updates as 401.
func unauthorized(status int) *shopsdk.APIError {
	return shopsdk.NewAPIError(status, shopsdk.ErrorCodeUnauthorized, "unauthorized")
}

// writeServiceError maps err to a response. overrides take precedence over
// the defaults for the sentinel errors they name.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, overrides map[error]*shopsdk.APIError) {
	for target, apiErr := range overrides {
		if errors.Is(err, target) {
			apiErr.WriteError(w)
			return
		}
	}

	switch {
	case errors.Is(err, service.ErrDuplicateEmail):
		errDuplicateEmail.WriteError(w)
	case errors.Is(err, service.ErrNotFound):
		errNotFound.WriteError(w)
	case errors.Is(err, service.ErrNotVerified):
		errNotVerified.WriteError(w)
	case errors.Is(err, service.ErrBadCredentials):
		errBadCredentials.WriteError(w)
	case errors.Is(err, service.ErrPasswordMismatch):
		errPasswordMismatch.WriteError(w)
	case errors.Is(err, service.ErrInvalidOrExpiredToken):
		errInvalidOrExpiredToken.WriteError(w)
	case errors.Is(err, service.ErrInvalidToken):
		errInvalidToken.WriteError(w)
	case errors.Is(err, service.ErrUnauthorized):
		unauthorized(http.StatusUnauthorized).WriteError(w)
	case errors.Is(err, service.ErrNoFile):
		errNoFile.WriteError(w)
	case errors.Is(err, service.ErrNotOwner):
		errNotOwner.WriteError(w)
	default:
		slogx.FromContext(r.Context()).Error("request failed", "path", r.URL.Path, "error", err)
		shopsdk.ErrServerError.WriteError(w)
	}
}

// validator is implemented by the shopsdk request types.
type validator interface {
	Validate() map[string]string
}

// decodeRequest decodes and validates a JSON body into dst, writing the
// error response and returning false on failure.
func decodeRequest(w http.ResponseWriter, r *http.Request, dst validator) bool {
	if err := httpx.DecodeJSON(w, r, dst); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, shopsdk.ErrorResponse{
			Error:            shopsdk.ErrorCodeInvalidRequest,
			ErrorDescription: err.Error(),
		})
		return false
	}
	if errs := dst.Validate(); errs != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, shopsdk.ValidationErrorResponse{
			Code:    shopsdk.ErrorCodeValidation,
			Message: "validation failed for some fields",
			Details: errs,
		})
		return false
	}
	return true
}

// requestOrigin is the front-end origin emailed links point at. The
// request's Origin header is used only when it is in allowed; anything else
// gets fallback so links cannot be pointed at a foreign host.
func requestOrigin(r *http.Request, fallback string, allowed []string) string {
	o := strings.TrimRight(strings.TrimSpace(r.Header.Get("Origin")), "/")
	if o != "" && slices.Contains(allowed, o) {
		return o
	}
	return fallback
}
