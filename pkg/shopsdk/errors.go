package shopsdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/shopfront/pkg/httpx"
)

// Error codes written by the shopfront API.
const (
	ErrorCodeInvalidRequest        = "invalid_request"
	ErrorCodeValidation            = "validation_error"
	ErrorCodeDuplicateEmail        = "duplicate_email"
	ErrorCodeNotFound              = "not_found"
	ErrorCodeNotVerified           = "not_verified"
	ErrorCodeBadCredentials        = "bad_credentials"
	ErrorCodePasswordMismatch      = "password_mismatch"
	ErrorCodeInvalidOrExpiredToken = "invalid_or_expired_token"
	ErrorCodeNoFile                = "no_file"
	ErrorCodeNotOwner              = "not_owner"
	ErrorCodeServerError           = "server_error"

	ErrorCodeNoToken      = httpx.ErrorCodeNoToken
	ErrorCodeInvalidToken = httpx.ErrorCodeInvalidToken
	ErrorCodeUnauthorized = httpx.ErrorCodeUnauthorized
)

// APIError is an error response from the API. Handlers use it to write
// responses and the client returns it for non-success statuses.
type APIError struct {
	StatusCode  int    `json:"-"`
	Code        string `json:"error"`
	Description string `json:"error_description"`

	// Details holds field messages of a validation_error.
	Details map[string]string `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WriteError writes e as a JSON error body.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.WriteJSON(w, e.StatusCode, ErrorResponse{
		Error:            e.Code,
		ErrorDescription: e.Description,
	})
}

// NewAPIError creates an APIError.
func NewAPIError(statusCode int, code, description string) *APIError {
	return &APIError{StatusCode: statusCode, Code: code, Description: description}
}

var (
	ErrInvalidRequest = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "request body must be valid JSON",
	}

	ErrServerError = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "internal server error",
	}
)

// parseErrorResponse turns a non-success response into an *APIError.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var valErr ValidationErrorResponse
	if err := json.Unmarshal(body, &valErr); err == nil && valErr.Code != "" {
		return &APIError{
			StatusCode:  resp.StatusCode,
			Code:        valErr.Code,
			Description: valErr.Message,
			Details:     valErr.Details,
		}
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return &APIError{
			StatusCode:  resp.StatusCode,
			Code:        errResp.Error,
			Description: errResp.ErrorDescription,
		}
	}

	return &APIError{
		StatusCode:  resp.StatusCode,
		Code:        ErrorCodeServerError,
		Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
