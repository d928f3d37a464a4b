package shopsdk

import "time"

// ============================================================================
// Error Types
// ============================================================================

// ErrorResponse is the body of every non-validation error.
type ErrorResponse struct {
	// Error is the machine-readable error code (e.g. "bad_credentials")
	Error string `json:"error"`

	// ErrorDescription is a human-readable description of the error
	ErrorDescription string `json:"error_description"`
}

// ValidationErrorResponse is returned when request validation fails.
type ValidationErrorResponse struct {
	// Code is always "validation_error"
	Code string `json:"code"`

	// Message is a human-readable error message
	Message string `json:"message"`

	// Details maps field names to error messages
	Details map[string]string `json:"details,omitempty"`
}

// MessageResponse carries a human-readable confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// ============================================================================
// Health Types
// ============================================================================

type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

type HealthChecks struct {
	Database string `json:"database"`
}

// ============================================================================
// Auth Types
// ============================================================================

// RegisterRequest creates an account. The first account becomes an admin.
type RegisterRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the session token. Send it in the Authorization
// header of authenticated requests.
type LoginResponse struct {
	User  UserResponse `json:"user"`
	Token string       `json:"token"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Token           string `json:"token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// VerifyEmailRequest marks the account verified and sets its password.
type VerifyEmailRequest struct {
	Token           string `json:"token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type UpdateProfileRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

type UpdatePasswordRequest struct {
	OldPassword    string `json:"old_password"`
	NewPassword    string `json:"new_password"`
	RepeatPassword string `json:"repeat_password"`
}

// ============================================================================
// User Types
// ============================================================================

// UserResponse is the public view of an account. The password hash and
// outstanding tokens are never included.
type UserResponse struct {
	ID         string    `json:"id"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	IsVerified bool      `json:"is_verified"`
	Avatar     string    `json:"avatar"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// UserEnvelope wraps a single user, as returned by the profile endpoints.
type UserEnvelope struct {
	User UserResponse `json:"user"`
}

// CreateUserRequest is the admin request to invite a user. The invitee sets
// a password through the emailed verification link.
type CreateUserRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`

	// Role is "admin" or "user"; empty means "user"
	Role string `json:"role,omitempty"`
}

type ListUsersResponse struct {
	Users []UserResponse `json:"users"`
}

// ============================================================================
// Catalogue Types
// ============================================================================

// OwnerRef names the user that owns a product or cart item.
type OwnerRef struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type ProductRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

type ProductResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Owner       OwnerRef  `json:"owner"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CartItemRequest struct {
	Item        string  `json:"item"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

type CartItemResponse struct {
	ID          string    `json:"id"`
	Item        string    `json:"item"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Owner       OwnerRef  `json:"owner"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
