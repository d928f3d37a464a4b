package service

import "errors"

// Sentinel errors returned by the services. The text doubles as the
// error code written to API clients.
var (
	ErrDuplicateEmail        = errors.New("duplicate_email")
	ErrNotFound              = errors.New("not_found")
	ErrNotVerified           = errors.New("not_verified")
	ErrBadCredentials        = errors.New("bad_credentials")
	ErrPasswordMismatch      = errors.New("password_mismatch")
	ErrInvalidOrExpiredToken = errors.New("invalid_or_expired_token")
	ErrInvalidToken          = errors.New("invalid_token")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrNoFile                = errors.New("no_file")
	ErrNotOwner              = errors.New("not_owner")
)
