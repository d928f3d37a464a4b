package shopsdk

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"
)

const (
	requiredReason = "required"

	nameMin, nameMax         = 2, 255
	emailMin, emailMax       = 6, 255
	passwordMin, passwordMax = 6, 1024
	descriptionMin           = 5
	priceMin                 = 1
)

// fieldErrors collects per-field messages, keeping the first one per field.
type fieldErrors map[string]string

func (e fieldErrors) add(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

func (e fieldErrors) result() map[string]string {
	if len(e) == 0 {
		return nil
	}
	return e
}

func (e fieldErrors) length(field, v string, lo, hi int) {
	n := utf8.RuneCountInString(strings.TrimSpace(v))
	switch {
	case n == 0:
		e.add(field, requiredReason)
	case n < lo:
		e.add(field, fmt.Sprintf("must be at least %d characters", lo))
	case hi > 0 && n > hi:
		e.add(field, fmt.Sprintf("too long (max %d)", hi))
	}
}

func (e fieldErrors) name(field, v string) {
	e.length(field, v, nameMin, nameMax)
}

func (e fieldErrors) email(field, v string) {
	e.length(field, v, emailMin, emailMax)
	if _, bad := e[field]; bad {
		return
	}
	v = strings.TrimSpace(v)
	addr, err := mail.ParseAddress(v)
	if err != nil || addr.Address != v {
		e.add(field, "must be a valid email address")
		return
	}
	// Dotless domains parse but are not deliverable addresses here.
	domain := v[strings.LastIndex(v, "@")+1:]
	if !strings.Contains(domain, ".") {
		e.add(field, "must be a valid email address")
	}
}

// password is not trimmed; surrounding spaces are part of the secret.
func (e fieldErrors) password(field, v string) {
	n := utf8.RuneCountInString(v)
	switch {
	case n == 0:
		e.add(field, requiredReason)
	case n < passwordMin:
		e.add(field, fmt.Sprintf("must be at least %d characters", passwordMin))
	case n > passwordMax:
		e.add(field, fmt.Sprintf("too long (max %d)", passwordMax))
	}
}

func (e fieldErrors) price(field string, v float64) {
	if v < priceMin {
		e.add(field, fmt.Sprintf("must be at least %d", priceMin))
	}
}

// Validate returns field messages, or nil when the request is valid.
func (r RegisterRequest) Validate() map[string]string {
	errs := fieldErrors{}
	errs.name("first_name", r.FirstName)
	errs.name("last_name", r.LastName)
	errs.email("email", r.Email)
	errs.password("password", r.Password)
	return errs.result()
}

func (r LoginRequest) Validate() map[string]string {
	errs := fieldErrors{}
	errs.email("email", r.Email)
	errs.password("password", r.Password)
	return errs.result()
}

func (r ForgotPasswordRequest) Validate() map[string]string {
	errs := fieldErrors{}
	errs.email("email", r.Email)
	return errs.result()
}

func (r ResetPasswordRequest) Validate() map[string]string {
	return validateTokenPassword(r.Token, r.Password, r.ConfirmPassword)
}

func (r VerifyEmailRequest) Validate() map[string]string {
	return validateTokenPassword(r.Token, r.Password, r.ConfirmPassword)
}

func validateTokenPassword(token, password, confirm string) map[string]string {
	errs := fieldErrors{}
	if strings.TrimSpace(token) == "" {
		errs.add("token", requiredReason)
	}
	errs.password("password", password)
	errs.password("confirm_password", confirm)
	return errs.result()
}

func (r UpdateProfileRequest) Validate() map[string]string {
	errs := fieldErrors{}
	errs.name("first_name", r.FirstName)
	errs.name("last_name", r.LastName)
	errs.email("email", r.Email)
	return errs.result()
}

func (r UpdatePasswordRequest) Validate() map[string]string {
	errs := fieldErrors{}
	errs.password("old_password", r.OldPassword)
	errs.password("new_password", r.NewPassword)
	errs.password("repeat_password", r.RepeatPassword)
	return errs.result()
}

func (r CreateUserRequest) Validate() map[string]string {
	errs := fieldErrors{}
	errs.name("first_name", r.FirstName)
	errs.name("last_name", r.LastName)
	errs.email("email", r.Email)
	switch r.Role {
	case "", "admin", "user":
	default:
		errs.add("role", `must be "admin" or "user"`)
	}
	return errs.result()
}

func (r ProductRequest) Validate() map[string]string {
	errs := fieldErrors{}
	errs.name("name", r.Name)
	errs.length("description", r.Description, descriptionMin, 0)
	errs.price("price", r.Price)
	return errs.result()
}

func (r CartItemRequest) Validate() map[string]string {
	errs := fieldErrors{}
	errs.name("item", r.Item)
	errs.length("description", r.Description, descriptionMin, 0)
	errs.price("price", r.Price)
	return errs.result()
}
