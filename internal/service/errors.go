package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"same-inventory/internal/scan"
	"same-inventory/pkg/validator"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrTransactionFailed = errors.New("transaction failed, try again")
	ErrSaleNotFound      = errors.New("sale not found")
	ErrScanInProgress    = scan.ErrInProgress
)

// ValidationError lists the invalid fields of a form, keyed by JSON name.
// Nothing is written when one is returned.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return "invalid fields: " + strings.Join(names, ", ")
}

// validate runs the struct tags on v.
func validate(v interface{}) error {
	if errs := validator.ValidateStruct(v); len(errs) > 0 {
		return &ValidationError{Fields: validator.Fields(errs)}
	}
	return nil
}

func invalidField(field, tag string) error {
	return &ValidationError{Fields: map[string]string{field: tag}}
}

// AuthError carries a message meant to be shown to the user as is.
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

var (
	ErrInvalidCredentials = &AuthError{Status: 401, Message: "invalid email or password"}
	ErrUserInactive       = &AuthError{Status: 401, Message: "user account is inactive"}
	ErrEmailTaken         = &AuthError{Status: 409, Message: "email already registered"}
	ErrWrongPassword      = &AuthError{Status: 400, Message: "current password is incorrect"}
	ErrInvalidResetToken  = &AuthError{Status: 400, Message: "reset link is invalid or has expired"}
	ErrSessionRevoked     = &AuthError{Status: 401, Message: "session expired (signed in on another device)"}
)

func txFailed(err error) error {
	return fmt.Errorf("%w: %v", ErrTransactionFailed, err)
}
