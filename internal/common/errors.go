// Package common defines shared constants and sentinel errors used across
// the ScholarStream server layers. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")
	ErrorValidation   = errors.New("validation error")

	// Checkout session carries no usable applicationId/scholarshipId/userEmail.
	ErrorIncorrectMetadata = errors.New("incorrect metadata")

	// Payment reconciliation errors.
	ErrPaymentIncomplete = errors.New("payment not completed")
	ErrUpdateFailed      = errors.New("application update failed")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")
)
