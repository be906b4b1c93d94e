package apperrors

import (
	"errors"
)

var (
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Token verification failures
	ErrCredentialMissing     = errors.New("credential missing")
	ErrTokenMalformed        = errors.New("token malformed")
	ErrTokenExpired          = errors.New("token expired")
	ErrTokenSignatureInvalid = errors.New("token signature invalid")
	ErrTokenKindMismatch     = errors.New("token kind mismatch")

	// Refresh rotation failures
	// Reused: the token is valid by signature but not the stored one anymore
	// Conflict: lost the compare-and-swap race to a concurrent rotation
	ErrRefreshTokenReused      = errors.New("refresh token already used")
	ErrRefreshRotationConflict = errors.New("refresh rotation conflict")
)

// IsAuthError reports whether err belongs to the credential failure family.
// Handlers answer all of them with the same unauthorized response and keep
// the exact reason for logs only.
func IsAuthError(err error) bool {
	for _, target := range []error{
		ErrUserNotFound,
		ErrInvalidCredentials,
		ErrCredentialMissing,
		ErrTokenMalformed,
		ErrTokenExpired,
		ErrTokenSignatureInvalid,
		ErrTokenKindMismatch,
		ErrRefreshTokenReused,
		ErrRefreshRotationConflict,
	} {
		if errors.Is(err, target) {
			return true
		}
	}

	return false
}
