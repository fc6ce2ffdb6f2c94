package accounts

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = goerrors.New("identity not found", goerrors.CategoryNotFound).
	WithTextCode("IDENTITY_NOT_FOUND").
	WithCode(goerrors.CodeNotFound)

// ErrInvalidCredentials is the single error exposed for a failed login.
// A missing identity and a wrong password both map here so callers
// cannot enumerate registered emails.
var ErrInvalidCredentials = goerrors.New("invalid email or password", goerrors.CategoryAuth).
	WithTextCode("INVALID_CREDENTIALS").
	WithCode(goerrors.CodeUnauthorized)

// ErrMismatchedHashAndPassword cleartext does not match the stored hash
var ErrMismatchedHashAndPassword = goerrors.New("mismatched password and hash", goerrors.CategoryAuth).
	WithTextCode("PASSWORD_MISMATCH").
	WithCode(goerrors.CodeUnauthorized)

// ErrNoEmptyString is returned when hashing an empty password
var ErrNoEmptyString = goerrors.New("password should not be an empty string", goerrors.CategoryValidation).
	WithTextCode("EMPTY_PASSWORD").
	WithCode(goerrors.CodeBadRequest)

// ErrTooManyLoginAttempts login attempts exceeded inside the cool down window
var ErrTooManyLoginAttempts = goerrors.New("too many login attempts", goerrors.CategoryAuth).
	WithTextCode("TOO_MANY_ATTEMPTS").
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenExpired token is past its expiry claim
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithTextCode("TOKEN_EXPIRED").
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed token could not be parsed or its signature is invalid
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryAuth).
	WithTextCode("TOKEN_MALFORMED").
	WithCode(goerrors.CodeUnauthorized)

const metadataFieldsKey = "fields"

// NewFieldConflict builds the conflict error used when a unique
// identifier (email, username) already exists. The field-keyed message
// ends up verbatim in the response body.
func NewFieldConflict(field, message string) *goerrors.Error {
	return goerrors.New(message, goerrors.CategoryConflict).
		WithTextCode("DUPLICATE_" + strings.ToUpper(field)).
		WithCode(goerrors.CodeBadRequest).
		WithMetadata(map[string]any{
			metadataFieldsKey: map[string]string{field: message},
		})
}

// NewValidationError builds a field-keyed input validation error.
func NewValidationError(fields map[string]string) *goerrors.Error {
	return goerrors.New("validation failed", goerrors.CategoryValidation).
		WithTextCode("VALIDATION").
		WithCode(goerrors.CodeBadRequest).
		WithMetadata(map[string]any{
			metadataFieldsKey: fields,
		})
}

// FieldErrors extracts the field-keyed messages from a conflict or
// validation error, when present.
func FieldErrors(err error) (map[string]string, bool) {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return nil, false
	}

	if richErr.Metadata == nil {
		return nil, false
	}

	fields, ok := richErr.Metadata[metadataFieldsKey].(map[string]string)
	if !ok || len(fields) == 0 {
		return nil, false
	}

	return fields, true
}

// IsConflict reports whether err is a uniqueness conflict.
func IsConflict(err error) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.Category == goerrors.CategoryConflict
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
