package auth

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
)

// Text codes surfaced to API clients alongside the mapped status code.
const (
	TextCodeInvalidCode      = "INVALID_CONFIRMATION_CODE"
	TextCodeTokenExpired     = "TOKEN_EXPIRED"
	TextCodeTokenMalformed   = "TOKEN_MALFORMED"
	TextCodeDeliveryFailed   = "CODE_DELIVERY_FAILED"
	TextCodeDuplicateReview  = "DUPLICATE_REVIEW"
	TextCodePermissionDenied = "PERMISSION_DENIED"
	TextCodeIdentityConflict = "IDENTITY_EXISTS"
)

// ErrIdentityNotFound is returned when no identity exists for an email
// during verification. RequestCode never surfaces it, that operation
// always succeeds to avoid account enumeration.
var ErrIdentityNotFound = goerrors.New("identity not found", goerrors.CategoryNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrInvalidCode covers a wrong, already consumed, or expired
// confirmation code. The three cases are deliberately indistinguishable
// to the caller, the code is a credential.
var ErrInvalidCode = goerrors.New("confirmation code is not valid", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCode)

// ErrTokenExpired means the token verified correctly but is past its
// expiry, the client should re-authenticate.
var ErrTokenExpired = goerrors.New("authentication token has expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired)

// ErrTokenMalformed means the token failed signature or structural
// verification before claims were ever inspected.
var ErrTokenMalformed = goerrors.New("authentication token is malformed", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed)

// ErrDeliveryFailed means the Notifier could not deliver the code. The
// identity and the issued code remain persisted so a retry of
// RequestCode is safe.
var ErrDeliveryFailed = goerrors.New("could not deliver confirmation code", goerrors.CategoryExternal).
	WithTextCode(TextCodeDeliveryFailed)

// ErrDuplicateReview enforces the one-review-per-author-per-title
// invariant.
var ErrDuplicateReview = goerrors.New("author already has a review for this title", goerrors.CategoryConflict).
	WithTextCode(TextCodeDuplicateReview)

// ErrPermissionDenied carries no detail beyond the denial itself.
var ErrPermissionDenied = goerrors.New("not allowed", goerrors.CategoryAuthz).
	WithTextCode(TextCodePermissionDenied)

// ErrIdentityConflict surfaces a store-level uniqueness violation on
// email or username.
var ErrIdentityConflict = goerrors.New("identity already exists", goerrors.CategoryConflict).
	WithTextCode(TextCodeIdentityConflict)

// ErrCodeMismatch is the internal mismatch between a presented code and
// its stored hash. Callers surface it as ErrInvalidCode.
var ErrCodeMismatch = goerrors.New("the confirmation code provided is invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCode)

// ErrNoEmptyString rejects empty credentials before hashing.
var ErrNoEmptyString = goerrors.New("value must not be empty", goerrors.CategoryBadInput)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	var rich *goerrors.Error
	if goerrors.As(err, &rich) && rich.TextCode == TextCodeTokenExpired {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	var rich *goerrors.Error
	if goerrors.As(err, &rich) && rich.TextCode == TextCodeTokenMalformed {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// IsInvalidCodeError checks for the invalid-confirmation-code kind.
func IsInvalidCodeError(err error) bool {
	if err == nil {
		return false
	}
	var rich *goerrors.Error
	return goerrors.As(err, &rich) && rich.TextCode == TextCodeInvalidCode
}

// FormatValidationErrorToMap flattens a validation failure into a
// field to message map for rendering in a response body. Returns nil
// when the error carries no field-scoped validation detail.
func FormatValidationErrorToMap(err error) map[string]string {
	if err == nil {
		return nil
	}

	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		var rich *goerrors.Error
		if !goerrors.As(err, &rich) || rich.Source == nil || !errors.As(rich.Source, &verrs) {
			return nil
		}
	}

	out := make(map[string]string, len(verrs))
	for field, ferr := range verrs {
		if ferr != nil {
			out[field] = ferr.Error()
		}
	}
	return out
}

// isUniqueViolation matches store-level unique constraint errors across
// the drivers bun supports.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint") ||
		strings.Contains(msg, "Duplicate entry")
}
