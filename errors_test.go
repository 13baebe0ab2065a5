package auth_test

import (
	"errors"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/reviewcat/auth"
	"github.com/stretchr/testify/assert"
)

func TestErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name     string
		err      *goerrors.Error
		category goerrors.Category
		textCode string
	}{
		{"invalid code", auth.ErrInvalidCode, goerrors.CategoryAuth, auth.TextCodeInvalidCode},
		{"token expired", auth.ErrTokenExpired, goerrors.CategoryAuth, auth.TextCodeTokenExpired},
		{"token malformed", auth.ErrTokenMalformed, goerrors.CategoryAuth, auth.TextCodeTokenMalformed},
		{"delivery failed", auth.ErrDeliveryFailed, goerrors.CategoryExternal, auth.TextCodeDeliveryFailed},
		{"duplicate review", auth.ErrDuplicateReview, goerrors.CategoryConflict, auth.TextCodeDuplicateReview},
		{"permission denied", auth.ErrPermissionDenied, goerrors.CategoryAuthz, auth.TextCodePermissionDenied},
		{"identity conflict", auth.ErrIdentityConflict, goerrors.CategoryConflict, auth.TextCodeIdentityConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.category, tt.err.Category)
			assert.Equal(t, tt.textCode, tt.err.TextCode)
		})
	}
}

func TestErrIdentityNotFound(t *testing.T) {
	assert.Equal(t, goerrors.CategoryNotFound, auth.ErrIdentityNotFound.Category)
	assert.True(t, goerrors.IsNotFound(auth.ErrIdentityNotFound))
}

func TestIsTokenExpiredError(t *testing.T) {
	assert.True(t, auth.IsTokenExpiredError(auth.ErrTokenExpired))
	assert.True(t, auth.IsTokenExpiredError(errors.New("token is expired by 1h0m0s")))

	assert.False(t, auth.IsTokenExpiredError(nil))
	assert.False(t, auth.IsTokenExpiredError(auth.ErrTokenMalformed))
	assert.False(t, auth.IsTokenExpiredError(errors.New("some other error")))
}

func TestIsMalformedError(t *testing.T) {
	assert.True(t, auth.IsMalformedError(auth.ErrTokenMalformed))
	assert.True(t, auth.IsMalformedError(errors.New("token is malformed: could not base64 decode")))
	assert.True(t, auth.IsMalformedError(errors.New("missing or malformed JWT")))

	assert.False(t, auth.IsMalformedError(nil))
	assert.False(t, auth.IsMalformedError(auth.ErrTokenExpired))
}

func TestIsInvalidCodeError(t *testing.T) {
	assert.True(t, auth.IsInvalidCodeError(auth.ErrInvalidCode))
	assert.True(t, auth.IsInvalidCodeError(auth.ErrCodeMismatch))

	wrapped := goerrors.Wrap(auth.ErrInvalidCode, goerrors.CategoryAuth, "verification failed").
		WithTextCode(auth.TextCodeInvalidCode)
	assert.True(t, auth.IsInvalidCodeError(wrapped))

	assert.False(t, auth.IsInvalidCodeError(nil))
	assert.False(t, auth.IsInvalidCodeError(auth.ErrTokenExpired))
}

func TestFormatValidationErrorToMap(t *testing.T) {
	assert.Nil(t, auth.FormatValidationErrorToMap(nil))
	assert.Nil(t, auth.FormatValidationErrorToMap(errors.New("boom")))
	assert.Nil(t, auth.FormatValidationErrorToMap(auth.ErrInvalidCode))

	verrs := validation.Errors{"email": errors.New("must be a valid email address")}
	fields := auth.FormatValidationErrorToMap(verrs)
	assert.Equal(t, "must be a valid email address", fields["email"])

	wrapped := goerrors.Wrap(verrs, goerrors.CategoryValidation, "invalid payload")
	fields = auth.FormatValidationErrorToMap(wrapped)
	assert.Equal(t, "must be a valid email address", fields["email"])
}

func TestCompareCodeAndHash(t *testing.T) {
	hash, err := auth.HashConfirmationCode("super-secret-code")
	assert.NoError(t, err)
	assert.NotEqual(t, "super-secret-code", hash)

	assert.NoError(t, auth.CompareCodeAndHash("super-secret-code", hash))

	err = auth.CompareCodeAndHash("wrong-code", hash)
	assert.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrCodeMismatch)
}

func TestHashConfirmationCode_Empty(t *testing.T) {
	_, err := auth.HashConfirmationCode("")
	assert.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrNoEmptyString)
}
