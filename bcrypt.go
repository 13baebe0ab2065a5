package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// codeHashCost trades hash strength for verify latency. Codes are
// single-use and short-lived, the full password-grade cost is not
// warranted.
const codeHashCost = 10

// HashConfirmationCode will generate a hash for storing a code at rest
func HashConfirmationCode(code string) (string, error) {
	if code == "" {
		return "", ErrNoEmptyString
	}

	h, err := bcrypt.GenerateFromPassword([]byte(code), codeHashCost)
	return string(h), err
}

// CompareCodeAndHash will validate the given cleartext confirmation
// code matches the stored hash. The comparison is constant time, the
// code is a credential.
func CompareCodeAndHash(code, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrCodeMismatch
		}
		return err
	}
	return nil
}
