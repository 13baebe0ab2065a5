package auth

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// DefaultCodeTTL bounds confirmation code validity.
var DefaultCodeTTL = "24h"

// codeEntropyBytes of randomness per code, rendered as base64url.
const codeEntropyBytes = 24

// CodeGenerator produces single-use, time-limited confirmation codes
// bound to an identity. Only the hash ends up in the store, the
// cleartext exists to be delivered and forgotten.
type CodeGenerator struct {
	ttl time.Duration
}

// NewCodeGenerator creates a generator with the given TTL pattern
// (e.g. "24h"). An empty or invalid pattern falls back to DefaultCodeTTL.
func NewCodeGenerator(ttl string) *CodeGenerator {
	duration, err := time.ParseDuration(ttl)
	if err != nil || ttl == "" {
		duration, _ = time.ParseDuration(DefaultCodeTTL)
	}
	return &CodeGenerator{ttl: duration}
}

// TTL returns the configured code lifetime.
func (g *CodeGenerator) TTL() time.Duration {
	return g.ttl
}

// NewCode mints a fresh code for the identity: the cleartext for
// delivery and the persistable record holding its hash and expiry.
func (g *CodeGenerator) NewCode(now time.Time, userID uuid.UUID) (string, *ConfirmationCode, error) {
	buf := make([]byte, codeEntropyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read random bytes for code")
	}

	cleartext := base64.RawURLEncoding.EncodeToString(buf)

	hash, err := HashConfirmationCode(cleartext)
	if err != nil {
		return "", nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash confirmation code")
	}

	record := &ConfirmationCode{
		ID:        uuid.New(),
		UserID:    userID,
		CodeHash:  hash,
		Status:    CodePending,
		ExpiresAt: now.Add(g.ttl),
	}

	return cleartext, record, nil
}
