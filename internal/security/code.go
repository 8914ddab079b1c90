// Package security generates, hashes and verifies confirmation codes.
package security

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/crypto/bcrypt"
)

const (
	codeAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	codeLength   = 24
)

// GenerateCode returns a new random confirmation code.
func GenerateCode() (string, error) {
	return gonanoid.Generate(codeAlphabet, codeLength)
}

// HashCode creates a bcrypt hash from the given plaintext code.
func HashCode(code string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyCode checks if the provided plaintext code matches the stored bcrypt hash.
func VerifyCode(hashedCode, providedCode string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedCode), []byte(providedCode))
}

// StateHash digests the given state fields into a hex string.
// Fields are NUL separated so that ("ab", "c") and ("a", "bc") differ.
func StateHash(fields ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(fields, "\x00")))
	return hex.EncodeToString(sum[:])
}
