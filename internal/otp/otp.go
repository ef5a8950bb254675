// Package otp issues and verifies the one-time codes that confirm an
// in-person handoff. A code is scoped to a single order: the buyer reads it
// from their pending orders, the seller proves receipt by presenting it.
package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

// Codes are 6 decimal digits, uniform over [100000, 999999]. Collisions
// between outstanding codes are acceptable: verification is always against a
// single order's stored hash, never a global lookup.
const (
	codeMin = 100000
	codeMax = 999999
)

// Challenge generates codes and their storage hashes.
type Challenge struct{}

func NewChallenge() *Challenge {
	return &Challenge{}
}

// Issue produces a code and its one-way hash. The plaintext goes back to the
// buyer (and is retained on the order so they can re-read it); only the hash
// is ever used for verification.
func (c *Challenge) Issue() (code string, hash string, err error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeMax-codeMin+1))
	if err != nil {
		return "", "", fmt.Errorf("could not generate otp: %w", err)
	}
	code = fmt.Sprintf("%06d", n.Int64()+codeMin)

	hashed, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", "", fmt.Errorf("could not hash otp: %w", err)
	}
	return code, string(hashed), nil
}

// Verify reports whether candidate matches the stored hash. It is a pure
// predicate: no state changes, and the bcrypt comparison does not leak
// partial-match timing.
func (c *Challenge) Verify(candidate string, storedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(candidate)) == nil
}
