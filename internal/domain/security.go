package domain

import (
	"crypto/rand"
	"encoding/base64"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword derives an irreversible bcrypt digest of a secret. Cost below
// bcrypt's minimum falls back to the library default.
func HashPassword(secret string, cost int) (string, error) {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// VerifyPassword checks a presented secret against a stored digest.
func VerifyPassword(secret, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(secret)) == nil
}

// GenerateStarterPassword produces the one-time password handed to a freshly
// onboarded customer.
func GenerateStarterPassword() (string, error) {
	buf := make([]byte, 9)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
