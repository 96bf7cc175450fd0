package testhelpers

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TestJWTSecret is the HS256 secret handler and middleware tests sign with.
const TestJWTSecret = "test-jwt-secret"

// GenerateTestJWT returns a Supabase-style access token for sub.
func GenerateTestJWT(t *testing.T, sub string) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  sub,
		"role": "authenticated",
		"aud":  "authenticated",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(TestJWTSecret))
	if err != nil {
		t.Fatalf("Failed to sign test token: %v", err)
	}
	return signed
}

// GenerateTestJWTWithBearer returns the token with the "Bearer " prefix.
func GenerateTestJWTWithBearer(t *testing.T, sub string) string {
	return "Bearer " + GenerateTestJWT(t, sub)
}
