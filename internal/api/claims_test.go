package api

import (
	"reflect"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("not-the-server-key"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func TestParseAccessClaims(t *testing.T) {
	exp := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("list scopes", func(t *testing.T) {
		token := signedToken(t, jwt.MapClaims{
			"sub":       "user-1",
			"client_id": "cid",
			"scope":     []string{"prod:r", "orde:r"},
			"exp":       exp.Unix(),
			"iat":       exp.Add(-time.Hour).Unix(),
		})

		got, err := ParseAccessClaims(token)
		if err != nil {
			t.Fatalf("ParseAccessClaims() error = %v", err)
		}
		if got.Subject != "user-1" || got.ClientID != "cid" {
			t.Errorf("Unexpected identity: %+v", got)
		}
		if !reflect.DeepEqual(got.Scopes, []string{"prod:r", "orde:r"}) {
			t.Errorf("Scopes = %v", got.Scopes)
		}
		if !got.ExpiresAt.Equal(exp) {
			t.Errorf("ExpiresAt = %v, want %v", got.ExpiresAt, exp)
		}
		if !got.IssuedAt.Equal(exp.Add(-time.Hour)) {
			t.Errorf("IssuedAt = %v", got.IssuedAt)
		}
	})

	t.Run("string scope and expired token", func(t *testing.T) {
		token := signedToken(t, jwt.MapClaims{
			"scope": "prod:r  prod:u",
			"exp":   time.Now().Add(-time.Hour).Unix(),
		})

		got, err := ParseAccessClaims(token)
		if err != nil {
			t.Fatalf("ParseAccessClaims() error = %v", err)
		}
		if !reflect.DeepEqual(got.Scopes, []string{"prod:r", "prod:u"}) {
			t.Errorf("Scopes = %v", got.Scopes)
		}
	})

	t.Run("opaque token", func(t *testing.T) {
		if _, err := ParseAccessClaims("opaque-token"); err == nil {
			t.Error("Expected an error for a non-JWT token")
		}
	})
}
