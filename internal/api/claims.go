package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessClaims are the informational claims of a JWT access token.
type AccessClaims struct {
	Subject   string
	ClientID  string
	Scopes    []string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// ParseAccessClaims reads the claims of a JWT access token. The signature is
// not verified.
func ParseAccessClaims(token string) (*AccessClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("access token is not a JWT: %w", err)
	}

	out := &AccessClaims{}
	out.Subject, _ = claims.GetSubject()
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		out.IssuedAt = iat.Time
	}
	if id, ok := claims["client_id"].(string); ok {
		out.ClientID = id
	}

	// scope is either a space separated string or a list.
	switch scope := claims["scope"].(type) {
	case string:
		out.Scopes = strings.Fields(scope)
	case []any:
		for _, s := range scope {
			if str, ok := s.(string); ok {
				out.Scopes = append(out.Scopes, str)
			}
		}
	}
	return out, nil
}
