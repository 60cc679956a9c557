package api

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// TokenPath is the OAuth token endpoint, relative to the API URL.
const TokenPath = "/oauth/token"

// ErrMissingClientCredentials is returned when a token request is attempted
// without client_id and client_secret configured.
var ErrMissingClientCredentials = errors.New("client_id and client_secret must be configured for token requests")

// TokenManager exchanges grants for tokens and stores them in the session.
type TokenManager struct {
	client *Client
}

// Auth returns the token manager for c.
func (c *Client) Auth() TokenManager {
	return TokenManager{client: c}
}

// ExchangeAuthorizationCode trades an authorization code for a token pair.
func (m TokenManager) ExchangeAuthorizationCode(ctx context.Context, s *Session, code string) (Result, error) {
	return m.grant(ctx, s, map[string]any{
		"grant_type": "authorization_code",
		"code":       code,
	})
}

// Refresh trades the session's refresh token for a new token pair.
func (m TokenManager) Refresh(ctx context.Context, s *Session) (Result, error) {
	if err := s.validate(); err != nil {
		return Result{}, err
	}
	refresh := s.RefreshToken()
	if refresh == "" {
		return Result{}, fmt.Errorf("%w: no refresh token", ErrInvalidSession)
	}
	return m.grant(ctx, s, map[string]any{
		"grant_type":    "refresh_token",
		"refresh_token": refresh,
	})
}

// ClientCredentials obtains a token for the client itself, with no user.
func (m TokenManager) ClientCredentials(ctx context.Context, s *Session) (Result, error) {
	return m.grant(ctx, s, map[string]any{
		"grant_type": "client_credentials",
	})
}

// grant posts params to the token endpoint using HTTP basic auth. On a 2xx
// response carrying an access_token the session tokens are replaced and the
// session is returned as the value. Anything else leaves the session as it
// was.
func (m TokenManager) grant(ctx context.Context, s *Session, params map[string]any) (Result, error) {
	if err := s.validate(); err != nil {
		return Result{}, err
	}
	cfg := m.client.Config
	if strings.TrimSpace(cfg.ClientID) == "" || strings.TrimSpace(cfg.ClientSecret) == "" {
		return Result{}, ErrMissingClientCredentials
	}

	header := http.Header{}
	header.Set("Authorization", "Basic "+basicAuth(cfg.ClientID, cfg.ClientSecret))

	res, err := m.client.Execute(ctx, s, Request{
		Method:       MethodPost,
		Path:         TokenPath,
		Query:        params,
		Header:       header,
		PreserveKeys: true,
	})
	if err != nil {
		return Result{}, err
	}
	res = Normalize(res, NormalizeOptions{})
	if !res.OK() {
		return res, nil
	}

	body, _ := res.Value.(map[string]any)
	access, _ := body["access_token"].(string)
	if access == "" {
		return Result{
			StatusCode: res.StatusCode,
			Header:     res.Header,
			Failure: &Failure{
				Kind:       KindUnknown,
				StatusCode: res.StatusCode,
				Payload:    res.Value,
				Err:        errors.New("token response has no access_token"),
			},
		}, nil
	}
	refresh, _ := body["refresh_token"].(string)

	var expiry time.Time
	if secs, ok := intField(body, "expires_in"); ok && secs > 0 {
		expiry = time.Now().Add(time.Duration(secs) * time.Second)
	}

	s.setTokens(access, refresh, expiry)
	return Result{Value: s, StatusCode: res.StatusCode, Header: res.Header}, nil
}

func basicAuth(username, password string) string {
	return base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
}
