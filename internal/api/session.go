package api

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// ErrInvalidSession is returned before any network call when a session is
// missing its API URL or the token needed for the operation.
var ErrInvalidSession = errors.New("invalid session")

// Session holds the API base URL and the current token pair.
//
// Tokens are only replaced by a successful TokenManager exchange. A Session
// is safe for concurrent use.
type Session struct {
	APIURL string

	mu           sync.RWMutex
	accessToken  string
	refreshToken string
	expiry       time.Time
}

// NewSession returns a session for apiURL. Either token may be empty.
func NewSession(apiURL, accessToken, refreshToken string) *Session {
	return &Session{
		APIURL:       strings.TrimSuffix(strings.TrimSpace(apiURL), "/"),
		accessToken:  accessToken,
		refreshToken: refreshToken,
	}
}

// WithExpiry sets the informational expiry restored from storage.
func (s *Session) WithExpiry(expiry time.Time) *Session {
	s.mu.Lock()
	s.expiry = expiry
	s.mu.Unlock()
	return s
}

// Tokens returns the access and refresh tokens. Empty means unset.
func (s *Session) Tokens() (accessToken, refreshToken string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken, s.refreshToken
}

func (s *Session) AccessToken() string {
	access, _ := s.Tokens()
	return access
}

func (s *Session) RefreshToken() string {
	_, refresh := s.Tokens()
	return refresh
}

// Expiry is derived from the expires_in of the last exchange. The client
// never acts on it.
func (s *Session) Expiry() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiry
}

func (s *Session) setTokens(accessToken, refreshToken string, expiry time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = accessToken
	s.refreshToken = refreshToken
	s.expiry = expiry
}

func (s *Session) validate() error {
	if s == nil {
		return fmt.Errorf("%w: session is nil", ErrInvalidSession)
	}
	if strings.TrimSpace(s.APIURL) == "" {
		return fmt.Errorf("%w: api url is not set", ErrInvalidSession)
	}
	return nil
}

// OAuth2Token returns the session tokens as an oauth2.Token.
func (s *Session) OAuth2Token() *oauth2.Token {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &oauth2.Token{
		AccessToken:  s.accessToken,
		TokenType:    "Bearer",
		RefreshToken: s.refreshToken,
		Expiry:       s.expiry,
	}
}

// TokenSource returns an oauth2.TokenSource that always reports the
// session's current access token, for use with oauth2.NewClient.
func (s *Session) TokenSource() oauth2.TokenSource {
	return sessionTokenSource{s}
}

type sessionTokenSource struct{ s *Session }

func (ts sessionTokenSource) Token() (*oauth2.Token, error) {
	tok := ts.s.OAuth2Token()
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("%w: no access token", ErrInvalidSession)
	}
	return tok, nil
}
