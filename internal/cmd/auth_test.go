package cmd

import (
	"encoding/base64"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beyond-api/beyond-cli/internal/api"
	"github.com/beyond-api/beyond-cli/internal/config"
)

// setupAuthEnv starts a mock API without a token in the environment and
// with client credentials configured.
func setupAuthEnv(t *testing.T, handler http.Handler) *testEnv {
	t.Helper()
	env := setupTestEnv(t, handler)
	t.Setenv("BEYOND_ACCESS_TOKEN", "")
	t.Setenv("BEYOND_CLIENT_ID", "client")
	t.Setenv("BEYOND_CLIENT_SECRET", "secret")
	return env
}

// tokenEndpoint answers grant requests of grantType with a fixed token pair
// and records the form it received.
func tokenEndpoint(t *testing.T, grantType string, got *map[string]string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		want := "Basic " + base64.StdEncoding.EncodeToString([]byte("client:secret"))
		if r.Header.Get("Authorization") != want {
			t.Errorf("Authorization = %q, want %q", r.Header.Get("Authorization"), want)
		}
		q := r.URL.Query()
		if q.Get("grant_type") != grantType {
			t.Errorf("grant_type = %q, want %q", q.Get("grant_type"), grantType)
		}
		if got != nil {
			m := map[string]string{}
			for k := range q {
				m[k] = q.Get(k)
			}
			*got = m
		}
		jsonResponse(200, `{"access_token": "access-token-0001", "refresh_token": "refresh-token-0001", "token_type": "bearer", "expires_in": 3600}`)(w, r)
	}
}

func TestAuthLogin_WithCode(t *testing.T) {
	var form map[string]string
	handler := newRouteHandler().On("POST", api.TokenPath, tokenEndpoint(t, "authorization_code", &form))
	env := setupAuthEnv(t, handler)

	res := execute(t, "auth", "login", "--code", "abc123", "--profile", "work")
	require.NoError(t, res.err, res.stderr)
	assert.Equal(t, "abc123", form["code"])
	assert.Contains(t, res.stdout, "Logged in.")
	assert.Contains(t, res.stdout, "Profile: work")

	creds, err := config.LoadCredentials("work")
	require.NoError(t, err)
	assert.Equal(t, env.server.URL, creds.APIURL)
	assert.Equal(t, "access-token-0001", creds.AccessToken)
	assert.Equal(t, "refresh-token-0001", creds.RefreshToken)
	assert.WithinDuration(t, time.Now().Add(time.Hour), creds.Expiry, time.Minute)

	current, err := config.CurrentProfile()
	require.NoError(t, err)
	assert.Equal(t, "work", current)
}

func TestAuthLogin_APIURLFlag(t *testing.T) {
	handler := newRouteHandler().On("POST", "/api"+api.TokenPath, tokenEndpoint(t, "authorization_code", nil))
	env := setupAuthEnv(t, handler)
	t.Setenv("BEYOND_API_URL", "")

	res := execute(t, "auth", "login", "--code", "abc", "--api-url", env.server.URL+"/api/", "-o", "json")
	require.NoError(t, res.err, res.stderr)

	out := decodeObject(t, res.stdout)
	assert.Equal(t, true, out["authenticated"])
	assert.Equal(t, env.server.URL+"/api", out["api_url"])
	assert.Equal(t, "keychain", out["source"])
	assert.Equal(t, "default", out["profile"])
}

func TestAuthLogin_MissingClientCredentials(t *testing.T) {
	setupAuthEnv(t, newRouteHandler())
	t.Setenv("BEYOND_CLIENT_SECRET", "")

	res := execute(t, "auth", "login", "--code", "abc")
	require.Error(t, res.err)
	assert.ErrorIs(t, res.err, api.ErrMissingClientCredentials)
	assert.Equal(t, exitAuth, ExitCode(res.err))
	assert.Contains(t, res.stderr, "BEYOND_CLIENT_ID")
}

func TestAuthLogin_RejectedCode(t *testing.T) {
	handler := newRouteHandler().On("POST", api.TokenPath,
		jsonResponse(400, `{"error": "invalid_grant", "error_description": "code expired"}`))
	setupAuthEnv(t, handler)

	res := execute(t, "auth", "login", "--code", "old")
	require.Error(t, res.err)
	assert.Contains(t, res.stderr, "code expired")

	_, err := config.LoadCredentials("default")
	assert.ErrorIs(t, err, config.ErrNotLoggedIn)
}

func TestAuthRefresh(t *testing.T) {
	var form map[string]string
	handler := newRouteHandler().On("POST", api.TokenPath, tokenEndpoint(t, "refresh_token", &form))
	env := setupAuthEnv(t, handler)

	require.NoError(t, config.SaveCredentials("default", config.Credentials{
		APIURL:       env.server.URL,
		AccessToken:  "old-access",
		RefreshToken: "old-refresh",
	}))

	res := execute(t, "auth", "refresh")
	require.NoError(t, res.err, res.stderr)
	assert.Equal(t, "old-refresh", form["refresh_token"])
	assert.Contains(t, res.stdout, "Tokens refreshed.")

	creds, err := config.LoadCredentials("default")
	require.NoError(t, err)
	assert.Equal(t, "access-token-0001", creds.AccessToken)
	assert.Equal(t, "refresh-token-0001", creds.RefreshToken)
}

func TestAuthRefresh_WithoutRefreshToken(t *testing.T) {
	env := setupAuthEnv(t, newRouteHandler())
	require.NoError(t, config.SaveCredentials("default", config.Credentials{
		APIURL:      env.server.URL,
		AccessToken: "only-access",
	}))

	res := execute(t, "auth", "refresh")
	require.Error(t, res.err)
	assert.ErrorIs(t, res.err, api.ErrInvalidSession)
	assert.Equal(t, exitAuth, ExitCode(res.err))
}

func TestAuthRefresh_EnvSessionIsNotPersisted(t *testing.T) {
	handler := newRouteHandler().On("POST", api.TokenPath, tokenEndpoint(t, "refresh_token", nil))
	setupAuthEnv(t, handler)
	t.Setenv("BEYOND_ACCESS_TOKEN", "env-access")
	t.Setenv("BEYOND_REFRESH_TOKEN", "env-refresh")

	res := execute(t, "auth", "refresh", "-o", "json")
	require.NoError(t, res.err, res.stderr)
	assert.Equal(t, "env", decodeObject(t, res.stdout)["source"])

	profiles, err := config.ListProfiles()
	require.NoError(t, err)
	assert.Empty(t, profiles)
}

func TestAuthClientCredentials(t *testing.T) {
	handler := newRouteHandler().On("POST", api.TokenPath, tokenEndpoint(t, "client_credentials", nil))
	setupAuthEnv(t, handler)

	res := execute(t, "auth", "cc", "--profile", "app")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "Client token obtained.")

	creds, err := config.LoadCredentials("app")
	require.NoError(t, err)
	assert.Equal(t, "access-token-0001", creds.AccessToken)
}

func TestAuthStatus(t *testing.T) {
	t.Run("not authenticated", func(t *testing.T) {
		setupAuthEnv(t, newRouteHandler())

		res := execute(t, "auth", "status")
		require.NoError(t, res.err, res.stderr)
		assert.Contains(t, res.stdout, "Not authenticated.")

		res = execute(t, "auth", "status", "-o", "json")
		require.NoError(t, res.err, res.stderr)
		assert.Equal(t, false, decodeObject(t, res.stdout)["authenticated"])
	})

	t.Run("keychain", func(t *testing.T) {
		env := setupAuthEnv(t, newRouteHandler())
		expiry := time.Now().Add(-time.Minute).UTC().Truncate(time.Second)
		require.NoError(t, config.SaveCredentials("staging", config.Credentials{
			APIURL:       env.server.URL,
			AccessToken:  "abcd1234efgh5678",
			RefreshToken: "refresh-secret-99",
			Expiry:       expiry,
		}))

		res := execute(t, "auth", "status", "-o", "json")
		require.NoError(t, res.err, res.stderr)
		out := decodeObject(t, res.stdout)
		assert.Equal(t, true, out["authenticated"])
		assert.Equal(t, "staging", out["profile"])
		assert.Equal(t, "abcd********5678", out["access_token"])
		assert.NotContains(t, res.stdout, "refresh-secret-99")
		assert.Equal(t, true, out["expired"])

		res = execute(t, "auth", "status")
		require.NoError(t, res.err, res.stderr)
		assert.Contains(t, res.stdout, "Authenticated")
		assert.Contains(t, res.stdout, "Source: keychain")
	})

	t.Run("environment", func(t *testing.T) {
		setupTestEnv(t, newRouteHandler())

		res := execute(t, "auth", "status", "-o", "json")
		require.NoError(t, res.err, res.stderr)
		out := decodeObject(t, res.stdout)
		assert.Equal(t, "env", out["source"])
		assert.NotContains(t, out, "profile")
	})
}

func TestAuthStatus_JWTClaims(t *testing.T) {
	setupTestEnv(t, newRouteHandler())
	exp := time.Now().Add(30 * time.Minute).UTC().Truncate(time.Second)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "user-7",
		"scope": []string{"prod:r", "orde:r"},
		"exp":   exp.Unix(),
	}).SignedString([]byte("k"))
	require.NoError(t, err)
	t.Setenv("BEYOND_ACCESS_TOKEN", token)

	res := execute(t, "auth", "status", "-o", "json")
	require.NoError(t, res.err, res.stderr)
	out := decodeObject(t, res.stdout)
	assert.Equal(t, []any{"prod:r", "orde:r"}, out["scopes"])
	assert.Equal(t, "user-7", out["subject"])
	assert.Equal(t, exp.Format(time.RFC3339), out["expiry"])
	assert.Equal(t, false, out["expired"])

	res = execute(t, "auth", "status")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "Scopes: prod:r orde:r")
}

func TestAuthLogout(t *testing.T) {
	env := setupAuthEnv(t, newRouteHandler())
	for _, p := range []string{"one", "two"} {
		require.NoError(t, config.SaveCredentials(p, config.Credentials{APIURL: env.server.URL, AccessToken: "tok-" + p}))
	}

	res := execute(t, "auth", "logout", "--profile", "one")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "Profile one removed.")

	_, err := config.LoadCredentials("one")
	assert.ErrorIs(t, err, config.ErrNotLoggedIn)
	_, err = config.LoadCredentials("two")
	assert.NoError(t, err)
}

func TestAuthProfiles(t *testing.T) {
	env := setupAuthEnv(t, newRouteHandler())
	for _, p := range []string{"alpha", "beta"} {
		require.NoError(t, config.SaveCredentials(p, config.Credentials{APIURL: env.server.URL, AccessToken: "tok"}))
	}

	res := execute(t, "auth", "profiles", "-o", "json")
	require.NoError(t, res.err, res.stderr)
	assert.Equal(t, []any{
		map[string]any{"name": "alpha", "current": false},
		map[string]any{"name": "beta", "current": true},
	}, decodeList(t, res.stdout))
}

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "", maskToken(""))
	assert.Equal(t, "****", maskToken("abcd"))
	assert.Equal(t, "********", maskToken("abcdefgh"))
	assert.Equal(t, "abcd**ghij", maskToken("abcdefghij"))
}
