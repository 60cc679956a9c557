package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/beyond-api/beyond-cli/internal/api"
	"github.com/beyond-api/beyond-cli/internal/config"
	"github.com/beyond-api/beyond-cli/internal/debug"
)

const (
	envAccessToken  = "BEYOND_ACCESS_TOKEN"
	envRefreshToken = "BEYOND_REFRESH_TOKEN"
)

// clientFactory builds the configuration, client and session for a command
// from the config layers, the keyring and the global flags.
type clientFactory struct {
	timeout   time.Duration
	apiURL    string
	profile   string
	userAgent string
	debug     bool
}

func newClientFactory() *clientFactory {
	return &clientFactory{
		timeout:   flags.Timeout,
		profile:   flags.Profile,
		userAgent: fmt.Sprintf("beyond-cli/%s", version),
		debug:     flags.Debug,
	}
}

// apiContext is everything a command needs to call the API.
type apiContext struct {
	Config  config.Config
	Client  *api.Client
	Session *api.Session
	Profile string

	// FromEnv is set when the tokens came from BEYOND_ACCESS_TOKEN.
	FromEnv bool
}

// load resolves settings and credentials. requireToken rejects a session
// without an access token; token grants pass false.
func (f *clientFactory) load(requireToken bool) (*apiContext, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if f.timeout > 0 {
		cfg.Timeout = config.Duration(f.timeout)
	}
	if f.apiURL != "" {
		cfg.APIURL = strings.TrimSuffix(strings.TrimSpace(f.apiURL), "/")
	}
	debug.SetupLogger(cfg.LogLevel, f.debug)

	ac := &apiContext{Config: cfg}

	if token := strings.TrimSpace(os.Getenv(envAccessToken)); token != "" {
		ac.FromEnv = true
		ac.Session = api.NewSession(cfg.APIURL, token, strings.TrimSpace(os.Getenv(envRefreshToken)))
	} else {
		profile, err := config.ResolveProfile(f.profile)
		if err != nil {
			return nil, err
		}
		ac.Profile = profile

		creds, err := config.LoadCredentials(profile)
		switch {
		case err == nil:
		case errors.Is(err, config.ErrNotLoggedIn) && !requireToken:
		default:
			return nil, err
		}
		if ac.Config.APIURL == "" {
			ac.Config.APIURL = strings.TrimSuffix(creds.APIURL, "/")
		}
		ac.Session = api.NewSession(ac.Config.APIURL, creds.AccessToken, creds.RefreshToken).WithExpiry(creds.Expiry)
	}

	if err := ac.Config.Validate(); err != nil {
		return nil, err
	}
	ac.Session.APIURL = ac.Config.APIURL
	if requireToken && ac.Session.AccessToken() == "" {
		return nil, config.ErrNotLoggedIn
	}

	ac.Client = api.New(ac.Config, nil)
	if f.userAgent != "" {
		ac.Client.UserAgent = f.userAgent
	}
	return ac, nil
}

// saveSession persists the session tokens under the active profile. Sessions
// built from the environment are not persisted.
func (ac *apiContext) saveSession() error {
	if ac.FromEnv {
		return nil
	}
	access, refresh := ac.Session.Tokens()
	return config.SaveCredentials(ac.Profile, config.Credentials{
		APIURL:       ac.Session.APIURL,
		AccessToken:  access,
		RefreshToken: refresh,
		Expiry:       ac.Session.Expiry(),
	})
}
