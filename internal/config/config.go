// Package config resolves client settings from defaults, an optional JSON
// file, a .env file and BEYOND_* environment variables, and stores session
// credentials in the OS keyring.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/beyond-api/beyond-cli/internal/validation"
)

const (
	serviceName = "beyond-cli"

	envPrefix     = "BEYOND_"
	envConfigFile = "BEYOND_CONFIG"
	envNoDotenv   = "BEYOND_NO_DOTENV"
)

// Defaults applied before any file or environment overrides.
const (
	DefaultOpenTimeout             = 2 * time.Second
	DefaultTimeout                 = 5 * time.Second
	DefaultAllPaginationSize       = 50
	DefaultLogLevel                = "info"
	DefaultMaxRateLimitRetries     = 3
	DefaultMax5xxRetries           = 1
	DefaultRateLimitDelay          = 1 * time.Second
	DefaultServerErrorDelay        = 1 * time.Second
	DefaultCircuitBreakerThreshold = 5
	DefaultCircuitBreakerResetTime = 30 * time.Second
	DefaultCacheTTL                = 5 * time.Minute
)

// ErrMissingAPIURL is returned by Validate when no API URL is configured.
var ErrMissingAPIURL = errors.New("api url not configured (set BEYOND_API_URL or api_url in the config file)")

// Config is the read-only settings object handed to the API client.
type Config struct {
	APIURL       string `json:"api_url,omitempty"`
	ClientID     string `json:"client_id,omitempty"`
	ClientSecret string `json:"client_secret,omitempty"`

	OpenTimeout Duration `json:"open_timeout"`
	Timeout     Duration `json:"timeout"`

	// AllPaginationSize is the page size used when walking every page of a
	// collection. It is not caller controlled.
	AllPaginationSize int `json:"all_pagination_size"`

	RemoveResponseLinks          bool `json:"remove_response_links"`
	RemoveResponseKeyUnderscores bool `json:"remove_response_key_underscores"`
	UnderscoreResponseKeys       bool `json:"underscore_response_keys"`
	RespondWithTrue              bool `json:"respond_with_true"`
	RaiseErrorRequests           bool `json:"raise_error_requests"`

	LogLevel   string `json:"log_level"`
	LogHeaders bool   `json:"log_headers"`
	LogBodies  bool   `json:"log_bodies"`

	MaxRateLimitRetries     int      `json:"max_rate_limit_retries"`
	Max5xxRetries           int      `json:"max_5xx_retries"`
	RateLimitDelay          Duration `json:"rate_limit_delay"`
	ServerErrorDelay        Duration `json:"server_error_delay"`
	CircuitBreakerThreshold int      `json:"circuit_breaker_threshold"`
	CircuitBreakerResetTime Duration `json:"circuit_breaker_reset_time"`

	CacheTTL Duration `json:"cache_ttl"`
	RedisURL string   `json:"redis_url,omitempty"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		OpenTimeout:             Duration(DefaultOpenTimeout),
		Timeout:                 Duration(DefaultTimeout),
		AllPaginationSize:       DefaultAllPaginationSize,
		UnderscoreResponseKeys:  true,
		RaiseErrorRequests:      true,
		LogLevel:                DefaultLogLevel,
		MaxRateLimitRetries:     DefaultMaxRateLimitRetries,
		Max5xxRetries:           DefaultMax5xxRetries,
		RateLimitDelay:          Duration(DefaultRateLimitDelay),
		ServerErrorDelay:        Duration(DefaultServerErrorDelay),
		CircuitBreakerThreshold: DefaultCircuitBreakerThreshold,
		CircuitBreakerResetTime: Duration(DefaultCircuitBreakerResetTime),
		CacheTTL:                Duration(DefaultCacheTTL),
	}
}

var userConfigDir = os.UserConfigDir

// DefaultFile returns the platform config file path
// ("$XDG_CONFIG_HOME/beyond-cli/config.json" or equivalent).
func DefaultFile() (string, error) {
	dir, err := userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, serviceName, "config.json"), nil
}

// Load resolves settings in order: defaults, config file, .env, environment.
// A missing config file is not an error.
func Load() (Config, error) {
	cfg := Default()

	path := strings.TrimSpace(os.Getenv(envConfigFile))
	explicit := path != ""
	if !explicit {
		if p, err := DefaultFile(); err == nil {
			path = p
		}
	}
	if path != "" {
		if err := LoadFile(path, &cfg); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return Config{}, err
			}
		}
	}

	if os.Getenv(envNoDotenv) == "" {
		loadDotenv(".env")
	}

	if err := ApplyEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg.normalize()
	return cfg, nil
}

// loadDotenv loads variables from a .env file when present. Variables already
// set in the environment are not overwritten.
func loadDotenv(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	_ = godotenv.Load(path)
}

// LoadFile overlays the JSON file at path onto cfg. Keys absent from the file
// keep their current values.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %q: %w", path, err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %q: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays BEYOND_* environment variables onto cfg.
func ApplyEnv(cfg *Config) error {
	stringVars := map[string]*string{
		"API_URL":       &cfg.APIURL,
		"CLIENT_ID":     &cfg.ClientID,
		"CLIENT_SECRET": &cfg.ClientSecret,
		"LOG_LEVEL":     &cfg.LogLevel,
		"REDIS_URL":     &cfg.RedisURL,
	}
	for name, dst := range stringVars {
		if v, ok := lookupEnv(name); ok {
			*dst = v
		}
	}

	boolVars := map[string]*bool{
		"REMOVE_RESPONSE_LINKS":           &cfg.RemoveResponseLinks,
		"REMOVE_RESPONSE_KEY_UNDERSCORES": &cfg.RemoveResponseKeyUnderscores,
		"UNDERSCORE_RESPONSE_KEYS":        &cfg.UnderscoreResponseKeys,
		"RESPOND_WITH_TRUE":               &cfg.RespondWithTrue,
		"RAISE_ERROR_REQUESTS":            &cfg.RaiseErrorRequests,
		"LOG_HEADERS":                     &cfg.LogHeaders,
		"LOG_BODIES":                      &cfg.LogBodies,
	}
	for name, dst := range boolVars {
		v, ok := lookupEnv(name)
		if !ok {
			continue
		}
		parsed, err := parseBool(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, name, err)
		}
		*dst = parsed
	}

	intVars := map[string]*int{
		"ALL_PAGINATION_SIZE":       &cfg.AllPaginationSize,
		"MAX_RATE_LIMIT_RETRIES":    &cfg.MaxRateLimitRetries,
		"MAX_5XX_RETRIES":           &cfg.Max5xxRetries,
		"CIRCUIT_BREAKER_THRESHOLD": &cfg.CircuitBreakerThreshold,
	}
	for name, dst := range intVars {
		v, ok := lookupEnv(name)
		if !ok {
			continue
		}
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s must be an integer: %w", envPrefix, name, err)
		}
		*dst = parsed
	}

	durationVars := map[string]*Duration{
		"OPEN_TIMEOUT":               &cfg.OpenTimeout,
		"TIMEOUT":                    &cfg.Timeout,
		"RATE_LIMIT_DELAY":           &cfg.RateLimitDelay,
		"SERVER_ERROR_DELAY":         &cfg.ServerErrorDelay,
		"CIRCUIT_BREAKER_RESET_TIME": &cfg.CircuitBreakerResetTime,
		"CACHE_TTL":                  &cfg.CacheTTL,
	}
	for name, dst := range durationVars {
		v, ok := lookupEnv(name)
		if !ok {
			continue
		}
		parsed, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, name, err)
		}
		*dst = Duration(parsed)
	}
	return nil
}

func lookupEnv(name string) (string, bool) {
	v, ok := os.LookupEnv(envPrefix + name)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return "", false
	}
	return v, true
}

func parseBool(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "y", "on":
		return true, nil
	case "0", "false", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean %q", value)
	}
}

func (c *Config) normalize() {
	c.APIURL = strings.TrimSuffix(strings.TrimSpace(c.APIURL), "/")
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.AllPaginationSize <= 0 {
		c.AllPaginationSize = DefaultAllPaginationSize
	}
}

// Validate checks that the settings needed for API calls are present.
func (c Config) Validate() error {
	if strings.TrimSpace(c.APIURL) == "" {
		return ErrMissingAPIURL
	}
	if err := validation.ValidateAPIURL(c.APIURL); err != nil {
		return err
	}
	if c.AllPaginationSize <= 0 {
		return fmt.Errorf("all_pagination_size must be > 0")
	}
	if c.OpenTimeout < 0 || c.Timeout < 0 {
		return fmt.Errorf("timeouts cannot be negative")
	}
	return nil
}

// Duration is a time.Duration that reads either a Go duration string ("5s")
// or a number of seconds from JSON.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case float64:
		*d = Duration(time.Duration(v * float64(time.Second)))
		return nil
	case string:
		parsed, err := parseDuration(v)
		if err != nil {
			return err
		}
		*d = Duration(parsed)
		return nil
	default:
		return fmt.Errorf("invalid duration %s", string(data))
	}
}

// parseDuration accepts "1.5s" style strings or a bare number of seconds.
func parseDuration(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", value)
	}
	return parsed, nil
}
