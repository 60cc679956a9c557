package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/99designs/keyring"
)

const (
	defaultProfile    = "default"
	currentProfileKey = "current_profile"
	profileIndexKey   = "profiles_index"

	envProfile = "BEYOND_PROFILE"
)

// ErrNotLoggedIn is returned when no credentials are stored for a profile.
var ErrNotLoggedIn = errors.New("no stored credentials - run 'beyond auth login' first")

// Credentials is the persisted form of an API session.
type Credentials struct {
	APIURL       string    `json:"api_url"`
	AccessToken  string    `json:"access_token,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
}

func profileKey(name string) string {
	return "profile:" + orDefaultProfile(name)
}

func orDefaultProfile(name string) string {
	if name == "" {
		return defaultProfile
	}
	return name
}

// credentialStore keeps one JSON item per profile plus the profile index and
// the current profile name.
type credentialStore struct {
	ring keyring.Keyring
}

func openCredentialStore() (*credentialStore, error) {
	ring, err := openKeyring(keyringConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open keyring: %w", err)
	}
	return &credentialStore{ring: ring}, nil
}

// get decodes key into v. found is false when the key does not exist.
func (s *credentialStore) get(key string, v any) (found bool, err error) {
	item, err := s.ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if err := json.Unmarshal(item.Data, v); err != nil {
		return true, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return true, nil
}

func (s *credentialStore) put(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := s.ring.Set(keyring.Item{Key: key, Data: data}); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

func (s *credentialStore) profiles() ([]string, error) {
	profiles := []string{}
	if _, err := s.get(profileIndexKey, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

// current is stored as a raw string rather than JSON.
func (s *credentialStore) current() (string, error) {
	item, err := s.ring.Get(currentProfileKey)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return defaultProfile, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get current profile: %w", err)
	}
	return string(item.Data), nil
}

func (s *credentialStore) setCurrent(profile string) error {
	return s.ring.Set(keyring.Item{Key: currentProfileKey, Data: []byte(profile)})
}

// ResolveProfile picks the profile to use: explicit name, BEYOND_PROFILE, then
// the stored current profile.
func ResolveProfile(name string) (string, error) {
	for _, candidate := range []string{name, os.Getenv(envProfile)} {
		if candidate = strings.TrimSpace(candidate); candidate != "" {
			return candidate, nil
		}
	}
	return CurrentProfile()
}

// SaveCredentials stores creds under profile and makes it the current profile.
func SaveCredentials(profile string, creds Credentials) error {
	profile = orDefaultProfile(profile)
	store, err := openCredentialStore()
	if err != nil {
		return err
	}
	if err := store.put(profileKey(profile), creds); err != nil {
		return err
	}

	profiles, err := store.profiles()
	if err != nil {
		return err
	}
	if err := store.put(profileIndexKey, normalizeProfiles(append(profiles, profile))); err != nil {
		return err
	}
	return store.setCurrent(profile)
}

// LoadCredentials returns ErrNotLoggedIn when nothing is stored for profile.
func LoadCredentials(profile string) (Credentials, error) {
	store, err := openCredentialStore()
	if err != nil {
		return Credentials{}, err
	}
	var creds Credentials
	found, err := store.get(profileKey(profile), &creds)
	switch {
	case err != nil:
		return Credentials{}, err
	case !found:
		return Credentials{}, ErrNotLoggedIn
	}
	return creds, nil
}

// DeleteCredentials removes a stored profile. Removing a profile that does
// not exist is not an error. When the current profile is removed the first
// remaining one, or the default, becomes current.
func DeleteCredentials(profile string) error {
	profile = orDefaultProfile(profile)
	store, err := openCredentialStore()
	if err != nil {
		return err
	}
	if err := store.ring.Remove(profileKey(profile)); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("failed to remove credentials: %w", err)
	}

	profiles, err := store.profiles()
	if err != nil {
		return err
	}
	profiles = slices.DeleteFunc(profiles, func(p string) bool { return p == profile })
	if err := store.put(profileIndexKey, profiles); err != nil {
		return err
	}

	if current, err := store.current(); err == nil && current == profile {
		next := defaultProfile
		if len(profiles) > 0 {
			next = profiles[0]
		}
		_ = store.setCurrent(next)
	}
	return nil
}

func ListProfiles() ([]string, error) {
	store, err := openCredentialStore()
	if err != nil {
		return nil, err
	}
	return store.profiles()
}

// CurrentProfile returns the active profile name, "default" when none was
// ever saved.
func CurrentProfile() (string, error) {
	store, err := openCredentialStore()
	if err != nil {
		return "", err
	}
	return store.current()
}

// normalizeProfiles trims names and drops blanks and duplicates, keeping the
// first occurrence.
func normalizeProfiles(profiles []string) []string {
	out := make([]string, 0, len(profiles))
	for _, p := range profiles {
		if p = strings.TrimSpace(p); p != "" && !slices.Contains(out, p) {
			out = append(out, p)
		}
	}
	return out
}
