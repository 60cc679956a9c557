package config

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/99designs/keyring"
)

func withMockKeyring(t *testing.T, ring keyring.Keyring) {
	t.Helper()
	restore := SetOpenKeyring(func(cfg keyring.Config) (keyring.Keyring, error) {
		return ring, nil
	})
	t.Cleanup(restore)
}

func withFailingKeyring(t *testing.T, err error) {
	t.Helper()
	restore := SetOpenKeyring(func(cfg keyring.Config) (keyring.Keyring, error) {
		return nil, err
	})
	t.Cleanup(restore)
}

func TestProfileKey(t *testing.T) {
	tests := []struct {
		profile  string
		expected string
	}{
		{"", "profile:default"},
		{"default", "profile:default"},
		{"staging", "profile:staging"},
	}

	for _, tt := range tests {
		if got := profileKey(tt.profile); got != tt.expected {
			t.Errorf("profileKey(%q) = %q, want %q", tt.profile, got, tt.expected)
		}
	}
}

func TestSaveAndLoadCredentials(t *testing.T) {
	ring := keyring.NewArrayKeyring(nil)
	withMockKeyring(t, ring)

	expiry := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	creds := Credentials{
		APIURL:       "https://shop.example.com/api",
		AccessToken:  "access",
		RefreshToken: "refresh",
		Expiry:       expiry,
	}
	if err := SaveCredentials("staging", creds); err != nil {
		t.Fatalf("SaveCredentials() error: %v", err)
	}

	item, err := ring.Get("profile:staging")
	if err != nil {
		t.Fatalf("stored item missing: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(item.Data, &raw); err != nil {
		t.Fatalf("stored item is not JSON: %v", err)
	}
	if raw["access_token"] != "access" {
		t.Errorf("stored access_token = %v, want access", raw["access_token"])
	}

	loaded, err := LoadCredentials("staging")
	if err != nil {
		t.Fatalf("LoadCredentials() error: %v", err)
	}
	if loaded.APIURL != creds.APIURL || loaded.AccessToken != creds.AccessToken || loaded.RefreshToken != creds.RefreshToken {
		t.Errorf("LoadCredentials() = %+v, want %+v", loaded, creds)
	}
	if !loaded.Expiry.Equal(expiry) {
		t.Errorf("Expiry = %v, want %v", loaded.Expiry, expiry)
	}

	current, err := CurrentProfile()
	if err != nil {
		t.Fatalf("CurrentProfile() error: %v", err)
	}
	if current != "staging" {
		t.Errorf("CurrentProfile() = %q, want staging", current)
	}
}

func TestLoadCredentials_NotLoggedIn(t *testing.T) {
	withMockKeyring(t, keyring.NewArrayKeyring(nil))

	_, err := LoadCredentials("")
	if !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("LoadCredentials() error = %v, want ErrNotLoggedIn", err)
	}
}

func TestLoadCredentials_InvalidJSON(t *testing.T) {
	withMockKeyring(t, keyring.NewArrayKeyring([]keyring.Item{
		{Key: "profile:default", Data: []byte("{not json")},
	}))

	_, err := LoadCredentials("default")
	if err == nil || !strings.Contains(err.Error(), "unmarshal") {
		t.Fatalf("LoadCredentials() error = %v, want unmarshal error", err)
	}
}

func TestCredentials_KeyringErrors(t *testing.T) {
	withFailingKeyring(t, errors.New("keyring unavailable"))

	if err := SaveCredentials("x", Credentials{}); err == nil {
		t.Error("SaveCredentials() expected error")
	}
	if _, err := LoadCredentials("x"); err == nil {
		t.Error("LoadCredentials() expected error")
	}
	if err := DeleteCredentials("x"); err == nil {
		t.Error("DeleteCredentials() expected error")
	}
	if _, err := ListProfiles(); err == nil {
		t.Error("ListProfiles() expected error")
	}
	if _, err := CurrentProfile(); err == nil {
		t.Error("CurrentProfile() expected error")
	}
}

func TestDeleteCredentials(t *testing.T) {
	ring := keyring.NewArrayKeyring(nil)
	withMockKeyring(t, ring)

	for _, name := range []string{"a", "b"} {
		if err := SaveCredentials(name, Credentials{APIURL: "https://" + name}); err != nil {
			t.Fatalf("SaveCredentials(%q) error: %v", name, err)
		}
	}

	if err := DeleteCredentials("b"); err != nil {
		t.Fatalf("DeleteCredentials() error: %v", err)
	}
	if _, err := LoadCredentials("b"); !errors.Is(err, ErrNotLoggedIn) {
		t.Errorf("deleted profile still loadable: %v", err)
	}

	profiles, err := ListProfiles()
	if err != nil {
		t.Fatalf("ListProfiles() error: %v", err)
	}
	if len(profiles) != 1 || profiles[0] != "a" {
		t.Errorf("ListProfiles() = %v, want [a]", profiles)
	}

	current, _ := CurrentProfile()
	if current != "a" {
		t.Errorf("CurrentProfile() after delete = %q, want a", current)
	}

	if err := DeleteCredentials("missing"); err != nil {
		t.Errorf("DeleteCredentials(missing) error: %v", err)
	}
}

func TestSaveCredentials_DeduplicatesIndex(t *testing.T) {
	withMockKeyring(t, keyring.NewArrayKeyring(nil))

	for i := 0; i < 3; i++ {
		if err := SaveCredentials("default", Credentials{APIURL: "https://x"}); err != nil {
			t.Fatalf("SaveCredentials() error: %v", err)
		}
	}
	profiles, err := ListProfiles()
	if err != nil {
		t.Fatalf("ListProfiles() error: %v", err)
	}
	if len(profiles) != 1 {
		t.Errorf("ListProfiles() = %v, want one entry", profiles)
	}
}

func TestCurrentProfile_DefaultsWhenUnset(t *testing.T) {
	withMockKeyring(t, keyring.NewArrayKeyring(nil))

	got, err := CurrentProfile()
	if err != nil {
		t.Fatalf("CurrentProfile() error: %v", err)
	}
	if got != defaultProfile {
		t.Errorf("CurrentProfile() = %q, want %q", got, defaultProfile)
	}
}

func TestResolveProfile(t *testing.T) {
	withMockKeyring(t, keyring.NewArrayKeyring([]keyring.Item{
		{Key: currentProfileKey, Data: []byte("stored")},
	}))

	t.Setenv(envProfile, "")
	if got, _ := ResolveProfile(" flag "); got != "flag" {
		t.Errorf("ResolveProfile(flag) = %q, want flag", got)
	}
	if got, _ := ResolveProfile(""); got != "stored" {
		t.Errorf("ResolveProfile() = %q, want stored", got)
	}
	t.Setenv(envProfile, "env")
	if got, _ := ResolveProfile(""); got != "env" {
		t.Errorf("ResolveProfile() with env = %q, want env", got)
	}
}

func TestNormalizeProfiles(t *testing.T) {
	got := normalizeProfiles([]string{" a ", "", "b", "a", "  "})
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("normalizeProfiles() = %v, want [a b]", got)
	}
}

func TestKeyringConfig_FileBackendOverride(t *testing.T) {
	t.Setenv(envKeyringBackend, "file")
	base := t.TempDir()
	t.Setenv(envCredentialsDir, base)

	cfg := keyringConfig()
	if cfg.ServiceName != serviceName {
		t.Errorf("ServiceName = %q, want %q", cfg.ServiceName, serviceName)
	}
	if len(cfg.AllowedBackends) != 1 || cfg.AllowedBackends[0] != keyring.FileBackend {
		t.Fatalf("AllowedBackends = %v, want [%s]", cfg.AllowedBackends, keyring.FileBackend)
	}
	if want := filepath.Join(base, "keyring"); cfg.FileDir != want {
		t.Fatalf("FileDir = %q, want %q", cfg.FileDir, want)
	}
	if cfg.FilePasswordFunc == nil {
		t.Fatal("FilePasswordFunc is nil")
	}
}

func TestKeyringConfig_SystemBackendOverride(t *testing.T) {
	t.Setenv(envKeyringBackend, "native")

	cfg := keyringConfig()
	if cfg.FileDir != "" || cfg.FilePasswordFunc != nil || len(cfg.AllowedBackends) != 0 {
		t.Fatalf("system backend should not configure the file backend: %+v", cfg)
	}
}

func TestShouldForceFileBackend(t *testing.T) {
	tests := []struct {
		goos, backend, dbus string
		want                bool
	}{
		{"darwin", keyringBackendFile, "x", true},
		{"linux", keyringBackendAuto, "", true},
		{"linux", keyringBackendAuto, "unix:path=/run/user/1000/bus", false},
		{"linux", keyringBackendSystem, "", false},
		{"windows", keyringBackendAuto, "", false},
	}

	for _, tt := range tests {
		if got := shouldForceFileBackend(tt.goos, tt.backend, tt.dbus); got != tt.want {
			t.Errorf("shouldForceFileBackend(%q, %q, %q) = %v, want %v", tt.goos, tt.backend, tt.dbus, got, tt.want)
		}
	}
}

func TestKeyringFileDir_DefaultsToUserConfigDir(t *testing.T) {
	t.Setenv(envCredentialsDir, "")
	dir := t.TempDir()
	original := userConfigDir
	userConfigDir = func() (string, error) { return dir, nil }
	t.Cleanup(func() { userConfigDir = original })

	want := filepath.Join(dir, serviceName, "keyring")
	if got := keyringFileDir(); got != want {
		t.Fatalf("keyringFileDir() = %q, want %q", got, want)
	}
}

func TestKeyringFilePassword(t *testing.T) {
	t.Setenv(envKeyringPassword, "env-pass")
	got, err := keyringFilePassword("prompt")
	if err != nil || got != "env-pass" {
		t.Fatalf("keyringFilePassword() = %q, %v", got, err)
	}

	t.Setenv(envKeyringPassword, "")
	original := stdinHasTTY
	stdinHasTTY = func() bool { return false }
	t.Cleanup(func() { stdinHasTTY = original })

	_, err = keyringFilePassword("prompt")
	if err == nil || !strings.Contains(err.Error(), envKeyringPassword) {
		t.Fatalf("keyringFilePassword() error = %v, want mention of %s", err, envKeyringPassword)
	}
}
