package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/99designs/keyring"
)

const (
	envKeyringBackend  = "BEYOND_KEYRING_BACKEND"
	envKeyringPassword = "BEYOND_KEYRING_PASSWORD"
	envCredentialsDir  = "BEYOND_CREDENTIALS_DIR"

	keyringBackendAuto   = "auto"
	keyringBackendFile   = "file"
	keyringBackendSystem = "system"
)

var openKeyring = keyring.Open

// SetOpenKeyring swaps the keyring opener, typically for an in-memory
// keyring in tests. Call the returned func to restore it.
func SetOpenKeyring(fn func(keyring.Config) (keyring.Keyring, error)) func() {
	previous := openKeyring
	openKeyring = fn
	return func() { openKeyring = previous }
}

var stdinHasTTY = func() bool {
	info, err := os.Stdin.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

// keyringConfig honours BEYOND_KEYRING_BACKEND: "system" leaves backend
// selection to the keyring library, "file" forces the encrypted file store,
// and the default also forces it on Linux without a D-Bus session.
func keyringConfig() keyring.Config {
	cfg := keyring.Config{ServiceName: serviceName}
	backend := keyringBackendMode()
	if backend == keyringBackendSystem {
		return cfg
	}

	cfg.FileDir = keyringFileDir()
	cfg.FilePasswordFunc = keyringFilePassword
	if shouldForceFileBackend(runtime.GOOS, backend, os.Getenv("DBUS_SESSION_BUS_ADDRESS")) {
		cfg.AllowedBackends = []keyring.BackendType{keyring.FileBackend}
	}
	return cfg
}

func keyringBackendMode() string {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(envKeyringBackend))) {
	case "file":
		return keyringBackendFile
	case "system", "os", "native":
		return keyringBackendSystem
	}
	return keyringBackendAuto
}

func shouldForceFileBackend(goos, backend, dbusAddr string) bool {
	switch backend {
	case keyringBackendFile:
		return true
	case keyringBackendAuto:
		return goos == "linux" && strings.TrimSpace(dbusAddr) == ""
	}
	return false
}

// keyringFileDir is BEYOND_CREDENTIALS_DIR/keyring, falling back to the user
// config dir and then the temp dir.
func keyringFileDir() string {
	base := strings.TrimSpace(os.Getenv(envCredentialsDir))
	if base == "" {
		if dir, err := userConfigDir(); err == nil && strings.TrimSpace(dir) != "" {
			base = filepath.Join(dir, serviceName)
		} else {
			base = filepath.Join(os.TempDir(), serviceName)
		}
	}
	return filepath.Join(base, "keyring")
}

func keyringFilePassword(prompt string) (string, error) {
	if password := os.Getenv(envKeyringPassword); strings.TrimSpace(password) != "" {
		return password, nil
	}
	if !stdinHasTTY() {
		return "", fmt.Errorf("set %s when using the file keyring in non-interactive environments", envKeyringPassword)
	}
	return keyring.TerminalPrompt(prompt)
}
