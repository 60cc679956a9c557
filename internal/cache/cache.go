// Package cache stores GET responses for a short time so repeated CLI calls
// do not hit the API.
//
// Entries are JSON, keyed per API URL and request target. Two backends are
// available: files under the user cache directory (default) and Redis when
// redis_url is configured. Default TTL is 5 minutes. Disable with
// BEYOND_NO_CACHE=1.
package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/beyond-api/beyond-cli/internal/config"
)

const DefaultTTL = config.DefaultCacheTTL

const envNoCache = "BEYOND_NO_CACHE"

// Backend stores raw entries with an expiry.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// Purge removes every entry written by this package.
	Purge(ctx context.Context) error
}

// Cache encodes values as JSON on top of a Backend.
type Cache struct {
	backend Backend
	ttl     time.Duration
}

// New creates a Cache. A non-positive ttl uses DefaultTTL.
func New(backend Backend, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{backend: backend, ttl: ttl}
}

// Open picks the backend from cfg: Redis when RedisURL is set, files in
// DefaultDir otherwise.
func Open(cfg config.Config) (*Cache, error) {
	if strings.TrimSpace(cfg.RedisURL) != "" {
		backend, err := NewRedisBackend(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		return New(backend, cfg.CacheTTL.Std()), nil
	}
	dir, err := DefaultDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cache dir: %w", err)
	}
	return New(NewFileBackend(dir), cfg.CacheTTL.Std()), nil
}

// Key builds the cache key for a request target. scope names who asked and
// where, typically the API URL plus the access token; only its hash is kept.
// namespace groups related keys (e.g. "get").
func Key(namespace, scope, target string) string {
	return fmt.Sprintf("%s_%s_%s", sanitizeKey(namespace), shortHash(scope), shortHash(target))
}

// Get loads the entry for key into dst. Returns false on miss (absent,
// expired, undecodable, backend error or disabled).
func (c *Cache) Get(ctx context.Context, key string, dst any) bool {
	if disabled() {
		return false
	}
	data, ok, err := c.backend.Get(ctx, key)
	if err != nil || !ok {
		return false
	}
	return json.Unmarshal(data, dst) == nil
}

// Put stores value under key. Errors are ignored: a cache write never fails
// the command that produced the value.
func (c *Cache) Put(ctx context.Context, key string, value any) {
	if disabled() {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = c.backend.Set(ctx, key, data, c.ttl)
}

// Clear removes one entry.
func (c *Cache) Clear(ctx context.Context, key string) error {
	return c.backend.Delete(ctx, key)
}

// ClearAll removes every entry.
func (c *Cache) ClearAll(ctx context.Context) error {
	return c.backend.Purge(ctx)
}

// Close releases the backend's connections, if it holds any.
func (c *Cache) Close() error {
	if closer, ok := c.backend.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// DefaultDir returns the platform-appropriate cache directory
// ("$XDG_CACHE_HOME/beyond-cli" or equivalent).
func DefaultDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "beyond-cli"), nil
}

func disabled() bool {
	return os.Getenv(envNoCache) != ""
}

func shortHash(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:6])
}

func sanitizeKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return "cache"
	}
	key = strings.ReplaceAll(key, "/", "-")
	key = strings.ReplaceAll(key, "\\", "-")
	key = strings.ReplaceAll(key, "_", "-")
	return key
}

// isCacheKey reports whether name matches "<namespace>_<12hex>_<12hex>".
func isCacheKey(name string) bool {
	parts := strings.Split(name, "_")
	if len(parts) != 3 || parts[0] == "" {
		return false
	}
	return isShortHash(parts[1]) && isShortHash(parts[2])
}

func isShortHash(s string) bool {
	if len(s) != 12 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
