package cache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type fileEntry struct {
	CachedAt time.Time       `json:"cached_at"`
	TTL      time.Duration   `json:"ttl"`
	Value    json.RawMessage `json:"value"`
}

// FileBackend keeps one JSON file per key in a directory.
type FileBackend struct {
	dir string
	now func() time.Time
}

func NewFileBackend(dir string) *FileBackend {
	return &FileBackend{dir: dir, now: time.Now}
}

func (b *FileBackend) path(key string) string {
	return filepath.Join(b.dir, sanitizeFilename(key)+".json")
}

func (b *FileBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	data, err := os.ReadFile(b.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var e fileEntry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, false, nil
	}
	if b.now().Sub(e.CachedAt) > e.TTL {
		return nil, false, nil
	}
	return e.Value, true, nil
}

func (b *FileBackend) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	data, err := json.Marshal(fileEntry{
		CachedAt: b.now(),
		TTL:      ttl,
		Value:    value,
	})
	if err != nil {
		return err
	}
	if err := os.MkdirAll(b.dir, 0o700); err != nil {
		return err
	}

	// Each writer gets its own temp file; the rename publishes it atomically.
	tmp, err := os.CreateTemp(b.dir, "write-*.tmp")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	_, err = tmp.Write(data)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}
	return os.Rename(tmp.Name(), b.path(key))
}

func (b *FileBackend) Delete(_ context.Context, key string) error {
	if err := os.Remove(b.path(key)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Purge removes cache files from the directory. Only files matching the key
// scheme are touched.
func (b *FileBackend) Purge(_ context.Context) error {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		if !isCacheKey(strings.TrimSuffix(e.Name(), ".json")) {
			continue
		}
		_ = os.Remove(filepath.Join(b.dir, e.Name()))
	}
	return nil
}

func sanitizeFilename(key string) string {
	return strings.NewReplacer("/", "-", "\\", "-", "..", "-").Replace(key)
}
