package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
)

// Layout manages the two content-addressed trees the pipeline writes to:
// cache/{key}/ for intermediate artifacts and public/shortgen/{key}/ for
// assets the renderer serves. There is no eviction; artifacts are keyed by
// content hash and simply reused when present.
type Layout struct {
	CacheDir  string
	PublicDir string
}

// Key derives the cache key for a piece of raw content: the first 16 hex
// characters of its SHA-256.
func Key(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])[:16]
}

// Path returns a path under cache/{key}/.
func (l Layout) Path(key string, parts ...string) string {
	return filepath.Join(append([]string{l.CacheDir, key}, parts...)...)
}

// BreakdownPath returns a path under cache/_breakdowns/{sourceKey}/. The
// underscore keeps breakdown directories apart from per-video cache keys.
func (l Layout) BreakdownPath(sourceKey string, parts ...string) string {
	return filepath.Join(append([]string{l.CacheDir, "_breakdowns", sourceKey}, parts...)...)
}

// PublicPath returns a path under public/shortgen/{key}/.
func (l Layout) PublicPath(key string, parts ...string) string {
	return filepath.Join(append([]string{l.PublicDir, "shortgen", key}, parts...)...)
}

// ManifestPath returns the manifest location for a key.
func (l Layout) ManifestPath(key string) string {
	return l.PublicPath(key, "manifest.json")
}

// IndexPath returns the location of the index file that enumerates all keys
// with a prepared manifest.
func (l Layout) IndexPath() string {
	return filepath.Join(l.PublicDir, "shortgen", "index.json")
}

// Exists reports whether an artifact is already cached.
func Exists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}

// EnsureDir creates a directory (and parents) if needed.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}
