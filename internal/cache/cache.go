package cache

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/zeebo/blake3"
)

// Entry is one cached provider response.
type Entry struct {
	Key       string    `json:"key"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"createdAt"`
	TTL       int       `json:"ttl"`
}

func (e Entry) expired(ttlSeconds int) bool {
	return ttlSeconds > 0 && time.Since(e.CreatedAt) > time.Duration(ttlSeconds)*time.Second
}

// Cache is a file-backed store of raw LLM analysis responses.
type Cache struct {
	dir        string
	ttlSeconds int
	enabled    bool
}

// New creates a new Cache. If dir is empty, uses the default cache directory.
func New(enabled bool, dir string, ttlSeconds int) (*Cache, error) {
	if !enabled {
		return &Cache{enabled: false}, nil
	}
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	return &Cache{
		dir:        dir,
		ttlSeconds: ttlSeconds,
		enabled:    true,
	}, nil
}

// Get retrieves a cached response by key. Returns ("", false) on miss.
// Expired entries are removed as they are found.
func (c *Cache) Get(key string) (string, bool) {
	if !c.enabled {
		return "", false
	}
	path := c.entryPath(key)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return "", false
	}
	if entry.expired(c.ttlSeconds) {
		os.Remove(path)
		return "", false
	}
	return entry.Response, true
}

// Put stores a response in the cache.
func (c *Cache) Put(key, response string) error {
	if !c.enabled {
		return nil
	}
	entry := Entry{
		Key:       HashKey(key),
		Response:  response,
		CreatedAt: time.Now(),
		TTL:       c.ttlSeconds,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling cache entry: %w", err)
	}
	return os.WriteFile(c.entryPath(key), data, 0o600)
}

// Clear removes all cache entries and returns how many were deleted.
func (c *Cache) Clear() (int, error) {
	if !c.enabled || c.dir == "" {
		return 0, nil
	}
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading cache directory: %w", err)
	}
	var removed int
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".json" {
			if err := os.Remove(filepath.Join(c.dir, e.Name())); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}

// Prune removes expired and unreadable entries, leaving live ones in
// place, and returns how many were deleted.
func (c *Cache) Prune() (int, error) {
	if !c.enabled || c.dir == "" {
		return 0, nil
	}
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading cache directory: %w", err)
	}
	var removed int
	for _, e := range entries {
		if filepath.Ext(e.Name()) != ".json" {
			continue
		}
		path := filepath.Join(c.dir, e.Name())
		var entry Entry
		data, err := os.ReadFile(path)
		if err == nil {
			err = json.Unmarshal(data, &entry)
		}
		if err != nil || entry.expired(c.ttlSeconds) {
			if os.Remove(path) == nil {
				removed++
			}
		}
	}
	return removed, nil
}

// Stats describes the cache directory contents.
type Stats struct {
	Dir        string `json:"dir"`
	Entries    int    `json:"entries"`
	TotalBytes int64  `json:"totalBytes"`
	Expired    int    `json:"expired"`
}

// GetStats returns information about the cache.
func (c *Cache) GetStats() (Stats, error) {
	stats := Stats{Dir: c.dir}
	if !c.enabled || c.dir == "" {
		return stats, nil
	}
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return stats, nil
		}
		return stats, fmt.Errorf("reading cache directory: %w", err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) != ".json" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		stats.Entries++
		stats.TotalBytes += info.Size()

		data, err := os.ReadFile(filepath.Join(c.dir, e.Name()))
		if err != nil {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(data, &entry); err != nil {
			continue
		}
		if entry.expired(c.ttlSeconds) {
			stats.Expired++
		}
	}
	return stats, nil
}

// Dir returns the cache directory path.
func (c *Cache) Dir() string {
	return c.dir
}

// Enabled returns whether caching is enabled.
func (c *Cache) Enabled() bool {
	return c.enabled
}

// HashKey returns the hex BLAKE3 digest of key.
func HashKey(key string) string {
	sum := blake3.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// BuildKey derives a cache key from the provider, the model and every part
// of the transmitted payload. Parts are length-prefixed so that different
// splits of the same bytes never collide.
func BuildKey(provider, model string, parts ...string) string {
	h := blake3.New()
	var n [8]byte
	for _, p := range append([]string{provider, model}, parts...) {
		binary.BigEndian.PutUint64(n[:], uint64(len(p)))
		h.Write(n[:])
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (c *Cache) entryPath(key string) string {
	return filepath.Join(c.dir, HashKey(key)+".json")
}

// DefaultDir returns the OS-appropriate cache directory for redline.
func DefaultDir() (string, error) {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "redline"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Caches", "redline"), nil
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, "redline", "cache"), nil
		}
		return filepath.Join(home, "AppData", "Local", "redline", "cache"), nil
	default:
		return filepath.Join(home, ".cache", "redline"), nil
	}
}
