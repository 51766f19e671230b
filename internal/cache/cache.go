package cache

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/pfrederiksen/vols1365/internal/logger"
	"github.com/pfrederiksen/vols1365/internal/storage"
)

// ErrLocked is returned by Lock when another process holds the cache.
var ErrLocked = errors.New("cache is locked by another run")

// Entry is the cached enrichment result for one program.
type Entry struct {
	Recruit          string `json:"recruit"`
	Applied          string `json:"applied"`
	FetchedAt        string `json:"fetchedAt,omitempty"`
	AppliedFetchedAt string `json:"appliedFetchedAt,omitempty"`
}

// UnmarshalJSON accepts the current object form, a bare string (a recruit
// count) and objects using the older "value"/"aplyNmpr" keys.
func (e *Entry) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*e = Entry{Recruit: s}
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = Entry{
		Recruit:          firstScalar(raw, "recruit", "value"),
		Applied:          firstScalar(raw, "applied", "aplyNmpr"),
		FetchedAt:        firstScalar(raw, "fetchedAt"),
		AppliedFetchedAt: firstScalar(raw, "appliedFetchedAt"),
	}
	return nil
}

// AppliedAt returns when the applied count was last refreshed, falling back
// to FetchedAt for entries written before the field existed.
func (e Entry) AppliedAt() string {
	if e.AppliedFetchedAt != "" {
		return e.AppliedFetchedAt
	}
	return e.FetchedAt
}

// firstScalar returns the first present key as a string. Numbers keep their
// JSON text; null and other types count as absent.
func firstScalar(raw map[string]json.RawMessage, keys ...string) string {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok || string(bytes.TrimSpace(v)) == "null" {
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			return s
		}
		var n json.Number
		if err := json.Unmarshal(v, &n); err == nil {
			return n.String()
		}
	}
	return ""
}

// Cache is the enrichment cache shared across runs through one JSON file.
// It is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	path    string
	entries map[string]Entry
	now     func() time.Time
}

// New returns an empty cache that saves to path.
func New(path string) *Cache {
	return &Cache{
		path:    path,
		entries: make(map[string]Entry),
		now:     time.Now,
	}
}

// Load reads the cache file at path. A missing or unreadable JSON file
// yields an empty cache; the next Save replaces it.
func Load(path string) (*Cache, error) {
	c := New(path)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return c, nil
		}
		return nil, fmt.Errorf("reading cache: %w", err)
	}

	if err := json.Unmarshal(data, &c.entries); err != nil {
		logger.Warn("cache file corrupt, starting empty", logger.Fields{
			"path":  path,
			"error": err.Error(),
		})
		c.entries = make(map[string]Entry)
		return c, nil
	}
	if c.entries == nil {
		c.entries = make(map[string]Entry)
	}

	logger.Debug("cache loaded", logger.Fields{"path": path, "entries": len(c.entries)})
	return c, nil
}

// SetClock replaces the timestamp source used by Put.
func (c *Cache) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Path returns the file the cache saves to.
func (c *Cache) Path() string {
	return c.path
}

// Len returns the number of entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Get returns the entry for id.
func (c *Cache) Get(id string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	return e, ok
}

// Put records an enrichment result for id. Empty values keep the previous
// entry's value. FetchedAt is always refreshed; AppliedFetchedAt only when
// applied is non-empty.
func (c *Cache) Put(id, recruit, applied string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now().UTC().Format(time.RFC3339Nano)
	next := c.entries[id]
	if recruit != "" {
		next.Recruit = recruit
	}
	if applied != "" {
		next.Applied = applied
		next.AppliedFetchedAt = now
	}
	next.FetchedAt = now
	c.entries[id] = next
}

// Save writes every entry to the cache file, replacing it atomically.
func (c *Cache) Save() error {
	c.mu.Lock()
	data, err := json.MarshalIndent(c.entries, "", "  ")
	n := len(c.entries)
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("encoding cache: %w", err)
	}

	if err := storage.WriteFileAtomic(c.path, data, 0644); err != nil {
		return fmt.Errorf("writing cache: %w", err)
	}
	logger.Info("cache saved", logger.Fields{"path": c.path, "entries": n})
	return nil
}

// Lock takes an exclusive advisory lock on the cache file at path so two
// runs over the same data directory cannot interleave. It fails fast with
// ErrLocked instead of waiting. The returned function releases the lock.
func Lock(path string) (func() error, error) {
	fl := flock.New(path + ".lock")
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking cache: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return fl.Unlock, nil
}
