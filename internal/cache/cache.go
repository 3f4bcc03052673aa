// Package cache stores scan results keyed by content hash so repeated
// scans of unchanged documents skip the full pattern pass. A small
// in-memory tier fronts a sqlite tier that survives restarts.
package cache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ppiankov/docguard/internal/secrets"
)

const memTierSize = 256

const schema = `
CREATE TABLE IF NOT EXISTS scan_results (
	key        TEXT PRIMARY KEY,
	result     TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
`

// Cache is a two-tier scan-result cache. Safe for concurrent use.
type Cache struct {
	mu    sync.Mutex
	mem   map[string]secrets.ScanResult
	order []string
	db    *sql.DB
}

// Open creates or opens the cache database at path. An empty path
// yields a memory-only cache.
func Open(path string) (*Cache, error) {
	c := &Cache{mem: make(map[string]secrets.ScanResult)}
	if path == "" {
		return c, nil
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init cache schema: %w", err)
	}
	c.db = db
	return c, nil
}

// Key derives the cache key for a document body under a given scanner
// configuration. Any config change invalidates prior entries.
func Key(text, configFingerprint string) string {
	h := sha256.New()
	h.Write([]byte(configFingerprint))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached result for key, if present in either tier.
// A memory hit refreshes the entry's recency; a sqlite hit is promoted
// to the memory tier.
func (c *Cache) Get(key string) (secrets.ScanResult, bool) {
	c.mu.Lock()
	if res, ok := c.mem[key]; ok {
		c.touch(key)
		c.mu.Unlock()
		return res, true
	}
	c.mu.Unlock()

	if c.db == nil {
		return secrets.ScanResult{}, false
	}
	var raw string
	err := c.db.QueryRow(`SELECT result FROM scan_results WHERE key = ?`, key).Scan(&raw)
	if err != nil {
		return secrets.ScanResult{}, false
	}
	var res secrets.ScanResult
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return secrets.ScanResult{}, false
	}
	c.putMem(key, res)
	return res, true
}

// Put stores a result in both tiers. Persistence failures are
// non-fatal: the memory tier still serves the entry.
func (c *Cache) Put(key string, res secrets.ScanResult) error {
	c.putMem(key, res)
	if c.db == nil {
		return nil
	}
	raw, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	_, err = c.db.Exec(
		`INSERT OR REPLACE INTO scan_results (key, result, created_at) VALUES (?, ?, ?)`,
		key, string(raw), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("persist result: %w", err)
	}
	return nil
}

// Prune deletes persisted entries older than maxAge.
func (c *Cache) Prune(maxAge time.Duration) (int64, error) {
	if c.db == nil {
		return 0, nil
	}
	cutoff := time.Now().Add(-maxAge).Unix()
	res, err := c.db.Exec(`DELETE FROM scan_results WHERE created_at <= ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune cache: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Close releases the sqlite handle.
func (c *Cache) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// putMem inserts into the memory tier, evicting the least recently
// used entry at capacity. order runs oldest to newest.
func (c *Cache) putMem(key string, res secrets.ScanResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.mem[key]; ok {
		c.touch(key)
	} else {
		c.order = append(c.order, key)
		if len(c.order) > memTierSize {
			delete(c.mem, c.order[0])
			c.order = c.order[1:]
		}
	}
	c.mem[key] = res
}

// touch moves key to the newest end of order. Caller holds mu.
func (c *Cache) touch(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(append(c.order[:i:i], c.order[i+1:]...), key)
			return
		}
	}
}
