package data

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Cache is a flat directory of JSON files, one per fetch. A cache hit never
// touches the network, which also keeps repeated backtests reproducible
// while iterating on strategy parameters.
type Cache struct {
	dir string
}

func NewCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Cache{dir: dir}, nil
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, key+".json")
}

// Get loads a cached entry into v, reporting whether it existed.
func (c *Cache) Get(key string, v any) bool {
	data, err := os.ReadFile(c.path(key))
	if err != nil {
		return false
	}
	return json.Unmarshal(data, v) == nil
}

// Put stores v under key. A failed write is not fatal to the fetch; the
// caller just loses the cache for next time.
func (c *Cache) Put(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(c.path(key), data, 0o644)
}
