// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embedding

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/mattn/go-sqlite3"
)

const memCacheSize = 4096

// Cache stores embedding vectors keyed by name, backed by SQLite with an
// in-process LRU in front. A nil *Cache is valid and caches nothing.
type Cache struct {
	db  *sql.DB
	mem *lru.Cache[string, []float32]
}

// OpenCache opens or creates the vector cache database at path.
func OpenCache(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS vectors (
		name TEXT PRIMARY KEY,
		vec BLOB NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}

	mem, err := lru.New[string, []float32](memCacheSize)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Cache{db: db, mem: mem}, nil
}

// Close releases the database connection.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.db.Close()
}

// Get returns the cached vector for name, or ok=false on a miss.
func (c *Cache) Get(name string) ([]float32, bool) {
	if c == nil {
		return nil, false
	}
	if v, ok := c.mem.Get(name); ok {
		return v, true
	}

	var blob []byte
	err := c.db.QueryRow(`SELECT vec FROM vectors WHERE name = ?`, name).Scan(&blob)
	if err != nil {
		return nil, false
	}
	v := decodeVector(blob)
	c.mem.Add(name, v)
	return v, true
}

// Put stores the vector for name, replacing any existing entry.
func (c *Cache) Put(name string, vec []float32) error {
	if c == nil {
		return nil
	}
	c.mem.Add(name, vec)
	_, err := c.db.Exec(`INSERT OR REPLACE INTO vectors (name, vec) VALUES (?, ?)`,
		name, encodeVector(vec))
	if err != nil {
		return fmt.Errorf("storing vector %q: %w", name, err)
	}
	return nil
}

func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, f := range vec {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(blob []byte) []float32 {
	vec := make([]float32, len(blob)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[4*i:]))
	}
	return vec
}
