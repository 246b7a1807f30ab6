// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package knowledge

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"github.com/meshintel/biosearch-engine/pkg/types"
)

// Bibliography is the cross-run record of cited sources, persisted as a
// JSON file keyed by citation key. Concurrent runs share the file through
// an advisory lock; every mutation rewrites it so a crash never loses more
// than the current update.
type Bibliography struct {
	mu      sync.Mutex
	path    string
	lock    *flock.Flock
	entries map[string]*types.BibliographyEntry
}

// OpenBibliography loads the registry at path, creating an empty one when
// the file does not exist.
func OpenBibliography(path string) (*Bibliography, error) {
	b := &Bibliography{
		path:    path,
		lock:    flock.New(path + ".lock"),
		entries: make(map[string]*types.BibliographyEntry),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return b, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading bibliography: %w", err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &b.entries); err != nil {
			return nil, fmt.Errorf("parsing bibliography %s: %w", path, err)
		}
	}
	return b, nil
}

// Get returns a copy of the entry for key.
func (b *Bibliography) Get(key string) (types.BibliographyEntry, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.entries[key]
	if !ok {
		return types.BibliographyEntry{}, false
	}
	return *e, true
}

// Len returns the number of entries.
func (b *Bibliography) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// AddOrUpdate records a sighting of a source. A new key creates the entry
// with FirstSeenRound = round. An existing key merges: non-empty incoming
// fields overwrite, empty ones never blank out stored values, and
// FirstSeenRound keeps its minimum. The file is rewritten on every call.
func (b *Bibliography) AddOrUpdate(key string, e types.BibliographyEntry, round int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	cur, ok := b.entries[key]
	if !ok {
		e.Key = key
		e.FirstSeenRound = round
		b.entries[key] = &e
		return b.persist()
	}

	mergeEntry(cur, &e)
	if round < cur.FirstSeenRound {
		cur.FirstSeenRound = round
	}
	return b.persist()
}

// MergeEntries folds the entry at oldKey into newKey and removes oldKey.
// Fields already present under newKey win; missing ones are copied over.
func (b *Bibliography) MergeEntries(oldKey, newKey string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	old, ok := b.entries[oldKey]
	if !ok || oldKey == newKey {
		return nil
	}
	cur, ok := b.entries[newKey]
	if !ok {
		moved := *old
		moved.Key = newKey
		b.entries[newKey] = &moved
	} else {
		fillEntry(cur, old)
		if old.FirstSeenRound < cur.FirstSeenRound {
			cur.FirstSeenRound = old.FirstSeenRound
		}
	}
	delete(b.entries, oldKey)
	return b.persist()
}

// All returns a copy of every entry keyed by citation key.
func (b *Bibliography) All() map[string]types.BibliographyEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]types.BibliographyEntry, len(b.entries))
	for k, e := range b.entries {
		out[k] = *e
	}
	return out
}

// mergeEntry copies non-empty fields of src over dst.
func mergeEntry(dst, src *types.BibliographyEntry) {
	if src.Title != "" {
		dst.Title = src.Title
	}
	if src.URL != "" {
		dst.URL = src.URL
	}
	if src.DOI != "" {
		dst.DOI = src.DOI
	}
	if src.Year != "" {
		dst.Year = src.Year
	}
	if len(src.Authors) > 0 {
		dst.Authors = src.Authors
	}
	if src.APA != "" {
		dst.APA = src.APA
	}
	if src.Description != "" {
		dst.Description = src.Description
	}
}

// fillEntry copies src fields into dst only where dst is empty.
func fillEntry(dst, src *types.BibliographyEntry) {
	if dst.Title == "" {
		dst.Title = src.Title
	}
	if dst.URL == "" {
		dst.URL = src.URL
	}
	if dst.DOI == "" {
		dst.DOI = src.DOI
	}
	if dst.Year == "" {
		dst.Year = src.Year
	}
	if len(dst.Authors) == 0 {
		dst.Authors = src.Authors
	}
	if dst.APA == "" {
		dst.APA = src.APA
	}
	if dst.Description == "" {
		dst.Description = src.Description
	}
}

// persist rewrites the backing file under the advisory lock. Callers hold
// b.mu.
func (b *Bibliography) persist() error {
	if err := os.MkdirAll(filepath.Dir(b.path), 0o755); err != nil {
		return fmt.Errorf("creating bibliography directory: %w", err)
	}
	if err := b.lock.Lock(); err != nil {
		return fmt.Errorf("locking bibliography: %w", err)
	}
	defer b.lock.Unlock()

	data, err := json.MarshalIndent(b.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding bibliography: %w", err)
	}
	if err := os.WriteFile(b.path, data, 0o644); err != nil {
		return fmt.Errorf("writing bibliography: %w", err)
	}
	return nil
}
