// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package knowledge

import (
	"encoding/json"
	"strconv"
	"strings"
	"sync"

	"github.com/meshintel/biosearch-engine/pkg/types"
)

// ReferencePool assigns stable 1-based indices to sources for the lifetime
// of a run. A link always maps to the same index; entries are never removed
// or renumbered, so citations written in earlier rounds stay valid.
type ReferencePool struct {
	mu      sync.Mutex
	entries []types.SourcesReference
	byLink  map[string]int
}

// NewReferencePool returns an empty pool.
func NewReferencePool() *ReferencePool {
	return &ReferencePool{byLink: make(map[string]int)}
}

// Add registers a source and returns its 1-based index. A link already in
// the pool returns its existing index unchanged. An empty link returns -1:
// unlinked sources cannot be cited.
func (p *ReferencePool) Add(title, citation, link string) int {
	link = strings.TrimSpace(link)
	if link == "" {
		return -1
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if idx, ok := p.byLink[link]; ok {
		return idx
	}

	if strings.TrimSpace(title) == "" {
		title = link
	}
	idx := len(p.entries) + 1
	p.entries = append(p.entries, types.SourcesReference{
		Index:    idx,
		Title:    title,
		Subtitle: citation,
		Link:     link,
	})
	p.byLink[link] = idx
	return idx
}

// Len returns the number of pooled sources.
func (p *ReferencePool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// All returns a copy of the pooled sources in index order.
func (p *ReferencePool) All() []types.SourcesReference {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]types.SourcesReference, len(p.entries))
	copy(out, p.entries)
	return out
}

// FormatMarkdown renders the pool as a markdown reference list using the
// stable [^^n] citation markers.
func (p *ReferencePool) FormatMarkdown() string {
	var b strings.Builder
	for _, r := range p.All() {
		b.WriteString("[^^")
		b.WriteString(strconv.Itoa(r.Index))
		b.WriteString("]: ")
		b.WriteString(r.Title)
		if r.Subtitle != "" {
			b.WriteString(". ")
			b.WriteString(r.Subtitle)
		}
		b.WriteString(" ")
		b.WriteString(r.Link)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// PromptJSON renders the pool as the compact JSON array handed to the
// report model: one object per source with its index, link and citation.
func (p *ReferencePool) PromptJSON() string {
	type promptRef struct {
		Idx  int    `json:"idx"`
		URL  string `json:"url"`
		APA  string `json:"apa"`
		Desc string `json:"desc"`
	}
	refs := p.All()
	out := make([]promptRef, len(refs))
	for i, r := range refs {
		out[i] = promptRef{Idx: r.Index, URL: r.Link, APA: r.Subtitle, Desc: r.Title}
	}
	data, err := json.Marshal(out)
	if err != nil {
		return "[]"
	}
	return string(data)
}
