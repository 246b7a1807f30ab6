// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embedding

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Cosine returns the cosine similarity of two vectors, 0 when either has
// zero magnitude or the dimensions differ.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Retriever narrows candidate tool sets by embedding similarity. Tool
// description vectors are cached by tool name.
type Retriever struct {
	embedder Embedder
	cache    *Cache
	log      *zap.Logger
}

// NewRetriever builds a retriever. cache may be nil to disable caching.
func NewRetriever(embedder Embedder, cache *Cache, log *zap.Logger) *Retriever {
	return &Retriever{embedder: embedder, cache: cache, log: log}
}

// docText builds the embedded representation of a tool. Only the
// description head before the argument listing is embedded; argument
// documentation adds noise without retrieval value.
func docText(name, description string) string {
	head := description
	if i := strings.Index(description, "Args"); i > 0 {
		head = description[:i]
	}
	return name + ": " + strings.TrimSpace(head)
}

// vectorsFor returns a vector per tool, embedding only cache misses.
func (r *Retriever) vectorsFor(ctx context.Context, tools map[string]string) (map[string][]float32, error) {
	vecs := make(map[string][]float32, len(tools))
	var missNames []string
	var missTexts []string
	for name, desc := range tools {
		if v, ok := r.cache.Get(name); ok {
			vecs[name] = v
			continue
		}
		missNames = append(missNames, name)
		missTexts = append(missTexts, docText(name, desc))
	}

	if len(missNames) > 0 {
		embedded, err := r.embedder.EmbedDocuments(ctx, missTexts)
		if err != nil {
			return nil, fmt.Errorf("embedding %d tool descriptions: %w", len(missNames), err)
		}
		for i, name := range missNames {
			vecs[name] = embedded[i]
			if err := r.cache.Put(name, embedded[i]); err != nil {
				r.log.Warn("caching tool vector failed", zap.String("tool", name), zap.Error(err))
			}
		}
	}
	return vecs, nil
}

// TopKFromCandidates returns the k tool names most similar to query,
// scored by cosine similarity over the candidates map (name to
// description). When k is zero or exceeds the pool, all names are returned
// ranked.
func (r *Retriever) TopKFromCandidates(ctx context.Context, query string, candidates map[string]string, k int) ([]string, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	qvec, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	vecs, err := r.vectorsFor(ctx, candidates)
	if err != nil {
		return nil, err
	}

	type scored struct {
		name  string
		score float64
	}
	ranked := make([]scored, 0, len(vecs))
	for name, v := range vecs {
		ranked = append(ranked, scored{name, Cosine(qvec, v)})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].name < ranked[j].name
	})

	if k <= 0 || k > len(ranked) {
		k = len(ranked)
	}
	names := make([]string, k)
	for i := 0; i < k; i++ {
		names[i] = ranked[i].name
	}
	return names, nil
}
