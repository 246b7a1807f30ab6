// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embedding

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

// fakeEmbedder maps known texts to fixed vectors and counts calls.
type fakeEmbedder struct {
	vectors map[string][]float32
	query   []float32
	calls   int
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return f.query, nil
}

func (f *fakeEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if v, ok := f.vectors[t]; ok {
			out[i] = v
		} else {
			out[i] = []float32{0, 0, 1}
		}
	}
	return out, nil
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 0}, []float32{1, 0}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0},
		{"dimension mismatch", []float32{1}, []float32{1, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Cosine(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Cosine = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDocText(t *testing.T) {
	desc := "Search PubMed for articles.\n\nArgs:\n  query: the search string"
	got := docText("pubmed_search", desc)
	want := "pubmed_search: Search PubMed for articles."
	if got != want {
		t.Errorf("docText = %q, want %q", got, want)
	}
}

func TestTopKFromCandidates(t *testing.T) {
	emb := &fakeEmbedder{
		query: []float32{1, 0, 0},
		vectors: map[string][]float32{
			"close: near the query":    {0.9, 0.1, 0},
			"medium: somewhat related": {0.5, 0.5, 0},
			"far: unrelated":           {0, 1, 0},
		},
	}
	r := NewRetriever(emb, nil, zap.NewNop())

	got, err := r.TopKFromCandidates(context.Background(), "q", map[string]string{
		"close":  "near the query",
		"medium": "somewhat related",
		"far":    "unrelated",
	}, 2)
	if err != nil {
		t.Fatalf("TopKFromCandidates: %v", err)
	}
	if len(got) != 2 || got[0] != "close" || got[1] != "medium" {
		t.Errorf("got %v, want [close medium]", got)
	}
}

func TestCacheRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.db")
	c, err := OpenCache(path)
	if err != nil {
		t.Fatalf("OpenCache: %v", err)
	}
	defer c.Close()

	vec := []float32{0.25, -1.5, 3}
	if err := c.Put("pubmed_search", vec); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok := c.Get("pubmed_search")
	if !ok {
		t.Fatal("Get: miss after Put")
	}
	for i := range vec {
		if got[i] != vec[i] {
			t.Errorf("vec[%d] = %v, want %v", i, got[i], vec[i])
		}
	}

	if _, ok := c.Get("unknown"); ok {
		t.Error("Get returned hit for unknown name")
	}
}

func TestCachedVectorsSkipEmbedding(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.db")
	c, err := OpenCache(path)
	if err != nil {
		t.Fatalf("OpenCache: %v", err)
	}
	defer c.Close()

	emb := &fakeEmbedder{query: []float32{1, 0, 0}}
	r := NewRetriever(emb, c, zap.NewNop())
	tools := map[string]string{"a": "first tool", "b": "second tool"}

	if _, err := r.TopKFromCandidates(context.Background(), "q", tools, 1); err != nil {
		t.Fatalf("first retrieval: %v", err)
	}
	if emb.calls != 1 {
		t.Fatalf("embed calls = %d, want 1", emb.calls)
	}

	if _, err := r.TopKFromCandidates(context.Background(), "q", tools, 1); err != nil {
		t.Fatalf("second retrieval: %v", err)
	}
	if emb.calls != 1 {
		t.Errorf("embed calls after warm cache = %d, want 1", emb.calls)
	}
}
