// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package selector

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/meshintel/biosearch-engine/internal/kgraph"
	"github.com/meshintel/biosearch-engine/internal/registry"
	"github.com/meshintel/biosearch-engine/pkg/types"
)

// routingClient answers prompts by matching substrings, in order.
type routingClient struct {
	routes []route
	err    error
}

type route struct {
	contains string
	response string
}

func (r *routingClient) Complete(ctx context.Context, prompt string) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	for _, rt := range r.routes {
		if strings.Contains(prompt, rt.contains) {
			return rt.response, nil
		}
	}
	return "{}", nil
}

func testRegistry(t *testing.T, names ...string) *registry.Registry {
	t.Helper()
	reg := registry.New()
	for _, name := range names {
		err := reg.Register(&registry.ToolCapability{
			Name:        name,
			Description: "tool " + name,
			Invoke: func(ctx context.Context, args map[string]any) (types.RawResult, error) {
				return types.RawResult{}, nil
			},
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	return reg
}

func TestGeneralSelect(t *testing.T) {
	reg := testRegistry(t, "pubmed_search", "search_target")
	client := &routingClient{routes: []route{
		{contains: "Pick the tool calls", response: `[{"item": "find EGFR papers", "tool": "pubmed_search", "tool_input": {"query": "EGFR"}}]`},
	}}
	g := NewGeneralSelector(client, reg, zap.NewNop())

	got := g.Select(context.Background(), "What inhibits EGFR?", "")
	if len(got) != 1 || got[0].Tool != "pubmed_search" {
		t.Fatalf("got %v", got)
	}
}

func TestGeneralSelectDegradesToEmpty(t *testing.T) {
	reg := testRegistry(t, "pubmed_search")
	g := NewGeneralSelector(&routingClient{err: errors.New("down")}, reg, zap.NewNop())
	if got := g.Select(context.Background(), "q", ""); got != nil {
		t.Errorf("got %v, want nil on model failure", got)
	}

	g = NewGeneralSelector(&routingClient{routes: []route{{contains: "Pick", response: "no json"}}}, reg, zap.NewNop())
	if got := g.Select(context.Background(), "q", ""); got != nil {
		t.Errorf("got %v, want nil on unparseable plan", got)
	}
}

const selectorMapping = `
tools:
  - name: search_target
    package: chembl
    inputs: ["Protein/Gene"]
    outputs: ["Therapeutic target"]
  - name: get_associated_diseases_phenotypes_by_target_name
    package: opentargets
    inputs: ["Protein/Gene"]
    outputs: ["Disease"]
`

func testExpert(t *testing.T, client *routingClient) *ExpertSelector {
	t.Helper()
	network, err := kgraph.ParseNetwork([]byte(selectorMapping))
	if err != nil {
		t.Fatal(err)
	}
	reg := testRegistry(t, "search_target", "get_associated_diseases_phenotypes_by_target_name")
	return NewExpertSelector(client, reg, network, nil, types.SelectorConfig{}, zap.NewNop())
}

func TestExtractEntities(t *testing.T) {
	client := &routingClient{routes: []route{
		{contains: "extract its entities", response: `{
			"question": "What diseases associate with EGFR?",
			"entities": [["EGFR", "gene"], ["lung cancer", "cancer"]],
			"relationships": [["EGFR", "lung cancer"]]
		}`},
	}}
	e := testExpert(t, client)

	g, err := e.ExtractEntities(context.Background(), "What diseases associate with EGFR?")
	if err != nil {
		t.Fatalf("ExtractEntities: %v", err)
	}
	if len(g.Entities) != 2 {
		t.Fatalf("entities = %v", g.Entities)
	}
	if g.Entities[0].Category != "Protein/Gene" {
		t.Errorf("category = %q, want normalized Protein/Gene", g.Entities[0].Category)
	}
	if len(g.Relationships) != 1 {
		t.Errorf("relationships = %v", g.Relationships)
	}
}

func TestFilterEntitiesFallsBackUnfiltered(t *testing.T) {
	e := testExpert(t, &routingClient{routes: []route{
		{contains: "keep only entities", response: "not json"},
	}})
	g := &EntityGraph{
		Question: "q",
		Entities: []Entity{{Text: "EGFR", Category: "Protein/Gene"}},
	}
	if got := e.FilterEntities(context.Background(), g); len(got.Entities) != 1 {
		t.Errorf("unparseable filter should keep all entities, got %v", got.Entities)
	}
}

func TestFilterEntitiesPrunesRelationships(t *testing.T) {
	e := testExpert(t, &routingClient{routes: []route{
		{contains: "keep only entities", response: `{"keep": ["EGFR"]}`},
	}})
	g := &EntityGraph{
		Question: "q",
		Entities: []Entity{
			{Text: "EGFR", Category: "Protein/Gene"},
			{Text: "cells", Category: "Cell type"},
		},
		Relationships: [][2]string{{"EGFR", "cells"}},
	}
	got := e.FilterEntities(context.Background(), g)
	if len(got.Entities) != 1 || got.Entities[0].Text != "EGFR" {
		t.Fatalf("entities = %v", got.Entities)
	}
	if len(got.Relationships) != 0 {
		t.Errorf("relationship with dropped endpoint survived: %v", got.Relationships)
	}
}

func TestCoarseRetrieve(t *testing.T) {
	e := testExpert(t, &routingClient{})
	g := &EntityGraph{
		Question: "q",
		Entities: []Entity{
			{Text: "EGFR", Category: "Protein/Gene"},
			{Text: "lung cancer", Category: "Disease"},
		},
		Relationships: [][2]string{{"EGFR", "lung cancer"}},
	}

	sets := e.CoarseRetrieve(context.Background(), g)
	byItem := make(map[string][]string, len(sets))
	for _, s := range sets {
		byItem[s.Item] = s.Tools
	}

	if got := byItem["EGFR"]; len(got) != 2 {
		t.Errorf("EGFR pool = %v, want both registered tools", got)
	}
	if got := byItem["EGFR - lung cancer"]; len(got) != 1 || got[0] != "get_associated_diseases_phenotypes_by_target_name" {
		t.Errorf("edge pool = %v", got)
	}
}

func TestPreciseRetrieve(t *testing.T) {
	e := testExpert(t, &routingClient{routes: []route{
		{contains: "Pick at most ONE tool", response: `{"tool": "search_target", "tool_input": {"target_name": "EGFR"}}`},
	}})
	g := &EntityGraph{Question: "q"}
	sets := []CandidateSet{{Item: "EGFR", Tools: []string{"search_target"}}}

	got := e.PreciseRetrieve(context.Background(), g, sets)
	if len(got) != 1 || got[0].Tool != "search_target" || got[0].Item != "EGFR" {
		t.Fatalf("got %v", got)
	}
}

func TestKeepRequest(t *testing.T) {
	tests := []struct {
		name string
		tool string
		args map[string]any
		want bool
	}{
		{"search with query", "pubmed_search", map[string]any{"query": "EGFR"}, true},
		{"search empty query", "pubmed_search", map[string]any{"query": "  "}, false},
		{"search missing query", "tavily_search", map[string]any{"q": "x"}, false},
		{"ontology short name", "get_target_gene_ontology_by_name", map[string]any{"name": "EGFR"}, true},
		{"ontology sentence", "get_target_gene_ontology_by_name", map[string]any{"name": "the EGFR gene please"}, false},
		{"ontology too long", "get_target_gene_ontology_by_name", map[string]any{"name": strings.Repeat("x", 41)}, false},
		{"gene symbol ok", "get_gene_specific_expression_in_cancer_type", map[string]any{"gene": "TP53"}, true},
		{"gene symbol too short", "get_gene_specific_expression_in_cancer_type", map[string]any{"gene": "T"}, false},
		{"gene symbol bad chars", "get_gene_specific_expression_in_cancer_type", map[string]any{"gene": "TP 53"}, false},
		{"default non-empty input", "search_activity", map[string]any{"assay": "binding"}, true},
		{"default empty input", "search_activity", map[string]any{}, false},
		{"no tool", "", map[string]any{"query": "x"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := keepRequest(tt.tool, tt.args); got != tt.want {
				t.Errorf("keepRequest(%q, %v) = %v, want %v", tt.tool, tt.args, got, tt.want)
			}
		})
	}
}

func TestCleanDeduplicates(t *testing.T) {
	s := New(nil, nil, zap.NewNop())
	got := s.Clean([]types.ToolInvocationRequest{
		{Item: "EGFR", Tool: "search_target", ToolInput: map[string]any{"target_name": "EGFR"}},
		{Item: "EGFR", Tool: "search_target", ToolInput: map[string]any{"target_name": "EGFR again"}},
		{Item: "bad", Tool: "pubmed_search", ToolInput: map[string]any{"query": ""}},
	})
	if len(got) != 1 {
		t.Fatalf("got %d requests, want 1: %v", len(got), got)
	}
}
