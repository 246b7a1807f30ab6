// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package selector

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/meshintel/biosearch-engine/internal/embedding"
	"github.com/meshintel/biosearch-engine/internal/jsonx"
	"github.com/meshintel/biosearch-engine/internal/kgraph"
	"github.com/meshintel/biosearch-engine/internal/llm"
	"github.com/meshintel/biosearch-engine/internal/registry"
	"github.com/meshintel/biosearch-engine/pkg/types"
)

// Entity is one extracted biomedical entity with its normalized category.
type Entity struct {
	Text     string
	Category string
}

// EntityGraph is the structured reading of a sub-question.
type EntityGraph struct {
	Question      string
	Entities      []Entity
	Relationships [][2]string
}

// ExpertSelector plans calls by entity extraction and tool-network walks.
type ExpertSelector struct {
	client  llm.Client
	reg     *registry.Registry
	network *kgraph.Network
	ret     *embedding.Retriever
	cfg     types.SelectorConfig
	log     *zap.Logger
}

// NewExpertSelector builds an expert selector.
func NewExpertSelector(client llm.Client, reg *registry.Registry, network *kgraph.Network, ret *embedding.Retriever, cfg types.SelectorConfig, log *zap.Logger) *ExpertSelector {
	if cfg.NodePoolThreshold <= 0 {
		cfg.NodePoolThreshold = 10
	}
	if cfg.NodeTopK <= 0 {
		cfg.NodeTopK = 10
	}
	if cfg.EdgePoolThreshold <= 0 {
		cfg.EdgePoolThreshold = 5
	}
	if cfg.EdgeTopK <= 0 {
		cfg.EdgeTopK = 5
	}
	return &ExpertSelector{client: client, reg: reg, network: network, ret: ret, cfg: cfg, log: log}
}

const extractEntitiesPrompt = `Analyze the biomedical research question and extract its entities and the
relationships between them.

Question: %s

Each entity gets exactly one category from this list:
%s

Respond with JSON only:
{
  "question": "the question restated",
  "entities": [["entity text", "category"]],
  "relationships": [["entity text 1", "entity text 2"]]
}`

// ExtractEntities reads the question into an entity graph. Categories are
// normalized onto the canonical list.
func (e *ExpertSelector) ExtractEntities(ctx context.Context, question string) (*EntityGraph, error) {
	prompt := fmt.Sprintf(extractEntitiesPrompt, question, strings.Join(kgraph.Categories, ", "))
	out, err := e.client.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("entity extraction: %w", err)
	}

	var parsed struct {
		Question      string      `json:"question"`
		Entities      [][2]string `json:"entities"`
		Relationships [][2]string `json:"relationships"`
	}
	if !jsonx.Extract(out, &parsed) {
		return nil, fmt.Errorf("entity extraction returned no JSON")
	}

	g := &EntityGraph{Question: question}
	if parsed.Question != "" {
		g.Question = parsed.Question
	}
	seen := make(map[string]struct{})
	for _, pair := range parsed.Entities {
		text := strings.TrimSpace(pair[0])
		if text == "" {
			continue
		}
		if _, dup := seen[text]; dup {
			continue
		}
		seen[text] = struct{}{}
		g.Entities = append(g.Entities, Entity{
			Text:     text,
			Category: kgraph.MatchCategory(pair[1]),
		})
	}
	for _, rel := range parsed.Relationships {
		a, b := strings.TrimSpace(rel[0]), strings.TrimSpace(rel[1])
		if a == "" || b == "" {
			continue
		}
		g.Relationships = append(g.Relationships, [2]string{a, b})
	}
	return g, nil
}

const filterEntitiesPrompt = `From the entity list below, keep only entities worth dedicated tool lookups
for answering the question. Drop generic terms, duplicates, and entities the
question only mentions in passing.

Question: %s
Entities: %s

Respond with JSON only: {"keep": ["entity text", ...]}`

// FilterEntities prunes the graph to entities worth tool calls.
// Relationships keep only edges whose both endpoints survive. An
// unparseable verdict keeps the graph unfiltered; over-selection costs
// tool calls, under-selection costs answers.
func (e *ExpertSelector) FilterEntities(ctx context.Context, g *EntityGraph) *EntityGraph {
	if len(g.Entities) == 0 {
		return g
	}
	names := make([]string, len(g.Entities))
	for i, ent := range g.Entities {
		names[i] = ent.Text
	}

	out, err := e.client.Complete(ctx, fmt.Sprintf(filterEntitiesPrompt, g.Question, strings.Join(names, "; ")))
	if err != nil {
		e.log.Warn("entity filtering failed, keeping all", zap.Error(err))
		return g
	}
	var parsed struct {
		Keep []string `json:"keep"`
	}
	if !jsonx.Extract(out, &parsed) || len(parsed.Keep) == 0 {
		e.log.Warn("entity filtering unparseable, keeping all")
		return g
	}

	keep := make(map[string]struct{}, len(parsed.Keep))
	for _, k := range parsed.Keep {
		keep[strings.TrimSpace(k)] = struct{}{}
	}

	filtered := &EntityGraph{Question: g.Question}
	for _, ent := range g.Entities {
		if _, ok := keep[ent.Text]; ok {
			filtered.Entities = append(filtered.Entities, ent)
		}
	}
	if len(filtered.Entities) == 0 {
		return g
	}
	surviving := make(map[string]struct{}, len(filtered.Entities))
	for _, ent := range filtered.Entities {
		surviving[ent.Text] = struct{}{}
	}
	for _, rel := range g.Relationships {
		if _, ok := surviving[rel[0]]; !ok {
			continue
		}
		if _, ok := surviving[rel[1]]; !ok {
			continue
		}
		filtered.Relationships = append(filtered.Relationships, rel)
	}
	return filtered
}

// CandidateSet maps an information need to its candidate tools.
type CandidateSet struct {
	Item  string
	Tools []string
}

// CoarseRetrieve walks the tool network: per entity the tools attached to
// its category, per relationship the tools on the category edge. Pools
// over the threshold narrow by embedding similarity; a narrowing failure
// keeps the full pool.
func (e *ExpertSelector) CoarseRetrieve(ctx context.Context, g *EntityGraph) []CandidateSet {
	category := make(map[string]string, len(g.Entities))
	pools := make(map[string][]string, len(g.Entities))
	var needGloss []string
	for _, ent := range g.Entities {
		category[ent.Text] = ent.Category
		pool := e.registered(e.network.NodeTools(ent.Category))
		pools[ent.Text] = pool
		if len(pool) > e.cfg.NodePoolThreshold {
			needGloss = append(needGloss, ent.Text)
		}
	}

	// Gloss the entities whose pools need narrowing; the gloss enriches
	// the embedding query beyond the bare symbol.
	glosses := map[string]string{}
	if len(needGloss) > 0 {
		glosses = e.BatchExplainItems(ctx, needGloss)
	}

	var sets []CandidateSet
	for _, ent := range g.Entities {
		pool := pools[ent.Text]
		if len(pool) == 0 {
			continue
		}
		if len(pool) > e.cfg.NodePoolThreshold {
			query := g.Question + " " + ent.Text
			if gloss := glosses[ent.Text]; gloss != "" {
				query += " " + gloss
			}
			pool = e.narrow(ctx, query, pool, e.cfg.NodeTopK)
		}
		sets = append(sets, CandidateSet{Item: ent.Text, Tools: pool})
	}

	for _, rel := range g.Relationships {
		ca, ok := category[rel[0]]
		if !ok {
			continue
		}
		cb, ok := category[rel[1]]
		if !ok {
			continue
		}
		pool := e.registered(e.network.EdgeTools(ca, cb))
		if len(pool) == 0 {
			continue
		}
		if len(pool) > e.cfg.EdgePoolThreshold {
			pool = e.narrow(ctx, g.Question+" "+rel[0]+" "+rel[1], pool, e.cfg.EdgeTopK)
		}
		sets = append(sets, CandidateSet{Item: rel[0] + " - " + rel[1], Tools: pool})
	}
	return sets
}

// registered drops tools the registry does not actually carry.
func (e *ExpertSelector) registered(tools []string) []string {
	out := tools[:0:0]
	for _, t := range tools {
		if e.reg.Has(t) {
			out = append(out, t)
		}
	}
	return out
}

// narrow ranks pool by embedding similarity to query and keeps k.
func (e *ExpertSelector) narrow(ctx context.Context, query string, pool []string, k int) []string {
	if e.ret == nil {
		return pool
	}
	narrowed, err := e.ret.TopKFromCandidates(ctx, query, e.reg.Descriptions(pool), k)
	if err != nil {
		e.log.Warn("embedding narrowing failed, keeping full pool", zap.Error(err))
		sort.Strings(pool)
		return pool
	}
	return narrowed
}

const precisePrompt = `Pick at most ONE tool to serve the information need below, and build its
input arguments.

Research question: %s
Information need: %s

Candidate tools:
%s

If no candidate genuinely serves the need, pick none.

Respond with JSON only:
{"tool": "tool_name or empty string", "tool_input": {...}}`

// PreciseRetrieve picks the final call per candidate set, concurrently.
// Needs where the model picks no tool or fails produce no request.
func (e *ExpertSelector) PreciseRetrieve(ctx context.Context, g *EntityGraph, sets []CandidateSet) []types.ToolInvocationRequest {
	out := make([]*types.ToolInvocationRequest, len(sets))
	var wg sync.WaitGroup

	for i, set := range sets {
		if len(set.Tools) == 0 {
			continue
		}
		wg.Add(1)
		go func(i int, set CandidateSet) {
			defer wg.Done()
			prompt := fmt.Sprintf(precisePrompt, g.Question, set.Item, e.reg.Describe(set.Tools))
			resp, err := e.client.Complete(ctx, prompt)
			if err != nil {
				e.log.Warn("precise selection failed", zap.String("item", set.Item), zap.Error(err))
				return
			}
			var parsed struct {
				Tool      string         `json:"tool"`
				ToolInput map[string]any `json:"tool_input"`
			}
			if !jsonx.Extract(resp, &parsed) || parsed.Tool == "" {
				return
			}
			out[i] = &types.ToolInvocationRequest{
				Item:      set.Item,
				Tool:      parsed.Tool,
				ToolInput: parsed.ToolInput,
			}
		}(i, set)
	}
	wg.Wait()

	var requests []types.ToolInvocationRequest
	for _, r := range out {
		if r != nil {
			requests = append(requests, *r)
		}
	}
	return requests
}

// Select runs the full expert pipeline for a question. Any stage failing
// degrades to an empty plan rather than an error.
func (e *ExpertSelector) Select(ctx context.Context, question string) []types.ToolInvocationRequest {
	g, err := e.ExtractEntities(ctx, question)
	if err != nil {
		e.log.Warn("expert selection degraded to empty", zap.Error(err))
		return nil
	}
	g = e.FilterEntities(ctx, g)
	sets := e.CoarseRetrieve(ctx, g)
	return e.PreciseRetrieve(ctx, g, sets)
}
