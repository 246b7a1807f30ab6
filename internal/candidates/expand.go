// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package candidates

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/meshintel/biosearch-engine/internal/jsonx"
	"github.com/meshintel/biosearch-engine/internal/llm"
)

// expansionSource marks symbols added by family expansion rather than
// harvested from output.
const expansionSource = "llm_expansion"

const (
	minPrefixFreq = 4
	minPrefixLen  = 3
)

// Expander proposes family-member hypotheses from symbol prefixes and
// profiles the pool for the planner.
type Expander struct {
	client  llm.Client
	poolMax int
	log     *zap.Logger

	lastProfiledIteration int
	minProfilePool        int
}

// NewExpander builds an expander. minProfilePool <= 0 disables the size
// gate on profiling.
func NewExpander(client llm.Client, poolMax, minProfilePool int, log *zap.Logger) *Expander {
	if poolMax <= 0 {
		poolMax = defaultPoolMax
	}
	return &Expander{
		client:                client,
		poolMax:               poolMax,
		log:                   log,
		lastProfiledIteration: -1,
		minProfilePool:        minProfilePool,
	}
}

// frequentPrefixes returns alphabetic symbol prefixes of at least
// minPrefixLen characters occurring at least minPrefixFreq times, sorted
// by frequency then name.
func frequentPrefixes(pool *Pool) []string {
	counts := make(map[string]int)
	for _, c := range pool.Ranked() {
		prefix := alphaPrefix(c.Symbol)
		if len(prefix) >= minPrefixLen {
			counts[prefix]++
		}
	}

	var prefixes []string
	for p, n := range counts {
		if n >= minPrefixFreq {
			prefixes = append(prefixes, p)
		}
	}
	sort.Slice(prefixes, func(i, j int) bool {
		if counts[prefixes[i]] != counts[prefixes[j]] {
			return counts[prefixes[i]] > counts[prefixes[j]]
		}
		return prefixes[i] < prefixes[j]
	})
	return prefixes
}

// alphaPrefix returns the leading letters of a symbol.
func alphaPrefix(sym string) string {
	for i, r := range sym {
		if r < 'A' || r > 'Z' {
			return sym[:i]
		}
	}
	return sym
}

const divergePrompt = `The gene family prefixes below are heavily represented in a research run's
candidate pool. Propose additional members of these families that are real,
distinct genes and might have been missed.

Prefixes: %s
Already known: %s

Propose at most %d symbols. Only real gene symbols; no inventions.

Respond with JSON only: {"symbols": ["SYMBOL", ...]}`

// Diverge proposes up to min(8, poolMax/50) family-member hypotheses from
// the pool's frequent prefixes and injects them with the expansion source.
// Returns the symbols actually added.
func (e *Expander) Diverge(ctx context.Context, pool *Pool, iteration int) []string {
	budget := e.poolMax / 50
	if budget > 8 {
		budget = 8
	}
	if budget <= 0 {
		return nil
	}
	prefixes := frequentPrefixes(pool)
	if len(prefixes) == 0 {
		return nil
	}

	known := make([]string, 0, 40)
	for _, c := range pool.Visible(40) {
		known = append(known, c.Symbol)
	}

	out, err := e.client.Complete(ctx, fmt.Sprintf(divergePrompt,
		strings.Join(prefixes, ", "), strings.Join(known, ", "), budget))
	if err != nil {
		e.log.Warn("family expansion failed", zap.Error(err))
		return nil
	}
	var parsed struct {
		Symbols []string `json:"symbols"`
	}
	if !jsonx.Extract(out, &parsed) {
		e.log.Warn("family expansion unparseable")
		return nil
	}

	var added []string
	for _, s := range parsed.Symbols {
		if len(added) >= budget {
			break
		}
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, exists := pool.Get(s); exists {
			continue
		}
		pool.Inject(iteration, expansionSource, s)
		if _, ok := pool.Get(s); ok {
			added = append(added, s)
		}
	}
	return added
}

const profilePrompt = `Summarize the composition of this candidate symbol pool for a research
planner: dominant families, how concentrated recent discoveries are, and
whether the pool is still growing or has saturated. Under 120 words, plain
text. Do not list individual symbols.

Pool statistics:
%s`

// Profile writes a short composition summary of the pool, at most once
// per iteration and only once the pool is large enough to have shape.
// Returns "" when skipped or failed.
func (e *Expander) Profile(ctx context.Context, pool *Pool, iteration int) string {
	if iteration == e.lastProfiledIteration {
		return ""
	}
	if pool.Len() < e.minProfilePool {
		return ""
	}
	e.lastProfiledIteration = iteration

	var b strings.Builder
	fmt.Fprintf(&b, "total symbols: %d\n", pool.Len())
	fmt.Fprintf(&b, "validated: %d\n", len(pool.Validated()))
	prefixes := frequentPrefixes(pool)
	if len(prefixes) > 0 {
		fmt.Fprintf(&b, "frequent families: %s\n", strings.Join(prefixes, ", "))
	}
	recent := 0
	for _, c := range pool.Ranked() {
		if c.LastSeen == iteration {
			recent++
		}
	}
	fmt.Fprintf(&b, "seen this iteration: %d\n", recent)

	out, err := e.client.Complete(ctx, fmt.Sprintf(profilePrompt, b.String()))
	if err != nil {
		e.log.Warn("pool profiling failed", zap.Error(err))
		return ""
	}
	return strings.TrimSpace(out)
}
