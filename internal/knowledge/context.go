// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package knowledge manages what a research run has learned: the
// accumulated knowledge text with priority-aware compression, the numbered
// reference pool backing citations, and the cross-run bibliography file.
package knowledge

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
)

const (
	defaultMaxContextLength = 32000

	// compressionTrigger is the fraction of the token budget at which
	// compression runs.
	compressionTrigger = 0.8

	// compressionTarget is the fraction of the token budget compression
	// shrinks to, leaving headroom for later rounds.
	compressionTarget = 0.6
)

// Context accumulates knowledge across iterations under a token budget.
// Entries carry a priority marker; compression keeps high-priority and
// query-relevant paragraphs and drops the rest.
type Context struct {
	originalQuery    string
	maxContextLength int
	knowledge        strings.Builder
	log              *zap.Logger
}

// NewContext builds a context for the given query. maxContextLength <= 0
// uses the default budget.
func NewContext(query string, maxContextLength int, log *zap.Logger) *Context {
	if maxContextLength <= 0 {
		maxContextLength = defaultMaxContextLength
	}
	return &Context{
		originalQuery:    query,
		maxContextLength: maxContextLength,
		log:              log,
	}
}

// OriginalQuery returns the query the run was started with.
func (c *Context) OriginalQuery() string { return c.originalQuery }

// Knowledge returns the accumulated knowledge text.
func (c *Context) Knowledge() string { return c.knowledge.String() }

// TokenCount estimates the token footprint of the accumulated knowledge.
// The estimate is chars/4; exact tokenization is not worth a model call.
func (c *Context) TokenCount() int {
	return c.knowledge.Len() / 4
}

// MaxContextLength returns the token budget.
func (c *Context) MaxContextLength() int { return c.maxContextLength }

// NeedsCompression reports whether the knowledge has outgrown the trigger
// fraction of the budget.
func (c *Context) NeedsCompression() bool {
	return float64(c.TokenCount()) > compressionTrigger*float64(c.maxContextLength)
}

// AddKnowledge appends text with a priority marker (1 = highest) and
// compresses when the budget trigger is crossed. iteration labels the
// compression marker when compression runs.
func (c *Context) AddKnowledge(text string, priority, iteration int) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if priority < 1 {
		priority = 3
	}
	fmt.Fprintf(&c.knowledge, "\n\n[Priority %d] %s", priority, text)

	if c.NeedsCompression() {
		c.Compress(iteration)
	}
}

// queryKeywords returns the significant lowercase words of the original
// query. Short words carry no relevance signal.
func (c *Context) queryKeywords() []string {
	var kws []string
	for _, w := range strings.Fields(strings.ToLower(c.originalQuery)) {
		w = strings.Trim(w, ".,;:?!()[]\"'")
		if len(w) > 3 {
			kws = append(kws, w)
		}
	}
	return kws
}

// scoreParagraph ranks a paragraph for retention. Priority markers
// dominate, query keyword hits add relevance, and late paragraphs get a
// recency bonus.
func scoreParagraph(p string, index, total int, keywords []string) int {
	score := 0
	switch {
	case strings.Contains(p, "[Priority 1]"):
		score += 10
	case strings.Contains(p, "[Priority 2]"):
		score += 5
	case strings.Contains(p, "[Priority 3]"):
		score += 2
	}

	lower := strings.ToLower(p)
	for _, kw := range keywords {
		score += 2 * strings.Count(lower, kw)
	}

	if total > 0 && float64(index) > 0.7*float64(total) {
		score += 3
	}
	return score
}

// Compress shrinks the accumulated knowledge to the target fraction of the
// budget, keeping the highest-scoring paragraphs in their original order,
// and appends a compression marker naming the iteration.
func (c *Context) Compress(iteration int) {
	text := c.knowledge.String()
	paragraphs := strings.Split(text, "\n\n")
	keywords := c.queryKeywords()

	type scored struct {
		index int
		score int
		text  string
	}
	ranked := make([]scored, 0, len(paragraphs))
	for i, p := range paragraphs {
		if strings.TrimSpace(p) == "" {
			continue
		}
		ranked = append(ranked, scored{i, scoreParagraph(p, i, len(paragraphs), keywords), p})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	budget := int(compressionTarget * float64(c.maxContextLength) * 4)
	kept := make([]scored, 0, len(ranked))
	used := 0
	for _, s := range ranked {
		if used+len(s.text) > budget {
			continue
		}
		kept = append(kept, s)
		used += len(s.text) + 2
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].index < kept[j].index })

	before := c.TokenCount()
	c.knowledge.Reset()
	for i, s := range kept {
		if i > 0 {
			c.knowledge.WriteString("\n\n")
		}
		c.knowledge.WriteString(s.text)
	}
	fmt.Fprintf(&c.knowledge, "\n\n[COMPRESSED] Content compressed at iteration %d", iteration)

	c.log.Info("compressed knowledge",
		zap.Int("iteration", iteration),
		zap.Int("tokens_before", before),
		zap.Int("tokens_after", c.TokenCount()),
	)
}
