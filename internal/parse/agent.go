// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/meshintel/biosearch-engine/internal/jsonx"
	"github.com/meshintel/biosearch-engine/internal/llm"
	"github.com/meshintel/biosearch-engine/pkg/types"
)

const defaultParseConcurrency = 10

// rawLimits bounds how much payload goes into the extraction prompt and
// how much of it the fallback quote may carry. Full-document tools get
// larger budgets.
type rawLimits struct {
	prompt  int
	snippet int
}

var defaultLimits = rawLimits{prompt: 30000, snippet: 20000}

var toolLimits = map[string]rawLimits{
	"read_url": {prompt: 50000, snippet: 30000},
	"doi2text": {prompt: 50000, snippet: 30000},
}

// toolHints adds tool-specific extraction guidance to the prompt.
var toolHints = map[string]string{
	"read_url":      "The payload is a full document. Extract exhaustively: every finding relevant to the research need, not just the first few.",
	"tavily_search": "The 'answer' field may be hallucinated by the search provider. Rely on the raw result entries, not the answer.",
	"paper_search":  "Emit one item per paper. Emit an item even when fields are incomplete; missing fields stay empty.",
}

// Agent extracts structured evidence from tool payloads with a model,
// bounded to a fixed number of concurrent extractions.
type Agent struct {
	client llm.Client
	log    *zap.Logger
	sem    *semaphore.Weighted
}

// NewAgent builds an agent. maxConcurrent <= 0 uses the default bound.
func NewAgent(client llm.Client, cfg types.ParserConfig, log *zap.Logger) *Agent {
	n := cfg.MaxConcurrent
	if n <= 0 {
		n = defaultParseConcurrency
	}
	return &Agent{
		client: client,
		log:    log,
		sem:    semaphore.NewWeighted(int64(n)),
	}
}

// ParseResults extracts evidence from every successful result, in
// parallel. Each result is paired with its originating request by
// position. Failed extractions are logged and excluded; a degraded round
// is better than a dead one.
func (a *Agent) ParseResults(ctx context.Context, round int, requests []types.ToolInvocationRequest, results []types.ToolCallResult) []types.ParsedToolResult {
	out := make([]*types.ParsedToolResult, len(results))
	var wg sync.WaitGroup

	for i := range results {
		if !results[i].Success || strings.TrimSpace(results[i].Content) == "" {
			continue
		}
		if err := a.sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer a.sem.Release(1)
			need := ""
			if i < len(requests) {
				need = requests[i].Item
			}
			parsed, err := a.parseSingle(ctx, round, need, results[i])
			if err != nil {
				a.log.Warn("evidence extraction failed",
					zap.String("tool", results[i].ToolName),
					zap.Error(err),
				)
				return
			}
			out[i] = parsed
		}(i)
	}
	wg.Wait()

	var collected []types.ParsedToolResult
	for _, p := range out {
		if p != nil {
			collected = append(collected, *p)
		}
	}
	return collected
}

// parseSingle extracts evidence from one payload, falling back to a single
// low-confidence entry when the model's output cannot be parsed.
func (a *Agent) parseSingle(ctx context.Context, round int, need string, result types.ToolCallResult) (*types.ParsedToolResult, error) {
	limits, ok := toolLimits[result.ToolName]
	if !ok {
		limits = defaultLimits
	}
	raw := types.Truncate(result.Content, limits.prompt)

	out, err := a.client.Complete(ctx, buildExtractionPrompt(result.ToolName, need, raw))
	if err != nil {
		return nil, fmt.Errorf("extraction call for %s: %w", result.ToolName, err)
	}

	var parsed struct {
		Summary string                `json:"summary"`
		Items   []types.EvidenceEntry `json:"items"`
	}
	if !jsonx.Extract(out, &parsed) {
		return a.fallback(round, result, limits), nil
	}

	pr := &types.ParsedToolResult{
		Tool:    result.ToolName,
		Summary: parsed.Summary,
	}
	for i := range parsed.Items {
		item := parsed.Items[i]
		if strings.TrimSpace(item.Quote) == "" && strings.TrimSpace(item.Brief) == "" {
			continue
		}
		item.Clamp()
		item.Tool = result.ToolName
		item.EvidenceID = types.EvidenceID(round, item.Quote, item.URL, item.Title)
		pr.Items = append(pr.Items, item)
		if len(pr.Items) >= types.MaxEvidenceItems {
			break
		}
	}
	return pr, nil
}

// fallback wraps the payload head as one low-confidence item so the round
// retains something reviewable.
func (a *Agent) fallback(round int, result types.ToolCallResult, limits rawLimits) *types.ParsedToolResult {
	quote := types.Truncate(result.Content, limits.snippet)
	item := types.EvidenceEntry{
		Brief:     fmt.Sprintf("Unstructured output from %s", result.ToolName),
		Quote:     quote,
		Relevance: 0.3,
		Tool:      result.ToolName,
	}
	item.Clamp()
	item.EvidenceID = types.EvidenceID(round, item.Quote, "", "")
	return &types.ParsedToolResult{
		Tool:    result.ToolName,
		Summary: fmt.Sprintf("%s returned data but structured parsing failed; manual review required.", result.ToolName),
		Items:   []types.EvidenceEntry{item},
	}
}
