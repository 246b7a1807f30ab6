// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package candidates

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/meshintel/biosearch-engine/internal/jsonx"
	"github.com/meshintel/biosearch-engine/internal/llm"
)

const (
	defaultValidationBatch       = 12
	defaultValidationConcurrency = 5
)

const prescreenPrompt = `A research run is validating candidate symbols against annotation
databases. Triage the pool below for the question.

Question: %s

Candidates (rank order, with sighting counts):
%s

Assign each symbol to exactly one bucket:
- "selected": most promising for validation now, at most %d
- "deprioritized": plausible but not worth validating yet
- "dropped": ONLY symbols that are obvious harvesting artifacts, or that
  the question itself already names (validating those adds nothing)

When in doubt, deprioritize rather than drop.

Respond with JSON only:
{"selected": [...], "deprioritized": [...], "dropped": [...]}`

// Prescreener triages the pool before validation.
type Prescreener struct {
	client    llm.Client
	batchSize int
	log       *zap.Logger
}

// NewPrescreener builds a prescreener. batchSize <= 0 uses the default.
func NewPrescreener(client llm.Client, batchSize int, log *zap.Logger) *Prescreener {
	if batchSize <= 0 {
		batchSize = defaultValidationBatch
	}
	return &Prescreener{client: client, batchSize: batchSize, log: log}
}

// Prescreen triages the visible pool and applies the verdict: selected
// symbols are returned for validation, deprioritized and dropped symbols
// change state. Already-validated symbols are not re-selected. A failed
// or unusable verdict selects the top-ranked unvalidated symbols instead.
func (ps *Prescreener) Prescreen(ctx context.Context, pool *Pool, question string) []string {
	visible := pool.Visible(ps.batchSize * 4)
	var lines []string
	candidates := make(map[string]Candidate, len(visible))
	for _, c := range visible {
		if c.Validated || c.State == Deprioritized {
			continue
		}
		candidates[c.Symbol] = c
		lines = append(lines, fmt.Sprintf("%s (seen %d times, %d sources)", c.Symbol, c.Count, c.sourceDiversity()))
	}
	if len(lines) == 0 {
		return nil
	}

	out, err := ps.client.Complete(ctx, fmt.Sprintf(prescreenPrompt, question, strings.Join(lines, "\n"), ps.batchSize))
	if err != nil {
		ps.log.Warn("prescreen failed, selecting by rank", zap.Error(err))
		return ps.topByRank(candidates, visible)
	}
	var parsed struct {
		Selected      []string `json:"selected"`
		Deprioritized []string `json:"deprioritized"`
		Dropped       []string `json:"dropped"`
	}
	if !jsonx.Extract(out, &parsed) {
		ps.log.Warn("prescreen unparseable, selecting by rank")
		return ps.topByRank(candidates, visible)
	}

	for _, s := range parsed.Deprioritized {
		if _, ok := candidates[s]; ok {
			pool.Deprioritize(s)
		}
	}
	lowerQ := strings.ToLower(question)
	for _, s := range parsed.Dropped {
		if _, ok := candidates[s]; !ok {
			continue
		}
		// Query-named symbols drop silently; anything else the model
		// calls an artifact is trusted but logged.
		if !strings.Contains(lowerQ, strings.ToLower(s)) {
			ps.log.Info("dropping candidate as artifact", zap.String("symbol", s))
		}
		pool.Drop(s)
	}

	var selected []string
	for _, s := range parsed.Selected {
		if len(selected) >= ps.batchSize {
			break
		}
		if _, ok := candidates[s]; ok {
			selected = append(selected, s)
		}
	}
	return selected
}

// topByRank selects the highest-ranked unvalidated candidates.
func (ps *Prescreener) topByRank(candidates map[string]Candidate, visible []Candidate) []string {
	var out []string
	for _, c := range visible {
		if len(out) >= ps.batchSize {
			break
		}
		if _, ok := candidates[c.Symbol]; ok {
			out = append(out, c.Symbol)
		}
	}
	return out
}

// LookupFunc fetches one annotation field for a symbol.
type LookupFunc func(ctx context.Context, symbol string) (string, error)

// Lookups wires the validation fields to annotation tools.
type Lookups struct {
	GOComponents  LookupFunc
	TargetClasses LookupFunc
	Diseases      LookupFunc
}

// Validator runs annotation lookups over selected symbols.
type Validator struct {
	lookups     Lookups
	concurrency int64
	log         *zap.Logger
}

// NewValidator builds a validator. concurrency <= 0 uses the default.
func NewValidator(lookups Lookups, concurrency int, log *zap.Logger) *Validator {
	if concurrency <= 0 {
		concurrency = defaultValidationConcurrency
	}
	return &Validator{lookups: lookups, concurrency: int64(concurrency), log: log}
}

// Validate annotates the symbols, bounded-concurrent. Each field is
// fetched independently; a failed lookup leaves its field empty and the
// symbol still counts as validated. Dropped symbols are skipped.
func (v *Validator) Validate(ctx context.Context, pool *Pool, symbols []string) {
	sem := semaphore.NewWeighted(v.concurrency)
	var wg sync.WaitGroup

	for _, sym := range symbols {
		c, ok := pool.Get(sym)
		if !ok || c.State == Dropped {
			continue
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(sym string) {
			defer wg.Done()
			defer sem.Release(1)
			pool.MarkValidated(sym, Validation{
				GOComponents:  v.fetch(ctx, sym, "go_components", v.lookups.GOComponents),
				TargetClasses: v.fetch(ctx, sym, "target_classes", v.lookups.TargetClasses),
				Diseases:      v.fetch(ctx, sym, "diseases", v.lookups.Diseases),
			})
		}(sym)
	}
	wg.Wait()
}

func (v *Validator) fetch(ctx context.Context, symbol, field string, fn LookupFunc) string {
	if fn == nil {
		return ""
	}
	out, err := fn(ctx, symbol)
	if err != nil {
		v.log.Warn("validation lookup failed",
			zap.String("symbol", symbol),
			zap.String("field", field),
			zap.Error(err),
		)
		return ""
	}
	return strings.TrimSpace(out)
}
