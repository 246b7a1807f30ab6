// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/meshintel/biosearch-engine/internal/candidates"
	"github.com/meshintel/biosearch-engine/internal/registry"
	"github.com/meshintel/biosearch-engine/pkg/types"
)

// harvestTools are the tool families whose raw text is scanned for
// candidate symbols. Structured annotation tools are excluded; their
// output is consumed through the parser instead.
var harvestTools = map[string]struct{}{
	"tavily_search": {},
	"paper_search":  {},
	"pubmed_search": {},
	"read_url":      {},
	"doi2text":      {},
}

// initDiscovery builds the per-run candidate machinery.
func (e *Engine) initDiscovery(r *run) {
	cfg := e.cfg.Candidates
	fast := e.c.Roles.Fast
	if fast == nil {
		fast = e.c.Roles.Reasoning
	}

	r.pool = candidates.NewPool()
	r.cleaner = candidates.NewCleaner(fast, cfg.PoolMax, e.log)
	r.expander = candidates.NewExpander(fast, cfg.PoolMax, cfg.ProfileMinPool, e.log)
	r.prescreener = candidates.NewPrescreener(e.c.Roles.Reasoning, cfg.ValidationBatchSize, e.log)
	r.validator = candidates.NewValidator(e.annotationLookups(), cfg.ValidationConcurrency, e.log)
}

// annotationLookups wires candidate validation to annotation tools when
// they are registered; missing tools leave the field blank.
func (e *Engine) annotationLookups() candidates.Lookups {
	return candidates.Lookups{
		GOComponents:  e.lookupVia("get_target_gene_ontology_by_name"),
		TargetClasses: e.lookupVia("get_target_classes_by_name"),
		Diseases:      e.lookupVia("get_associated_diseases_phenotypes_by_target_name"),
	}
}

func (e *Engine) lookupVia(tool string) candidates.LookupFunc {
	t, ok := e.c.Registry.Get(tool)
	if !ok {
		return nil
	}
	return func(ctx context.Context, symbol string) (string, error) {
		raw, err := t.Invoke(ctx, map[string]any{"name": symbol})
		if err != nil {
			return "", fmt.Errorf("%s(%s): %w", tool, symbol, err)
		}
		return registry.Normalize(raw), nil
	}
}

// harvest feeds the current batch's raw search text into the pool.
func (e *Engine) harvest(r *run, iteration int, results []types.ToolCallResult) {
	if r.pool == nil {
		return
	}
	for i := range results {
		res := &results[i]
		if !res.Success {
			continue
		}
		if _, ok := harvestTools[res.ToolName]; !ok {
			continue
		}
		added := r.pool.Harvest(iteration, res.ToolName, res.Content)
		if added > 0 {
			e.log.Debug("harvested candidates",
				zap.String("tool", res.ToolName), zap.Int("added", added))
		}
	}
}

// discover runs the per-iteration candidate maintenance pass: model
// cleanup, hard filtering, divergence, profiling, prescreening, and
// validation. The pool snapshot lands in accumulated knowledge at
// priority 1 so it survives compression.
func (e *Engine) discover(ctx context.Context, r *run, iteration int) {
	if r.pool == nil || r.pool.Len() == 0 {
		return
	}

	removed := r.cleaner.Clean(ctx, r.pool)
	removed += candidates.HardFilter(r.pool)
	if removed > 0 {
		e.log.Info("candidate cleanup", zap.Int("removed", removed))
	}

	if injected := r.expander.Diverge(ctx, r.pool, iteration); len(injected) > 0 {
		r.trace.Phase("Candidate Expansion", strings.Join(injected, ", "))
	}
	if profile := r.expander.Profile(ctx, r.pool, iteration); profile != "" {
		r.rctx.AddKnowledge("Candidate pool profile: "+profile, 1, iteration)
		r.trace.Knowledge(1, "Candidate pool profile: "+profile)
	}

	selected := r.prescreener.Prescreen(ctx, r.pool, r.query)
	if len(selected) > 0 {
		r.validator.Validate(ctx, r.pool, selected)
	}

	snapshot := r.pool.Summary(e.cfg.Candidates.ValidationBatchSize * 2)
	r.rctx.AddKnowledge(snapshot, 1, iteration)
	r.trace.Phase("Candidate Discovery", snapshot)
}
