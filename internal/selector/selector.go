// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package selector

import (
	"context"

	"go.uber.org/zap"

	"github.com/meshintel/biosearch-engine/pkg/types"
)

// Selector combines the general and expert paths behind the guardrail
// filter.
type Selector struct {
	general *GeneralSelector
	expert  *ExpertSelector
	log     *zap.Logger
}

// New builds the combined selector. Either path may be nil.
func New(general *GeneralSelector, expert *ExpertSelector, log *zap.Logger) *Selector {
	return &Selector{general: general, expert: expert, log: log}
}

// Run plans the tool calls for one sub-question: general shortlist plus
// expert pipeline, concatenated, deduplicated by tool and cleaned by the
// guardrails. Never fails; the worst case is an empty plan.
func (s *Selector) Run(ctx context.Context, question, knowledge string) []types.ToolInvocationRequest {
	var planned []types.ToolInvocationRequest
	if s.general != nil {
		planned = append(planned, s.general.Select(ctx, question, knowledge)...)
	}
	if s.expert != nil {
		planned = append(planned, s.expert.Select(ctx, question)...)
	}
	return s.Clean(planned)
}

// RunBatch plans calls for several sub-questions.
func (s *Selector) RunBatch(ctx context.Context, questions []string, knowledge string) map[string][]types.ToolInvocationRequest {
	out := make(map[string][]types.ToolInvocationRequest, len(questions))
	for _, q := range questions {
		out[q] = s.Run(ctx, q, knowledge)
	}
	return out
}

// Clean drops planned calls that fail the guardrails and collapses exact
// duplicates (same tool, same need).
func (s *Selector) Clean(planned []types.ToolInvocationRequest) []types.ToolInvocationRequest {
	seen := make(map[string]struct{}, len(planned))
	var kept []types.ToolInvocationRequest
	for _, req := range planned {
		if !keepRequest(req.Tool, req.ToolInput) {
			s.log.Debug("guardrail dropped planned call",
				zap.String("tool", req.Tool),
				zap.String("item", req.Item),
			)
			continue
		}
		key := req.Tool + "\x00" + req.Item
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, req)
	}
	return kept
}
