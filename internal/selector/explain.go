// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package selector

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/meshintel/biosearch-engine/internal/jsonx"
)

const explainPrompt = `In at most 100 words, explain what "%s" is in a biomedical context and what
kinds of data one would look up about it. Plain text only.`

// ExplainItem returns a short model gloss of an entity, used to enrich
// embedding queries. Failure returns the empty string.
func (e *ExpertSelector) ExplainItem(ctx context.Context, item string) string {
	out, err := e.client.Complete(ctx, fmt.Sprintf(explainPrompt, item))
	if err != nil {
		e.log.Warn("item explanation failed", zap.String("item", item), zap.Error(err))
		return ""
	}
	return strings.TrimSpace(out)
}

const batchExplainPrompt = `For each term below, give a one-sentence biomedical gloss (what it is, what
data one would look up about it).

Terms: %s

Respond with JSON only: {"<term>": "<gloss>", ...}`

// BatchExplainItems glosses several entities in one call. Missing or
// failed glosses come back as empty strings.
func (e *ExpertSelector) BatchExplainItems(ctx context.Context, items []string) map[string]string {
	glosses := make(map[string]string, len(items))
	for _, item := range items {
		glosses[item] = ""
	}
	if len(items) == 0 {
		return glosses
	}

	out, err := e.client.Complete(ctx, fmt.Sprintf(batchExplainPrompt, strings.Join(items, "; ")))
	if err != nil {
		e.log.Warn("batch item explanation failed", zap.Error(err))
		return glosses
	}
	var parsed map[string]string
	if !jsonx.Extract(out, &parsed) {
		e.log.Warn("batch item explanation unparseable")
		return glosses
	}
	for item := range glosses {
		if g, ok := parsed[item]; ok {
			glosses[item] = strings.TrimSpace(g)
		}
	}
	return glosses
}
