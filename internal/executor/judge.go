// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package executor

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/meshintel/biosearch-engine/internal/jsonx"
	"github.com/meshintel/biosearch-engine/internal/llm"
)

// judgeSnippetLen is how much of the payload the judgment model sees. The
// head of a payload is enough to spot error pages and empty responses.
const judgeSnippetLen = 500

const judgePrompt = `You are checking whether a tool call returned meaningful data.

Tool: %s
Output (first %d characters):
---
%s
---

The output is NOT meaningful if it is an error message, mentions "error",
"404", "400", or "No data found", is empty, or only echoes the query back
without data.

Respond with JSON only: {"success": true} or {"success": false}`

// LLMJudge decides payload meaningfulness with a fast model. Unparseable
// verdicts count as failure: treating garbage as success would feed noise
// into evidence extraction.
type LLMJudge struct {
	client llm.Client
	log    *zap.Logger
}

// NewLLMJudge builds a judge over the given client.
func NewLLMJudge(client llm.Client, log *zap.Logger) *LLMJudge {
	return &LLMJudge{client: client, log: log}
}

// Meaningful implements SuccessPredicate.
func (j *LLMJudge) Meaningful(ctx context.Context, toolName, content string) bool {
	if content == "" {
		return false
	}
	snippet := content
	if len(snippet) > judgeSnippetLen {
		snippet = snippet[:judgeSnippetLen]
	}

	out, err := j.client.Complete(ctx, fmt.Sprintf(judgePrompt, toolName, judgeSnippetLen, snippet))
	if err != nil {
		j.log.Warn("success judgment failed", zap.String("tool", toolName), zap.Error(err))
		return false
	}

	var verdict struct {
		Success bool `json:"success"`
	}
	if !jsonx.Extract(out, &verdict) {
		j.log.Warn("success judgment unparseable", zap.String("tool", toolName))
		return false
	}
	return verdict.Success
}
