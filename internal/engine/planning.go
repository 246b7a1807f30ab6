// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/meshintel/biosearch-engine/internal/jsonx"
	"github.com/meshintel/biosearch-engine/internal/llm"
)

const planningTries = 3

// planResponse is the structured planning output.
type planResponse struct {
	Thoughts   string   `json:"thoughts"`
	Strategy   []string `json:"strategy"`
	SubQueries []string `json:"sub_queries"`
}

const planningGuidelines = `## Guidelines
1. Identify key information gaps in current knowledge.
2. Formulate each sub-query as a clear, open-ended question that avoids bias, assumptions, or leading language.
3. Include only sub-queries that are essential and directly relevant to addressing the main query.
4. Break down complex concepts or relationships into distinct, independently answerable questions.
5. Keep sub-queries concise, specific, and straightforward (e.g. "What is X?" or "How does X relate to Y?").
6. Avoid repeating past searches.`

const planningOutputFormat = `## Output Format
You must provide your response in the following structured JSON format:
{
    "thoughts": "Brief analysis of the problem and what needs investigation",
    "strategy": ["1", "2", "3"],
    "sub_queries": ["Search_Query_1", "Search_Query_2", "Search_Query_3"]
}

## Important Notes
- Use terminology CONSISTENT with the main query, preserving specialized terms without arbitrary modifications.
- Each query should target different aspects of the research question.
- Queries should be specific and actionable.`

const reportModeConstraints = `## Additional Constraints
- Every sub-query must be fully self-contained and executable without reference to the other sub-queries.
- At least 2 of the sub-queries must explicitly demand a machine-extractable list or table of candidate identifiers as the answer.`

// plan asks the planning model for the iteration's sub-questions. It
// retries the whole call up to 3 times, falls back from JSON to a legacy
// list parse, and degrades to an empty list when everything fails.
func (e *Engine) plan(ctx context.Context, r *run, iteration int) []string {
	prompt := e.buildPlanningPrompt(ctx, r, iteration)

	for attempt := 0; attempt < planningTries; attempt++ {
		resp, err := llm.InvokeWithRetry(ctx, e.c.Roles.Reasoning, prompt, 90*time.Second, 2)
		if err != nil {
			e.log.Warn("planning call failed",
				zap.Int("attempt", attempt+1), zap.Error(err))
			r.trace.Error("planning", err)
			continue
		}

		var plan planResponse
		if jsonx.Extract(resp, &plan) && len(plan.SubQueries) > 0 {
			if r.templateKey != "" {
				r.trace.SetTemplate(r.templateKey)
			}
			return capQuestions(plan.SubQueries, e.questionsPerIteration())
		}

		// Legacy free-text fallback: a bare JSON list, or a list of
		// (index, tool, query) tuples with the query last.
		var list []string
		if jsonx.ExtractList(resp, &list) && len(list) > 0 {
			return capQuestions(list, e.questionsPerIteration())
		}
		if rows, ok := jsonx.ExtractTuples(resp); ok && len(rows) > 0 {
			questions := make([]string, 0, len(rows))
			for _, row := range rows {
				questions = append(questions, row[len(row)-1])
			}
			return capQuestions(questions, e.questionsPerIteration())
		}

		e.log.Warn("planning output unparseable", zap.Int("attempt", attempt+1))
	}

	e.log.Error("planning failed after all retries, continuing with empty question list")
	return nil
}

func (e *Engine) questionsPerIteration() int {
	if e.cfg.QuestionsPerIteration > 0 {
		return e.cfg.QuestionsPerIteration
	}
	return 5
}

func capQuestions(questions []string, n int) []string {
	out := make([]string, 0, n)
	for _, q := range questions {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		out = append(out, q)
		if len(out) == n {
			break
		}
	}
	return out
}

func (e *Engine) buildPlanningPrompt(ctx context.Context, r *run, iteration int) string {
	templateText := "No template available for this query."
	if e.c.Templates != nil {
		if t, ok := e.c.Templates.Retrieve(ctx, r.query); ok {
			templateText = t.Body
			r.templateKey = t.Key
		}
	}

	var b strings.Builder
	b.WriteString("# Intelligent Search Assistant\n\n## Context\n")
	fmt.Fprintf(&b, "- Main query: %q\n- Current date: %s\n", r.query, time.Now().Format("2006-01-02"))
	if iteration == 0 {
		b.WriteString("- This is the first search iteration\n\n")
		fmt.Fprintf(&b, "## Your Task\nSelect exactly %d search directions and create effective search queries to gather information for answering the main query.\n\n",
			e.questionsPerIteration())
	} else {
		fmt.Fprintf(&b, "- Already searched %d iterations\n\n", iteration)
		b.WriteString("## Current Status\n")
		fmt.Fprintf(&b, "- Past questions: %s\n", formatPastQuestions(r.questions))
		fmt.Fprintf(&b, "- Gathered knowledge: %s\n\n", r.rctx.Knowledge())
		fmt.Fprintf(&b, "## Your Task\nAnalyze what's missing to fully answer the main query. Generate exactly %d new search queries targeting different aspects.\n\n",
			e.questionsPerIteration())
	}
	fmt.Fprintf(&b, "## Reference Example\nThe following is a detailed example of how to decompose a similar research query into multiple search objectives. It is an example only; do not copy tool names or wording into your sub-queries.\n%s\n\n",
		templateText)
	b.WriteString(planningGuidelines)
	b.WriteString("\n\n")
	if e.cfg.ReportMode {
		b.WriteString(reportModeConstraints)
		b.WriteString("\n\n")
	}
	b.WriteString(planningOutputFormat)
	return b.String()
}

func formatPastQuestions(questions map[int][]string) string {
	if len(questions) == 0 {
		return "(none)"
	}
	var b strings.Builder
	for i := 0; i < len(questions); i++ {
		for _, q := range questions[i] {
			fmt.Fprintf(&b, "[iter %d] %s; ", i, q)
		}
	}
	return strings.TrimSuffix(b.String(), "; ")
}
