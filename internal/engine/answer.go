// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/meshintel/biosearch-engine/internal/llm"
)

const citationRules = `### Strict Citation Rules
* Use numbered square-bracket citations based on the index in Available SOURCES (e.g. [^^1], [^^2], ...).
* Do not fabricate, skip, or renumber citations arbitrarily.
* Each number must consistently refer to the same URL or source throughout the document.
* Never invent new references or URLs.
* If a source lacks a formal citation title or description, use the URL as a clickable markdown link.`

const finalAnswerTemplate = `### Instructions

You are tasked with generating a precise, well-reasoned, and evidence-aligned final answer to the query above.

- Focus only on information that is directly relevant, scientifically sound, and consistent.
- If the provided sources include irrelevant, weakly related, or clearly flawed data, disregard them in your reasoning.
- Do not invent new references or URLs; cite sources only using the [^^n] format.
- If certain key facts are not explicitly stated in the sources, you may rely on logical inference, background knowledge, and cautious reasoning to form a credible answer.
- When evidence is incomplete or ambiguous, prioritize plausibility and choose the most reasonable and justifiable conclusion.

### Output Markdown Template

## Conclusion

Provide a clear, concise, and fully supported response to the query. In the face of conflicting or insufficient data, select the explanation best supported by reasoning and contextual clues.

## Thoughts

Briefly describe your reasoning process: how you assessed evidence quality, which sources you relied on or discarded and why, and where you deduced rather than cited.

## Key Findings

A short summary (100-150 words) of the most important mechanistic or conceptual insight, written in a formal tone using markdown.

## References

List all relevant references, each on a new line:
[^^1] APA-style citation or description <https://example.com/source1>
[^^2] APA-style citation or description <https://example.com/source2>`

const reflectionTemplate = `### Instructions
1. Critically reflect on progress and propose a strategy for the next round.
2. When you mention evidence, cite with existing [^^n] numbers only.

### Output Markdown Template
Your response MUST follow this exact format in markdown:

## Thoughts
Analyze: what has been discovered so far, what gaps or limitations exist in current knowledge, what aspects of the original query remain unanswered, and how to improve research quality and coverage.

## Strategy
Provide numbered strategy points for the next research iteration. Each point should be a self-contained strategy, 2-3 sentences long, combining direction and rationale:
1. Specific research direction with reasoning
2. Another research direction with reasoning

## References
A list of references relevant to the query, each on a new line:
[^^1] academic format citation (or only the URL) <https://example.com/source1>
[^^2] academic format citation (or only the URL) <https://example.com/source2>`

// answerQuery is the per-iteration critic. Before the last iteration it
// produces a reflection steering the next round; on the last iteration it
// produces the final cited answer. Errors propagate after retries.
func (e *Engine) answerQuery(ctx context.Context, r *run, iteration int) (string, error) {
	isFinal := iteration >= e.cfg.MaxIterations

	refsBlock := r.refs.FormatMarkdown()
	if refsBlock == "" {
		refsBlock = "*None yet*"
	}

	var b strings.Builder
	b.WriteString("You are an expert research assistant.\n\n")
	if isFinal {
		fmt.Fprintf(&b, "## Original Query ##\n%s\n\n", r.query)
		fmt.Fprintf(&b, "## Accumulated Knowledge ##\n%s\n\n", r.rctx.Knowledge())
		fmt.Fprintf(&b, "## Available SOURCES ##\n%s\n\n", refsBlock)
		b.WriteString(finalAnswerTemplate)
	} else {
		fmt.Fprintf(&b, "## Query ##\n%s\n\n", r.query)
		fmt.Fprintf(&b, "## Current Iteration ##\n%d / %d\n\n", iteration, e.cfg.MaxIterations)
		fmt.Fprintf(&b, "## Knowledge So Far ##\n%s\n\n", r.rctx.Knowledge())
		fmt.Fprintf(&b, "## Available SOURCES ##\n%s\n\n", refsBlock)
		b.WriteString(reflectionTemplate)
	}
	b.WriteString("\n\n")
	b.WriteString(citationRules)

	resp, err := llm.InvokeWithRetry(ctx, e.c.Roles.Reasoning, b.String(), 100*time.Second, 3)
	if err != nil {
		return "", fmt.Errorf("critic call: %w", err)
	}
	return AddHardBreaksToReferences(resp), nil
}

var (
	referencesBlockRE = regexp.MustCompile(`(?si)(##\s*References\s*\n)(.*?)(\n##\s|\z)`)
	referenceLineRE   = regexp.MustCompile(`^\s*\[\^\^\d+\]`)
)

// AddHardBreaksToReferences doubles the line break after each [^^n]
// reference line so markdown renderers keep one reference per line.
func AddHardBreaksToReferences(doc string) string {
	m := referencesBlockRE.FindStringSubmatchIndex(doc)
	if m == nil {
		return doc
	}
	header := doc[m[2]:m[3]]
	block := doc[m[4]:m[5]]
	tail := doc[m[6]:m[7]]

	lines := strings.Split(block, "\n")
	for i, line := range lines {
		if referenceLineRE.MatchString(line) {
			lines[i] = strings.TrimRight(line, " \t") + "\n"
		}
	}
	return doc[:m[0]] + header + strings.Join(lines, "\n") + tail + doc[m[1]:]
}
