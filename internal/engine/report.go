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

const reportBody = `## Task
Generate a professional research report suitable for academic or clinical publication. The report should be comprehensive, well-structured, and scientifically rigorous.

### Strict Citation Rules
1. In the narrative, cite sources only as [^^n], where n equals "idx" in the citation pool.
2. Do NOT invent new URLs or citations.
3. Every [^^n] used must appear in the final References list.
4. If an entry's "apa" field is non-empty, write: [^^n] apa <url>; else write: [^^n] <url>.

IMPORTANT REQUIREMENTS:
1. The report must be 2000-3000 words in length.
2. Write in a scholarly, narrative style similar to academic publications.
3. Provide in-depth analysis and synthesis of the research findings.
4. Include specific details, mechanisms, clinical implications, and evidence.

Your response MUST follow this exact format in markdown:

## Key Findings
200-300 word paragraph directly and fully answering all parts of the query with specificity, in concise language, with important statements supported by references.

## Ideas
Paragraph suggesting potential research directions based on the findings. Active reasoning and inference are allowed here, but do not invent new references or URLs.

## Detailed Analysis
Main body: 1000-2000 words organized into logical sections you determine. Include comprehensive analysis, specific evidence, methodologies, and limitations where relevant.

## Conclusion
200-300 words summarizing the evidence, practical implications, data quality, and next-step recommendations.

## References
A list of relevant references, each on a new line:
[^^1] academic format citation (or only the URL) <https://example.com/source1>
[^^2] academic format citation (or only the URL) <https://example.com/source2>`

// generateDetailedReport is the one long-form call at the end of a
// report-mode run. Citations come strictly from the reference pool.
// Errors propagate after retries.
func (e *Engine) generateDetailedReport(ctx context.Context, r *run, iteration int) (string, error) {
	var b strings.Builder
	b.WriteString("You are a senior biomedical research analyst. Write a professional report that synthesises all evidence.\n\n")
	b.WriteString("### Research Context\n")
	fmt.Fprintf(&b, "* Original Query: %s\n* Iterations Completed: %d\n\n", r.query, iteration)
	knowledgeBase := r.rctx.Knowledge()
	if len(r.chunks) > 0 {
		if consolidated := e.ConsolidateChunks(ctx, r.query, r.chunks, knowledgeBase); consolidated != "" {
			knowledgeBase = consolidated
		}
	}
	fmt.Fprintf(&b, "### Knowledge Base\n%s\n\n", knowledgeBase)
	fmt.Fprintf(&b, "### Citation Pool (MUST cite only these!)\n```json\n%s\n```\n\n", r.refs.PromptJSON())
	if e.cfg.ReportMode && r.pool != nil && r.pool.Len() > 0 {
		fmt.Fprintf(&b, "### Validated Candidate Summary\n%s\n\n", r.pool.Summary(40))
	}
	b.WriteString(reportBody)

	client := e.c.Roles.Report
	if client == nil {
		client = e.c.Roles.Reasoning
	}
	resp, err := llm.InvokeWithRetry(ctx, client, b.String(), 180*time.Second, 3)
	if err != nil {
		return "", fmt.Errorf("report call: %w", err)
	}
	return AddHardBreaksToReferences(resp), nil
}

var keyFindingsRE = regexp.MustCompile(`(?si)## Key Findings\s+(.*?)(?:\n##\s+Detailed Analysis|\n##\s+Conclusion|\z)`)

// ExtractReportSections pulls the Key Findings summary out of a report
// while returning the full document unchanged.
func ExtractReportSections(report string) (summary, detailed string) {
	if m := keyFindingsRE.FindStringSubmatch(report); m != nil {
		summary = m[1]
	}
	return summary, report
}
