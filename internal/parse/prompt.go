// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"fmt"
	"strings"
)

const extractionContract = `You extract evidence from raw tool output for biomedical research.

Rules, in priority order:
1. NEVER fabricate. Every "quote" must appear verbatim in the raw output.
2. If the output contains no substantive data (for example it only echoes
   the query back), return {"summary": "", "items": []}. An empty result is
   correct; an invented one is not.
3. Keep items independently citable: each item stands alone with its own
   quote and source fields.

Relevance scoring:
  0.9-1.0  directly answers the research need
  0.7-0.8  strong supporting evidence
  0.5-0.6  related background
  0.3-0.4  tangential
  below 0.3 do not include

Respond with JSON only:
{
  "summary": "one-paragraph synthesis of what this output contributes",
  "items": [
    {
      "title": "source title if present",
      "brief": "one-sentence statement of the finding",
      "quote": "verbatim supporting passage",
      "url": "", "doi": "", "year": "",
      "authors": [],
      "relevance": 0.0,
      "tags": [],
      "full_abstract": "abstract if present, max 3000 chars",
      "key_sentences": ["at most 5"],
      "citation_reason": "why this supports the need, max 500 chars",
      "detailed_findings": "specifics: numbers, conditions, max 2000 chars"
    }
  ]
}`

// buildExtractionPrompt assembles the extraction prompt for one payload.
func buildExtractionPrompt(toolName, need, raw string) string {
	var b strings.Builder
	b.WriteString(extractionContract)
	b.WriteString("\n\n")
	if hint, ok := toolHints[toolName]; ok {
		fmt.Fprintf(&b, "Tool-specific guidance for %s: %s\n\n", toolName, hint)
	}
	if need != "" {
		fmt.Fprintf(&b, "Research need: %s\n\n", need)
	}
	fmt.Fprintf(&b, "Raw output of %s:\n---\n%s\n---", toolName, raw)
	return b.String()
}
