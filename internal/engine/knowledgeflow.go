// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/meshintel/biosearch-engine/internal/jsonx"
	"github.com/meshintel/biosearch-engine/internal/llm"
)

// knowledgeChunk is one iteration's consolidated key information, kept so
// multi-round consolidation can re-synthesize across iterations.
type knowledgeChunk struct {
	Questions []string
	KeyInfo   string
}

// CleanedRef is one reference surviving the extraction pass.
type CleanedRef struct {
	URL         string `json:"url"`
	Description string `json:"description"`
	APACitation string `json:"apa_citation"`
}

type extractKnowledgeResponse struct {
	KeyInformation string       `json:"key_information"`
	CleanedRefs    []CleanedRef `json:"cleaned_refs"`
}

var urlPlaceholderRE = regexp.MustCompile(`<(https?://[^>]+)>`)

const extractKnowledgePrompt = `You are an expert research assistant.

### Task
1. Read the candidate facts and candidate references below.
2. Remove URLs that are broken, obviously unrelated to the query, or duplicates carrying the same information. Keep URLs that are useful for the current query, but do not invent any and never repeat.
3. For every remaining URL, refine (or keep) its description so it is concise and copied verbatim from the source title or metadata. If the link is a scholarly article (DOI / PubMed / arXiv / journal), also fill an APA-style citation in "apa_citation"; otherwise leave it empty.
4. Produce a Key Information markdown block that integrates the facts and cites sources only via the raw URL string wrapped in angle brackets like <https://example.com/...> (a placeholder the system replaces). Facts without a URL are included normally.
5. Output JSON with two keys only: "key_information" and "cleaned_refs".

### Existing reference pool (keep these, don't modify)
` + "```json\n%s\n```" + `

### Candidate facts (markdown)
` + "```\n%s\n```" + `

### Candidate references (raw)
` + "```json\n%s\n```" + `

### Output JSON example
` + "```json" + `
{
  "key_information": "- **Point 1** ... (<https://doi.org/...>)\n- **Point 2** ...",
  "cleaned_refs": [
    {"url": "https://doi.org/...", "description": "Paper title ...", "apa_citation": "Author A. (2024) ..."}
  ]
}
` + "```" + `

Strictly follow the schema; do not add other keys.`

// ExtractKnowledge asks the model to distill a round's facts into key
// information with <URL> citation placeholders, returning the cleaned
// reference list alongside. Placeholders are unwrapped to bare URLs so
// the caller can swap them for pool indices.
func (e *Engine) ExtractKnowledge(ctx context.Context, existingPoolJSON, factsMD string, refs []CleanedRef) (string, []CleanedRef, error) {
	refsJSON, _ := json.Marshal(refs)
	prompt := fmt.Sprintf(extractKnowledgePrompt, existingPoolJSON, factsMD, refsJSON)

	resp, err := llm.InvokeWithRetry(ctx, e.c.Roles.Reasoning, prompt, 60*time.Second, 3)
	if err != nil {
		return "", nil, fmt.Errorf("extract knowledge: %w", err)
	}

	var out extractKnowledgeResponse
	if !jsonx.Extract(resp, &out) {
		return "", nil, fmt.Errorf("extract knowledge: no JSON in model output")
	}
	keyInfo := urlPlaceholderRE.ReplaceAllString(out.KeyInformation, "$1")
	return strings.TrimSpace(keyInfo), out.CleanedRefs, nil
}

// distill runs the legacy key-information pass over the facts harvested
// this iteration: the model integrates them into a cited markdown block,
// cleaned references enter the pool, and URL placeholders become pool
// indices. Failures degrade to skipping the pass.
func (e *Engine) distill(ctx context.Context, r *run, iteration int, questions []string) {
	facts := r.roundFacts
	refs := dedupeRefs(r.roundRefs)
	r.roundFacts, r.roundRefs = nil, nil
	if len(facts) == 0 && len(refs) == 0 {
		return
	}

	factsMD := "*No explicit facts extracted.*"
	if len(facts) > 0 {
		var b strings.Builder
		for _, f := range facts {
			fmt.Fprintf(&b, "- **Fact**: %s\n", f)
		}
		factsMD = b.String()
	}

	keyInfo, cleaned, err := e.ExtractKnowledge(ctx, r.refs.PromptJSON(), factsMD, refs)
	if err != nil {
		e.log.Warn("knowledge distillation failed, keeping per-result summaries only",
			zap.Error(err))
		r.trace.Error("distill", err)
		return
	}

	for _, ref := range cleaned {
		if ref.URL == "" || !strings.HasPrefix(ref.URL, "http") {
			continue
		}
		title := ref.Description
		if title == "" {
			title = ref.APACitation
		}
		idx := r.refs.Add(title, ref.APACitation, ref.URL)
		if idx > 0 {
			keyInfo = strings.ReplaceAll(keyInfo, ref.URL, fmt.Sprintf("[^^%d]", idx))
		}
	}
	if keyInfo != "" {
		r.rctx.AddKnowledge(keyInfo, 1, iteration)
		r.trace.Knowledge(1, keyInfo)
	}
	r.chunks = append(r.chunks, knowledgeChunk{Questions: questions, KeyInfo: keyInfo})
}

func dedupeRefs(refs []CleanedRef) []CleanedRef {
	seen := make(map[string]struct{}, len(refs))
	out := make([]CleanedRef, 0, len(refs))
	for _, r := range refs {
		if r.URL == "" || !strings.HasPrefix(r.URL, "http") {
			continue
		}
		if _, ok := seen[r.URL]; ok {
			continue
		}
		seen[r.URL] = struct{}{}
		out = append(out, r)
	}
	return out
}

const consolidatePrompt = `You are assisting in organizing multi-round research findings for the main question: %q.

Instructions:
- Consolidate the following markdown facts into a clean, concise format.
- DO NOT add new information or modify the meaning.
- DO NOT remove or reformat <URL> references; they are placeholders for citations.
- Avoid repeating similar facts or elaborating unnecessarily.
- Use natural Markdown formatting (paragraphs or bullet points).
- Try to keep the result under 2000 words.

### Findings:
%s`

// ConsolidateChunks merges every recorded chunk's key information into one
// consolidated block. A model output that lost the <URL> placeholders is
// rejected in favor of the raw concatenation.
func (e *Engine) ConsolidateChunks(ctx context.Context, query string, chunks []knowledgeChunk, currentKeyInfo string) string {
	if len(chunks) == 0 {
		return strings.TrimSpace(currentKeyInfo)
	}

	var lines []string
	for _, c := range chunks {
		if info := strings.TrimSpace(c.KeyInfo); info != "" {
			lines = append(lines, info)
		}
	}
	raw := strings.Join(lines, "\n\n")

	client := e.c.Roles.Fast
	if client == nil {
		client = e.c.Roles.Reasoning
	}
	resp, err := llm.InvokeWithRetry(ctx, client, fmt.Sprintf(consolidatePrompt, query, raw), 60*time.Second, 2)
	if err != nil {
		e.log.Warn("chunk consolidation failed, keeping raw findings")
		return raw
	}
	consolidated := strings.TrimSpace(resp)
	if !strings.Contains(consolidated, "<") || !strings.Contains(consolidated, ">") {
		e.log.Warn("consolidated output lost URL placeholders, keeping raw findings")
		return raw
	}
	return consolidated
}
