// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package candidates

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/meshintel/biosearch-engine/internal/jsonx"
	"github.com/meshintel/biosearch-engine/internal/llm"
)

const defaultPoolMax = 250

const cleanPrompt = `The list below was harvested from biomedical search output by a regex and
contains noise: abbreviations, assay terms, file formats, fragments of
identifiers. List the entries that are clearly NOT gene, protein or other
molecular entity symbols.

Only name entries from the list. Do not invent entries. When unsure, keep.

List: %s

Respond with JSON only: {"remove": ["ENTRY", ...]}`

// Cleaner runs the model-assisted and rule-based cleanup passes.
type Cleaner struct {
	client  llm.Client
	poolMax int
	log     *zap.Logger
}

// NewCleaner builds a cleaner. poolMax <= 0 uses the default cap.
func NewCleaner(client llm.Client, poolMax int, log *zap.Logger) *Cleaner {
	if poolMax <= 0 {
		poolMax = defaultPoolMax
	}
	return &Cleaner{client: client, poolMax: poolMax, log: log}
}

// Clean asks the model which harvested symbols are obvious noise and
// removes them. The pass is remove-only: entries the model names that are
// not in the pool are ignored, and an unusable verdict removes nothing.
// At most poolMax symbols are shown, highest-ranked first.
func (cl *Cleaner) Clean(ctx context.Context, p *Pool) int {
	ranked := p.Ranked()
	if len(ranked) == 0 {
		return 0
	}
	if len(ranked) > cl.poolMax {
		ranked = ranked[:cl.poolMax]
	}
	names := make([]string, len(ranked))
	for i, c := range ranked {
		names[i] = c.Symbol
	}

	out, err := cl.client.Complete(ctx, fmt.Sprintf(cleanPrompt, strings.Join(names, ", ")))
	if err != nil {
		cl.log.Warn("candidate cleanup failed, removing nothing", zap.Error(err))
		return 0
	}
	var parsed struct {
		Remove []string `json:"remove"`
	}
	if !jsonx.Extract(out, &parsed) {
		cl.log.Warn("candidate cleanup unparseable, removing nothing")
		return 0
	}

	inPool := make(map[string]struct{}, len(names))
	for _, n := range names {
		inPool[n] = struct{}{}
	}
	var toRemove []string
	for _, s := range parsed.Remove {
		s = strings.ToUpper(strings.TrimSpace(s))
		if _, ok := inPool[s]; ok {
			toRemove = append(toRemove, s)
		}
	}
	return p.remove(toRemove)
}

// ambiguousBare lists short symbols that collide with common biomedical
// abbreviations and are useless without context.
var ambiguousBare = map[string]struct{}{
	"ER": {}, "PR": {}, "CR": {}, "OS": {}, "PFS": {}, "HR": {},
	"WT": {}, "KO": {}, "SD": {}, "SEM": {}, "NS": {},
}

// shortAllowlist lists two-character symbols that really are genes.
var shortAllowlist = map[string]struct{}{
	"AR": {}, "MB": {}, "F2": {}, "F5": {}, "C3": {}, "C5": {},
}

// familyPrefixRE matches a gene family prefix that lacks its member
// number, such as AKR1C: letters, digits, then a trailing letter with no
// final digit.
var familyPrefixRE = regexp.MustCompile(`^[A-Z]{2,}[0-9]+[A-Z]$`)

// HardFilter removes symbols no model pass should have to reason about:
// ambiguous bare abbreviations, too-short symbols outside the allowlist,
// and bare family prefixes.
func HardFilter(p *Pool) int {
	var toRemove []string
	for _, c := range p.Ranked() {
		sym := c.Symbol
		if _, bad := ambiguousBare[sym]; bad {
			toRemove = append(toRemove, sym)
			continue
		}
		if len(sym) <= 2 {
			if _, ok := shortAllowlist[sym]; !ok {
				toRemove = append(toRemove, sym)
			}
			continue
		}
		if familyPrefixRE.MatchString(sym) {
			toRemove = append(toRemove, sym)
		}
	}
	return p.remove(toRemove)
}
