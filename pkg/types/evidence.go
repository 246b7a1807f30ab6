// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
)

// Field caps applied when evidence is constructed. Oversized fields are
// truncated, never rejected.
const (
	// MaxEvidenceItems caps the number of items retained from a single
	// tool result.
	MaxEvidenceItems = 40

	MaxQuoteLen          = 6000
	MaxFullAbstractLen   = 3000
	MaxKeySentences      = 5
	MaxCitationReasonLen = 500
	MaxDetailedFindings  = 2000
)

// BasicEvidence is one mechanically-extracted item from a tool payload,
// produced without any model involvement.
type BasicEvidence struct {
	Source  string `json:"source"`
	Content string `json:"content"`
}

// BasicToolResult is the mechanical extraction of a whole tool payload.
type BasicToolResult struct {
	ToolName string          `json:"tool_name"`
	Evidence []BasicEvidence `json:"evidence"`
}

// EvidenceEntry is one model-extracted, citation-ready finding. Quote must
// be verbatim from the raw payload; empty entries are preferred over
// fabricated ones.
type EvidenceEntry struct {
	EvidenceID       string   `json:"evidence_id"`
	Title            string   `json:"title,omitempty"`
	Brief            string   `json:"brief"`
	Quote            string   `json:"quote"`
	URL              string   `json:"url,omitempty"`
	DOI              string   `json:"doi,omitempty"`
	Year             string   `json:"year,omitempty"`
	Authors          []string `json:"authors,omitempty"`
	Relevance        float64  `json:"relevance,omitempty"`
	Tags             []string `json:"tags,omitempty"`
	FullAbstract     string   `json:"full_abstract,omitempty"`
	KeySentences     []string `json:"key_sentences,omitempty"`
	CitationReason   string   `json:"citation_reason,omitempty"`
	DetailedFindings string   `json:"detailed_findings,omitempty"`
	Tool             string   `json:"tool,omitempty"`
}

// ParsedToolResult bundles the model-extracted evidence for one tool call.
type ParsedToolResult struct {
	Tool    string          `json:"tool"`
	Summary string          `json:"summary"`
	Items   []EvidenceEntry `json:"items"`
}

// EvidenceHash returns the deterministic digest of an evidence item's
// identity fields. Re-parsing the same payload yields the same hash.
func EvidenceHash(quote, url, title string) string {
	sum := md5.Sum([]byte(quote + "|" + url + "|" + title))
	return hex.EncodeToString(sum[:])
}

// EvidenceID builds the stable identifier for an item discovered in the
// given round: the round index plus the tail of the identity hash.
func EvidenceID(round int, quote, url, title string) string {
	h := EvidenceHash(quote, url, title)
	return fmt.Sprintf("%d-%s", round, h[len(h)-6:])
}

// Truncate returns s cut to at most n bytes. Evidence fields are truncated
// rather than rejected when a model overruns a cap.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// Clamp applies all field caps to the entry in place.
func (e *EvidenceEntry) Clamp() {
	e.Quote = Truncate(e.Quote, MaxQuoteLen)
	e.FullAbstract = Truncate(e.FullAbstract, MaxFullAbstractLen)
	e.CitationReason = Truncate(e.CitationReason, MaxCitationReasonLen)
	e.DetailedFindings = Truncate(e.DetailedFindings, MaxDetailedFindings)
	if len(e.KeySentences) > MaxKeySentences {
		e.KeySentences = e.KeySentences[:MaxKeySentences]
	}
}
