// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package jsonx extracts JSON values from model output. Models wrap JSON in
// code fences, prepend prose, or emit trailing commentary; every caller that
// expects structured output goes through the same fallback chain here
// instead of hand-rolling its own cleanup.
package jsonx

import (
	"encoding/json"
	"strings"
)

// StripFences removes a surrounding markdown code fence, with or without a
// language label. Text without a fence is returned unchanged.
func StripFences(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		// Drop the language label line (```json, ```JSON, or bare ```).
		if first := strings.TrimSpace(s[:i]); !strings.ContainsAny(first, "{[") {
			s = s[i+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// balanced returns the first balanced run of text starting at an open
// delimiter, honoring JSON string escapes. ok is false when no balanced run
// exists.
func balanced(text string, open, closing byte) (string, bool) {
	start := strings.IndexByte(text, open)
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case closing:
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// unmarshalTo parses data into out, tolerating either a concrete decode
// target or a *any.
func unmarshalTo(data string, out any) bool {
	return json.Unmarshal([]byte(data), out) == nil
}

// Extract parses the first JSON object found in text into out. The fallback
// chain is: direct parse, fence-stripped parse, then a balanced-brace scan
// from the first '{'. Returns false when no tier yields valid JSON.
func Extract(text string, out any) bool {
	if unmarshalTo(strings.TrimSpace(text), out) {
		return true
	}
	stripped := StripFences(text)
	if unmarshalTo(stripped, out) {
		return true
	}
	if run, ok := balanced(stripped, '{', '}'); ok && unmarshalTo(run, out) {
		return true
	}
	// The fence may hide the only brace pair.
	if run, ok := balanced(text, '{', '}'); ok && unmarshalTo(run, out) {
		return true
	}
	return false
}

// ExtractList parses the first JSON array found in text into out, with the
// same fallback chain as Extract but scanning for brackets.
func ExtractList(text string, out any) bool {
	if unmarshalTo(strings.TrimSpace(text), out) {
		return true
	}
	stripped := StripFences(text)
	if unmarshalTo(stripped, out) {
		return true
	}
	if run, ok := balanced(stripped, '[', ']'); ok && unmarshalTo(run, out) {
		return true
	}
	if run, ok := balanced(text, '[', ']'); ok && unmarshalTo(run, out) {
		return true
	}
	return false
}

// ExtractStringPairs recovers a legacy bracketed pair list such as
// [["EGFR", "Protein/Gene"], ["erlotinib", "Drug"]] from model output,
// tolerating single quotes and parenthesized tuples. It exists for older
// prompt formats that predate strict JSON output.
func ExtractStringPairs(text string) ([][2]string, bool) {
	rows, ok := ExtractTuples(text)
	if !ok {
		return nil, false
	}
	pairs := make([][2]string, 0, len(rows))
	for _, r := range rows {
		if len(r) < 2 {
			continue
		}
		pairs = append(pairs, [2]string{r[0], r[1]})
	}
	return pairs, len(pairs) > 0
}

// ExtractTuples recovers a legacy bracketed tuple list of any arity,
// returning the rows as string slices.
func ExtractTuples(text string) ([][]string, bool) {
	run, ok := balanced(StripFences(text), '[', ']')
	if !ok {
		return nil, false
	}
	normalized := strings.NewReplacer("(", "[", ")", "]", "'", `"`).Replace(run)
	var raw [][]string
	if !unmarshalTo(normalized, &raw) {
		return nil, false
	}
	rows := raw[:0]
	for _, r := range raw {
		if len(r) > 0 {
			rows = append(rows, r)
		}
	}
	return rows, len(rows) > 0
}
