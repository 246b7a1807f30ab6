// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package parse turns raw tool payloads into evidence: a mechanical pass
// that needs no model, and a model-driven agent that extracts structured,
// citation-ready items under a strict no-fabrication contract.
package parse

import (
	"encoding/json"
	"fmt"

	"github.com/meshintel/biosearch-engine/pkg/types"
)

// textFields are probed in order when reducing an object to its text
// payload.
var textFields = []string{"summary", "content", "text", "raw_content", "description", "full_abstract"}

// ParseBasic mechanically extracts evidence from a JSON tool payload.
// Objects reduce to their first non-empty text-like field, lists cap at
// MaxEvidenceItems, scalars stringify. Non-JSON content is an error; the
// caller treats that as "no basic evidence", never as run failure.
func ParseBasic(result types.ToolCallResult) (*types.BasicToolResult, error) {
	var data any
	if err := json.Unmarshal([]byte(result.Content), &data); err != nil {
		return nil, fmt.Errorf("payload of %s is not JSON: %w", result.ToolName, err)
	}

	// paper_search wraps its list in an envelope.
	if result.ToolName == "paper_search" {
		if obj, ok := data.(map[string]any); ok {
			if papers, ok := obj["papers"]; ok {
				data = papers
			}
		}
	}

	out := &types.BasicToolResult{ToolName: result.ToolName}
	switch v := data.(type) {
	case map[string]any:
		out.Evidence = append(out.Evidence, types.BasicEvidence{
			Source:  result.ToolName,
			Content: objectText(v),
		})
	case []any:
		for _, item := range v {
			if len(out.Evidence) >= types.MaxEvidenceItems {
				break
			}
			content := ""
			if obj, ok := item.(map[string]any); ok {
				content = objectText(obj)
			} else {
				content = fmt.Sprint(item)
			}
			out.Evidence = append(out.Evidence, types.BasicEvidence{
				Source:  result.ToolName,
				Content: content,
			})
		}
	default:
		out.Evidence = append(out.Evidence, types.BasicEvidence{
			Source:  result.ToolName,
			Content: fmt.Sprint(v),
		})
	}
	return out, nil
}

// objectText returns the first non-empty text-like field of an object, or
// the serialized object when none is present.
func objectText(obj map[string]any) string {
	for _, field := range textFields {
		if s, ok := obj[field].(string); ok && s != "" {
			return s
		}
	}
	data, err := json.Marshal(obj)
	if err != nil {
		return fmt.Sprint(obj)
	}
	return string(data)
}
