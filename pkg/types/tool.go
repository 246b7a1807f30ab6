// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "encoding/json"

// ToolInvocationRequest is a single planned tool call. Item carries the
// natural-language need the call is meant to satisfy; ToolInput is the
// argument object passed to the tool.
type ToolInvocationRequest struct {
	Item      string         `json:"item"`
	Tool      string         `json:"tool"`
	ToolInput map[string]any `json:"tool_input"`
}

// ToolCallResult is the outcome of one tool invocation. Content is the
// normalized textual payload. Success reflects the meaningfulness judgment,
// not merely transport-level completion: a call that returns "no data found"
// completes but is not successful.
type ToolCallResult struct {
	Content  string `json:"content"`
	ToolName string `json:"tool_name"`
	// Toolsuite is the package or server the tool came from, empty when
	// the call never reached a tool.
	Toolsuite string `json:"toolsuite,omitempty"`
	Success   bool   `json:"success"`

	// AdditionalInfoType classifies extracted follow-up material:
	// "Compound", "Protein", "URL" or "Others".
	AdditionalInfoType string `json:"additional_info_type,omitempty"`
	// AdditionalInfoValue holds the extracted values, typically URLs.
	AdditionalInfoValue []string `json:"additional_info_value,omitempty"`
}

// ContentBlock is one element of a structured tool payload. Tool servers
// return either a bare JSON value or a list of typed content blocks; both
// shapes normalize to a single string before parsing.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// RawResult is the payload of a tool call before normalization. Exactly one
// of Blocks or Value is set.
type RawResult struct {
	Blocks []ContentBlock
	Value  json.RawMessage
}
