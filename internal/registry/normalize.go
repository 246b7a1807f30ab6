// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"encoding/json"
	"strings"

	"github.com/meshintel/biosearch-engine/pkg/types"
)

// Normalize flattens a raw tool payload to a single string. Content-block
// lists concatenate their text blocks; bare JSON values pass through as
// their serialized form with surrounding quotes removed for plain strings.
func Normalize(raw types.RawResult) string {
	if len(raw.Blocks) > 0 {
		parts := make([]string, 0, len(raw.Blocks))
		for _, b := range raw.Blocks {
			if b.Type != "" && b.Type != "text" {
				continue
			}
			if b.Text != "" {
				parts = append(parts, b.Text)
			}
		}
		return strings.Join(parts, "\n")
	}

	s := strings.TrimSpace(string(raw.Value))
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		// A bare JSON string: unquote so downstream parsing sees the
		// payload, not a quoted literal.
		var unquoted string
		if err := json.Unmarshal([]byte(s), &unquoted); err == nil {
			return unquoted
		}
	}
	return s
}
