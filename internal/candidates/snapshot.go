// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package candidates

import (
	"fmt"
	"strings"
)

// Summary renders the pool state for the knowledge context: visible
// symbols with their statistics and lifecycle state, validated symbols
// with their annotations.
func (p *Pool) Summary(limit int) string {
	visible := p.Visible(limit)
	if len(visible) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Candidate pool (%d live, showing %d):\n", p.Len(), len(visible))
	for _, c := range visible {
		fmt.Fprintf(&b, "- %s: seen %d times, %d sources, last iteration %d",
			c.Symbol, c.Count, c.sourceDiversity(), c.LastSeen)
		if c.State != Discovered {
			fmt.Fprintf(&b, " [%s]", c.State)
		}
		if c.Validated {
			b.WriteString(" [validated]")
			if c.Validation.TargetClasses != "" {
				fmt.Fprintf(&b, " classes: %s;", c.Validation.TargetClasses)
			}
			if c.Validation.GOComponents != "" {
				fmt.Fprintf(&b, " components: %s;", c.Validation.GOComponents)
			}
			if c.Validation.Diseases != "" {
				fmt.Fprintf(&b, " diseases: %s;", c.Validation.Diseases)
			}
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
