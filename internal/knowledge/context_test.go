// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package knowledge

import (
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestAddKnowledge(t *testing.T) {
	c := NewContext("EGFR inhibitors in lung cancer", 32000, zap.NewNop())

	c.AddKnowledge("Gefitinib targets EGFR.", 1, 0)
	c.AddKnowledge("", 2, 0)
	c.AddKnowledge("Detail paragraph.", 2, 0)

	got := c.Knowledge()
	if !strings.Contains(got, "[Priority 1] Gefitinib targets EGFR.") {
		t.Errorf("missing priority 1 entry: %q", got)
	}
	if !strings.Contains(got, "[Priority 2] Detail paragraph.") {
		t.Errorf("missing priority 2 entry: %q", got)
	}
	if strings.Count(got, "[Priority") != 2 {
		t.Errorf("empty text should be dropped: %q", got)
	}
}

func TestTokenCount(t *testing.T) {
	c := NewContext("q", 100, zap.NewNop())
	c.AddKnowledge(strings.Repeat("x", 80), 1, 0)
	// "\n\n[Priority 1] " prefix plus 80 chars, divided by 4.
	if got := c.TokenCount(); got < 20 || got > 25 {
		t.Errorf("TokenCount = %d, want roughly 24", got)
	}
}

func TestCompressionBound(t *testing.T) {
	c := NewContext("EGFR resistance mechanisms", 200, zap.NewNop())

	// Push well past the trigger with mixed priorities.
	for i := 0; i < 30; i++ {
		c.AddKnowledge("EGFR resistance arises through secondary mutations like T790M.", 1, i)
		c.AddKnowledge("Filler detail about unrelated assay conditions and protocols.", 3, i)
	}

	if got := c.TokenCount(); got > c.MaxContextLength() {
		t.Errorf("TokenCount = %d exceeds budget %d after compression", got, c.MaxContextLength())
	}
	if !strings.Contains(c.Knowledge(), "[COMPRESSED]") {
		t.Error("compression marker missing")
	}
}

func TestCompressKeepsHighPriority(t *testing.T) {
	c := NewContext("kinase inhibitors", 100, zap.NewNop())
	c.AddKnowledge("kinase inhibitors block kinase signaling pathways broadly.", 1, 1)
	c.AddKnowledge("Irrelevant aside about lab scheduling.", 3, 1)
	c.Compress(1)

	got := c.Knowledge()
	if !strings.Contains(got, "kinase inhibitors block") {
		t.Errorf("high-priority, query-relevant paragraph dropped: %q", got)
	}
	if !strings.Contains(got, "Content compressed at iteration 1") {
		t.Errorf("marker missing: %q", got)
	}
}
