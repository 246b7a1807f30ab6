// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package knowledge

import (
	"strings"
	"testing"
)

func TestReferencePoolStableNumbering(t *testing.T) {
	p := NewReferencePool()

	first := p.Add("EGFR review", "Smith 2023", "https://example.org/egfr")
	second := p.Add("T790M paper", "Lee 2022", "https://example.org/t790m")
	again := p.Add("EGFR review, retitled", "Smith 2023", "https://example.org/egfr")

	if first != 1 || second != 2 {
		t.Errorf("indices = %d, %d, want 1, 2", first, second)
	}
	if again != first {
		t.Errorf("re-adding same link returned %d, want %d", again, first)
	}
	if p.Len() != 2 {
		t.Errorf("Len = %d, want 2", p.Len())
	}

	// The original title wins over later variants.
	if got := p.All()[0].Title; got != "EGFR review" {
		t.Errorf("title = %q, want original", got)
	}
}

func TestReferencePoolEmptyLink(t *testing.T) {
	p := NewReferencePool()
	if got := p.Add("untitled", "cite", ""); got != -1 {
		t.Errorf("Add with empty link = %d, want -1", got)
	}
	if got := p.Add("untitled", "cite", "   "); got != -1 {
		t.Errorf("Add with blank link = %d, want -1", got)
	}
	if p.Len() != 0 {
		t.Errorf("Len = %d, want 0", p.Len())
	}
}

func TestReferencePoolTitleFallback(t *testing.T) {
	p := NewReferencePool()
	p.Add("", "", "https://example.org/bare")
	if got := p.All()[0].Title; got != "https://example.org/bare" {
		t.Errorf("title = %q, want link fallback", got)
	}
}

func TestFormatMarkdown(t *testing.T) {
	p := NewReferencePool()
	p.Add("Alpha", "A et al. 2021", "https://example.org/a")
	p.Add("Beta", "", "https://example.org/b")

	out := p.FormatMarkdown()
	if !strings.Contains(out, "[^^1]: Alpha. A et al. 2021 https://example.org/a") {
		t.Errorf("unexpected first line: %q", out)
	}
	if !strings.Contains(out, "[^^2]: Beta https://example.org/b") {
		t.Errorf("unexpected second line: %q", out)
	}
}

func TestPromptJSON(t *testing.T) {
	p := NewReferencePool()
	p.Add("Alpha", "A et al. 2021", "https://example.org/a")

	out := p.PromptJSON()
	for _, want := range []string{`"idx":1`, `"url":"https://example.org/a"`, `"apa":"A et al. 2021"`} {
		if !strings.Contains(out, want) {
			t.Errorf("PromptJSON missing %s: %s", want, out)
		}
	}
}
