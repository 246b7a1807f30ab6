// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package candidates

import (
	"strings"
	"testing"
)

func TestHarvest(t *testing.T) {
	p := NewPool()
	added := p.Harvest(1, "pubmed_search",
		"EGFR and HER2 are kinases. The assay used DMSO and measured IC50. See also EGFR pathway and AKR1C3.")

	if added != 3 {
		t.Errorf("added = %d, want 3 (EGFR, HER2, AKR1C3)", added)
	}
	c, ok := p.Get("EGFR")
	if !ok {
		t.Fatal("EGFR not pooled")
	}
	if c.Count != 2 {
		t.Errorf("EGFR count = %d, want 2", c.Count)
	}
	if _, ok := p.Get("DMSO"); ok {
		t.Error("stoplist token DMSO pooled")
	}
	if _, ok := p.Get("IC50"); ok {
		t.Error("stoplist token IC50 pooled")
	}
}

func TestHarvestIgnoresDropped(t *testing.T) {
	p := NewPool()
	p.Harvest(1, "s", "EGFR")
	p.Drop("EGFR")
	before, _ := p.Get("EGFR")

	p.Harvest(2, "s", "EGFR again from EGFR")
	after, _ := p.Get("EGFR")
	if after.Count != before.Count || after.LastSeen != before.LastSeen {
		t.Error("dropped symbol accumulated sightings")
	}
	if p.Len() != 0 {
		t.Errorf("Len = %d, want 0 with only a dropped symbol", p.Len())
	}
}

func TestRankingDeterminism(t *testing.T) {
	p := NewPool()

	// EGFR: old but frequent across sources.
	p.Harvest(1, "pubmed_search", "EGFR EGFR EGFR")
	p.Harvest(1, "tavily_search", "EGFR")
	// HER2 and KRAS: both seen latest iteration, HER2 more often.
	p.Harvest(3, "pubmed_search", "HER2 HER2 KRAS")
	// BRAF: same stats as KRAS except source diversity.
	p.Harvest(3, "pubmed_search", "BRAF")
	p.Harvest(3, "tavily_search", "BRAF BRAF")

	got := p.Ranked()
	var order []string
	for _, c := range got {
		order = append(order, c.Symbol)
	}

	// Iteration 3 beats iteration 1; within iteration 3, BRAF has
	// count 3, HER2 count 2, KRAS count 1.
	want := []string{"BRAF", "HER2", "KRAS", "EGFR"}
	if strings.Join(order, ",") != strings.Join(want, ",") {
		t.Errorf("order = %v, want %v", order, want)
	}

	// Same inputs rank the same way every time.
	again := p.Ranked()
	for i := range got {
		if got[i].Symbol != again[i].Symbol {
			t.Fatalf("ranking not deterministic at %d", i)
		}
	}
}

func TestRankingTiebreakBySymbol(t *testing.T) {
	p := NewPool()
	p.Harvest(2, "s", "ZZZ1 AAA1")
	ranked := p.Ranked()
	if ranked[0].Symbol != "AAA1" {
		t.Errorf("equal stats should tiebreak alphabetically, got %v", ranked[0].Symbol)
	}
}

func TestVisibleKeepsPinned(t *testing.T) {
	p := NewPool()
	p.Harvest(5, "s", "TOP1 TOP2 TOP3")
	p.Harvest(1, "s", "OLD1")
	p.Pin("OLD1")

	vis := p.Visible(2)
	syms := make(map[string]bool, len(vis))
	for _, c := range vis {
		syms[c.Symbol] = true
	}
	if len(vis) != 3 {
		t.Errorf("visible = %d entries, want 2 + pinned", len(vis))
	}
	if !syms["OLD1"] {
		t.Error("pinned symbol truncated out of visibility")
	}

	// Truncation must not remove anything from the pool itself.
	if p.Len() != 4 {
		t.Errorf("Len = %d after Visible, want 4", p.Len())
	}
}

func TestLifecycleStates(t *testing.T) {
	p := NewPool()
	p.Harvest(1, "s", "EGFR HER2 KRAS")

	p.Deprioritize("HER2")
	p.Drop("KRAS")

	if c, _ := p.Get("HER2"); c.State != Deprioritized {
		t.Errorf("HER2 state = %v", c.State)
	}
	if p.Len() != 2 {
		t.Errorf("Len = %d, want 2 after drop", p.Len())
	}
	for _, c := range p.Ranked() {
		if c.Symbol == "KRAS" {
			t.Error("dropped symbol still ranked")
		}
	}
}

func TestMarkValidated(t *testing.T) {
	p := NewPool()
	p.Harvest(1, "s", "EGFR")
	p.MarkValidated("EGFR", Validation{TargetClasses: "kinase"})

	validated := p.Validated()
	if len(validated) != 1 || validated[0].Validation.TargetClasses != "kinase" {
		t.Errorf("validated = %+v", validated)
	}
}

func TestSummary(t *testing.T) {
	p := NewPool()
	p.Harvest(2, "pubmed_search", "EGFR EGFR")
	p.MarkValidated("EGFR", Validation{Diseases: "lung carcinoma"})

	s := p.Summary(10)
	if !strings.Contains(s, "EGFR") || !strings.Contains(s, "lung carcinoma") {
		t.Errorf("Summary = %q", s)
	}
	if p.Summary(0) == "" {
		t.Error("Summary with no limit should still render")
	}
}
