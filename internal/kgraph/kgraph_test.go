// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package kgraph

import (
	"reflect"
	"testing"
)

func TestMatchCategory(t *testing.T) {
	tests := []struct {
		label string
		want  string
	}{
		{"Protein/Gene", "Protein/Gene"},
		{"protein/gene", "Protein/Gene"},
		{"protein gene", "Protein/Gene"},
		{"Gene", "Protein/Gene"},
		{"Drug", "Drug/Drug class"},
		{"small molecule", "Small molecule"},
		{"cancer", "Cancer type"},
		{"weird new thing", "Others"},
		{"", "Others"},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			if got := MatchCategory(tt.label); got != tt.want {
				t.Errorf("MatchCategory(%q) = %q, want %q", tt.label, got, tt.want)
			}
		})
	}
}

const testMapping = `
tools:
  - name: search_target
    package: chembl
    inputs: ["Protein/Gene"]
    outputs: ["Therapeutic target"]
  - name: get_associated_diseases_phenotypes_by_target_name
    package: opentargets
    inputs: ["Protein/Gene", "Therapeutic target"]
    outputs: ["Disease", "Phenotype"]
  - name: search_assay
    package: chembl
    inputs: ["Assay"]
    outputs: ["Assay"]
`

func TestParseNetwork(t *testing.T) {
	n, err := ParseNetwork([]byte(testMapping))
	if err != nil {
		t.Fatalf("ParseNetwork: %v", err)
	}

	got := n.NodeTools("Protein/Gene")
	want := []string{"get_associated_diseases_phenotypes_by_target_name", "search_target"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NodeTools(Protein/Gene) = %v, want %v", got, want)
	}

	// Edge lookup works in both directions.
	for _, pair := range [][2]string{{"Protein/Gene", "Disease"}, {"Disease", "Protein/Gene"}} {
		got := n.EdgeTools(pair[0], pair[1])
		want := []string{"get_associated_diseases_phenotypes_by_target_name"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("EdgeTools(%v) = %v, want %v", pair, got, want)
		}
	}

	if got := n.EdgeTools("Assay", "Disease"); got != nil {
		t.Errorf("EdgeTools(Assay, Disease) = %v, want nil", got)
	}

	if got := n.Toolsuite("search_assay"); got != "chembl" {
		t.Errorf("Toolsuite = %q, want chembl", got)
	}

	tools := n.Tools()
	if len(tools) != 3 {
		t.Errorf("Tools = %v, want 3 entries", tools)
	}
}

func TestParseNetworkRejectsEmpty(t *testing.T) {
	if _, err := ParseNetwork([]byte("tools: []")); err == nil {
		t.Error("expected error for empty mapping")
	}
	if _, err := ParseNetwork([]byte("tools:\n  - package: x")); err == nil {
		t.Error("expected error for unnamed tool")
	}
}
