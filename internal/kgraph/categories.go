// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package kgraph models the biomedical tool network: entity categories as
// nodes, tools attached to the categories they consume or produce, and
// category pairs as edges carrying the tools that relate them.
package kgraph

import "strings"

// Categories is the closed set of biological entity types the extraction
// prompt classifies into. Entity categories outside this list normalize to
// "Others".
var Categories = []string{
	"Small molecule",
	"Drug/Drug class",
	"Protein/Gene",
	"Therapeutic target",
	"RNA",
	"Amino acid",
	"Biomarker",
	"Molecular function",
	"Biological process",
	"Pathway",
	"Mutation",
	"Pharmacology/Toxicology",
	"Cell type",
	"Cell line",
	"Cellular component",
	"Tissue/Organ",
	"Organism/Species",
	"Disease",
	"Phenotype",
	"Assay",
	"Cancer type",
	"Clinical",
	"Others",
}

// normalizeKey lowercases and strips everything but letters and digits.
func normalizeKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

var categoryByKey = func() map[string]string {
	m := make(map[string]string, len(Categories))
	for _, c := range Categories {
		m[normalizeKey(c)] = c
	}
	return m
}()

// MatchCategory maps a model-produced category label onto the canonical
// list. Matching is case- and punctuation-insensitive, then falls back to
// containment either way, then to "Others". Models rarely reproduce labels
// like "Drug/Drug class" verbatim.
func MatchCategory(label string) string {
	key := normalizeKey(label)
	if key == "" {
		return "Others"
	}
	if c, ok := categoryByKey[key]; ok {
		return c
	}
	for _, canon := range Categories {
		if canon == "Others" {
			continue
		}
		canonKey := normalizeKey(canon)
		if strings.Contains(canonKey, key) || strings.Contains(key, canonKey) {
			return canon
		}
	}
	return "Others"
}
