// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package selector

import (
	"strings"
)

// searchTools require a non-empty string "query" argument.
var searchTools = map[string]struct{}{
	"paper_search":  {},
	"tavily_search": {},
	"pubmed_search": {},
}

// isOntologyNameTool matches tools that look names up in an ontology and
// therefore need a short token-like argument, not a sentence.
func isOntologyNameTool(tool string) bool {
	return tool == "get_target_gene_ontology_by_name" || strings.HasPrefix(tool, "get_ontology")
}

// validGeneSymbol accepts 2-20 characters of letters, digits, '-' and '_'.
func validGeneSymbol(s string) bool {
	if len(s) < 2 || len(s) > 20 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}

// firstString returns the first string value in args, preferring key when
// present.
func firstString(args map[string]any, key string) (string, bool) {
	if s, ok := args[key].(string); ok {
		return s, true
	}
	for _, v := range args {
		if s, ok := v.(string); ok {
			return s, true
		}
	}
	return "", false
}

// keepRequest decides whether a planned call passes the guardrails.
// Models plan calls with empty queries, sentence-length ontology names and
// malformed gene symbols; those calls waste budget and return noise.
func keepRequest(tool string, args map[string]any) bool {
	if tool == "" {
		return false
	}

	if _, ok := searchTools[tool]; ok {
		q, ok := args["query"].(string)
		return ok && strings.TrimSpace(q) != ""
	}

	if isOntologyNameTool(tool) {
		name, ok := firstString(args, "name")
		if !ok {
			return false
		}
		name = strings.TrimSpace(name)
		return name != "" && len(name) <= 40 && !strings.ContainsAny(name, " \t\n")
	}

	if tool == "get_gene_specific_expression_in_cancer_type" {
		gene, ok := firstString(args, "gene")
		return ok && validGeneSymbol(strings.TrimSpace(gene))
	}

	return len(args) > 0
}
