// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package executor

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// inputAliases maps model-produced argument names onto the names a tool
// actually accepts. Planning models drift between synonyms for the same
// parameter.
var inputAliases = map[string]map[string]string{
	"pubmed_search": {
		"q":           "query",
		"search_term": "query",
	},
	"paper_search": {
		"q":           "query",
		"search_term": "query",
	},
	"tavily_search": {
		"q": "query",
	},
	"search_target": {
		"name":   "target_name",
		"target": "target_name",
	},
	"search_assay": {
		"q": "query",
	},
	"get_general_info_by_compound_name": {
		"name":     "compound_name",
		"compound": "compound_name",
	},
	"get_general_info_by_protein_or_gene_name": {
		"name": "protein_or_gene_name",
		"gene": "protein_or_gene_name",
	},
	"get_general_info_by_disease_name": {
		"name":    "disease_name",
		"disease": "disease_name",
	},
}

// NormalizeInput renames aliased argument keys and drops wildcard values.
// The original map is not modified.
func NormalizeInput(tool string, args map[string]any) map[string]any {
	aliases := inputAliases[tool]
	out := make(map[string]any, len(args))
	for key, val := range args {
		if s, ok := val.(string); ok && strings.TrimSpace(s) == "*" {
			continue
		}
		if canonical, ok := aliases[key]; ok {
			if _, exists := args[canonical]; !exists {
				key = canonical
			}
		}
		out[key] = val
	}
	return out
}

// ExtractAdditionalInfo pulls follow-up material out of a completed call:
// compound pages for SMILES arguments, structure pages for PDB IDs, and
// result URLs from web search payloads.
func ExtractAdditionalInfo(tool string, args map[string]any, content string) (string, []string) {
	if smiles, ok := args["smiles"].(string); ok && smiles != "" {
		return "Compound", []string{fmt.Sprintf("https://pubchem.ncbi.nlm.nih.gov/#query=%s", smiles)}
	}
	if pdbID, ok := args["pdb_id"].(string); ok && pdbID != "" {
		return "Protein", []string{fmt.Sprintf("https://www.rcsb.org/structure/%s", strings.ToUpper(pdbID))}
	}
	if tool == "tavily_search" {
		var urls []string
		for _, r := range gjson.Get(content, "results.#.url").Array() {
			if u := r.String(); u != "" {
				urls = append(urls, u)
			}
		}
		if len(urls) > 0 {
			return "URL", urls
		}
	}
	return "Others", nil
}
