// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package selector plans tool calls for a sub-question. Two paths run per
// round: a general selector over a fixed shortlist of broadly useful tools,
// and an expert selector that extracts biomedical entities, walks the tool
// network, and narrows candidates by embedding similarity before a model
// picks the final call per need.
package selector

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/meshintel/biosearch-engine/internal/jsonx"
	"github.com/meshintel/biosearch-engine/internal/llm"
	"github.com/meshintel/biosearch-engine/internal/registry"
	"github.com/meshintel/biosearch-engine/pkg/types"
)

// GeneralToolNames is the fixed shortlist the general selector plans over.
// These tools are useful for almost any biomedical question; everything
// else goes through the expert path.
var GeneralToolNames = []string{
	"tavily_search",
	"paper_search",
	"pubmed_search",
	"search_target",
	"search_assay",
	"search_activity",
	"tcga_immune_correlation_analysis",
	"get_general_info_by_compound_name",
	"get_general_info_by_protein_or_gene_name",
	"get_general_info_by_disease_name",
	"get_target_gene_ontology_by_name",
	"get_target_classes_by_name",
	"get_associated_diseases_phenotypes_by_target_name",
}

const generalPrompt = `You plan tool calls for one step of a biomedical research run.

Research question: %s

What is already known:
%s

Available tools:
%s

Pick the tool calls that would most advance the question. For each call,
state the specific information need it serves. Skip tools that duplicate
what is already known.

Respond with a JSON array only (possibly empty):
[{"item": "the information need", "tool": "tool_name", "tool_input": {...}}]`

// GeneralSelector plans calls over the fixed shortlist.
type GeneralSelector struct {
	client llm.Client
	reg    *registry.Registry
	log    *zap.Logger
}

// NewGeneralSelector builds a general selector.
func NewGeneralSelector(client llm.Client, reg *registry.Registry, log *zap.Logger) *GeneralSelector {
	return &GeneralSelector{client: client, reg: reg, log: log}
}

// Select returns planned calls for the question. A model failure or
// unparseable plan returns an empty slice; the expert path still runs.
func (g *GeneralSelector) Select(ctx context.Context, question, knowledge string) []types.ToolInvocationRequest {
	if knowledge == "" {
		knowledge = "(nothing yet)"
	}
	prompt := fmt.Sprintf(generalPrompt, question, knowledge, g.reg.Describe(GeneralToolNames))

	out, err := g.client.Complete(ctx, prompt)
	if err != nil {
		g.log.Warn("general selection failed", zap.Error(err))
		return nil
	}

	var requests []types.ToolInvocationRequest
	if !jsonx.ExtractList(out, &requests) {
		g.log.Warn("general selection unparseable")
		return nil
	}
	return requests
}
