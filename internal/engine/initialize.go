// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/meshintel/biosearch-engine/internal/embedding"
	"github.com/meshintel/biosearch-engine/internal/executor"
	"github.com/meshintel/biosearch-engine/internal/kgraph"
	"github.com/meshintel/biosearch-engine/internal/knowledge"
	"github.com/meshintel/biosearch-engine/internal/llm"
	"github.com/meshintel/biosearch-engine/internal/parse"
	"github.com/meshintel/biosearch-engine/internal/registry"
	"github.com/meshintel/biosearch-engine/internal/selector"
	"github.com/meshintel/biosearch-engine/internal/templates"
	"github.com/meshintel/biosearch-engine/pkg/types"
)

// EngineOptions are the inputs Initialize needs beyond plain config.
type EngineOptions struct {
	Config   types.EngineConfig
	Registry *registry.Registry
	Log      *zap.Logger
}

// Initialize wires a full engine from configuration. The registry is
// passed in because tool registration belongs to the caller; everything
// else is built here.
func Initialize(ctx context.Context, cfg EngineOptions) (*Engine, error) {
	if cfg.Registry == nil {
		return nil, fmt.Errorf("engine: registry is required")
	}
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}

	roles, err := llm.NewRoles(ctx, cfg.Config.Models)
	if err != nil {
		return nil, fmt.Errorf("engine: building model roles: %w", err)
	}

	var retriever *embedding.Retriever
	if cfg.Config.Embedding.Endpoint != "" {
		cache, err := embedding.OpenCache(cfg.Config.Embedding.CachePath)
		if err != nil {
			return nil, fmt.Errorf("engine: opening vector cache: %w", err)
		}
		retriever = embedding.NewRetriever(embedding.NewHTTPEmbedder(cfg.Config.Embedding), cache, log)
	}

	var network *kgraph.Network
	if cfg.Config.Selector.MappingPath != "" {
		network, err = kgraph.LoadNetwork(cfg.Config.Selector.MappingPath)
		if err != nil {
			return nil, fmt.Errorf("engine: loading tool network: %w", err)
		}
	}

	if cfg.Config.ToolServer.BaseURL != "" && network != nil && cfg.Registry.Len() == 0 {
		bridge := registry.NewHTTPBridge(cfg.Config.ToolServer)
		if err := bridge.RegisterTools(cfg.Registry, network.Manifest()); err != nil {
			return nil, fmt.Errorf("engine: registering tool server tools: %w", err)
		}
	}

	general := selector.NewGeneralSelector(roles.ToolPlanning, cfg.Registry, log)
	var expert *selector.ExpertSelector
	if network != nil {
		expert = selector.NewExpertSelector(roles.ToolPlanning, cfg.Registry, network, retriever, cfg.Config.Selector, log)
	}
	sel := selector.New(general, expert, log)

	judge := executor.NewLLMJudge(roles.Fast, log)
	var failureLog *executor.FailureLog
	if cfg.Config.Executor.FailureLogPath != "" {
		failureLog = executor.NewFailureLog(cfg.Config.Executor.FailureLogPath)
	}
	exec := executor.New(cfg.Registry, judge, failureLog, cfg.Config.Executor, log)

	parser := parse.NewAgent(roles.Fast, cfg.Config.Parser, log)

	var library *templates.Library
	if retriever != nil {
		library, err = templates.Load(retriever, log)
		if err != nil {
			return nil, fmt.Errorf("engine: loading template library: %w", err)
		}
	}

	var bib *knowledge.Bibliography
	if cfg.Config.BibliographyPath != "" {
		bib, err = knowledge.OpenBibliography(cfg.Config.BibliographyPath)
		if err != nil {
			return nil, fmt.Errorf("engine: opening bibliography: %w", err)
		}
	}

	return New(cfg.Config, Components{
		Roles:        roles,
		Registry:     cfg.Registry,
		Selector:     sel,
		Executor:     exec,
		Parser:       parser,
		Templates:    library,
		Bibliography: bib,
	}, log)
}
