// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"errors"
	"fmt"

	genai "google.golang.org/genai"

	"github.com/meshintel/biosearch-engine/pkg/types"
)

// ErrEmptyResponse is returned when the model produces no candidates.
var ErrEmptyResponse = errors.New("llm: empty response from model")

// Gemini is a thin wrapper around the official genai client.
type Gemini struct {
	cli   *genai.Client
	model string
}

// NewGemini builds a Gemini client for the given model. An empty apiKey
// falls back to the genai client's environment-based credentials.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return &Gemini{cli: cli, model: model}, nil
}

// Complete sends prompt and returns the model's text output with any
// reasoning-trace blocks removed.
func (g *Gemini) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
		nil,
	)
	if err != nil {
		return "", fmt.Errorf("generate content (%s): %w", g.model, err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyResponse
	}
	return RemoveThinkTags(resp.Candidates[0].Content.Parts[0].Text), nil
}

// NewRoles builds the four role clients from configuration. Roles with the
// same model string share one underlying client.
func NewRoles(ctx context.Context, cfg types.ModelsConfig) (Roles, error) {
	cache := map[string]*Gemini{}
	get := func(mc types.LLMConfig) (*Gemini, error) {
		if g, ok := cache[mc.Model]; ok {
			return g, nil
		}
		g, err := NewGemini(ctx, mc.APIKey, mc.Model)
		if err != nil {
			return nil, err
		}
		cache[mc.Model] = g
		return g, nil
	}

	var r Roles
	var err error
	if r.Reasoning, err = get(cfg.Reasoning); err != nil {
		return Roles{}, err
	}
	if r.Fast, err = get(cfg.Fast); err != nil {
		return Roles{}, err
	}
	if r.ToolPlanning, err = get(cfg.ToolPlanning); err != nil {
		return Roles{}, err
	}
	if r.Report, err = get(cfg.Report); err != nil {
		return Roles{}, err
	}
	return r, nil
}
