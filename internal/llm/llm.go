// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm defines the model capability the engine depends on and the
// default Gemini-backed implementation. Components take the Client interface
// so tests can substitute scripted responses.
package llm

import (
	"context"
	"regexp"
	"strings"
)

// Client is a single-turn text completion capability.
type Client interface {
	// Complete sends prompt and returns the model's text output.
	Complete(ctx context.Context, prompt string) (string, error)
}

// Roles bundles the model roles the engine routes work to. Roles may share
// an underlying client.
type Roles struct {
	// Reasoning drives planning, reflection and final answers.
	Reasoning Client

	// Fast handles classification and cleanup calls.
	Fast Client

	// ToolPlanning drives tool selection and argument construction.
	ToolPlanning Client

	// Report writes the long-form final report.
	Report Client
}

var thinkTagRE = regexp.MustCompile(`(?s)<think>.*?</think>`)

// RemoveThinkTags strips reasoning-trace blocks some models emit before
// their answer.
func RemoveThinkTags(s string) string {
	return strings.TrimSpace(thinkTagRE.ReplaceAllString(s, ""))
}
