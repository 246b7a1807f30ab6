// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/meshintel/biosearch-engine/internal/httputil"
	"github.com/meshintel/biosearch-engine/internal/kgraph"
	"github.com/meshintel/biosearch-engine/pkg/types"
)

// invokeRequest is the wire form of a tool call to the tool server.
type invokeRequest struct {
	Tool      string         `json:"tool"`
	Arguments map[string]any `json:"arguments"`
}

// invokeResponse is the tool server's reply: either MCP-style content
// blocks or an arbitrary JSON value.
type invokeResponse struct {
	Content []types.ContentBlock `json:"content"`
	Result  json.RawMessage      `json:"result"`
	Error   string               `json:"error"`
}

// HTTPBridge invokes tools over the tool server's REST surface.
type HTTPBridge struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPBridge builds a bridge for the configured tool server.
func NewHTTPBridge(cfg types.ToolServerConfig) *HTTPBridge {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPBridge{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// RegisterTools registers every tool in the manifest with an Invoke that
// calls the tool server.
func (b *HTTPBridge) RegisterTools(reg *Registry, manifest []kgraph.ToolInfo) error {
	for _, info := range manifest {
		info := info
		err := reg.Register(&ToolCapability{
			Name:        info.Name,
			Description: describeManifest(info),
			Toolsuite:   info.Package,
			ArgNames:    info.Args,
			Invoke: func(ctx context.Context, args map[string]any) (types.RawResult, error) {
				return b.invoke(ctx, info.Name, args)
			},
		})
		if err != nil {
			return fmt.Errorf("registering %s: %w", info.Name, err)
		}
	}
	return nil
}

func describeManifest(info kgraph.ToolInfo) string {
	desc := info.Description
	if desc == "" {
		desc = info.Name
	}
	if len(info.Args) > 0 {
		desc += "\nArgs: "
		for i, a := range info.Args {
			if i > 0 {
				desc += ", "
			}
			desc += a
		}
	}
	return desc
}

func (b *HTTPBridge) invoke(ctx context.Context, tool string, args map[string]any) (types.RawResult, error) {
	body, err := json.Marshal(invokeRequest{Tool: tool, Arguments: args})
	if err != nil {
		return types.RawResult{}, fmt.Errorf("encoding invocation: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/invoke", bytes.NewReader(body))
	if err != nil {
		return types.RawResult{}, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if b.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+b.apiKey)
	}

	resp, err := httputil.DoWithRetry(ctx, b.client, req, 0)
	if err != nil {
		return types.RawResult{}, fmt.Errorf("calling %s: %w", tool, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return types.RawResult{}, fmt.Errorf("reading %s response: %w", tool, err)
	}
	if resp.StatusCode != http.StatusOK {
		return types.RawResult{}, fmt.Errorf("%s returned HTTP %d: %s", tool, resp.StatusCode, payload)
	}

	var decoded invokeResponse
	if err := json.Unmarshal(payload, &decoded); err == nil {
		if decoded.Error != "" {
			return types.RawResult{}, fmt.Errorf("%s failed: %s", tool, decoded.Error)
		}
		if len(decoded.Content) > 0 {
			return types.RawResult{Blocks: decoded.Content}, nil
		}
		if len(decoded.Result) > 0 {
			return types.RawResult{Value: decoded.Result}, nil
		}
	}
	// Servers that reply with a bare JSON value.
	return types.RawResult{Value: json.RawMessage(payload)}, nil
}
