// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshintel/biosearch-engine/internal/kgraph"
	"github.com/meshintel/biosearch-engine/pkg/types"
)

func TestHTTPBridgeRegisterAndInvoke(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/invoke", r.URL.Path)
		require.Equal(t, "Bearer sekrit", r.Header.Get("Authorization"))

		var req struct {
			Tool      string         `json:"tool"`
			Arguments map[string]any `json:"arguments"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		switch req.Tool {
		case "blocks_tool":
			json.NewEncoder(w).Encode(map[string]any{
				"content": []map[string]string{{"type": "text", "text": "hello"}},
			})
		case "value_tool":
			json.NewEncoder(w).Encode(map[string]any{
				"result": map[string]any{"echo": req.Arguments["query"]},
			})
		case "failing_tool":
			json.NewEncoder(w).Encode(map[string]string{"error": "upstream down"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	manifest := []kgraph.ToolInfo{
		{Name: "blocks_tool", Package: "search", Description: "Returns content blocks.", Args: []string{"query"}},
		{Name: "value_tool", Package: "chembl", Description: "Returns a JSON value.", Args: []string{"query"}},
		{Name: "failing_tool", Package: "chembl"},
	}

	bridge := NewHTTPBridge(types.ToolServerConfig{BaseURL: srv.URL, APIKey: "sekrit"})
	reg := New()
	require.NoError(t, bridge.RegisterTools(reg, manifest))
	require.Equal(t, 3, reg.Len())

	blocks, ok := reg.Get("blocks_tool")
	require.True(t, ok)
	assert.Equal(t, "search", blocks.Toolsuite)
	assert.Contains(t, blocks.Description, "Args: query")

	raw, err := blocks.Invoke(context.Background(), map[string]any{"query": "EGFR"})
	require.NoError(t, err)
	assert.Equal(t, "hello", Normalize(raw))

	value, _ := reg.Get("value_tool")
	raw, err = value.Invoke(context.Background(), map[string]any{"query": "KRAS"})
	require.NoError(t, err)
	assert.Contains(t, Normalize(raw), "KRAS")

	failing, _ := reg.Get("failing_tool")
	_, err = failing.Invoke(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream down")
}

func TestHTTPBridgeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	bridge := NewHTTPBridge(types.ToolServerConfig{BaseURL: srv.URL})
	_, err := bridge.invoke(context.Background(), "any_tool", map[string]any{"query": "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 500")
}
