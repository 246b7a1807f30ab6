// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package kgraph

import (
	"fmt"
	"os"
	"sort"

	"go.yaml.in/yaml/v3"
)

// toolMapping is one row of the YAML wiring file.
type toolMapping struct {
	Name        string   `yaml:"name"`
	Package     string   `yaml:"package"`
	Description string   `yaml:"description"`
	Args        []string `yaml:"args"`
	Inputs      []string `yaml:"inputs"`
	Outputs     []string `yaml:"outputs"`
}

// ToolInfo is the declared metadata of one tool in the mapping file.
type ToolInfo struct {
	Name        string
	Package     string
	Description string
	Args        []string
}

type mappingFile struct {
	Tools []toolMapping `yaml:"tools"`
}

type edgeKey struct {
	from, to string
}

// Network is the directed tool graph over entity categories. A tool
// attaches to every category it consumes or produces, and to the edge from
// each of its input categories to each of its output categories.
type Network struct {
	nodeTools map[string]map[string]struct{}
	edgeTools map[edgeKey]map[string]struct{}
	toolSuite map[string]string
	manifest  []ToolInfo
}

// LoadNetwork reads the YAML tool wiring file and builds the network.
// Category labels in the file are normalized onto the canonical list.
func LoadNetwork(path string) (*Network, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading tool mapping: %w", err)
	}
	return ParseNetwork(data)
}

// ParseNetwork builds the network from YAML bytes.
func ParseNetwork(data []byte) (*Network, error) {
	var f mappingFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing tool mapping: %w", err)
	}
	if len(f.Tools) == 0 {
		return nil, fmt.Errorf("tool mapping declares no tools")
	}

	n := &Network{
		nodeTools: make(map[string]map[string]struct{}),
		edgeTools: make(map[edgeKey]map[string]struct{}),
		toolSuite: make(map[string]string),
	}

	for _, t := range f.Tools {
		if t.Name == "" {
			return nil, fmt.Errorf("tool mapping entry with empty name")
		}
		n.toolSuite[t.Name] = t.Package
		n.manifest = append(n.manifest, ToolInfo{
			Name:        t.Name,
			Package:     t.Package,
			Description: t.Description,
			Args:        t.Args,
		})

		inputs := normalizeAll(t.Inputs)
		outputs := normalizeAll(t.Outputs)
		for _, c := range inputs {
			n.addNodeTool(c, t.Name)
		}
		for _, c := range outputs {
			n.addNodeTool(c, t.Name)
		}
		for _, in := range inputs {
			for _, out := range outputs {
				n.addEdgeTool(in, out, t.Name)
			}
		}
	}
	return n, nil
}

func normalizeAll(labels []string) []string {
	seen := make(map[string]struct{}, len(labels))
	var out []string
	for _, l := range labels {
		c := MatchCategory(l)
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

func (n *Network) addNodeTool(category, tool string) {
	if n.nodeTools[category] == nil {
		n.nodeTools[category] = make(map[string]struct{})
	}
	n.nodeTools[category][tool] = struct{}{}
}

func (n *Network) addEdgeTool(from, to, tool string) {
	k := edgeKey{from, to}
	if n.edgeTools[k] == nil {
		n.edgeTools[k] = make(map[string]struct{})
	}
	n.edgeTools[k][tool] = struct{}{}
}

// NodeTools returns the tools attached to a category, sorted. The label is
// normalized first.
func (n *Network) NodeTools(category string) []string {
	return sortedKeys(n.nodeTools[MatchCategory(category)])
}

// EdgeTools returns the tools relating two categories, in either
// direction, sorted.
func (n *Network) EdgeTools(a, b string) []string {
	ca, cb := MatchCategory(a), MatchCategory(b)
	merged := make(map[string]struct{})
	for t := range n.edgeTools[edgeKey{ca, cb}] {
		merged[t] = struct{}{}
	}
	for t := range n.edgeTools[edgeKey{cb, ca}] {
		merged[t] = struct{}{}
	}
	return sortedKeys(merged)
}

// Toolsuite returns the package a tool was declared under.
func (n *Network) Toolsuite(tool string) string {
	return n.toolSuite[tool]
}

// Manifest returns the declared metadata of every tool, in file order.
func (n *Network) Manifest() []ToolInfo {
	out := make([]ToolInfo, len(n.manifest))
	copy(out, n.manifest)
	return out
}

// Tools returns every tool named in the mapping, sorted.
func (n *Network) Tools() []string {
	out := make([]string, 0, len(n.toolSuite))
	for t := range n.toolSuite {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
