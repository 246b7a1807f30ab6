// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/meshintel/biosearch-engine/internal/kgraph"
	"github.com/meshintel/biosearch-engine/pkg/types"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tools declared in the mapping file",
	Long: `Tools reads the YAML tool mapping, builds the entity network, and prints
each tool with its suite and entity categories. Use --category to restrict
the listing to tools attached to one category.`,
	RunE: runTools,
}

func init() {
	toolsCmd.Flags().String("category", "", "only tools attached to this entity category")

	rootCmd.AddCommand(toolsCmd)
}

func runTools(cmd *cobra.Command, args []string) error {
	cfg := types.DefaultEngineConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		fmt.Fprintln(os.Stderr, "Warning: ignoring malformed config:", err)
	}
	if cfg.Selector.MappingPath == "" {
		return fmt.Errorf("no tool mapping configured: set selector.mapping_path")
	}

	network, err := kgraph.LoadNetwork(cfg.Selector.MappingPath)
	if err != nil {
		return err
	}

	if category, _ := cmd.Flags().GetString("category"); category != "" {
		normalized := kgraph.MatchCategory(category)
		fmt.Printf("Tools for category %q:\n", normalized)
		for _, name := range network.NodeTools(normalized) {
			fmt.Printf("  %-50s  %s\n", name, network.Toolsuite(name))
		}
		return nil
	}

	fmt.Printf("%-50s  %-15s  %s\n", "Tool", "Suite", "Description")
	fmt.Println(strings.Repeat("-", 100))
	for _, info := range network.Manifest() {
		desc := info.Description
		if i := strings.IndexByte(desc, '\n'); i >= 0 {
			desc = desc[:i]
		}
		fmt.Printf("%-50s  %-15s  %s\n", info.Name, info.Package, desc)
	}
	return nil
}
