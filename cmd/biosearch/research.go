// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/meshintel/biosearch-engine/internal/engine"
	"github.com/meshintel/biosearch-engine/internal/registry"
	"github.com/meshintel/biosearch-engine/pkg/types"
)

var researchCmd = &cobra.Command{
	Use:   "research [question]",
	Short: "Run the iterative research loop on one question",
	Long: `Research plans sub-questions for the given question, selects and executes
tool calls against the configured tool server, extracts evidence, and after
the iteration budget produces a final cited answer. With --report, a
candidate-discovery loop runs each iteration and a long-form detailed
report is generated at the end.`,
	Args: cobra.ExactArgs(1),
	RunE: runResearch,
}

func init() {
	researchCmd.Flags().String("question-id", "", "identifier for trace files (default: generated)")
	researchCmd.Flags().Int("max-iterations", 0, "override the iteration budget")
	researchCmd.Flags().Int("questions-per-iteration", 0, "override sub-questions per iteration")
	researchCmd.Flags().Bool("report", false, "enable report mode (candidate discovery + detailed report)")
	researchCmd.Flags().String("trace-dir", "", "directory for trace and case files")
	researchCmd.Flags().Bool("json", false, "output the result as JSON")
	researchCmd.Flags().Bool("verbose", false, "development logging")

	rootCmd.AddCommand(researchCmd)
}

func runResearch(cmd *cobra.Command, args []string) error {
	cfg := researchConfig(cmd)

	verbose, _ := cmd.Flags().GetBool("verbose")
	log, err := buildLogger(verbose)
	if err != nil {
		return err
	}
	defer log.Sync()

	if cfg.Selector.MappingPath == "" {
		return fmt.Errorf("no tool mapping configured: set selector.mapping_path")
	}
	if cfg.ToolServer.BaseURL == "" {
		return fmt.Errorf("no tool server configured: set tool_server.base_url")
	}

	ctx := context.Background()
	eng, err := engine.Initialize(ctx, engine.EngineOptions{
		Config:   cfg,
		Registry: registry.New(),
		Log:      log,
	})
	if err != nil {
		return err
	}

	questionID, _ := cmd.Flags().GetString("question-id")
	result, err := eng.AnalyzeTopic(ctx, args[0], questionID)
	if err != nil {
		return fmt.Errorf("research failed: %w", err)
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Println(result.CurrentKnowledge)
	if result.FinalReport != "" {
		fmt.Print("\n---\n\n")
		fmt.Println(result.FinalReport)
	}
	return nil
}

// researchConfig layers viper config and flags over the defaults and
// fills API keys from loaded secrets.
func researchConfig(cmd *cobra.Command) types.EngineConfig {
	cfg := types.DefaultEngineConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		fmt.Fprintln(os.Stderr, "Warning: ignoring malformed config:", err)
	}

	if n, _ := cmd.Flags().GetInt("max-iterations"); n > 0 {
		cfg.MaxIterations = n
	}
	if n, _ := cmd.Flags().GetInt("questions-per-iteration"); n > 0 {
		cfg.QuestionsPerIteration = n
	}
	if report, _ := cmd.Flags().GetBool("report"); report {
		cfg.ReportMode = true
	}
	if dir, _ := cmd.Flags().GetString("trace-dir"); dir != "" {
		cfg.TraceDir = dir
	}

	cfg.Models.Reasoning.APIKey = secretDefault("genai-api-key", cfg.Models.Reasoning.APIKey)
	cfg.Models.Fast.APIKey = secretDefault("genai-api-key", cfg.Models.Fast.APIKey)
	cfg.Models.ToolPlanning.APIKey = secretDefault("genai-api-key", cfg.Models.ToolPlanning.APIKey)
	cfg.Models.Report.APIKey = secretDefault("genai-api-key", cfg.Models.Report.APIKey)
	cfg.Embedding.APIKey = secretDefault("embedding-api-key", cfg.Embedding.APIKey)
	cfg.ToolServer.APIKey = secretDefault("tool-server-api-key", cfg.ToolServer.APIKey)

	return cfg
}

func buildLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
