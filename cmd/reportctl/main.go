package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/comitanigiacomo/kanso-report-engine/internal/adapters/generator"
	"github.com/comitanigiacomo/kanso-report-engine/internal/config"
	"github.com/comitanigiacomo/kanso-report-engine/internal/core/report"
)

// generatorFactory builds the generator for a run. Tests swap it for a stub.
type generatorFactory func(ctx context.Context, cfg *config.Config, logger *zap.Logger) (report.Generator, error)

func geminiFactory(ctx context.Context, cfg *config.Config, logger *zap.Logger) (report.Generator, error) {
	if cfg.Generation.APIKey == "" {
		logger.Warn("GEMINI_API_KEY not set, every report will end with a generation failure")
		return nil, nil
	}
	g, err := generator.NewGemini(ctx, generator.GeminiConfig{
		APIKey:      cfg.Generation.APIKey,
		Model:       cfg.Generation.Model,
		Temperature: float32(cfg.Generation.Temperature),
	}, logger)
	if err != nil {
		return nil, err
	}
	return g, nil
}

func newRootCmd(newGenerator generatorFactory) *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "reportctl",
		Short:         "Generate habit reports offline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional .env file to load")

	root.AddCommand(newRunCmd(&envFile, newGenerator))
	root.AddCommand(newTokenCmd(&envFile))
	return root
}

func main() {
	if err := newRootCmd(geminiFactory).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
