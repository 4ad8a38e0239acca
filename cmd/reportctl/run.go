package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/comitanigiacomo/kanso-report-engine/internal/adapters/bundlesource"
	"github.com/comitanigiacomo/kanso-report-engine/internal/adapters/repository"
	"github.com/comitanigiacomo/kanso-report-engine/internal/config"
	"github.com/comitanigiacomo/kanso-report-engine/internal/core/report"
	"github.com/comitanigiacomo/kanso-report-engine/internal/core/services"
	"github.com/comitanigiacomo/kanso-report-engine/internal/logging"
	"github.com/comitanigiacomo/kanso-report-engine/internal/metrics"
)

type runOptions struct {
	dir         string
	out         string
	startDate   string
	endDate     string
	concurrency int
}

func newRunCmd(envFile *string, newGenerator generatorFactory) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate a report for every bundle in a directory",
		Long: `Reads every *.json bundle in --dir, generates its report and writes
the result under --out/{weekly,monthly}_report/. Failed runs are written as
fallback reports carrying the error; replies that could not be parsed are
also kept as _raw_*.txt files.

Examples:
  reportctl run --dir data --out outputs
  reportctl run --dir data --start 2024-01-01 --end 2024-01-31`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*envFile)
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.Env, cfg.LogLevel)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runBatch(ctx, cmd, cfg, logger, opts, newGenerator)
		},
	}

	cmd.Flags().StringVar(&opts.dir, "dir", "data", "directory of bundle JSON files")
	cmd.Flags().StringVar(&opts.out, "out", "", "output directory (default OUTPUT_DIR)")
	cmd.Flags().StringVar(&opts.startDate, "start", "", "period start YYYY-MM-DD (default from the report type)")
	cmd.Flags().StringVar(&opts.endDate, "end", "", "period end YYYY-MM-DD (default today)")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 0, "parallel generations (default BATCH_CONCURRENCY)")
	return cmd
}

func runBatch(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *zap.Logger, opts runOptions, newGenerator generatorFactory) error {
	if opts.out == "" {
		opts.out = cfg.OutputDir
	}
	if opts.concurrency <= 0 {
		opts.concurrency = cfg.Generation.Concurrency
	}

	inputs, err := bundlesource.LoadDir(opts.dir, opts.startDate, opts.endDate)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no *.json bundles found in %s", opts.dir)
	}

	gen, err := newGenerator(ctx, cfg, logger)
	if err != nil {
		return err
	}

	files := repository.NewFileReportRepository(opts.out)
	engine := report.NewEngine(report.Config{
		TopK:         cfg.Generation.TopK,
		ReasonSource: cfg.Generation.ReasonSource,
	})
	svc := services.NewReportService(engine, gen, files, metrics.NewMetrics(), logger, services.ReportConfig{
		GenerationTimeout: cfg.Generation.Timeout,
		BatchConcurrency:  opts.concurrency,
	})

	results := svc.RunBatch(ctx, inputs)

	keepFailures(ctx, files, results, logger)

	return printResults(cmd, files, results)
}

// keepFailures writes the fallback record of every failed run next to the
// successful reports, plus the unparsed reply when there is one. Clean
// records were already saved by the service.
func keepFailures(ctx context.Context, files *repository.FileReportRepository, results []services.BatchResult, logger *zap.Logger) {
	for _, r := range results {
		if r.Report == nil || !r.Report.Failed() {
			continue
		}
		if err := files.Save(ctx, r.Report); err != nil {
			logger.Error("failed to write fallback report", zap.String("source", r.Source), zap.Error(err))
		}
		if err := files.SaveRaw(ctx, r.Report); err != nil {
			logger.Error("failed to keep raw reply", zap.String("source", r.Source), zap.Error(err))
		}
	}
}

func printResults(cmd *cobra.Command, files *repository.FileReportRepository, results []services.BatchResult) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SOURCE\tUSER\tTYPE\tSTATUS\tDETAIL")

	ok := 0
	for _, r := range results {
		detail := r.Error
		switch {
		case r.Status == services.StatusOK:
			ok++
			detail = files.ReportPath(r.Report)
		case r.Report != nil:
			detail = files.ReportPath(r.Report) + ": " + r.Error
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.Source, r.UserID, r.Type, r.Status, detail)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(cmd.OutOrStdout(), "%d/%d reports generated\n", ok, len(results))
	return err
}
