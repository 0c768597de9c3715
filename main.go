package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"retail-analytics/config"
	"retail-analytics/metrics"
	"retail-analytics/models"
	"retail-analytics/render"
	"retail-analytics/services"
	"retail-analytics/storage"
	"retail-analytics/utils"
)

func main() {
	var (
		input  = flag.String("input", "", "CSV/TSV/XLSX path or postgres:// URL (overrides RETAIL_DATA_PATH)")
		topN   = flag.Int("top-n", 0, "Number of entries in ranked tables (overrides RETAIL_TOP_N)")
		charts = flag.Bool("charts", false, "Render charts (overrides RETAIL_RENDER_CHARTS)")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		utils.NewLogger().Error("Invalid configuration: %v", err)
		os.Exit(1)
	}
	if err := applyFlags(cfg, *input, *topN, *charts); err != nil {
		utils.NewLogger().Error("Invalid flags: %v", err)
		os.Exit(1)
	}

	runID := uuid.NewString()
	logger := utils.NewLoggerFromConfig(cfg.LogFormat, cfg.LogLevel).With("run_id", runID)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, runID, logger); err != nil {
		logger.Error("Pipeline failed: %v", err)
		stop()
		os.Exit(1)
	}
}

// applyFlags overrides cfg with the flags that were set on the command line.
func applyFlags(cfg *config.Config, input string, topN int, charts bool) error {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "input":
			cfg.DataPath = input
		case "top-n":
			cfg.TopN = topN
		case "charts":
			cfg.RenderCharts = charts
		}
	})
	return cfg.Validate()
}

func run(ctx context.Context, cfg *config.Config, runID string, logger *utils.Logger) error {
	logger.Info("=== Retail analytics pipeline starting ===")
	logger.Info("Config: source %s | date column %s | top-n %d | charts %v",
		cfg.DataPath, cfg.DateColumn, cfg.TopN, cfg.RenderCharts)

	stats := metrics.NewPipeline(runID)
	defer writeMetrics(cfg, stats, logger)

	start := time.Now()
	source, err := storage.NewSource(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer source.Close()

	raw, err := source.Load(ctx)
	if err != nil {
		var notFound *models.NotFoundError
		if errors.As(err, &notFound) {
			logger.Error("Input %s does not exist; set RETAIL_DATA_PATH or pass -input", notFound.Path)
		}
		return fmt.Errorf("load: %w", err)
	}
	load := storage.Summarize(raw)
	stats.RecordLoad(load)
	stats.ObserveStage("load", start)
	logger.Info("[load] Loaded %d rows x %d columns (%.2f MB)", load.Rows, load.Columns, load.MemoryUsageMB)

	start = time.Now()
	featured, features, err := services.NewFeatureExtractor(logger).Extract(raw, cfg.DateColumn)
	if err != nil {
		return fmt.Errorf("extract features: %w", err)
	}
	stats.ObserveStage("features", start)

	start = time.Now()
	cleaned, cleaning, err := services.NewCleaner(logger).Clean(featured, cfg.MissingStrategy)
	if err != nil {
		return fmt.Errorf("clean: %w", err)
	}
	stats.RecordCleaning(cleaning)
	stats.ObserveStage("clean", start)

	if cleaned.Len() == 0 {
		return errors.New("no rows left after cleaning")
	}

	start = time.Now()
	reports := services.NewReportService(logger).WithRunID(runID)
	report, err := reports.Generate(ctx, cleaned, cfg.TopN)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	report.Load, report.Features, report.Cleaning = load, features, cleaning
	stats.ObserveStage("report", start)
	reports.Print(report)

	if cfg.RenderCharts {
		start = time.Now()
		renderCharts(ctx, cfg, report, stats, logger)
		stats.ObserveStage("render", start)
	}

	logger.Info("=== Done: %d rows analysed ===", cleaned.Len())
	return nil
}

// renderCharts draws the standard chart set. Chart failures are warnings only.
func renderCharts(ctx context.Context, cfg *config.Config, report *models.AnalysisReport, stats *metrics.Pipeline, logger *utils.Logger) {
	jobs, err := render.ChartJobs(report, cfg.ChartsDir, cfg.ChartFormat, cfg.TopN)
	if err != nil {
		logger.Warn("[render] Skipping charts: %v", err)
		return
	}

	renderer := render.NewRenderer(cfg, logger)
	defer renderer.Close()

	rendered := 0
	for _, fig := range renderer.RenderAll(ctx, jobs) {
		if fig != nil {
			rendered++
		}
	}
	stats.RecordCharts(rendered, len(jobs))
}

func writeMetrics(cfg *config.Config, stats *metrics.Pipeline, logger *utils.Logger) {
	if cfg.MetricsTextfile == "" {
		return
	}
	if err := stats.WriteTextfile(cfg.MetricsTextfile); err != nil {
		logger.Warn("[metrics] %v", err)
		return
	}
	logger.Info("[metrics] Wrote %s", cfg.MetricsTextfile)
}
