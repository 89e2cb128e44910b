// Command train runs the full pipeline for one or more instrument patterns:
// prepare, split chronologically, fit, evaluate, persist model and report.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"idxcast/internal/config"
	"idxcast/internal/exporter"
	"idxcast/internal/infrastructure"
	"idxcast/internal/services"

	_ "idxcast/internal/trainer/boost"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	dataFile := flag.String("data", "", "override the configured data file")
	patterns := flag.String("patterns", "", "comma-separated instrument patterns (required)")
	model := flag.String("model", "", "model variant: logistic, knn, tree or boosted")
	testFraction := flag.Float64("test-fraction", 0, "override the configured test fraction")
	parallel := flag.Int("parallel", 4, "maximum concurrent training runs")
	flag.Parse()

	if *patterns == "" {
		fmt.Fprintln(os.Stderr, "usage: train -patterns <p1,p2,...> [-model logistic] [-config config.yaml]")
		os.Exit(2)
	}

	cfg, err := config.LoadFrom(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if *dataFile != "" {
		cfg.Paths.DataFile = *dataFile
	}

	logger := infrastructure.MustInitializeLogger(cfg.Logging)
	defer infrastructure.CloseLogFile()

	if err := cfg.EnsureDirectories(); err != nil {
		logger.Error("Failed to create output directories", "error", err)
		os.Exit(1)
	}

	svc := services.NewPipelineServiceWithLogger(cfg, logger)
	ctx := infrastructure.EnsureTraceID(context.Background())

	var (
		mu      sync.Mutex
		reports []*exporter.EvaluationReport
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(*parallel)

	for _, pattern := range strings.Split(*patterns, ",") {
		pattern := strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		g.Go(func() error {
			report, err := svc.Train(gctx, services.TrainRequest{
				Pattern:      pattern,
				Model:        *model,
				TestFraction: *testFraction,
			})
			if err != nil {
				return fmt.Errorf("pattern %q: %w", pattern, err)
			}
			mu.Lock()
			reports = append(reports, report)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("Training failed", "error", err)
		os.Exit(1)
	}

	for _, report := range reports {
		printSummary(report)
	}
}

func printSummary(report *exporter.EvaluationReport) {
	fmt.Printf("\n=== %s (%s) ===\n", report.Pattern, report.Model)
	fmt.Printf("run:       %s\n", report.RunID)
	fmt.Printf("rows:      %d train / %d test\n", report.TrainRows, report.TestRows)
	fmt.Printf("accuracy:  %.4f\n", report.Metrics.Accuracy)
	if report.Metrics.ROCAUC != nil {
		fmt.Printf("roc auc:   %.4f\n", *report.Metrics.ROCAUC)
	}
	fmt.Printf("confusion: %v\n", report.Metrics.ConfusionMatrix)
	if report.Metrics.ClassificationReport != "" {
		fmt.Println(report.Metrics.ClassificationReport)
	}
}
