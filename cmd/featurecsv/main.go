// Command featurecsv engineers the full feature set for one instrument
// pattern and writes it to a CSV file for inspection.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"idxcast/internal/config"
	"idxcast/internal/infrastructure"
	"idxcast/internal/services"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	dataFile := flag.String("data", "", "override the configured data file")
	pattern := flag.String("pattern", "", "instrument pattern (required)")
	out := flag.String("out", "features.csv", "output CSV path")
	from := flag.String("from", "", "start date (YYYY-MM-DD, inclusive)")
	to := flag.String("to", "", "end date (YYYY-MM-DD, inclusive)")
	flag.Parse()

	if *pattern == "" {
		fmt.Fprintln(os.Stderr, "usage: featurecsv -pattern <name> [-out features.csv] [-from 2020-01-01] [-to 2024-12-31]")
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

	req := services.TrainRequest{Pattern: *pattern}
	if req.From, err = parseDateFlag(*from); err != nil {
		logger.Error("Invalid -from date", "error", err)
		os.Exit(2)
	}
	if req.To, err = parseDateFlag(*to); err != nil {
		logger.Error("Invalid -to date", "error", err)
		os.Exit(2)
	}

	svc := services.NewPipelineServiceWithLogger(cfg, logger)
	ctx := infrastructure.EnsureTraceID(context.Background())

	rows, err := svc.ExportFeatures(ctx, req, *out)
	if err != nil {
		logger.Error("Feature export failed", "pattern", *pattern, "error", err)
		os.Exit(1)
	}
	fmt.Printf("wrote %d rows to %s\n", rows, *out)
}

func parseDateFlag(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", raw)
}
