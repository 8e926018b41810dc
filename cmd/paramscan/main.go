package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"cosmedcli/internal/config"
	"cosmedcli/internal/infrastructure"
	"cosmedcli/internal/services"
)

func main() {
	in := flag.String("in", "", "directory containing COSMED session XML exports (defaults to data/uploads relative to executable)")
	sample := flag.Int("sample", 0, "scan only the first n files (0 scans everything)")
	flag.Parse()

	paths, err := config.GetPaths()
	if err != nil {
		slog.Error("Failed to initialize paths", "error", err)
		os.Exit(1)
	}

	if *in == "" {
		*in = paths.UploadsDir
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		cfg = config.Default()
		cfg.Logging.FilePath = paths.GetLogPath("paramscan.log")
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}

	svc := services.NewConversionService(paths, logger, nil, nil)

	resp, err := svc.DiscoverParameters(context.Background(), *in, *sample)
	if err != nil {
		logger.Error("Parameter discovery failed",
			slog.String("input_dir", *in),
			slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "parameter discovery failed: %v\n", err)
		os.Exit(1)
	}

	for _, name := range resp.Parameters {
		fmt.Println(name)
	}

	logger.Info("Parameter discovery completed",
		slog.String("input_dir", *in),
		slog.Int("parameters", resp.Count))
}
