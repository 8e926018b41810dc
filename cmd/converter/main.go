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
	"cosmedcli/pkg/contracts"
	api "cosmedcli/pkg/contracts/api/v1"
	"cosmedcli/pkg/contracts/domain"
)

func main() {
	in := flag.String("in", "", "directory containing COSMED session XML exports (defaults to data/uploads relative to executable)")
	out := flag.String("out", "", "output report path (defaults to a timestamped file in data/reports)")
	mode := flag.String("mode", "complete", "complete | max | selected | custom")
	format := flag.String("format", "xlsx", "xlsx | csv")
	custom := flag.String("custom", "", `custom selection, e.g. "HR:Max;VO2/kg:MFO,AT,RC,Max" (custom mode only)`)
	sheet := flag.String("sheet", "", "worksheet name for xlsx output (defaults to config)")
	noSummary := flag.Bool("no-summary", false, "skip the summary sheet in xlsx output")
	logLevel := flag.String("loglevel", "", "debug | info | warn | error (overrides config)")
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(contracts.GetFullVersionString())
		return
	}

	// Initialize paths first to get default directories
	paths, err := config.GetPaths()
	if err != nil {
		slog.Error("Failed to initialize paths", "error", err)
		os.Exit(1)
	}

	if *in == "" {
		*in = paths.UploadsDir
	}

	if err := paths.EnsureDirectories(); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		cfg = config.Default()
		cfg.Logging.FilePath = paths.GetLogPath("converter.log")
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}

	// Fail fast on bad mode or format before touching any files
	if _, err := domain.ParseExportMode(*mode); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if _, err := domain.ParseExportFormat(*format); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var selection []api.SelectionEntry
	if *custom != "" {
		sel, err := domain.ParseCustomSelection(*custom)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid -custom spec: %v\n", err)
			os.Exit(1)
		}
		selection = selectionEntries(sel)
	}

	logger.Info("Starting conversion",
		slog.String("input_dir", *in),
		slog.String("mode", *mode),
		slog.String("format", *format),
		slog.String("executable_dir", paths.ExecutableDir))

	includeSummary := !*noSummary
	req := api.ConvertRequest{
		InputDir:       *in,
		OutputPath:     *out,
		Mode:           *mode,
		Format:         *format,
		Selection:      selection,
		SheetName:      *sheet,
		IncludeSummary: &includeSummary,
	}

	svc := services.NewConversionService(paths, logger, nil, stdoutProgress{})

	result, err := svc.Convert(context.Background(), req)
	if err != nil {
		logger.Error("Conversion failed", slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "conversion failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Converted %d rows x %d columns -> %s\n", result.Rows, result.Columns, result.OutputPath)
	if result.Summary.FilesFailed > 0 {
		fmt.Printf("%d of %d files failed\n", result.Summary.FilesFailed, result.Summary.FilesFound)
		for _, failure := range result.Summary.Failures {
			fmt.Printf("  %s: %s\n", failure.File, failure.Message)
		}
	}

	logger.Info("Conversion completed",
		slog.Int("rows", result.Rows),
		slog.Int("columns", result.Columns),
		slog.String("output_path", result.OutputPath))
}

// selectionEntries converts a parsed CLI selection into the wire form
// the conversion service accepts.
func selectionEntries(sel *domain.CustomSelection) []api.SelectionEntry {
	var entries []api.SelectionEntry
	for _, name := range sel.Parameters() {
		entry := api.SelectionEntry{Parameter: name}
		for _, ph := range sel.PhasesFor(name) {
			entry.Phases = append(entry.Phases, string(ph))
		}
		entries = append(entries, entry)
	}
	return entries
}

// stdoutProgress prints per-file progress so wrapping scripts can
// follow a long batch.
type stdoutProgress struct{}

func (stdoutProgress) SendProgress(conversionID string, processed, total int, message string) {
	fmt.Printf("Processing file %d of %d: %s\n", processed, total, message)
}

func (stdoutProgress) SendComplete(conversionID string, result *api.ConversionResult) {}

func (stdoutProgress) SendError(conversionID string, err error) {}
