package services

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"cosmedcli/internal/config"
	"cosmedcli/internal/exporter"
	"cosmedcli/internal/extractor"
	"cosmedcli/internal/infrastructure"
	"cosmedcli/internal/projector"
	api "cosmedcli/pkg/contracts/api/v1"
	"cosmedcli/pkg/contracts/domain"
)

// previewRowLimit caps the rows returned by Preview
const previewRowLimit = 3

// ConversionService orchestrates the extract, project, export pipeline
// over directories of COSMED session files.
type ConversionService struct {
	paths     *config.Paths
	logger    *slog.Logger
	extractor *extractor.Extractor
	projector *projector.Projector
	exporter  *exporter.TableExporter
	validate  *validator.Validate
	metrics   *infrastructure.BusinessMetrics
	progress  ConversionProgress
}

// NewConversionService creates a conversion service. metrics and
// progress may be nil; recording and broadcasting are skipped then.
func NewConversionService(paths *config.Paths, logger *slog.Logger, metrics *infrastructure.BusinessMetrics, progress ConversionProgress) *ConversionService {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "conversion_service"))

	return &ConversionService{
		paths:     paths,
		logger:    logger,
		extractor: extractor.New(logger),
		projector: projector.New(logger),
		exporter:  exporter.NewTableExporter(paths),
		validate:  validator.New(),
		metrics:   metrics,
		progress:  progress,
	}
}

// Convert runs one full conversion pass: extract every session file
// under the input directory, project the records with the requested
// mode, and write the report. An empty OutputPath picks a timestamped
// file in the reports directory; an empty Format defaults to xlsx.
func (s *ConversionService) Convert(ctx context.Context, req api.ConvertRequest) (result *api.ConversionResult, err error) {
	// CLI callers arrive without a trace ID; generate one so the run's
	// logs still correlate
	ctx = infrastructure.EnsureTraceID(ctx)

	if verr := s.validate.Struct(req); verr != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, verr)
	}

	mode, err := domain.ParseExportMode(req.Mode)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	format := domain.FormatXLSX
	if req.Format != "" {
		if format, err = domain.ParseExportFormat(req.Format); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}
	sel, err := buildSelection(req.Selection)
	if err != nil {
		return nil, err
	}

	conversionID := uuid.New().String()
	start := time.Now()

	infrastructure.RecordActiveConversionChange(ctx, s.metrics, 1, req.Mode)
	defer func() {
		infrastructure.RecordActiveConversionChange(ctx, s.metrics, -1, req.Mode)
		infrastructure.RecordConversionMetrics(ctx, s.metrics, req.Mode, format.String(), time.Since(start), err)
	}()

	s.logger.InfoContext(ctx, "Starting conversion",
		slog.String("conversion_id", conversionID),
		slog.String("input_dir", req.InputDir),
		slog.String("mode", mode.String()),
		slog.String("format", format.String()))

	res, err := s.extractor.ExtractDirectory(ctx, req.InputDir, s.progressFunc(conversionID))
	if err != nil {
		logConversionError(ctx, "extract", "extraction failed",
			slog.String("input_dir", req.InputDir),
			slog.String("error", err.Error()))
		s.sendError(conversionID, err)
		return nil, err
	}
	infrastructure.RecordExtractionMetrics(ctx, s.metrics, int64(len(res.Records)), int64(len(res.Failures)))

	table, err := s.projector.Project(res.Records, mode, sel)
	if err != nil {
		s.sendError(conversionID, err)
		return nil, err
	}

	outputPath := req.OutputPath
	switch {
	case outputPath == "":
		outputPath = s.paths.GetTimestampedReportPath(start, format.Ext())
	case !filepath.IsAbs(outputPath):
		outputPath = s.paths.GetReportPath(outputPath)
	}
	summary := extractor.Summarize(req.InputDir, res)

	opts := exporter.ExportOptions{
		SheetName:   req.SheetName,
		SkipSummary: req.IncludeSummary != nil && !*req.IncludeSummary,
	}
	if err = s.exporter.Export(table, summary, mode, outputPath, format, opts); err != nil {
		logConversionError(ctx, "export", "report write failed",
			slog.String("output_path", outputPath),
			slog.String("error", err.Error()))
		s.sendError(conversionID, err)
		return nil, err
	}
	infrastructure.RecordRowsExported(ctx, s.metrics, int64(table.RowCount()), req.Mode, format.String())

	result = &api.ConversionResult{
		ConversionID: conversionID,
		OutputPath:   outputPath,
		Filename:     filepath.Base(outputPath),
		Mode:         mode.String(),
		Format:       format.String(),
		Rows:         table.RowCount(),
		Columns:      table.ColumnCount(),
		Duration:     time.Since(start).Round(time.Millisecond).String(),
		Summary:      summary,
	}

	s.logger.InfoContext(ctx, "Conversion complete",
		slog.String("conversion_id", conversionID),
		slog.String("output_path", outputPath),
		slog.Int("rows", result.Rows),
		slog.Int("columns", result.Columns),
		slog.Duration("duration", time.Since(start)))

	if s.progress != nil {
		s.progress.SendComplete(conversionID, result)
	}

	return result, nil
}

// Preview projects the extracted records and returns the first rows
// without writing a report.
func (s *ConversionService) Preview(ctx context.Context, req api.PreviewRequest) (*api.PreviewResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	mode, err := domain.ParseExportMode(req.Mode)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	sel, err := buildSelection(req.Selection)
	if err != nil {
		return nil, err
	}

	res, err := s.extractor.ExtractDirectory(ctx, req.InputDir, nil)
	if err != nil {
		return nil, err
	}
	table, err := s.projector.Project(res.Records, mode, sel)
	if err != nil {
		return nil, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = previewRowLimit
	}
	sample := table.Records()
	if len(sample) > limit {
		sample = sample[:limit]
	}

	return &api.PreviewResponse{
		PreviewRows:  len(sample),
		TotalRows:    table.RowCount(),
		TotalColumns: table.ColumnCount(),
		ColumnNames:  table.Columns(),
		SampleData:   sample,
		ExportType:   mode.String(),
	}, nil
}

// DiscoverParameters lists the distinct parameter names present in a
// directory, in first-seen order. sample limits the scan to the first
// N files; zero or negative scans every file.
func (s *ConversionService) DiscoverParameters(ctx context.Context, dir string, sample int) (*api.ParameterListResponse, error) {
	names, err := s.extractor.DiscoverParameters(ctx, dir, sample)
	if err != nil {
		return nil, err
	}
	if names == nil {
		names = []string{}
	}
	return &api.ParameterListResponse{Parameters: names, Count: len(names)}, nil
}

// Summarize extracts a directory and reports what it contains without
// converting anything.
func (s *ConversionService) Summarize(ctx context.Context, dir string) (*domain.ExtractionSummary, error) {
	res, err := s.extractor.ExtractDirectory(ctx, dir, nil)
	if err != nil {
		return nil, err
	}
	summary := extractor.Summarize(dir, res)
	return &summary, nil
}

// progressFunc adapts the progress sink to the extractor callback. A
// nil sink yields a nil callback so the extractor skips reporting.
func (s *ConversionService) progressFunc(conversionID string) extractor.ProgressFunc {
	if s.progress == nil {
		return nil
	}
	return func(processed, total int, file string) {
		s.progress.SendProgress(conversionID, processed, total, filepath.Base(file))
	}
}

func (s *ConversionService) sendError(conversionID string, err error) {
	if s.progress != nil {
		s.progress.SendError(conversionID, err)
	}
}

// buildSelection converts the wire selection into a domain selection,
// validating every phase name. Empty input yields a nil selection,
// which non-custom modes ignore.
func buildSelection(entries []api.SelectionEntry) (*domain.CustomSelection, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	sel := domain.NewCustomSelection()
	for _, e := range entries {
		for _, p := range e.Phases {
			ph, err := domain.ParsePhase(p)
			if err != nil {
				return nil, fmt.Errorf("%w: %q for parameter %q", ErrInvalidPhase, p, e.Parameter)
			}
			sel.Add(e.Parameter, ph)
		}
	}
	return sel, nil
}
