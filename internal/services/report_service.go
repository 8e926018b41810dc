package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"cosmedcli/internal/config"
	"cosmedcli/internal/files"
	"cosmedcli/internal/validation"
	api "cosmedcli/pkg/contracts/api/v1"
)

// ReportService lists, serves and deletes generated report files in
// the reports directory.
type ReportService struct {
	paths     *config.Paths
	logger    *slog.Logger
	validator *validation.FileValidator
	discovery *files.Discovery
}

// NewReportService creates a report service
func NewReportService(paths *config.Paths, logger *slog.Logger) *ReportService {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "report_service"))

	return &ReportService{
		paths:     paths,
		logger:    logger,
		validator: validation.NewFileValidator(logger),
		discovery: files.NewDiscovery(""),
	}
}

// ListReports returns the report files on disk, newest first
func (s *ReportService) ListReports(ctx context.Context) ([]api.ReportInfo, error) {
	found, err := s.discovery.FindReportFiles(s.paths.ReportsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoReportsFound
		}
		return nil, err
	}
	if len(found) == 0 {
		return nil, ErrNoReportsFound
	}

	reports := make([]api.ReportInfo, 0, len(found))
	for _, fi := range found {
		reports = append(reports, api.ReportInfo{
			Filename:   fi.Name,
			SizeBytes:  fi.Size,
			ModifiedAt: fi.ModTime,
			Format:     strings.TrimPrefix(strings.ToLower(filepath.Ext(fi.Name)), "."),
		})
	}

	return reports, nil
}

// DownloadReport streams a report file to the client with a download
// disposition.
func (s *ReportService) DownloadReport(ctx context.Context, w http.ResponseWriter, r *http.Request, filename string) error {
	path, err := s.resolveReport(filename)
	if err != nil {
		logConversionError(ctx, "download_report", "report download rejected",
			slog.String("filename", filename),
			slog.String("error", err.Error()))
		return err
	}

	s.logger.InfoContext(ctx, "Serving report download",
		slog.String("filename", filename),
		slog.String("path", path))

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filepath.Base(path)))
	w.Header().Set("Content-Type", contentTypeForReport(path))

	http.ServeFile(w, r, path)
	return nil
}

// DeleteReport removes one report file
func (s *ReportService) DeleteReport(ctx context.Context, filename string) error {
	path, err := s.resolveReport(filename)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}

	s.logger.InfoContext(ctx, "Report deleted", slog.String("filename", filename))
	return nil
}

// resolveReport validates a requested filename and returns its
// absolute path, confined to the reports directory.
func (s *ReportService) resolveReport(filename string) (string, error) {
	if err := s.validator.ValidateReportFilename(filename); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	fullPath := filepath.Join(s.paths.ReportsDir, filepath.Clean(filename))
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	absBase, err := filepath.Abs(s.paths.ReportsDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve reports directory: %w", err)
	}
	if !strings.HasPrefix(absPath, absBase+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: path escapes reports directory", ErrInvalidInput)
	}

	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return "", fmt.Errorf("%w: %s", ErrReportNotFound, filename)
	}

	return absPath, nil
}

func contentTypeForReport(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return "text/csv"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}
