package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"cosmedcli/internal/files"
	"cosmedcli/internal/validation"
	"cosmedcli/pkg/contracts/domain"
)

// ProgressFunc receives per-file progress during a directory
// extraction. file is the path just finished, parsed or not.
type ProgressFunc func(processed, total int, file string)

// Result carries everything one extraction pass produced: the records
// that parsed, and the per-file failures that did not abort the batch.
type Result struct {
	Records    []domain.SubjectRecord
	Failures   []domain.FileError
	FilesFound int
}

// Extractor turns a directory of COSMED session exports into subject
// records.
type Extractor struct {
	logger    *slog.Logger
	validator *validation.FileValidator
	discovery *files.Discovery
}

// New creates an extractor
func New(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		logger:    logger,
		validator: validation.NewFileValidator(logger),
		discovery: files.NewDiscovery(""),
	}
}

// ExtractDirectory parses every .xml file under dir, in path order.
// A file that fails to parse becomes a Failure entry and the batch
// continues with the remaining files. progress may be nil.
func (e *Extractor) ExtractDirectory(ctx context.Context, dir string, progress ProgressFunc) (*Result, error) {
	if err := e.validator.ValidateInputDirectory(dir); err != nil {
		return nil, err
	}

	found, err := e.discovery.FindXMLFiles(dir)
	if err != nil {
		return nil, err
	}

	e.logger.InfoContext(ctx, "Extracting session files",
		slog.String("directory", dir),
		slog.Int("files", len(found)))

	result := &Result{FilesFound: len(found)}
	for i, fi := range found {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := e.extractFile(fi.Path)
		if err != nil {
			e.logger.WarnContext(ctx, "Skipping unparsable session file",
				slog.String("file", fi.Path),
				slog.String("error", err.Error()))
			result.Failures = append(result.Failures, domain.FileError{
				File:    fi.Path,
				Message: err.Error(),
			})
		} else {
			result.Records = append(result.Records, record)
		}

		if progress != nil {
			progress(i+1, len(found), fi.Path)
		}
	}

	e.logger.InfoContext(ctx, "Extraction complete",
		slog.String("directory", dir),
		slog.Int("parsed", len(result.Records)),
		slog.Int("failed", len(result.Failures)))

	return result, nil
}

// extractFile parses one session file into a SubjectRecord
func (e *Extractor) extractFile(path string) (domain.SubjectRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.SubjectRecord{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	subjectID, readings, err := NewSessionParser(f).Parse()
	if err != nil {
		return domain.SubjectRecord{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	record := domain.SubjectRecord{
		FilePath:   path,
		Filename:   filepath.Base(path),
		SubjectID:  subjectID,
		Parameters: readings,
	}
	if dup := len(record.Parameters) - len(record.ParameterNames()); dup > 0 {
		e.logger.Debug("Duplicate parameter names in session file",
			slog.String("file", path),
			slog.Int("duplicates", dup))
	}
	return record, nil
}

// DiscoverParameters returns the distinct parameter names seen across a
// sample of files under dir, in first-seen order. sample <= 0 scans
// every file. Files that fail to parse are skipped.
func (e *Extractor) DiscoverParameters(ctx context.Context, dir string, sample int) ([]string, error) {
	if err := e.validator.ValidateInputDirectory(dir); err != nil {
		return nil, err
	}

	found, err := e.discovery.FindXMLFiles(dir)
	if err != nil {
		return nil, err
	}
	if sample > 0 && len(found) > sample {
		found = found[:sample]
	}

	var names []string
	seen := make(map[string]struct{})
	for _, fi := range found {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := e.extractFile(fi.Path)
		if err != nil {
			e.logger.DebugContext(ctx, "Skipping file during parameter discovery",
				slog.String("file", fi.Path),
				slog.String("error", err.Error()))
			continue
		}

		for _, name := range record.ParameterNames() {
			if _, ok := seen[name]; !ok {
				seen[name] = struct{}{}
				names = append(names, name)
			}
		}
	}

	return names, nil
}
