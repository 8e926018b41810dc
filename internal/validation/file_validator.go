package validation

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Sentinel errors for the distinct precondition failures. Callers map
// these to user-facing failures with errors.Is.
var (
	ErrEmptyPath      = errors.New("path is empty")
	ErrPathNotFound   = errors.New("path does not exist")
	ErrNotDirectory   = errors.New("path is not a directory")
	ErrNotWritable    = errors.New("directory is not writable")
	ErrInvalidName    = errors.New("invalid filename")
	ErrWrongExtension = errors.New("unexpected file extension")
)

// FileValidator provides filesystem precondition checks shared by the
// CLI tools and the HTTP layer.
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateInputDirectory validates the extraction source directory.
// The three failure modes are checked in order and stay distinct:
// empty path, missing path, non-directory path.
func (v *FileValidator) ValidateInputDirectory(dir string) error {
	if strings.TrimSpace(dir) == "" {
		v.logger.Error("Input directory not specified")
		return fmt.Errorf("input directory: %w", ErrEmptyPath)
	}

	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		v.logger.Error("Input directory does not exist",
			slog.String("directory", dir))
		return fmt.Errorf("input directory %s: %w", dir, ErrPathNotFound)
	}
	if err != nil {
		v.logger.Error("Failed to stat input directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to stat directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		v.logger.Error("Input path is not a directory",
			slog.String("path", dir))
		return fmt.Errorf("input path %s: %w", dir, ErrNotDirectory)
	}

	return nil
}

// ValidateOutputPath checks that an export destination is usable: a
// non-empty path whose parent directory exists or can be created and
// is writable.
func (v *FileValidator) ValidateOutputPath(path string) error {
	if strings.TrimSpace(path) == "" {
		v.logger.Error("Output path not specified")
		return fmt.Errorf("output path: %w", ErrEmptyPath)
	}
	return v.ValidateOutputDirectory(filepath.Dir(path))
}

// ValidateOutputDirectory ensures output directory exists or can be created
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	// Verify it's writable by creating a test file
	testFile := filepath.Join(dir, ".write_test")
	file, err := os.Create(testFile)
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s: %w", dir, ErrNotWritable)
	}
	file.Close()
	os.Remove(testFile)

	return nil
}

// ValidateFile checks if a specific file exists and is readable
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("File does not exist",
			slog.String("file", path))
		return fmt.Errorf("file %s: %w", path, ErrPathNotFound)
	}
	if err != nil {
		v.logger.Error("Failed to stat file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		v.logger.Error("Path is a directory, not a file",
			slog.String("path", path))
		return fmt.Errorf("%s is a directory, not a file", path)
	}

	// Check if file is readable by opening it
	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateXMLFile checks if a file exists and carries the .xml
// extension (case-insensitive, matching the extractor's selection).
func (v *FileValidator) ValidateXMLFile(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".xml" {
		v.logger.Error("File is not an XML file",
			slog.String("file", path),
			slog.String("extension", ext))
		return fmt.Errorf("file %s (extension %s): %w", path, ext, ErrWrongExtension)
	}

	return nil
}

// ValidateUploadFilename checks a client-supplied filename before it is
// written into a batch directory: a bare name, no path separators or
// traversal, with the .xml extension.
func (v *FileValidator) ValidateUploadFilename(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("upload filename: %w", ErrEmptyPath)
	}
	if name != filepath.Base(name) ||
		strings.ContainsAny(name, `/\`) ||
		strings.Contains(name, "..") {
		v.logger.Warn("Rejected upload filename",
			slog.String("filename", name))
		return fmt.Errorf("upload filename %q: %w", name, ErrInvalidName)
	}
	if ext := strings.ToLower(filepath.Ext(name)); ext != ".xml" {
		return fmt.Errorf("upload filename %q (extension %s): %w", name, ext, ErrWrongExtension)
	}
	return nil
}

// ValidateReportFilename checks a requested download name: a bare
// xlsx/csv filename with no traversal.
func (v *FileValidator) ValidateReportFilename(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("report filename: %w", ErrEmptyPath)
	}
	if name != filepath.Base(name) ||
		strings.ContainsAny(name, `/\`) ||
		strings.Contains(name, "..") {
		v.logger.Warn("Rejected report filename",
			slog.String("filename", name))
		return fmt.Errorf("report filename %q: %w", name, ErrInvalidName)
	}
	ext := strings.ToLower(filepath.Ext(name))
	if ext != ".xlsx" && ext != ".csv" {
		return fmt.Errorf("report filename %q (extension %s): %w", name, ext, ErrWrongExtension)
	}
	return nil
}

// CountFiles counts files matching a pattern in a directory
func (v *FileValidator) CountFiles(dir string, pattern string) (int, error) {
	fullPattern := filepath.Join(dir, pattern)
	matches, err := filepath.Glob(fullPattern)
	if err != nil {
		v.logger.Error("Failed to count files",
			slog.String("pattern", fullPattern),
			slog.String("error", err.Error()))
		return 0, fmt.Errorf("failed to count files: %w", err)
	}

	// Filter out directories from matches
	fileCount := 0
	for _, match := range matches {
		info, err := os.Stat(match)
		if err == nil && !info.IsDir() {
			fileCount++
		}
	}

	v.logger.Debug("Files counted",
		slog.String("directory", dir),
		slog.String("pattern", pattern),
		slog.Int("count", fileCount))
	return fileCount, nil
}
