package files

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"cosmedcli/internal/config"
)

// Manager provides file management operations for batch uploads and
// generated reports
type Manager struct {
	paths *config.Paths
}

// NewManager creates a new file manager instance
func NewManager(paths *config.Paths) *Manager {
	return &Manager{paths: paths}
}

// FileExists checks if a file exists at the given path
func (m *Manager) FileExists(path string) bool {
	fullPath := m.resolvePath(path)
	_, err := os.Stat(fullPath)
	exists := err == nil

	slog.Debug("FileExists check",
		slog.String("path", path),
		slog.String("full_path", fullPath),
		slog.Bool("exists", exists))

	return exists
}

// CreateDirectory creates a directory with all parent directories
func (m *Manager) CreateDirectory(path string) error {
	fullPath := m.resolvePath(path)

	slog.Info("Creating directory",
		slog.String("path", path),
		slog.String("full_path", fullPath))

	return os.MkdirAll(fullPath, 0755)
}

// SaveUpload streams an uploaded session file into a batch directory
// and returns the number of bytes written. The filename must already
// have passed upload validation.
func (m *Manager) SaveUpload(batchID, filename string, r io.Reader) (int64, error) {
	dstPath := m.paths.GetUploadPath(batchID, filename)

	slog.Info("Saving upload",
		slog.String("batch_id", batchID),
		slog.String("filename", filename),
		slog.String("dst_path", dstPath))

	// Ensure the batch directory exists
	if err := os.MkdirAll(filepath.Dir(dstPath), 0755); err != nil {
		return 0, fmt.Errorf("failed to create batch directory: %w", err)
	}

	dstFile, err := os.Create(dstPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create upload file: %w", err)
	}
	defer dstFile.Close()

	written, err := io.Copy(dstFile, r)
	if err != nil {
		return written, fmt.Errorf("failed to write upload content: %w", err)
	}

	// Sync to ensure write is complete
	if err := dstFile.Sync(); err != nil {
		return written, fmt.Errorf("failed to sync upload file: %w", err)
	}

	return written, nil
}

// DeleteBatch removes a batch directory and all uploaded files in it
func (m *Manager) DeleteBatch(batchID string) error {
	dir := m.paths.GetBatchDir(batchID)

	slog.Info("Deleting batch",
		slog.String("batch_id", batchID),
		slog.String("dir", dir))

	return os.RemoveAll(dir)
}

// DeleteFile deletes a file
func (m *Manager) DeleteFile(path string) error {
	fullPath := m.resolvePath(path)

	slog.Info("Deleting file",
		slog.String("path", path),
		slog.String("full_path", fullPath))

	return os.Remove(fullPath)
}

// GetFileSize returns the size of a file in bytes
func (m *Manager) GetFileSize(path string) (int64, error) {
	fullPath := m.resolvePath(path)
	info, err := os.Stat(fullPath)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// ListFiles returns all files in a directory (non-recursive)
func (m *Manager) ListFiles(dir string) ([]string, error) {
	fullPath := m.resolvePath(dir)

	slog.Debug("Listing files",
		slog.String("dir", dir),
		slog.String("full_path", fullPath))
	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() {
			files = append(files, entry.Name())
		}
	}

	return files, nil
}

// EnsureDirectory creates a directory if it doesn't exist
func (m *Manager) EnsureDirectory(path string) error {
	fullPath := m.resolvePath(path)

	slog.Debug("Ensuring directory exists",
		slog.String("path", path),
		slog.String("full_path", fullPath))

	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		return os.MkdirAll(fullPath, 0755)
	}
	return nil
}

// resolvePath resolves a path relative to the appropriate base directory
func (m *Manager) resolvePath(path string) string {
	// If the path is already absolute, return it as-is
	if filepath.IsAbs(path) {
		return path
	}

	// Determine which directory to use based on the path
	switch {
	case strings.HasPrefix(path, "uploads/"):
		return filepath.Join(m.paths.UploadsDir, strings.TrimPrefix(path, "uploads/"))
	case strings.HasPrefix(path, "reports/"):
		return m.paths.GetReportPath(strings.TrimPrefix(path, "reports/"))
	case strings.HasPrefix(path, "logs/"):
		return m.paths.GetLogPath(strings.TrimPrefix(path, "logs/"))
	default:
		// For files in the data directory
		return filepath.Join(m.paths.DataDir, path)
	}
}
