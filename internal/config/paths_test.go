package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPaths(t *testing.T) {
	paths, err := GetPaths()
	require.NoError(t, err)
	require.NotNil(t, paths)

	assert.NotEmpty(t, paths.ExecutableDir)
	assert.True(t, filepath.IsAbs(paths.ExecutableDir))

	// All derived directories hang off the executable directory.
	assert.Equal(t, filepath.Join(paths.ExecutableDir, "data"), paths.DataDir)
	assert.Equal(t, filepath.Join(paths.DataDir, "uploads"), paths.UploadsDir)
	assert.Equal(t, filepath.Join(paths.DataDir, "reports"), paths.ReportsDir)
	assert.Equal(t, filepath.Join(paths.ExecutableDir, "logs"), paths.LogsDir)
}

func TestPathHelpers(t *testing.T) {
	paths := &Paths{
		ExecutableDir: "/opt/cosmed",
		DataDir:       "/opt/cosmed/data",
		UploadsDir:    "/opt/cosmed/data/uploads",
		ReportsDir:    "/opt/cosmed/data/reports",
		LogsDir:       "/opt/cosmed/logs",
	}

	assert.Equal(t, filepath.Join("/opt/cosmed/data/uploads", "b1"), paths.GetBatchDir("b1"))
	assert.Equal(t,
		filepath.Join("/opt/cosmed/data/uploads", "b1", "s1.xml"),
		paths.GetUploadPath("b1", "s1.xml"))
	assert.Equal(t,
		filepath.Join("/opt/cosmed/data/reports", "out.xlsx"),
		paths.GetReportPath("out.xlsx"))
	assert.Equal(t,
		filepath.Join("/opt/cosmed/logs", "app.log"),
		paths.GetLogPath("app.log"))
	assert.Equal(t,
		filepath.Join("/opt/cosmed", "extra"),
		paths.GetRelativePath("extra"))
}

func TestGetTimestampedReportPath(t *testing.T) {
	paths := &Paths{ReportsDir: "/tmp/reports"}
	ts := time.Date(2026, 1, 14, 15, 30, 45, 0, time.UTC)

	got := paths.GetTimestampedReportPath(ts, ".xlsx")
	assert.Equal(t, filepath.Join("/tmp/reports", "COSMED_Data_20260114_153045.xlsx"), got)
	assert.True(t, strings.HasSuffix(got, ".xlsx"))
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	paths := &Paths{
		ExecutableDir: base,
		DataDir:       filepath.Join(base, "data"),
		UploadsDir:    filepath.Join(base, "data", "uploads"),
		ReportsDir:    filepath.Join(base, "data", "reports"),
		LogsDir:       filepath.Join(base, "logs"),
	}

	require.NoError(t, paths.EnsureDirectories())

	for _, dir := range []string{paths.DataDir, paths.UploadsDir, paths.ReportsDir, paths.LogsDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err, "directory %s", dir)
		assert.True(t, info.IsDir())
	}

	// Idempotent on existing directories.
	require.NoError(t, paths.EnsureDirectories())
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "probe.txt")

	assert.False(t, FileExists(file))
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))
	assert.True(t, FileExists(file))
}
