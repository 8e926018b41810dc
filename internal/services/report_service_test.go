package services

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cosmedcli/internal/config"
)

// writeReport drops a fake report file with a fixed modification time
func writeReport(t *testing.T, paths *config.Paths, name, content string, modTime time.Time) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(paths.ReportsDir, 0755))
	path := filepath.Join(paths.ReportsDir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	require.NoError(t, os.Chtimes(path, modTime, modTime))
	return path
}

func TestReportService_ListReports(t *testing.T) {
	paths := testPaths(t)
	svc := NewReportService(paths, nil)
	ctx := context.Background()

	_, err := svc.ListReports(ctx)
	assert.ErrorIs(t, err, ErrNoReportsFound)

	now := time.Now()
	writeReport(t, paths, "old.xlsx", "xlsx-bytes", now.Add(-time.Hour))
	writeReport(t, paths, "new.csv", "csv-bytes", now)
	// Non-report files are ignored
	require.NoError(t, os.WriteFile(filepath.Join(paths.ReportsDir, "notes.txt"), []byte("x"), 0644))

	reports, err := svc.ListReports(ctx)
	require.NoError(t, err)
	require.Len(t, reports, 2)

	assert.Equal(t, "new.csv", reports[0].Filename)
	assert.Equal(t, "csv", reports[0].Format)
	assert.Equal(t, int64(len("csv-bytes")), reports[0].SizeBytes)
	assert.Equal(t, "old.xlsx", reports[1].Filename)
	assert.Equal(t, "xlsx", reports[1].Format)
}

func TestReportService_DownloadReport(t *testing.T) {
	paths := testPaths(t)
	svc := NewReportService(paths, nil)
	writeReport(t, paths, "report.xlsx", "workbook-bytes", time.Now())

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/api/reports/report.xlsx/download", nil)

	err := svc.DownloadReport(context.Background(), w, r, "report.xlsx")
	require.NoError(t, err)

	assert.Equal(t, 200, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), `filename="report.xlsx"`)
	assert.Equal(t,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		w.Header().Get("Content-Type"))
	assert.Equal(t, "workbook-bytes", w.Body.String())
}

func TestReportService_DownloadReport_Rejections(t *testing.T) {
	paths := testPaths(t)
	svc := NewReportService(paths, nil)
	writeReport(t, paths, "report.xlsx", "workbook-bytes", time.Now())

	tests := []struct {
		name     string
		filename string
		wantErr  error
	}{
		{name: "traversal", filename: "../report.xlsx", wantErr: ErrInvalidInput},
		{name: "wrong extension", filename: "report.txt", wantErr: ErrInvalidInput},
		{name: "missing file", filename: "other.xlsx", wantErr: ErrReportNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest("GET", "/api/reports/x/download", nil)
			err := svc.DownloadReport(context.Background(), w, r, tt.filename)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestReportService_DeleteReport(t *testing.T) {
	paths := testPaths(t)
	svc := NewReportService(paths, nil)
	ctx := context.Background()
	path := writeReport(t, paths, "report.csv", "csv-bytes", time.Now())

	require.NoError(t, svc.DeleteReport(ctx, "report.csv"))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	assert.ErrorIs(t, svc.DeleteReport(ctx, "report.csv"), ErrReportNotFound)
}
