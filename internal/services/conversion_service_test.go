package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel/metric/noop"
	"golang.org/x/sync/errgroup"

	"cosmedcli/internal/config"
	"cosmedcli/internal/infrastructure"
	"cosmedcli/internal/shared/testutil"
	"cosmedcli/internal/validation"
	api "cosmedcli/pkg/contracts/api/v1"
)

// testPaths builds a Paths rooted in a temp directory
func testPaths(t *testing.T) *config.Paths {
	t.Helper()
	base := t.TempDir()
	return &config.Paths{
		ExecutableDir: base,
		DataDir:       filepath.Join(base, "data"),
		UploadsDir:    filepath.Join(base, "data", "uploads"),
		ReportsDir:    filepath.Join(base, "data", "reports"),
		LogsDir:       filepath.Join(base, "logs"),
	}
}

// sessionDir writes two parseable session files and returns the dir
func sessionDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	testutil.WriteSessionFile(t, dir, "a.xml", testutil.SessionDoc{
		SubjectID: "S001",
		Params: []testutil.SessionParam{
			{Name: "HR", Unit: "bpm", Phases: map[string]string{"Max": "180", "AT": "150"}},
			{Name: "VO2", Unit: "mL/min", Phases: map[string]string{"Max": "3200", "AT": "2100", "RC": "2800"}},
		},
	})
	testutil.WriteSessionFile(t, dir, "b.xml", testutil.SessionDoc{
		SubjectID: "S002",
		Params: []testutil.SessionParam{
			{Name: "HR", Unit: "bpm", Phases: map[string]string{"Max": "165"}},
		},
	})
	return dir
}

// progressRecorder is a ConversionProgress sink for assertions
type progressRecorder struct {
	mu        sync.Mutex
	ids       []string
	progress  []int
	completes []*api.ConversionResult
	errors    []error
}

func (r *progressRecorder) SendProgress(conversionID string, processed, total int, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, conversionID)
	r.progress = append(r.progress, processed)
}

func (r *progressRecorder) SendComplete(conversionID string, result *api.ConversionResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, conversionID)
	r.completes = append(r.completes, result)
}

func (r *progressRecorder) SendError(conversionID string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, conversionID)
	r.errors = append(r.errors, err)
}

func TestNewConversionService(t *testing.T) {
	svc := NewConversionService(testPaths(t), nil, nil, nil)
	require.NotNil(t, svc)
	assert.NotNil(t, svc.logger)
	assert.NotNil(t, svc.validate)
}

func TestConversionService_Convert(t *testing.T) {
	paths := testPaths(t)
	svc := NewConversionService(paths, nil, nil, nil)

	result, err := svc.Convert(context.Background(), api.ConvertRequest{
		InputDir: sessionDir(t),
		Mode:     "max",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, result.ConversionID)
	assert.Equal(t, "max", result.Mode)
	assert.Equal(t, "xlsx", result.Format)
	assert.Equal(t, 2, result.Rows)
	assert.Equal(t, result.Filename, filepath.Base(result.OutputPath))
	assert.True(t, strings.HasPrefix(result.Filename, "COSMED_Data_"),
		"default output name should be timestamped, got %s", result.Filename)
	assert.Equal(t, 2, result.Summary.FilesParsed)
	assert.Zero(t, result.Summary.FilesFailed)
	require.FileExists(t, result.OutputPath)

	f, err := excelize.OpenFile(result.OutputPath)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("COSMED Data")
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, []string{"Filename", "Subject ID", "HR (bpm)_Max", "VO2 (mL/min)_Max"}, rows[0])
	require.Len(t, rows, 3)
	assert.Equal(t, "a.xml", rows[1][0])
}

func TestConversionService_Convert_CSVRelativePath(t *testing.T) {
	paths := testPaths(t)
	svc := NewConversionService(paths, nil, nil, nil)

	result, err := svc.Convert(context.Background(), api.ConvertRequest{
		InputDir:   sessionDir(t),
		Mode:       "complete",
		Format:     "csv",
		OutputPath: "custom.csv",
	})
	require.NoError(t, err)

	// Relative paths land in the reports directory
	assert.Equal(t, paths.GetReportPath("custom.csv"), result.OutputPath)
	assert.Equal(t, "csv", result.Format)
	require.FileExists(t, result.OutputPath)

	content, err := os.ReadFile(result.OutputPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(content), "\xEF\xBB\xBF"))
	firstLine := strings.SplitN(strings.TrimPrefix(string(content), "\xEF\xBB\xBF"), "\n", 2)[0]
	assert.True(t, strings.HasPrefix(firstLine, "Filename,Subject ID,File Path"))
}

func TestConversionService_Convert_SheetNameNoSummary(t *testing.T) {
	paths := testPaths(t)
	svc := NewConversionService(paths, nil, nil, nil)

	include := false
	result, err := svc.Convert(context.Background(), api.ConvertRequest{
		InputDir:       sessionDir(t),
		OutputPath:     "named.xlsx",
		Mode:           "max",
		SheetName:      "Study A",
		IncludeSummary: &include,
	})
	require.NoError(t, err)

	f, err := excelize.OpenFile(result.OutputPath)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Study A"}, f.GetSheetList(), "summary sheet skipped")
}

func TestConversionService_Convert_Errors(t *testing.T) {
	paths := testPaths(t)
	svc := NewConversionService(paths, nil, nil, nil)
	dir := sessionDir(t)

	tests := []struct {
		name    string
		req     api.ConvertRequest
		wantErr error
	}{
		{
			name:    "missing input dir",
			req:     api.ConvertRequest{Mode: "complete"},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "unknown mode",
			req:     api.ConvertRequest{InputDir: dir, Mode: "everything"},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "unknown format",
			req:     api.ConvertRequest{InputDir: dir, Mode: "complete", Format: "pdf"},
			wantErr: ErrInvalidInput,
		},
		{
			name: "unknown phase in selection",
			req: api.ConvertRequest{
				InputDir:  dir,
				Mode:      "custom",
				Selection: []api.SelectionEntry{{Parameter: "HR", Phases: []string{"Peak"}}},
			},
			wantErr: ErrInvalidPhase,
		},
		{
			name:    "custom mode without selection",
			req:     api.ConvertRequest{InputDir: dir, Mode: "custom"},
			wantErr: ErrEmptySelection,
		},
		{
			name:    "input dir does not exist",
			req:     api.ConvertRequest{InputDir: filepath.Join(dir, "nope"), Mode: "complete"},
			wantErr: validation.ErrPathNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Convert(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestConversionService_Convert_EmptyDirectory(t *testing.T) {
	svc := NewConversionService(testPaths(t), nil, nil, nil)

	_, err := svc.Convert(context.Background(), api.ConvertRequest{
		InputDir: t.TempDir(),
		Mode:     "complete",
	})
	assert.ErrorIs(t, err, ErrNoData)
}

func TestConversionService_Convert_Progress(t *testing.T) {
	recorder := &progressRecorder{}
	svc := NewConversionService(testPaths(t), nil, nil, recorder)

	result, err := svc.Convert(context.Background(), api.ConvertRequest{
		InputDir: sessionDir(t),
		Mode:     "complete",
	})
	require.NoError(t, err)

	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	assert.Equal(t, []int{1, 2}, recorder.progress)
	require.Len(t, recorder.completes, 1)
	assert.Equal(t, result.ConversionID, recorder.completes[0].ConversionID)
	assert.Empty(t, recorder.errors)
	for _, id := range recorder.ids {
		assert.Equal(t, result.ConversionID, id)
	}
}

func TestConversionService_Convert_ProgressError(t *testing.T) {
	recorder := &progressRecorder{}
	svc := NewConversionService(testPaths(t), nil, nil, recorder)

	_, err := svc.Convert(context.Background(), api.ConvertRequest{
		InputDir: sessionDir(t),
		Mode:     "custom",
	})
	require.ErrorIs(t, err, ErrEmptySelection)

	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	require.Len(t, recorder.errors, 1)
	assert.ErrorIs(t, recorder.errors[0], ErrEmptySelection)
	assert.Empty(t, recorder.completes)
}

func TestConversionService_Convert_Concurrent(t *testing.T) {
	paths := testPaths(t)
	meter := noop.NewMeterProvider().Meter("test")
	metrics, err := infrastructure.CreateBusinessMetrics(meter)
	require.NoError(t, err)

	svc := NewConversionService(paths, nil, metrics, nil)
	dir := sessionDir(t)
	out := t.TempDir()

	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < 4; i++ {
		i := i
		g.Go(func() error {
			_, err := svc.Convert(ctx, api.ConvertRequest{
				InputDir:   dir,
				Mode:       "complete",
				OutputPath: filepath.Join(out, fmt.Sprintf("run_%d.xlsx", i)),
			})
			return err
		})
	}
	require.NoError(t, g.Wait())

	for i := 0; i < 4; i++ {
		assert.FileExists(t, filepath.Join(out, fmt.Sprintf("run_%d.xlsx", i)))
	}
}

func TestConversionService_ConvertUploadedBatch(t *testing.T) {
	paths := testPaths(t)
	batches := NewBatchService(paths, nil, nil)
	svc := NewConversionService(paths, nil, nil, nil)
	ctx := context.Background()

	batch, err := batches.CreateBatch(ctx)
	require.NoError(t, err)
	xml := testutil.BuildSessionXML(testutil.SessionDoc{
		SubjectID: "S009",
		Params: []testutil.SessionParam{
			{Name: "HR", Unit: "bpm", Phases: map[string]string{"Max": "172"}},
		},
	})
	_, err = batches.AddFile(ctx, batch.ID, "visit1.xml", strings.NewReader(xml))
	require.NoError(t, err)

	inputDir, err := batches.InputDir(ctx, batch.ID)
	require.NoError(t, err)

	result, err := svc.Convert(ctx, api.ConvertRequest{InputDir: inputDir, Mode: "max"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Rows)
	assert.Equal(t, 1, result.Summary.FilesParsed)
}

func TestConversionService_Preview(t *testing.T) {
	svc := NewConversionService(testPaths(t), nil, nil, nil)

	dir := t.TempDir()
	for i := 0; i < 4; i++ {
		testutil.WriteSessionFile(t, dir, fmt.Sprintf("s%02d.xml", i), testutil.SessionDoc{
			SubjectID: fmt.Sprintf("S%02d", i),
			Params: []testutil.SessionParam{
				{Name: "HR", Unit: "bpm", Phases: map[string]string{"Max": "160"}},
			},
		})
	}

	resp, err := svc.Preview(context.Background(), api.PreviewRequest{InputDir: dir, Mode: "max"})
	require.NoError(t, err)

	assert.Equal(t, "max", resp.ExportType)
	assert.Equal(t, 3, resp.PreviewRows)
	assert.Equal(t, 4, resp.TotalRows)
	assert.Len(t, resp.SampleData, 3)
	assert.Equal(t, []string{"Filename", "Subject ID", "HR (bpm)_Max"}, resp.ColumnNames)
	assert.Equal(t, len(resp.ColumnNames), resp.TotalColumns)
	assert.Equal(t, "s00.xml", resp.SampleData[0][0])

	// explicit limit overrides the default cap
	resp, err = svc.Preview(context.Background(), api.PreviewRequest{InputDir: dir, Mode: "max", Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.PreviewRows)
	assert.Equal(t, 4, resp.TotalRows)
}

func TestConversionService_Preview_CustomSelectionOrder(t *testing.T) {
	svc := NewConversionService(testPaths(t), nil, nil, nil)

	resp, err := svc.Preview(context.Background(), api.PreviewRequest{
		InputDir: sessionDir(t),
		Mode:     "custom",
		Selection: []api.SelectionEntry{
			{Parameter: "VO2", Phases: []string{"AT", "RC"}},
			{Parameter: "HR", Phases: []string{"Max"}},
		},
	})
	require.NoError(t, err)

	want := []string{
		"Filename",
		"Subject ID",
		"VO2 (mL/min) - AT",
		"VO2 (mL/min) - RC",
		"HR (bpm)",
	}
	assert.Equal(t, want, resp.ColumnNames)
	assert.Equal(t, "custom", resp.ExportType)
}

func TestConversionService_DiscoverParameters(t *testing.T) {
	svc := NewConversionService(testPaths(t), nil, nil, nil)

	resp, err := svc.DiscoverParameters(context.Background(), sessionDir(t), 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"HR", "VO2"}, resp.Parameters)
	assert.Equal(t, 2, resp.Count)
}

func TestConversionService_DiscoverParameters_EmptyDirectory(t *testing.T) {
	svc := NewConversionService(testPaths(t), nil, nil, nil)

	resp, err := svc.DiscoverParameters(context.Background(), t.TempDir(), 0)
	require.NoError(t, err)
	// Parameters must serialize as an empty list, not null
	assert.NotNil(t, resp.Parameters)
	assert.Zero(t, resp.Count)
}

func TestConversionService_Summarize(t *testing.T) {
	svc := NewConversionService(testPaths(t), nil, nil, nil)

	dir := sessionDir(t)
	testutil.WriteMalformedFile(t, dir, "broken.xml")

	summary, err := svc.Summarize(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, dir, summary.Directory)
	assert.Equal(t, 3, summary.FilesFound)
	assert.Equal(t, 2, summary.FilesParsed)
	assert.Equal(t, 1, summary.FilesFailed)
	assert.Equal(t, 2, summary.SubjectsWithID)
	assert.Equal(t, []string{"HR", "VO2"}, summary.UniqueParameters)
	require.Len(t, summary.Failures, 1)
	assert.Contains(t, summary.Failures[0].File, "broken.xml")
}
