package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apierrors "cosmedcli/internal/errors"
	"cosmedcli/internal/services"
	"cosmedcli/internal/validation"
	api "cosmedcli/pkg/contracts/api/v1"
	"cosmedcli/pkg/contracts/domain"
)

const testBatchID = "f47ac10b-58cc-4372-a567-0e02b2c3d479"

// MockBatchService is a mock implementation of BatchServiceInterface
type MockBatchService struct {
	mock.Mock
}

func (m *MockBatchService) CreateBatch(ctx context.Context) (*services.Batch, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Batch), args.Error(1)
}

func (m *MockBatchService) AddFile(ctx context.Context, batchID, filename string, r io.Reader) (*services.Batch, error) {
	args := m.Called(batchID, filename)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Batch), args.Error(1)
}

func (m *MockBatchService) GetBatch(ctx context.Context, id string) (*services.Batch, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Batch), args.Error(1)
}

func (m *MockBatchService) ListBatches(ctx context.Context) []*services.Batch {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]*services.Batch)
}

func (m *MockBatchService) DeleteBatch(ctx context.Context, id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockBatchService) InputDir(ctx context.Context, id string) (string, error) {
	args := m.Called(id)
	return args.String(0), args.Error(1)
}

// MockConversionService is a mock implementation of ConversionServiceInterface
type MockConversionService struct {
	mock.Mock
}

func (m *MockConversionService) Convert(ctx context.Context, req api.ConvertRequest) (*api.ConversionResult, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.ConversionResult), args.Error(1)
}

func (m *MockConversionService) Preview(ctx context.Context, req api.PreviewRequest) (*api.PreviewResponse, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.PreviewResponse), args.Error(1)
}

func (m *MockConversionService) DiscoverParameters(ctx context.Context, dir string, sample int) (*api.ParameterListResponse, error) {
	args := m.Called(dir, sample)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.ParameterListResponse), args.Error(1)
}

func (m *MockConversionService) Summarize(ctx context.Context, dir string) (*domain.ExtractionSummary, error) {
	args := m.Called(dir)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExtractionSummary), args.Error(1)
}

type uploadFile struct {
	name    string
	content string
}

func multipartBody(t *testing.T, files []uploadFile) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for _, f := range files {
		part, err := mw.CreateFormFile("files", f.name)
		require.NoError(t, err)
		_, err = part.Write([]byte(f.content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func newBatchRouter(batches *MockBatchService, conversions *MockConversionService) chi.Router {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	errorHandler := apierrors.NewErrorHandler(logger, false)
	handler := NewBatchHandler(batches, conversions, logger, errorHandler)

	r := chi.NewRouter()
	r.Mount("/api/batches", handler.Routes())
	return r
}

func TestBatchHandler_CreateBatch(t *testing.T) {
	tests := []struct {
		name           string
		files          []uploadFile
		setupMock      func(*MockBatchService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "creates batch from session files",
			files: []uploadFile{
				{name: "session1.xml", content: "<xml/>"},
				{name: "session2.xml", content: "<xml/>"},
			},
			setupMock: func(m *MockBatchService) {
				m.On("CreateBatch").Return(&services.Batch{ID: testBatchID, CreatedAt: time.Now()}, nil)
				m.On("AddFile", testBatchID, "session1.xml").
					Return(&services.Batch{ID: testBatchID, FileCount: 1, TotalBytes: 6}, nil)
				m.On("AddFile", testBatchID, "session2.xml").
					Return(&services.Batch{ID: testBatchID, FileCount: 2, TotalBytes: 12}, nil)
			},
			expectedStatus: http.StatusCreated,
			expectedBody:   `"file_count":2`,
		},
		{
			name:           "rejects request without files",
			files:          []uploadFile{},
			setupMock:      func(m *MockBatchService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "At least one session file is required",
		},
		{
			name: "rejects non-xml upload and discards the batch",
			files: []uploadFile{
				{name: "session1.xml", content: "<xml/>"},
				{name: "notes.txt", content: "not a session"},
			},
			setupMock: func(m *MockBatchService) {
				m.On("CreateBatch").Return(&services.Batch{ID: testBatchID}, nil)
				m.On("AddFile", testBatchID, "session1.xml").
					Return(&services.Batch{ID: testBatchID, FileCount: 1}, nil)
				m.On("AddFile", testBatchID, "notes.txt").
					Return(nil, fmt.Errorf("upload filename %q: %w", "notes.txt", validation.ErrWrongExtension))
				m.On("DeleteBatch", testBatchID).Return(nil)
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"INVALID_FILENAME"`,
		},
		{
			name: "propagates create failure",
			files: []uploadFile{
				{name: "session1.xml", content: "<xml/>"},
			},
			setupMock: func(m *MockBatchService) {
				m.On("CreateBatch").Return(nil, errors.New("disk full"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockBatches := new(MockBatchService)
			tt.setupMock(mockBatches)

			r := newBatchRouter(mockBatches, new(MockConversionService))

			body, contentType := multipartBody(t, tt.files)
			req := httptest.NewRequest("POST", "/api/batches", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()

			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			mockBatches.AssertExpectations(t)
		})
	}
}

func TestBatchHandler_CreateBatch_NotMultipart(t *testing.T) {
	r := newBatchRouter(new(MockBatchService), new(MockConversionService))

	req := httptest.NewRequest("POST", "/api/batches", strings.NewReader(`{"mode":"max"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "multipart/form-data")
}

func TestBatchHandler_ListBatches(t *testing.T) {
	tests := []struct {
		name           string
		setupMock      func(*MockBatchService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "lists batches",
			setupMock: func(m *MockBatchService) {
				m.On("ListBatches").Return([]*services.Batch{
					{ID: testBatchID, FileCount: 2},
					{ID: "0e02b2c3-d479-4372-a567-f47ac10b58cc", FileCount: 1},
				})
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"count":2`,
		},
		{
			name: "empty registry",
			setupMock: func(m *MockBatchService) {
				m.On("ListBatches").Return([]*services.Batch{})
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"count":0`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockBatches := new(MockBatchService)
			tt.setupMock(mockBatches)

			r := newBatchRouter(mockBatches, new(MockConversionService))

			req := httptest.NewRequest("GET", "/api/batches", nil)
			rec := httptest.NewRecorder()

			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			mockBatches.AssertExpectations(t)
		})
	}
}

func TestBatchHandler_GetBatch(t *testing.T) {
	tests := []struct {
		name           string
		batchID        string
		setupMock      func(*MockBatchService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:    "returns batch",
			batchID: testBatchID,
			setupMock: func(m *MockBatchService) {
				m.On("GetBatch", testBatchID).
					Return(&services.Batch{ID: testBatchID, FileCount: 3, TotalBytes: 1024}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"file_count":3`,
		},
		{
			name:    "unknown batch",
			batchID: testBatchID,
			setupMock: func(m *MockBatchService) {
				m.On("GetBatch", testBatchID).Return(nil, services.ErrBatchNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"BATCH_NOT_FOUND"`,
		},
		{
			name:           "malformed batch id",
			batchID:        "not-a-uuid",
			setupMock:      func(m *MockBatchService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "Batch ID must be a valid UUID",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockBatches := new(MockBatchService)
			tt.setupMock(mockBatches)

			r := newBatchRouter(mockBatches, new(MockConversionService))

			req := httptest.NewRequest("GET", "/api/batches/"+tt.batchID, nil)
			rec := httptest.NewRecorder()

			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			mockBatches.AssertExpectations(t)
		})
	}
}

func TestBatchHandler_DeleteBatch(t *testing.T) {
	tests := []struct {
		name           string
		setupMock      func(*MockBatchService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "deletes batch",
			setupMock: func(m *MockBatchService) {
				m.On("DeleteBatch", testBatchID).Return(nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"deleted":true`,
		},
		{
			name: "unknown batch",
			setupMock: func(m *MockBatchService) {
				m.On("DeleteBatch", testBatchID).Return(services.ErrBatchNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"BATCH_NOT_FOUND"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockBatches := new(MockBatchService)
			tt.setupMock(mockBatches)

			r := newBatchRouter(mockBatches, new(MockConversionService))

			req := httptest.NewRequest("DELETE", "/api/batches/"+testBatchID, nil)
			rec := httptest.NewRecorder()

			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			mockBatches.AssertExpectations(t)
		})
	}
}

func TestBatchHandler_DiscoverParameters(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		setupBatches   func(*MockBatchService)
		setupConv      func(*MockConversionService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:  "discovers parameters with sample",
			query: "?sample=2",
			setupBatches: func(m *MockBatchService) {
				m.On("InputDir", testBatchID).Return("/data/uploads/"+testBatchID, nil)
			},
			setupConv: func(m *MockConversionService) {
				m.On("DiscoverParameters", "/data/uploads/"+testBatchID, 2).
					Return(&api.ParameterListResponse{Parameters: []string{"HR", "VO2"}, Count: 2}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"count":2`,
		},
		{
			name:           "rejects non-numeric sample",
			query:          "?sample=abc",
			setupBatches:   func(m *MockBatchService) {},
			setupConv:      func(m *MockConversionService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "Sample must be a number between 0 and 1000",
		},
		{
			name:           "rejects out of range sample",
			query:          "?sample=5000",
			setupBatches:   func(m *MockBatchService) {},
			setupConv:      func(m *MockConversionService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "Sample must be a number between 0 and 1000",
		},
		{
			name:  "empty batch",
			query: "",
			setupBatches: func(m *MockBatchService) {
				m.On("InputDir", testBatchID).Return("", services.ErrEmptyBatch)
			},
			setupConv:      func(m *MockConversionService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `"EMPTY_BATCH"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockBatches := new(MockBatchService)
			mockConv := new(MockConversionService)
			tt.setupBatches(mockBatches)
			tt.setupConv(mockConv)

			r := newBatchRouter(mockBatches, mockConv)

			req := httptest.NewRequest("GET", "/api/batches/"+testBatchID+"/parameters"+tt.query, nil)
			rec := httptest.NewRecorder()

			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			mockBatches.AssertExpectations(t)
			mockConv.AssertExpectations(t)
		})
	}
}

func TestBatchHandler_GetSummary(t *testing.T) {
	tests := []struct {
		name           string
		setupBatches   func(*MockBatchService)
		setupConv      func(*MockConversionService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "returns extraction summary",
			setupBatches: func(m *MockBatchService) {
				m.On("InputDir", testBatchID).Return("/data/uploads/"+testBatchID, nil)
			},
			setupConv: func(m *MockConversionService) {
				m.On("Summarize", "/data/uploads/"+testBatchID).
					Return(&domain.ExtractionSummary{FilesFound: 3, FilesParsed: 2, FilesFailed: 1}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"files_parsed":2`,
		},
		{
			name: "unknown batch",
			setupBatches: func(m *MockBatchService) {
				m.On("InputDir", testBatchID).Return("", services.ErrBatchNotFound)
			},
			setupConv:      func(m *MockConversionService) {},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"BATCH_NOT_FOUND"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockBatches := new(MockBatchService)
			mockConv := new(MockConversionService)
			tt.setupBatches(mockBatches)
			tt.setupConv(mockConv)

			r := newBatchRouter(mockBatches, mockConv)

			req := httptest.NewRequest("GET", "/api/batches/"+testBatchID+"/summary", nil)
			rec := httptest.NewRecorder()

			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			mockBatches.AssertExpectations(t)
			mockConv.AssertExpectations(t)
		})
	}
}

func TestBatchHandler_Preview(t *testing.T) {
	inputDir := "/data/uploads/" + testBatchID

	tests := []struct {
		name           string
		body           string
		setupBatches   func(*MockBatchService)
		setupConv      func(*MockConversionService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "previews max summary",
			body: `{"mode":"max","limit":2}`,
			setupBatches: func(m *MockBatchService) {
				m.On("InputDir", testBatchID).Return(inputDir, nil)
			},
			setupConv: func(m *MockConversionService) {
				m.On("Preview", api.PreviewRequest{InputDir: inputDir, Mode: "max", Limit: 2}).
					Return(&api.PreviewResponse{
						PreviewRows:  2,
						TotalRows:    10,
						TotalColumns: 4,
						ColumnNames:  []string{"ID", "Last Name", "HR Max (bpm)", "VO2 Max (mL/min)"},
						ExportType:   "max",
					}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"preview_rows":2`,
		},
		{
			name:           "rejects malformed body",
			body:           `{"mode":`,
			setupBatches:   func(m *MockBatchService) {},
			setupConv:      func(m *MockConversionService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"INVALID_REQUEST"`,
		},
		{
			name: "no parseable sessions",
			body: `{"mode":"complete"}`,
			setupBatches: func(m *MockBatchService) {
				m.On("InputDir", testBatchID).Return(inputDir, nil)
			},
			setupConv: func(m *MockConversionService) {
				m.On("Preview", api.PreviewRequest{InputDir: inputDir, Mode: "complete"}).
					Return(nil, services.ErrNoData)
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `"NO_DATA"`,
		},
		{
			name: "custom mode without selection",
			body: `{"mode":"custom"}`,
			setupBatches: func(m *MockBatchService) {
				m.On("InputDir", testBatchID).Return(inputDir, nil)
			},
			setupConv: func(m *MockConversionService) {
				m.On("Preview", api.PreviewRequest{InputDir: inputDir, Mode: "custom"}).
					Return(nil, services.ErrEmptySelection)
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"EMPTY_SELECTION"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockBatches := new(MockBatchService)
			mockConv := new(MockConversionService)
			tt.setupBatches(mockBatches)
			tt.setupConv(mockConv)

			r := newBatchRouter(mockBatches, mockConv)

			req := httptest.NewRequest("POST", "/api/batches/"+testBatchID+"/preview", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()

			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			mockBatches.AssertExpectations(t)
			mockConv.AssertExpectations(t)
		})
	}
}

func TestBatchHandler_Export(t *testing.T) {
	inputDir := "/data/uploads/" + testBatchID

	tests := []struct {
		name           string
		body           string
		setupBatches   func(*MockBatchService)
		setupConv      func(*MockConversionService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "exports workbook",
			body: `{"mode":"complete","format":"xlsx"}`,
			setupBatches: func(m *MockBatchService) {
				m.On("InputDir", testBatchID).Return(inputDir, nil)
			},
			setupConv: func(m *MockConversionService) {
				m.On("Convert", api.ConvertRequest{InputDir: inputDir, Mode: "complete", Format: "xlsx"}).
					Return(&api.ConversionResult{
						ConversionID: "c1",
						Filename:     "COSMED_Data_20260114_120000.xlsx",
						Format:       "xlsx",
						Rows:         12,
						Columns:      40,
						Duration:     "180ms",
						Summary:      domain.ExtractionSummary{FilesFound: 3, FilesParsed: 3},
					}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"download_url":"/api/reports/COSMED_Data_20260114_120000.xlsx"`,
		},
		{
			name: "reports partial failures",
			body: `{"mode":"max"}`,
			setupBatches: func(m *MockBatchService) {
				m.On("InputDir", testBatchID).Return(inputDir, nil)
			},
			setupConv: func(m *MockConversionService) {
				m.On("Convert", api.ConvertRequest{InputDir: inputDir, Mode: "max"}).
					Return(&api.ConversionResult{
						ConversionID: "c2",
						Filename:     "COSMED_Data_20260114_130000.xlsx",
						Format:       "xlsx",
						Rows:         2,
						Columns:      6,
						Summary: domain.ExtractionSummary{
							FilesFound:  3,
							FilesParsed: 2,
							FilesFailed: 1,
							Failures: []domain.FileError{
								{File: "broken.xml", Message: "unexpected EOF"},
							},
						},
					}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"files_failed":1`,
		},
		{
			name: "invalid phase in selection",
			body: `{"mode":"custom","selection":[{"parameter":"HR","phases":["Bogus"]}]}`,
			setupBatches: func(m *MockBatchService) {
				m.On("InputDir", testBatchID).Return(inputDir, nil)
			},
			setupConv: func(m *MockConversionService) {
				m.On("Convert", mock.Anything).
					Return(nil, fmt.Errorf("%w: %q", services.ErrInvalidPhase, "Bogus"))
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"VALIDATION_FAILED"`,
		},
		{
			name: "unknown batch",
			body: `{"mode":"complete"}`,
			setupBatches: func(m *MockBatchService) {
				m.On("InputDir", testBatchID).Return("", services.ErrBatchNotFound)
			},
			setupConv:      func(m *MockConversionService) {},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"BATCH_NOT_FOUND"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockBatches := new(MockBatchService)
			mockConv := new(MockConversionService)
			tt.setupBatches(mockBatches)
			tt.setupConv(mockConv)

			r := newBatchRouter(mockBatches, mockConv)

			req := httptest.NewRequest("POST", "/api/batches/"+testBatchID+"/export", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()

			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			mockBatches.AssertExpectations(t)
			mockConv.AssertExpectations(t)
		})
	}
}
