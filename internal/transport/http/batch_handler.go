package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	apierrors "cosmedcli/internal/errors"
	"cosmedcli/internal/middleware"
	"cosmedcli/internal/services"
	"cosmedcli/internal/validation"
	api "cosmedcli/pkg/contracts/api/v1"
)

// maxUploadMemory bounds how much of a multipart upload is held in
// memory before spilling to temp files.
const maxUploadMemory = 32 << 20

// BatchHandler serves the upload-batch lifecycle: create a batch from
// multipart session files, inspect it, and run previews and exports
// against it.
type BatchHandler struct {
	batches      BatchServiceInterface
	conversions  ConversionServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewBatchHandler creates a batch handler with the given services
func NewBatchHandler(batches BatchServiceInterface, conversions ConversionServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *BatchHandler {
	return &BatchHandler{
		batches:      batches,
		conversions:  conversions,
		logger:       logger.With(slog.String("component", "batch_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the batch API routes
func (h *BatchHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/", h.CreateBatch)
	r.Get("/", h.ListBatches)

	r.Route("/{batchID}", func(r chi.Router) {
		r.Use(h.BatchCtx)
		r.Get("/", h.GetBatch)
		r.Delete("/", h.DeleteBatch)
		r.Get("/parameters", h.DiscoverParameters)
		r.Get("/summary", h.GetSummary)
		r.Post("/preview", middleware.ConversionTraceHandler("preview", h.Preview))
		r.Post("/export", middleware.ConversionTraceHandler("export", h.Export))
	})

	return r
}

// BatchCtx validates the batch ID URL parameter
func (h *BatchHandler) BatchCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		batchID := chi.URLParam(r, "batchID")
		if batchID == "" {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("batchID", "Batch ID is required"))
			return
		}
		if _, err := uuid.Parse(batchID); err != nil {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("batchID", "Batch ID must be a valid UUID"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CreateBatch handles POST /api/batches. The request is
// multipart/form-data with one or more session files under the "files"
// field. One bad file rejects the whole request so a batch never holds
// a partial upload set.
func (h *BatchHandler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusBadRequest,
			"INVALID_REQUEST",
			"Request must be multipart/form-data with a files field",
			map[string]interface{}{"error": err.Error()},
		))
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("files", "At least one session file is required"))
		return
	}

	h.logger.InfoContext(r.Context(), "creating upload batch",
		slog.String("request_id", reqID),
		slog.Int("file_count", len(files)))

	batch, err := h.batches.CreateBatch(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to create batch",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID))
		h.errorHandler.HandleError(w, r, err)
		return
	}

	for _, header := range files {
		stored, err := h.storeUpload(r.Context(), batch.ID, header)
		if err != nil {
			// Drop what was stored so far; a half-filled batch is useless.
			if delErr := h.batches.DeleteBatch(r.Context(), batch.ID); delErr != nil {
				h.logger.WarnContext(r.Context(), "failed to clean up rejected batch",
					slog.String("batch_id", batch.ID),
					slog.String("error", delErr.Error()))
			}
			h.handleUploadError(w, r, header.Filename, err)
			return
		}
		batch = stored
	}

	h.logger.InfoContext(r.Context(), "batch created",
		slog.String("request_id", reqID),
		slog.String("batch_id", batch.ID),
		slog.Int("file_count", batch.FileCount),
		slog.Int64("total_bytes", batch.TotalBytes))

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   batch,
	})
}

func (h *BatchHandler) storeUpload(ctx context.Context, batchID string, header *multipart.FileHeader) (*services.Batch, error) {
	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload %q: %w", header.Filename, err)
	}
	defer f.Close()
	return h.batches.AddFile(ctx, batchID, header.Filename, f)
}

func (h *BatchHandler) handleUploadError(w http.ResponseWriter, r *http.Request, filename string, err error) {
	if errors.Is(err, validation.ErrInvalidName) ||
		errors.Is(err, validation.ErrWrongExtension) ||
		errors.Is(err, validation.ErrEmptyPath) {
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusBadRequest,
			"INVALID_FILENAME",
			fmt.Sprintf("File '%s' was rejected", filename),
			map[string]interface{}{
				"filename": filename,
				"reason":   err.Error(),
			},
		))
		return
	}
	h.errorHandler.HandleError(w, r, err)
}

// ListBatches handles GET /api/batches
func (h *BatchHandler) ListBatches(w http.ResponseWriter, r *http.Request) {
	batches := h.batches.ListBatches(r.Context())

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   batches,
		"count":  len(batches),
	})
}

// GetBatch handles GET /api/batches/{batchID}
func (h *BatchHandler) GetBatch(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "batchID")

	batch, err := h.batches.GetBatch(r.Context(), batchID)
	if err != nil {
		if errors.Is(err, services.ErrBatchNotFound) {
			h.errorHandler.HandleError(w, r, apierrors.BatchNotFoundError(batchID))
			return
		}
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   batch,
	})
}

// DeleteBatch handles DELETE /api/batches/{batchID}
func (h *BatchHandler) DeleteBatch(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())
	batchID := chi.URLParam(r, "batchID")

	if err := h.batches.DeleteBatch(r.Context(), batchID); err != nil {
		if errors.Is(err, services.ErrBatchNotFound) {
			h.errorHandler.HandleError(w, r, apierrors.BatchNotFoundError(batchID))
			return
		}
		h.logger.ErrorContext(r.Context(), "failed to delete batch",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
			slog.String("batch_id", batchID))
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data": map[string]interface{}{
			"batch_id": batchID,
			"deleted":  true,
		},
	})
}

// DiscoverParameters handles GET /api/batches/{batchID}/parameters.
// The optional sample query limits the scan to the first N files.
func (h *BatchHandler) DiscoverParameters(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "batchID")

	sample := 0
	if sampleStr := r.URL.Query().Get("sample"); sampleStr != "" {
		n, err := strconv.Atoi(sampleStr)
		if err != nil || n < 0 || n > 1000 {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("sample", "Sample must be a number between 0 and 1000"))
			return
		}
		sample = n
	}

	dir, ok := h.resolveInputDir(w, r, batchID)
	if !ok {
		return
	}

	resp, err := h.conversions.DiscoverParameters(r.Context(), dir, sample)
	if err != nil {
		h.handleConversionError(w, r, batchID, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   resp.Parameters,
		"count":  resp.Count,
	})
}

// GetSummary handles GET /api/batches/{batchID}/summary
func (h *BatchHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "batchID")

	dir, ok := h.resolveInputDir(w, r, batchID)
	if !ok {
		return
	}

	summary, err := h.conversions.Summarize(r.Context(), dir)
	if err != nil {
		h.handleConversionError(w, r, batchID, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   summary,
	})
}

// Preview handles POST /api/batches/{batchID}/preview
func (h *BatchHandler) Preview(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())
	batchID := chi.URLParam(r, "batchID")

	var req api.BatchPreviewRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusBadRequest,
			"INVALID_REQUEST",
			"Invalid request body",
			map[string]interface{}{"error": err.Error()},
		))
		return
	}

	dir, ok := h.resolveInputDir(w, r, batchID)
	if !ok {
		return
	}

	h.logger.InfoContext(r.Context(), "previewing batch",
		slog.String("request_id", reqID),
		slog.String("batch_id", batchID),
		slog.String("mode", req.Mode))

	resp, err := h.conversions.Preview(r.Context(), api.PreviewRequest{
		InputDir:  dir,
		Mode:      req.Mode,
		Selection: req.Selection,
		Limit:     req.Limit,
	})
	if err != nil {
		h.handleConversionError(w, r, batchID, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   resp,
	})
}

// Export handles POST /api/batches/{batchID}/export. The report file
// lands in the reports directory and the response carries a download
// URL for it.
func (h *BatchHandler) Export(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())
	batchID := chi.URLParam(r, "batchID")

	var req api.BatchConvertRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusBadRequest,
			"INVALID_REQUEST",
			"Invalid request body",
			map[string]interface{}{"error": err.Error()},
		))
		return
	}

	dir, ok := h.resolveInputDir(w, r, batchID)
	if !ok {
		return
	}

	h.logger.InfoContext(r.Context(), "exporting batch",
		slog.String("request_id", reqID),
		slog.String("batch_id", batchID),
		slog.String("mode", req.Mode),
		slog.String("format", req.Format))

	result, err := h.conversions.Convert(r.Context(), api.ConvertRequest{
		InputDir:       dir,
		Mode:           req.Mode,
		Format:         req.Format,
		Selection:      req.Selection,
		SheetName:      req.SheetName,
		IncludeSummary: req.IncludeSummary,
	})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "batch export failed",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
			slog.String("batch_id", batchID))
		h.handleConversionError(w, r, batchID, err)
		return
	}

	h.logger.InfoContext(r.Context(), "batch export completed",
		slog.String("request_id", reqID),
		slog.String("batch_id", batchID),
		slog.String("report", result.Filename),
		slog.Int("rows", result.Rows))

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data": map[string]interface{}{
			"conversion_id":   result.ConversionID,
			"report":          result.Filename,
			"download_url":    "/api/reports/" + url.PathEscape(result.Filename),
			"format":          result.Format,
			"row_count":       result.Rows,
			"column_count":    result.Columns,
			"duration":        result.Duration,
			"files_processed": result.Summary.FilesParsed,
			"files_failed":    result.Summary.FilesFailed,
			"failures":        result.Summary.Failures,
		},
	})
}

// resolveInputDir maps a batch ID to its upload directory. On failure
// it writes the error response and reports false.
func (h *BatchHandler) resolveInputDir(w http.ResponseWriter, r *http.Request, batchID string) (string, bool) {
	dir, err := h.batches.InputDir(r.Context(), batchID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBatchNotFound):
			h.errorHandler.HandleError(w, r, apierrors.BatchNotFoundError(batchID))
		case errors.Is(err, services.ErrEmptyBatch):
			h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
				http.StatusUnprocessableEntity,
				"EMPTY_BATCH",
				fmt.Sprintf("Batch '%s' contains no session files", batchID),
				map[string]interface{}{"batch_id": batchID},
			))
		default:
			h.errorHandler.HandleError(w, r, err)
		}
		return "", false
	}
	return dir, true
}

// handleConversionError maps conversion pipeline errors onto API
// responses: bad requests for validation failures, 422 when the batch
// holds nothing parseable.
func (h *BatchHandler) handleConversionError(w http.ResponseWriter, r *http.Request, batchID string, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidInput) || errors.Is(err, services.ErrInvalidPhase):
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusBadRequest,
			"VALIDATION_FAILED",
			"Request validation failed",
			map[string]interface{}{"error": err.Error()},
		))
	case errors.Is(err, services.ErrEmptySelection):
		h.errorHandler.HandleError(w, r, apierrors.New(
			http.StatusBadRequest,
			"EMPTY_SELECTION",
			"Custom mode requires at least one selected parameter",
		))
	case errors.Is(err, services.ErrNoData):
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusUnprocessableEntity,
			"NO_DATA",
			fmt.Sprintf("Batch '%s' contains no parseable session files", batchID),
			map[string]interface{}{"batch_id": batchID},
		))
	default:
		middleware.RecordSystemError(r.Context(), "conversion_failed", "batch_handler")
		h.errorHandler.HandleError(w, r, err)
	}
}
