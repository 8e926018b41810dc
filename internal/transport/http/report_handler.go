package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "cosmedcli/internal/errors"
	"cosmedcli/internal/middleware"
	"cosmedcli/internal/services"
)

// ReportHandler serves generated report files: listing, download and
// deletion.
type ReportHandler struct {
	service      ReportServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewReportHandler creates a report handler with the given service
func NewReportHandler(service ReportServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ReportHandler {
	return &ReportHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "report_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the report API routes
func (h *ReportHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.ListReports)

	r.Route("/{filename}", func(r chi.Router) {
		r.Use(h.FilenameCtx)
		r.With(middleware.TraceMiddleware("report.download")).Get("/", h.DownloadReport)
		r.Delete("/", h.DeleteReport)
	})

	return r
}

// FilenameCtx validates the filename URL parameter
func (h *ReportHandler) FilenameCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		filename := chi.URLParam(r, "filename")
		if filename == "" {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("filename", "Report filename is required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ListReports handles GET /api/reports
func (h *ReportHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	reports, err := h.service.ListReports(r.Context())
	if err != nil {
		if errors.Is(err, services.ErrNoReportsFound) {
			h.errorHandler.HandleError(w, r, apierrors.New(
				http.StatusNotFound,
				"NO_REPORTS_FOUND",
				"No reports have been generated yet",
			))
			return
		}
		h.logger.ErrorContext(r.Context(), "failed to list reports",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID))
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   reports,
		"count":  len(reports),
	})
}

// DownloadReport handles GET /api/reports/{filename}. The service
// streams the file itself, so errors can only be rendered while the
// response is still unwritten.
func (h *ReportHandler) DownloadReport(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())
	filename := chi.URLParam(r, "filename")

	h.logger.InfoContext(r.Context(), "report download requested",
		slog.String("request_id", reqID),
		slog.String("filename", filename))

	if err := h.service.DownloadReport(r.Context(), w, r, filename); err != nil {
		if !isResponseWritten(w) {
			h.handleReportError(w, r, filename, err)
			return
		}
		h.logger.ErrorContext(r.Context(), "download failed mid-stream",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
			slog.String("filename", filename))
	}
}

// DeleteReport handles DELETE /api/reports/{filename}
func (h *ReportHandler) DeleteReport(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())
	filename := chi.URLParam(r, "filename")

	if err := h.service.DeleteReport(r.Context(), filename); err != nil {
		h.handleReportError(w, r, filename, err)
		return
	}

	h.logger.InfoContext(r.Context(), "report deleted",
		slog.String("request_id", reqID),
		slog.String("filename", filename))

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data": map[string]interface{}{
			"filename": filename,
			"deleted":  true,
		},
	})
}

func (h *ReportHandler) handleReportError(w http.ResponseWriter, r *http.Request, filename string, err error) {
	switch {
	case errors.Is(err, services.ErrReportNotFound):
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusNotFound,
			"REPORT_NOT_FOUND",
			fmt.Sprintf("Report '%s' not found", filename),
			map[string]interface{}{"filename": filename},
		))
	case errors.Is(err, services.ErrInvalidInput):
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusBadRequest,
			"INVALID_FILENAME",
			fmt.Sprintf("Report filename '%s' is not valid", filename),
			map[string]interface{}{"filename": filename, "reason": err.Error()},
		))
	default:
		h.errorHandler.HandleError(w, r, err)
	}
}

// isResponseWritten reports whether the handler already started
// writing the response body.
func isResponseWritten(w http.ResponseWriter) bool {
	if ww, ok := w.(interface{ Status() int }); ok {
		return ww.Status() != 0
	}
	return false
}
