package http

import (
	"context"
	"net/http"

	api "cosmedcli/pkg/contracts/api/v1"
)

// ReportServiceInterface defines the interface for generated report access
type ReportServiceInterface interface {
	ListReports(ctx context.Context) ([]api.ReportInfo, error)
	DownloadReport(ctx context.Context, w http.ResponseWriter, r *http.Request, filename string) error
	DeleteReport(ctx context.Context, filename string) error
}
