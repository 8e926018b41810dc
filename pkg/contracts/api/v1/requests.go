// Package api contains API contract definitions for the COSMED Data Converter.
// Version v1 represents the current stable API version.
package api

// Common request parameters

// PaginationRequest represents common pagination parameters
type PaginationRequest struct {
	Page     int    `json:"page" query:"page" validate:"min=1"`
	PageSize int    `json:"page_size" query:"page_size" validate:"min=1,max=100"`
	Sort     string `json:"sort" query:"sort" validate:"omitempty,oneof=asc desc"`
	SortBy   string `json:"sort_by" query:"sort_by"`
}

// SelectionEntry names one parameter and the phases to export for it.
// Entries are ordered; custom mode emits columns in entry order.
type SelectionEntry struct {
	Parameter string   `json:"parameter" validate:"required"`
	Phases    []string `json:"phases" validate:"required,min=1"`
}

// Conversion API Requests

// ConvertRequest represents a request to convert a directory of COSMED
// session exports into a spreadsheet report. Selection is only
// consulted in custom mode. A nil IncludeSummary means true.
type ConvertRequest struct {
	InputDir       string           `json:"input_dir" validate:"required"`
	OutputPath     string           `json:"output_path,omitempty"`
	Mode           string           `json:"mode" validate:"required,oneof=complete max selected custom"`
	Format         string           `json:"format,omitempty" validate:"omitempty,oneof=xlsx csv"`
	Selection      []SelectionEntry `json:"selection,omitempty" validate:"omitempty,dive"`
	SheetName      string           `json:"sheet_name,omitempty" validate:"omitempty,max=31"`
	IncludeSummary *bool            `json:"include_summary,omitempty"`
}

// PreviewRequest represents a request for the first rows of a
// projection without writing a report file. Limit caps the sample
// rows; zero uses the default.
type PreviewRequest struct {
	InputDir  string           `json:"input_dir" validate:"required"`
	Mode      string           `json:"mode" validate:"required,oneof=complete max selected custom"`
	Selection []SelectionEntry `json:"selection,omitempty" validate:"omitempty,dive"`
	Limit     int              `json:"limit,omitempty" validate:"omitempty,min=1,max=100"`
}

// DiscoverParametersRequest represents a request to list the parameter
// names present in a directory of session exports. Sample limits the
// scan to the first N files; zero scans everything.
type DiscoverParametersRequest struct {
	InputDir string `json:"input_dir" query:"input_dir" validate:"required"`
	Sample   int    `json:"sample" query:"sample" validate:"omitempty,min=0,max=1000"`
}

// SummaryRequest represents a request for an extraction summary of a
// directory without converting it
type SummaryRequest struct {
	InputDir string `json:"input_dir" query:"input_dir" validate:"required"`
}

// Batch API Requests

// BatchConvertRequest runs a conversion over a previously uploaded
// batch. The input directory is implied by the batch ID in the URL.
type BatchConvertRequest struct {
	Mode           string           `json:"mode" validate:"required,oneof=complete max selected custom"`
	Format         string           `json:"format,omitempty" validate:"omitempty,oneof=xlsx csv"`
	Selection      []SelectionEntry `json:"selection,omitempty" validate:"omitempty,dive"`
	SheetName      string           `json:"sheet_name,omitempty" validate:"omitempty,max=31"`
	IncludeSummary *bool            `json:"include_summary,omitempty"`
}

// BatchPreviewRequest previews a projection over an uploaded batch
type BatchPreviewRequest struct {
	Mode      string           `json:"mode" validate:"required,oneof=complete max selected custom"`
	Selection []SelectionEntry `json:"selection,omitempty" validate:"omitempty,dive"`
	Limit     int              `json:"limit,omitempty" validate:"omitempty,min=1,max=100"`
}

// Report API Requests

// ReportListRequest represents a request to list generated reports
type ReportListRequest struct {
	PaginationRequest
	Format string `json:"format" query:"format" validate:"omitempty,oneof=xlsx csv"`
}

// ReportDownloadRequest represents a request to download a report
type ReportDownloadRequest struct {
	Filename string `json:"filename" param:"filename" validate:"required"`
}

// Health API Requests

// HealthCheckRequest represents a health check request
type HealthCheckRequest struct {
	Verbose bool `json:"verbose" query:"verbose"`
}
