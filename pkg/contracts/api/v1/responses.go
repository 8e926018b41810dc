package api

import (
	"time"

	"cosmedcli/pkg/contracts/domain"
)

// ConversionResult describes a completed conversion run
type ConversionResult struct {
	ConversionID string                   `json:"conversion_id"`
	OutputPath   string                   `json:"output_path"`
	Filename     string                   `json:"filename"`
	Mode         string                   `json:"mode"`
	Format       string                   `json:"format"`
	Rows         int                      `json:"rows"`
	Columns      int                      `json:"columns"`
	Duration     string                   `json:"duration"`
	Summary      domain.ExtractionSummary `json:"summary"`
}

// PreviewResponse carries the head of a projection for display before
// the caller commits to an export
type PreviewResponse struct {
	PreviewRows  int        `json:"preview_rows"`
	TotalRows    int        `json:"total_rows"`
	TotalColumns int        `json:"total_columns"`
	ColumnNames  []string   `json:"column_names"`
	SampleData   [][]string `json:"sample_data"`
	ExportType   string     `json:"export_type"`
}

// ParameterListResponse lists the parameter names discovered in a
// directory of session exports, in first-seen order
type ParameterListResponse struct {
	Parameters []string `json:"parameters"`
	Count      int      `json:"count"`
}

// ReportInfo describes one generated report file on disk
type ReportInfo struct {
	Filename   string    `json:"filename"`
	SizeBytes  int64     `json:"size_bytes"`
	ModifiedAt time.Time `json:"modified_at"`
	Format     string    `json:"format"`
}
