package exporter

import (
	"fmt"
	"sort"

	"cosmedcli/internal/config"
	"cosmedcli/pkg/contracts/domain"
)

// TableExporter serializes projected export tables to report files.
type TableExporter struct {
	csvWriter      *CSVWriter
	workbookWriter *WorkbookWriter
}

// NewTableExporter creates a new export table serializer
func NewTableExporter(paths *config.Paths) *TableExporter {
	return &TableExporter{
		csvWriter:      NewCSVWriter(paths),
		workbookWriter: NewWorkbookWriter(paths),
	}
}

// ExportOptions adjusts report serialization. The zero value writes
// the default sheet name and includes the summary sheet.
type ExportOptions struct {
	SheetName   string
	SkipSummary bool
}

// Export writes table to outputPath in the given format. The column
// set is the first-seen union across rows; cells a row lacks are
// written blank. XLSX output carries a summary sheet built from the
// extraction summary unless opts skips it; CSV output ignores opts.
func (e *TableExporter) Export(table *domain.ExportTable, summary domain.ExtractionSummary, mode domain.ExportMode, outputPath string, format domain.ExportFormat, opts ExportOptions) error {
	switch format {
	case domain.FormatCSV:
		return e.ExportCSV(table, outputPath)
	case domain.FormatXLSX:
		return e.ExportWorkbook(table, summary, mode, outputPath, opts)
	}
	return fmt.Errorf("unknown export format %q", format)
}

// ExportCSV streams the table to a CSV file, one record at a time.
func (e *TableExporter) ExportCSV(table *domain.ExportTable, outputPath string) error {
	columns := table.Columns()

	stream, err := e.csvWriter.CreateStreamWriter(outputPath, columns)
	if err != nil {
		return err
	}

	cells := make([]string, len(columns))
	for _, row := range table.Rows() {
		for i, col := range columns {
			value, _ := row.Get(col)
			cells[i] = value
		}
		if err := stream.WriteRecord(cells); err != nil {
			stream.Close()
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	return stream.Close()
}

// ExportWorkbook writes the table to a styled XLSX workbook with a
// summary sheet.
func (e *TableExporter) ExportWorkbook(table *domain.ExportTable, summary domain.ExtractionSummary, mode domain.ExportMode, outputPath string, opts ExportOptions) error {
	options := WorkbookOptions{
		SheetName: opts.SheetName,
		Headers:   table.Columns(),
		Records:   table.Records(),
	}
	if !opts.SkipSummary {
		options.Summary = summaryEntries(table, summary, mode)
	}
	return e.workbookWriter.WriteWorkbook(outputPath, options)
}

// summaryEntries builds the summary sheet rows: export figures, the
// extraction counters and the sorted list of parameter names seen.
func summaryEntries(table *domain.ExportTable, summary domain.ExtractionSummary, mode domain.ExportMode) []SummaryEntry {
	entries := []SummaryEntry{
		{Label: "Processing Summary"},
		{Label: "Export Mode", Value: mode.String()},
		{Label: "Rows Exported", Value: table.RowCount()},
		{Label: "Columns Exported", Value: table.ColumnCount()},
		{Label: "Files Found", Value: summary.FilesFound},
		{Label: "Files Parsed", Value: summary.FilesParsed},
		{Label: "Files Failed", Value: summary.FilesFailed},
		{Label: "Files with Subject ID", Value: summary.SubjectsWithID},
		{Label: "Unique Parameter Types", Value: summary.ParameterCount()},
		{Label: ""},
		{Label: "Parameter Types Found"},
	}

	names := append([]string(nil), summary.UniqueParameters...)
	sort.Strings(names)
	for _, name := range names {
		entries = append(entries, SummaryEntry{Label: name})
	}
	return entries
}
