package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"cosmedcli/internal/config"
	"cosmedcli/internal/errors"
)

const (
	dataSheetName    = "COSMED Data"
	summarySheetName = "Summary"

	// Header styling matches the COSMED desktop exports: white bold
	// text on a steel blue fill, centered.
	headerFillColor = "366092"

	maxColumnWidth = 50.0
)

// WorkbookWriter provides XLSX export functionality
type WorkbookWriter struct {
	paths *config.Paths
}

// NewWorkbookWriter creates a new workbook writer instance
func NewWorkbookWriter(paths *config.Paths) *WorkbookWriter {
	return &WorkbookWriter{paths: paths}
}

// WorkbookOptions configures workbook writing behavior
type WorkbookOptions struct {
	SheetName string // data sheet name, defaults to "COSMED Data"
	Headers   []string
	Records   [][]string
	Summary   []SummaryEntry // optional second sheet, skipped when empty
}

// SummaryEntry is one row on the summary sheet. A nil Value renders a
// label-only row, used for titles, section headings and spacers.
type SummaryEntry struct {
	Label string
	Value any
}

// WriteWorkbook writes headers and records to a styled single-sheet
// workbook, with an optional summary sheet appended after the data.
func (w *WorkbookWriter) WriteWorkbook(filePath string, options WorkbookOptions) error {
	fullPath := resolveReportPath(w.paths, filePath)

	slog.Info("Writing workbook",
		slog.String("file_path", filePath),
		slog.String("full_path", fullPath),
		slog.Int("record_count", len(options.Records)))

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return errors.NewStorageError("failed to create directory for workbook output", err)
	}

	sheet := options.SheetName
	if sheet == "" {
		sheet = dataSheetName
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("failed to name data sheet: %w", err)
	}

	if err := f.SetSheetRow(sheet, "A1", rowCells(options.Headers)); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}
	for i, record := range options.Records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to address row %d: %w", i+2, err)
		}
		if err := f.SetSheetRow(sheet, cell, rowCells(record)); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	if err := w.styleHeader(f, sheet, len(options.Headers)); err != nil {
		return err
	}
	if err := w.sizeColumns(f, sheet, options.Headers, options.Records); err != nil {
		return err
	}

	if len(options.Summary) > 0 {
		if err := w.writeSummarySheet(f, options.Summary); err != nil {
			return err
		}
	}

	if err := f.SaveAs(fullPath); err != nil {
		return errors.NewStorageError("failed to save workbook file", err)
	}
	return nil
}

// rowCells converts a string record into the interface slice excelize
// expects for a sheet row.
func rowCells(record []string) *[]interface{} {
	cells := make([]interface{}, len(record))
	for i, v := range record {
		cells[i] = v
	}
	return &cells
}

// styleHeader bolds and fills the header row and freezes it so it
// stays visible while scrolling.
func (w *WorkbookWriter) styleHeader(f *excelize.File, sheet string, columns int) error {
	if columns == 0 {
		return nil
	}

	styleID, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{headerFillColor}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	last, err := excelize.CoordinatesToCellName(columns, 1)
	if err != nil {
		return fmt.Errorf("failed to address header range: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", last, styleID); err != nil {
		return fmt.Errorf("failed to style header row: %w", err)
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header row: %w", err)
	}
	return nil
}

// sizeColumns fits each column to its longest cell, padded and capped
// so one oversized value cannot blow up the sheet layout.
func (w *WorkbookWriter) sizeColumns(f *excelize.File, sheet string, headers []string, records [][]string) error {
	for i, header := range headers {
		longest := len(header)
		for _, record := range records {
			if i < len(record) && len(record[i]) > longest {
				longest = len(record[i])
			}
		}

		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("failed to name column %d: %w", i+1, err)
		}
		width := float64(longest) + 2
		if width > maxColumnWidth {
			width = maxColumnWidth
		}
		if err := f.SetColWidth(sheet, name, name, width); err != nil {
			return fmt.Errorf("failed to size column %s: %w", name, err)
		}
	}
	return nil
}

// writeSummarySheet appends the summary sheet after the data sheet.
func (w *WorkbookWriter) writeSummarySheet(f *excelize.File, entries []SummaryEntry) error {
	if _, err := f.NewSheet(summarySheetName); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}

	for i, entry := range entries {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("failed to address summary row %d: %w", i+1, err)
		}
		row := []interface{}{entry.Label}
		if entry.Value != nil {
			row = append(row, entry.Value)
		}
		if err := f.SetSheetRow(summarySheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write summary row %d: %w", i+1, err)
		}
	}

	titleStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	if err != nil {
		return fmt.Errorf("failed to create summary title style: %w", err)
	}
	if err := f.SetCellStyle(summarySheetName, "A1", "A1", titleStyle); err != nil {
		return fmt.Errorf("failed to style summary title: %w", err)
	}

	if err := f.SetColWidth(summarySheetName, "A", "A", 32); err != nil {
		return fmt.Errorf("failed to size summary labels: %w", err)
	}
	if err := f.SetColWidth(summarySheetName, "B", "B", 18); err != nil {
		return fmt.Errorf("failed to size summary values: %w", err)
	}
	return nil
}
