// Package exporter serializes projected COSMED data to report files.
//
// This package contains three main components:
//
// CSVWriter: Core CSV writing functionality with support for headers,
// streaming, and UTF-8 BOM for Excel compatibility.
//
// WorkbookWriter: Styled XLSX output via excelize, with a frozen
// header row, content-fitted columns and an optional summary sheet.
//
// TableExporter: Serializes a projected ExportTable in either format,
// computing the column union across rows and gap-filling cells a row
// does not carry.
//
// Example usage:
//
//	exp := exporter.NewTableExporter(paths)
//
//	// Write a workbook with a summary sheet
//	err := exp.Export(table, summary, domain.ModeComplete,
//		"COSMED_Data_20260114_153045.xlsx", domain.FormatXLSX,
//		exporter.ExportOptions{})
//
//	// Or a plain CSV
//	err = exp.ExportCSV(table, "COSMED_Data_20260114_153045.csv")
package exporter
