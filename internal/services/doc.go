// Package services contains the application services behind the HTTP
// and CLI surfaces.
//
// ConversionService drives the extract, project, export pipeline over
// a directory of COSMED session files and reports progress through an
// optional ConversionProgress sink. BatchService owns uploaded session
// file batches, and ReportService lists and serves the generated
// spreadsheets.
package services
