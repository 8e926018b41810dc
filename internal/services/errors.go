package services

import (
	"errors"

	"cosmedcli/internal/projector"
)

// Conversion service errors
var (
	// Projection errors, re-exported so callers only need this package
	ErrNoData         = projector.ErrNoData
	ErrEmptySelection = projector.ErrEmptySelection

	// Selection errors
	ErrInvalidPhase = errors.New("invalid phase name")

	// Batch errors
	ErrBatchNotFound = errors.New("batch not found")
	ErrEmptyBatch    = errors.New("batch contains no files")

	// Report errors
	ErrNoReportsFound = errors.New("no reports found")
	ErrReportNotFound = errors.New("report not found")

	// General errors
	ErrInvalidInput = errors.New("invalid input")
)
