package projector

import (
	"errors"
	"fmt"
	"log/slog"

	"cosmedcli/pkg/contracts/domain"
)

// Batch-level emptiness failures. Value absence inside a record is
// never an error; these fire only when there is nothing to project.
var (
	ErrNoData         = errors.New("no data provided")
	ErrEmptySelection = errors.New("no custom parameters selected")
)

// Leading columns carried by every row before parameter columns.
const (
	ColFilename  = "Filename"
	ColSubjectID = "Subject ID"
	ColFilePath  = "File Path"
)

// Projector turns extracted subject records into an export table under
// one of the four projection modes.
type Projector struct {
	logger *slog.Logger
}

// New creates a projector
func New(logger *slog.Logger) *Projector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Projector{logger: logger}
}

// Project applies mode to records. sel is only consulted in custom
// mode and may be nil otherwise. Row order follows record order; no
// cross-row sorting or deduplication happens here.
func (p *Projector) Project(records []domain.SubjectRecord, mode domain.ExportMode, sel *domain.CustomSelection) (*domain.ExportTable, error) {
	if len(records) == 0 {
		return nil, ErrNoData
	}

	var table *domain.ExportTable
	switch mode {
	case domain.ModeComplete:
		table = p.projectComplete(records)
	case domain.ModeMax:
		table = p.projectMax(records)
	case domain.ModeSelected:
		table = p.projectSelected(records)
	case domain.ModeCustom:
		if sel.Len() == 0 {
			return nil, ErrEmptySelection
		}
		table = p.projectCustom(records, sel)
	default:
		return nil, fmt.Errorf("unknown export mode %q", mode)
	}

	p.logger.Debug("Projected export table",
		slog.String("mode", mode.String()),
		slog.Int("rows", table.RowCount()),
		slog.Int("columns", table.ColumnCount()))

	return table, nil
}

// leadRow starts a row with the identification columns every mode
// shares.
func leadRow(rec domain.SubjectRecord) *domain.Row {
	row := domain.NewRow()
	row.Set(ColFilename, rec.Filename)
	row.Set(ColSubjectID, rec.SubjectID)
	return row
}
