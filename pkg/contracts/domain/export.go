package domain

import "fmt"

// ExportMode selects one of the four projection policies.
type ExportMode string

const (
	// ModeComplete emits all eleven phase columns for every parameter,
	// blanks included.
	ModeComplete ExportMode = "complete"
	// ModeMax emits one Max column per parameter, omitted when the Max
	// value is unpopulated.
	ModeMax ExportMode = "max"
	// ModeSelected emits the fixed clinical panel.
	ModeSelected ExportMode = "selected"
	// ModeCustom emits the caller-supplied parameter/phase selection.
	ModeCustom ExportMode = "custom"
)

// ExportModes lists the supported modes in documentation order.
func ExportModes() []ExportMode {
	return []ExportMode{ModeComplete, ModeMax, ModeSelected, ModeCustom}
}

// ParseExportMode validates a user-supplied mode name.
func ParseExportMode(s string) (ExportMode, error) {
	switch ExportMode(s) {
	case ModeComplete, ModeMax, ModeSelected, ModeCustom:
		return ExportMode(s), nil
	}
	return "", fmt.Errorf("unknown export mode %q (want complete, max, selected or custom)", s)
}

func (m ExportMode) String() string { return string(m) }

// ExportFormat selects the output file format.
type ExportFormat string

const (
	FormatXLSX ExportFormat = "xlsx"
	FormatCSV  ExportFormat = "csv"
)

// ParseExportFormat validates a user-supplied format name.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch ExportFormat(s) {
	case FormatXLSX, FormatCSV:
		return ExportFormat(s), nil
	}
	return "", fmt.Errorf("unknown export format %q (want xlsx or csv)", s)
}

// Ext returns the format's file extension, dot included.
func (f ExportFormat) Ext() string { return "." + string(f) }

func (f ExportFormat) String() string { return string(f) }
