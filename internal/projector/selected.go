package projector

import "cosmedcli/pkg/contracts/domain"

// SelectedPanel is the fixed clinical panel projected by Selected
// mode, in column order. Parameters outside this list are ignored.
var SelectedPanel = []string{
	"t", "Speed", "Pace", "VO2", "VO2/kg", "VCO2",
	"METS", "RQ", "VE", "Rf", "HR", "VO2/HR",
	"P Syst", "P Diast", "HRR",
}

// vo2kgPhases is the threshold profile exported for VO2/kg instead of
// the single Max column the rest of the panel gets.
var vo2kgPhases = []domain.Phase{domain.PhaseMFO, domain.PhaseAT, domain.PhaseRC, domain.PhaseMax}

// projectSelected walks the panel in panel order, not document order.
// VO2/kg contributes up to four phase columns; every other panel
// parameter contributes one Max column, falling back to the Value
// phase for quantities recorded once rather than per phase (blood
// pressure, heart rate reserve). Unpopulated values are omitted, same
// as Max-only mode.
func (p *Projector) projectSelected(records []domain.SubjectRecord) *domain.ExportTable {
	table := domain.NewExportTable()
	for _, rec := range records {
		row := leadRow(rec)
		for _, name := range SelectedPanel {
			param, ok := rec.Parameter(name)
			if !ok {
				continue
			}
			base := param.BaseName()

			if name == "VO2/kg" {
				for _, ph := range vo2kgPhases {
					if value, _ := param.PhaseValue(ph); value != "" {
						row.Set(base+"_"+string(ph), value)
					}
				}
				continue
			}

			value, _ := param.PhaseValue(domain.PhaseMax)
			if value == "" {
				value, _ = param.PhaseValue(domain.PhaseValue)
			}
			if value != "" {
				row.Set(base+"_Max", value)
			}
		}
		table.Append(row)
	}
	return table
}
