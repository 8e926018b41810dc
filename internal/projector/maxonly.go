package projector

import "cosmedcli/pkg/contracts/domain"

// projectMax emits one Max column per parameter. Unlike Complete mode
// an unpopulated Max produces no column at all, so rows can carry
// different column sets and the table union grows only from real data.
func (p *Projector) projectMax(records []domain.SubjectRecord) *domain.ExportTable {
	table := domain.NewExportTable()
	for _, rec := range records {
		row := leadRow(rec)
		for _, param := range rec.Parameters {
			if !param.HasValue(domain.PhaseMax) {
				continue
			}
			value, _ := param.PhaseValue(domain.PhaseMax)
			row.Set(param.BaseName()+"_Max", value)
		}
		table.Append(row)
	}
	return table
}
