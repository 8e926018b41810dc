package projector

import "cosmedcli/pkg/contracts/domain"

// projectComplete emits all eleven phase columns for every parameter,
// populated or not. It is the only mode that carries the source file
// path on each row. A duplicated parameter name overwrites its columns
// in place, so the last occurrence in document order wins.
func (p *Projector) projectComplete(records []domain.SubjectRecord) *domain.ExportTable {
	table := domain.NewExportTable()
	for _, rec := range records {
		row := leadRow(rec)
		row.Set(ColFilePath, rec.FilePath)
		for _, param := range rec.Parameters {
			base := param.BaseName()
			for _, ph := range domain.Phases() {
				value, _ := param.PhaseValue(ph)
				row.Set(base+"_"+string(ph), value)
			}
		}
		table.Append(row)
	}
	return table
}
