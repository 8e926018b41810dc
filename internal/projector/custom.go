package projector

import "cosmedcli/pkg/contracts/domain"

// projectCustom emits the selection's full parameter/phase cross
// product on every row. Missing parameters and phases become empty
// cells rather than omitted columns, so every row carries the same
// predictable key set. A parameter with a single requested phase gets
// an unsuffixed column; multiple phases get "base - phase" columns.
func (p *Projector) projectCustom(records []domain.SubjectRecord, sel *domain.CustomSelection) *domain.ExportTable {
	bases := customBaseNames(records, sel)
	table := domain.NewExportTable()
	for _, rec := range records {
		row := leadRow(rec)
		for _, name := range sel.Parameters() {
			phases := sel.PhasesFor(name)
			param, found := rec.Parameter(name)
			for _, ph := range phases {
				col := bases[name]
				if len(phases) > 1 {
					col += " - " + string(ph)
				}
				var value string
				if found {
					value, _ = param.PhaseValue(ph)
				}
				row.Set(col, value)
			}
		}
		table.Append(row)
	}
	return table
}

// customBaseNames resolves one display name per selected parameter for
// the whole batch. The first record carrying the parameter contributes
// its unit, so records missing the parameter still land in the same
// column instead of forking the header on unit availability.
func customBaseNames(records []domain.SubjectRecord, sel *domain.CustomSelection) map[string]string {
	bases := make(map[string]string, sel.Len())
	for _, name := range sel.Parameters() {
		bases[name] = name
		for _, rec := range records {
			if param, ok := rec.Parameter(name); ok {
				bases[name] = param.BaseName()
				break
			}
		}
	}
	return bases
}
