package extractor

import "cosmedcli/pkg/contracts/domain"

// Summarize condenses an extraction result into the figures reported
// on the summary sheet and the batch endpoints: file counts, resolved
// subject IDs, and the distinct parameter names in first-seen order.
func Summarize(dir string, res *Result) domain.ExtractionSummary {
	summary := domain.ExtractionSummary{
		Directory:   dir,
		FilesFound:  res.FilesFound,
		FilesParsed: len(res.Records),
		FilesFailed: len(res.Failures),
		Failures:    res.Failures,
	}

	seen := make(map[string]struct{})
	for _, record := range res.Records {
		if record.SubjectID != "" {
			summary.SubjectsWithID++
		}
		for _, name := range record.ParameterNames() {
			if _, ok := seen[name]; !ok {
				seen[name] = struct{}{}
				summary.UniqueParameters = append(summary.UniqueParameters, name)
			}
		}
	}

	return summary
}
