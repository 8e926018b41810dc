package domain

// FileError is one per-file extraction failure, carried on the side
// channel next to the successful records rather than aborting a batch.
type FileError struct {
	File    string `json:"file"`
	Message string `json:"message"`
}

// ExtractionSummary describes one extraction pass over a directory:
// what was found, what parsed, what the data contains. It feeds the
// workbook summary sheet and the summary API endpoint.
type ExtractionSummary struct {
	Directory        string      `json:"directory"`
	FilesFound       int         `json:"files_found"`
	FilesParsed      int         `json:"files_parsed"`
	FilesFailed      int         `json:"files_failed"`
	SubjectsWithID   int         `json:"subjects_with_id"`
	UniqueParameters []string    `json:"unique_parameters"`
	Failures         []FileError `json:"failures,omitempty"`
}

// ParameterCount returns the number of distinct parameter names.
func (s ExtractionSummary) ParameterCount() int {
	return len(s.UniqueParameters)
}
