package domain

// SubjectRecord is one source file's extracted content. Records are
// built once by the extractor and read-only afterwards.
type SubjectRecord struct {
	// FilePath and Filename are provenance only; nothing matches on them.
	FilePath string `json:"file_path"`
	Filename string `json:"filename"`

	// SubjectID is empty when the document carries no Subject/ID element.
	SubjectID string `json:"subject_id,omitempty"`

	// Parameters preserves document order and keeps duplicate names.
	Parameters []ParameterReading `json:"parameters,omitempty"`
}

// Parameter resolves name to a reading. When a file lists the same
// parameter name more than once the last occurrence wins, matching the
// overwrite behavior of row construction in the projection modes.
func (r SubjectRecord) Parameter(name string) (ParameterReading, bool) {
	for i := len(r.Parameters) - 1; i >= 0; i-- {
		if r.Parameters[i].Name == name {
			return r.Parameters[i], true
		}
	}
	return ParameterReading{}, false
}

// ParameterNames returns the distinct parameter names in first-seen
// document order.
func (r SubjectRecord) ParameterNames() []string {
	seen := make(map[string]struct{}, len(r.Parameters))
	names := make([]string, 0, len(r.Parameters))
	for _, p := range r.Parameters {
		if _, ok := seen[p.Name]; ok {
			continue
		}
		seen[p.Name] = struct{}{}
		names = append(names, p.Name)
	}
	return names
}
