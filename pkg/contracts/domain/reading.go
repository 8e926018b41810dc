package domain

import "fmt"

// NoUnit is the sentinel COSMED writes in the UM attribute when a
// parameter has no unit of measure.
const NoUnit = "---"

// ParameterReading is one measured quantity for one subject: a name,
// a unit of measure and up to eleven phase values. Phase values are
// opaque strings; the converter never parses or converts them.
type ParameterReading struct {
	Name string `json:"name"`
	Unit string `json:"unit,omitempty"`

	// Phases holds the phase values that were present in the source
	// document. A missing key means the attribute was absent; a key
	// mapped to "" means it was present but empty. Projection treats
	// both as unpopulated.
	Phases map[Phase]string `json:"phases,omitempty"`
}

// NewParameterReading returns a reading with an empty phase map.
func NewParameterReading(name, unit string) ParameterReading {
	return ParameterReading{Name: name, Unit: unit, Phases: make(map[Phase]string, PhaseCount)}
}

// SetPhase records a phase value, allocating the map if needed.
func (r *ParameterReading) SetPhase(ph Phase, value string) {
	if r.Phases == nil {
		r.Phases = make(map[Phase]string, PhaseCount)
	}
	r.Phases[ph] = value
}

// PhaseValue returns the raw stored value for ph and whether the phase
// was present in the source at all.
func (r ParameterReading) PhaseValue(ph Phase) (string, bool) {
	v, ok := r.Phases[ph]
	return v, ok
}

// HasValue reports whether ph is populated: present and non-empty.
func (r ParameterReading) HasValue(ph Phase) bool {
	return r.Phases[ph] != ""
}

// BaseName builds the display name used for spreadsheet columns:
// "Name (Unit)" when a real unit is present, plain "Name" when the
// unit is empty or the no-unit sentinel.
func (r ParameterReading) BaseName() string {
	if r.Unit == "" || r.Unit == NoUnit {
		return r.Name
	}
	return fmt.Sprintf("%s (%s)", r.Name, r.Unit)
}
