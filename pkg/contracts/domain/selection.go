package domain

import (
	"fmt"
	"strings"
)

// CustomSelection is the input to the custom export mode: which
// parameters to project and, per parameter, which phases. Insertion
// order is preserved because it dictates column order in the export.
type CustomSelection struct {
	order  []string
	phases map[string][]Phase
}

// NewCustomSelection returns an empty selection.
func NewCustomSelection() *CustomSelection {
	return &CustomSelection{phases: make(map[string][]Phase)}
}

// Add registers phases for a parameter name. Repeated calls for the
// same name extend its phase list; repeated phases are ignored.
func (s *CustomSelection) Add(name string, phases ...Phase) {
	if _, ok := s.phases[name]; !ok {
		s.order = append(s.order, name)
	}
	for _, ph := range phases {
		if s.hasPhase(name, ph) {
			continue
		}
		s.phases[name] = append(s.phases[name], ph)
	}
}

func (s *CustomSelection) hasPhase(name string, ph Phase) bool {
	for _, have := range s.phases[name] {
		if have == ph {
			return true
		}
	}
	return false
}

// Parameters returns the selected parameter names in insertion order.
func (s *CustomSelection) Parameters() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// PhasesFor returns the phases requested for name, in request order.
func (s *CustomSelection) PhasesFor(name string) []Phase {
	phases := s.phases[name]
	out := make([]Phase, len(phases))
	copy(out, phases)
	return out
}

// Len returns the number of selected parameters.
func (s *CustomSelection) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// ParseCustomSelection parses the CLI selection syntax: semicolon
// separated entries of "name:phase[,phase...]", e.g.
//
//	HR:Max;VO2/kg:MFO,AT,RC,Max
//
// Parameter names may contain any character except ':' and ';'.
func ParseCustomSelection(spec string) (*CustomSelection, error) {
	sel := NewCustomSelection()
	for _, entry := range strings.Split(spec, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, phaseList, ok := strings.Cut(entry, ":")
		if !ok {
			return nil, fmt.Errorf("selection entry %q: missing ':'", entry)
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("selection entry %q: empty parameter name", entry)
		}
		var phases []Phase
		for _, raw := range strings.Split(phaseList, ",") {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			ph, err := ParsePhase(raw)
			if err != nil {
				return nil, fmt.Errorf("selection entry %q: %w", entry, err)
			}
			phases = append(phases, ph)
		}
		if len(phases) == 0 {
			return nil, fmt.Errorf("selection entry %q: no phases", entry)
		}
		sel.Add(name, phases...)
	}
	if sel.Len() == 0 {
		return nil, fmt.Errorf("empty selection %q", spec)
	}
	return sel, nil
}
