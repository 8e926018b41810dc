// Package domain contains the core data contracts for the COSMED Data
// Converter: phases, parameter readings, subject records, export tables
// and the selection types the projection modes consume.
package domain

import "fmt"

// Phase is one of the eleven named measurement checkpoints a COSMED
// device may record for a parameter during a CPET test.
type Phase string

const (
	PhaseValue    Phase = "Value"
	PhaseRest     Phase = "Rest"
	PhaseWarmup   Phase = "Warmup"
	PhaseMFO      Phase = "MFO"
	PhaseAT       Phase = "AT"
	PhaseRC       Phase = "RC"
	PhaseMax      Phase = "Max"
	PhasePred     Phase = "Pred"
	PhasePercPred Phase = "PercPred"
	PhaseNormal   Phase = "Normal"
	PhaseClass    Phase = "Class"
)

// phaseOrder is the canonical column order, matching the attribute
// order COSMED writes on Parameter elements.
var phaseOrder = []Phase{
	PhaseValue, PhaseRest, PhaseWarmup, PhaseMFO, PhaseAT, PhaseRC,
	PhaseMax, PhasePred, PhasePercPred, PhaseNormal, PhaseClass,
}

// Phases returns the eleven phases in canonical order. The returned
// slice is a copy; callers may reorder it freely.
func Phases() []Phase {
	out := make([]Phase, len(phaseOrder))
	copy(out, phaseOrder)
	return out
}

// PhaseCount is the size of the closed phase set.
const PhaseCount = 11

// ParsePhase validates a user-supplied phase name. Matching is exact:
// phase names are case-sensitive identifiers, not free text.
func ParsePhase(s string) (Phase, error) {
	for _, ph := range phaseOrder {
		if string(ph) == s {
			return ph, nil
		}
	}
	return "", fmt.Errorf("unknown phase %q", s)
}

// ValidPhase reports whether s names one of the eleven phases.
func ValidPhase(s string) bool {
	_, err := ParsePhase(s)
	return err == nil
}
