package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

// SessionParam describes one Parameter element in a generated COSMED
// session document. Phases maps phase attribute names (Value, Rest,
// Max, ...) to their string values.
type SessionParam struct {
	Name   string
	Unit   string
	Phases map[string]string
}

// SessionDoc describes one generated COSMED session document.
type SessionDoc struct {
	SubjectID string
	Params    []SessionParam

	// OmitSubject and OmitParameters drop whole sections, for tests
	// that exercise extraction from structurally sparse documents.
	OmitSubject    bool
	OmitParameters bool
}

// BuildSessionXML renders doc as a COSMED-shaped XML document.
func BuildSessionXML(doc SessionDoc) string {
	var b strings.Builder
	b.WriteString("<?xml version=\"1.0\" encoding=\"utf-8\"?>\n<CPET>\n")

	if !doc.OmitSubject {
		b.WriteString("  <Subject>\n")
		fmt.Fprintf(&b, "    <ID>%s</ID>\n", doc.SubjectID)
		b.WriteString("    <LastName>Fixture</LastName>\n")
		b.WriteString("  </Subject>\n")
	}

	if !doc.OmitParameters {
		b.WriteString("  <AdditionalData>\n    <Parameters>\n")
		for _, p := range doc.Params {
			fmt.Fprintf(&b, "      <Parameter Name=%q", p.Name)
			if p.Unit != "" {
				fmt.Fprintf(&b, " UM=%q", p.Unit)
			}
			// Sorted for stable fixture output
			phases := make([]string, 0, len(p.Phases))
			for ph := range p.Phases {
				phases = append(phases, ph)
			}
			sort.Strings(phases)
			for _, ph := range phases {
				fmt.Fprintf(&b, " %s=%q", ph, p.Phases[ph])
			}
			b.WriteString(" />\n")
		}
		b.WriteString("    </Parameters>\n  </AdditionalData>\n")
	}

	b.WriteString("</CPET>\n")
	return b.String()
}

// WriteSessionFile writes a session document under dir, creating parent
// directories for nested names, and returns the full path.
func WriteSessionFile(t *testing.T, dir, name string, doc SessionDoc) string {
	t.Helper()

	path := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create fixture directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(BuildSessionXML(doc)), 0644); err != nil {
		t.Fatalf("failed to write session fixture: %v", err)
	}
	return path
}

// WriteMalformedFile writes a .xml file whose content is not XML at
// all, so extraction must record it as a per-file failure.
func WriteMalformedFile(t *testing.T, dir, name string) string {
	t.Helper()

	path := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create fixture directory: %v", err)
	}
	if err := os.WriteFile(path, []byte("this is not an XML document\n"), 0644); err != nil {
		t.Fatalf("failed to write malformed fixture: %v", err)
	}
	return path
}
