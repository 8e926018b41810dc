package extractor

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"cosmedcli/pkg/contracts/domain"
)

// ErrNoRootElement marks documents with no XML content at all, such as
// empty files or exports truncated before the root element.
var ErrNoRootElement = errors.New("no root element")

// SessionParser reads a single COSMED session export using streaming
// XML tokens, so a document never needs a full DOM in memory.
type SessionParser struct {
	decoder *xml.Decoder
}

// NewSessionParser creates a parser for one session document
func NewSessionParser(r io.Reader) *SessionParser {
	decoder := xml.NewDecoder(r)
	decoder.Strict = false // tolerate sloppy device exports
	return &SessionParser{decoder: decoder}
}

// Parse consumes the document and returns the subject ID (empty when
// the document carries none) and every parameter reading in document
// order. Duplicate parameter names are kept.
func (p *SessionParser) Parse() (string, []domain.ParameterReading, error) {
	var (
		subjectID  string
		readings   []domain.ParameterReading
		path       []string
		idText     strings.Builder
		sawElement bool
	)

	for {
		token, err := p.decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", nil, fmt.Errorf("malformed XML: %w", err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			sawElement = true
			path = append(path, t.Name.Local)
			if t.Name.Local == "Parameter" && inParametersSection(path) {
				readings = append(readings, readingFromAttrs(t))
			}
		case xml.CharData:
			if subjectID == "" && atSubjectID(path) {
				idText.Write(t)
			}
		case xml.EndElement:
			if subjectID == "" && atSubjectID(path) {
				if id := strings.TrimSpace(idText.String()); id != "" {
					subjectID = id
				}
				idText.Reset()
			}
			if len(path) > 0 {
				path = path[:len(path)-1]
			}
		}
	}

	if !sawElement {
		return "", nil, fmt.Errorf("malformed XML: %w", ErrNoRootElement)
	}

	return subjectID, readings, nil
}

// atSubjectID reports whether the current element is an ID directly
// under a Subject element, at any depth in the document.
func atSubjectID(path []string) bool {
	n := len(path)
	return n >= 2 && path[n-1] == "ID" && path[n-2] == "Subject"
}

// inParametersSection reports whether the current Parameter element
// sits under a Parameters section that is itself inside AdditionalData.
func inParametersSection(path []string) bool {
	sawAdditionalData := false
	for _, name := range path[:len(path)-1] {
		switch name {
		case "AdditionalData":
			sawAdditionalData = true
		case "Parameters":
			if sawAdditionalData {
				return true
			}
		}
	}
	return false
}

// readingFromAttrs builds a ParameterReading from a Parameter element.
// Unknown attributes are ignored; missing ones stay absent.
func readingFromAttrs(start xml.StartElement) domain.ParameterReading {
	reading := domain.ParameterReading{}
	for _, attr := range start.Attr {
		switch attr.Name.Local {
		case "Name":
			reading.Name = strings.TrimSpace(attr.Value)
		case "UM":
			reading.Unit = strings.TrimSpace(attr.Value)
		default:
			if ph, err := domain.ParsePhase(attr.Name.Local); err == nil {
				reading.SetPhase(ph, strings.TrimSpace(attr.Value))
			}
		}
	}
	return reading
}
