package extractor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cosmedcli/pkg/contracts/domain"
)

func parseString(t *testing.T, doc string) (string, []domain.ParameterReading, error) {
	t.Helper()
	return NewSessionParser(strings.NewReader(doc)).Parse()
}

func TestSessionParser_FullDocument(t *testing.T) {
	doc := `<?xml version="1.0" encoding="utf-8"?>
<CPET>
  <Subject>
    <ID> S001 </ID>
    <LastName>Doe</LastName>
  </Subject>
  <AdditionalData>
    <Parameters>
      <Parameter Name="VO2" UM="mL/min" Value="350" Rest="300" Warmup="700" MFO="1500" AT="2100" RC="2600" Max="3100" Pred="3000" PercPred="103" Normal="yes" Class="A" />
      <Parameter Name="HR" UM="bpm" Max="180" AT="150" />
    </Parameters>
  </AdditionalData>
</CPET>`

	subjectID, readings, err := parseString(t, doc)
	require.NoError(t, err)
	assert.Equal(t, "S001", subjectID, "subject ID text is trimmed")
	require.Len(t, readings, 2)

	vo2 := readings[0]
	assert.Equal(t, "VO2", vo2.Name)
	assert.Equal(t, "mL/min", vo2.Unit)
	for _, ph := range domain.Phases() {
		assert.True(t, vo2.HasValue(ph), "expected phase %s populated", ph)
	}
	max, ok := vo2.PhaseValue(domain.PhaseMax)
	require.True(t, ok)
	assert.Equal(t, "3100", max)

	hr := readings[1]
	assert.Equal(t, "HR", hr.Name)
	assert.Equal(t, "bpm", hr.Unit)
	assert.True(t, hr.HasValue(domain.PhaseMax))
	assert.True(t, hr.HasValue(domain.PhaseAT))
	_, ok = hr.PhaseValue(domain.PhaseRest)
	assert.False(t, ok, "absent attribute stays absent")
}

func TestSessionParser_NestedSubject(t *testing.T) {
	// Subject is not a direct child of the root; the search is by
	// descent, not position.
	doc := `<Export>
  <Session>
    <Meta>
      <Subject><ID>DEEP-7</ID></Subject>
    </Meta>
  </Session>
</Export>`

	subjectID, readings, err := parseString(t, doc)
	require.NoError(t, err)
	assert.Equal(t, "DEEP-7", subjectID)
	assert.Empty(t, readings)
}

func TestSessionParser_IDOutsideSubjectIgnored(t *testing.T) {
	doc := `<CPET>
  <Device><ID>device-9</ID></Device>
  <Subject><ID>S002</ID></Subject>
</CPET>`

	subjectID, _, err := parseString(t, doc)
	require.NoError(t, err)
	assert.Equal(t, "S002", subjectID)
}

func TestSessionParser_MissingSections(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "no subject",
			doc:  `<CPET><AdditionalData><Parameters><Parameter Name="HR" UM="bpm" Max="170"/></Parameters></AdditionalData></CPET>`,
		},
		{
			name: "no parameters section",
			doc:  `<CPET><Subject><ID>S003</ID></Subject></CPET>`,
		},
		{
			name: "empty document body",
			doc:  `<CPET></CPET>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := parseString(t, tt.doc)
			assert.NoError(t, err, "structural absence is not a parse failure")
		})
	}
}

func TestSessionParser_ParameterOutsideSectionIgnored(t *testing.T) {
	doc := `<CPET>
  <Parameter Name="stray" Max="1"/>
  <Parameters><Parameter Name="orphaned" Max="2"/></Parameters>
  <AdditionalData>
    <Parameters>
      <Parameter Name="HR" UM="bpm" Max="180"/>
    </Parameters>
  </AdditionalData>
</CPET>`

	_, readings, err := parseString(t, doc)
	require.NoError(t, err)
	require.Len(t, readings, 1, "only parameters under AdditionalData/Parameters count")
	assert.Equal(t, "HR", readings[0].Name)
}

func TestSessionParser_DuplicateParametersKept(t *testing.T) {
	doc := `<CPET>
  <AdditionalData>
    <Parameters>
      <Parameter Name="HR" UM="bpm" Max="170"/>
      <Parameter Name="HR" UM="bpm" Max="182"/>
    </Parameters>
  </AdditionalData>
</CPET>`

	_, readings, err := parseString(t, doc)
	require.NoError(t, err)
	require.Len(t, readings, 2, "duplicates are not collapsed at extraction")
	first, _ := readings[0].PhaseValue(domain.PhaseMax)
	second, _ := readings[1].PhaseValue(domain.PhaseMax)
	assert.Equal(t, "170", first)
	assert.Equal(t, "182", second)
}

func TestSessionParser_UnknownAttributesIgnored(t *testing.T) {
	doc := `<CPET>
  <AdditionalData>
    <Parameters>
      <Parameter Name="HR" UM="bpm" Max="180" Color="red" SortIndex="3"/>
    </Parameters>
  </AdditionalData>
</CPET>`

	_, readings, err := parseString(t, doc)
	require.NoError(t, err)
	require.Len(t, readings, 1)
	assert.True(t, readings[0].HasValue(domain.PhaseMax))
	assert.False(t, readings[0].HasValue(domain.PhaseClass))
}

func TestSessionParser_FirstNonEmptySubjectIDWins(t *testing.T) {
	doc := `<CPET>
  <Subject><ID>  </ID></Subject>
  <Subject><ID>S004</ID></Subject>
  <Subject><ID>S005</ID></Subject>
</CPET>`

	subjectID, _, err := parseString(t, doc)
	require.NoError(t, err)
	assert.Equal(t, "S004", subjectID)
}

func TestSessionParser_NoContent(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "empty file", doc: ""},
		{name: "whitespace only", doc: "   \n\t  "},
		{name: "declaration only", doc: `<?xml version="1.0"?>`},
		{name: "plain text", doc: "this is not an XML document"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := parseString(t, tt.doc)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrNoRootElement)
		})
	}
}
