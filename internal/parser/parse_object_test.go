package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		expected []string
	}{
		{"simple", "A1,Name=Test", []string{"A1", "Name=Test"}},
		{"quoted comma", `A1,Name="Boeing, 737",Color=Blue`, []string{"A1", `Name="Boeing, 737"`, "Color=Blue"}},
		{"trailing empty field", "A1,Name=,", []string{"A1", "Name=", ""}},
		{"single field", "A1", []string{"A1"}},
		{"unbalanced quote swallows rest", `A1,Name="a,b`, []string{"A1", `Name="a,b`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tokenize(tt.line))
		})
	}
}

func TestSplitKeyValue(t *testing.T) {
	tests := []struct {
		token string
		key   string
		value string
	}{
		{"Name=Test", "Name", "Test"},
		{"Name=", "Name", ""},
		{"Flag", "Flag", ""},
		{"T=1|2|3", "T", "1|2|3"},
		{"Note=a=b", "Note", "a=b"}, // first '=' separates
	}

	for _, tt := range tests {
		key, value := splitKeyValue(tt.token)
		assert.Equal(t, tt.key, key)
		assert.Equal(t, tt.value, value)
	}
}

func TestParse_TransformMissingCoreCoordinateDropsSample(t *testing.T) {
	p := newTestParser()

	tests := []struct {
		name string
		t    string
	}{
		{"missing latitude", "T=30.0||1000"},
		{"missing longitude", "T=|50.0|1000"},
		{"missing altitude", "T=30.0|50.0|"},
		{"non-numeric altitude", "T=30.0|50.0|high"},
		{"empty", "T="},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, _, err := p.Parse("FileType=text/acmi/tacview\n#1.0\nA1," + tt.t + "\n")
			require.NoError(t, err)
			require.NotNil(t, ds.Objects["A1"], "object is still created")
			assert.Len(t, ds.Objects["A1"].States, 0)
		})
	}
}

func TestParse_TransformOptionalAnglesAbsentNotZero(t *testing.T) {
	p := newTestParser()

	ds, _, err := p.Parse("FileType=text/acmi/tacview\n#1.0\nA1,T=1|2|3|||90\n")
	require.NoError(t, err)

	states := ds.Objects["A1"].States
	require.Len(t, states, 1)
	assert.Nil(t, states[0].Roll)
	assert.Nil(t, states[0].Pitch)
	require.NotNil(t, states[0].Yaw)
	assert.Equal(t, 90.0, *states[0].Yaw)
}

func TestParse_TransformExtraFieldsIgnored(t *testing.T) {
	p := newTestParser()

	// Some exporters emit longer T values (u/v display coordinates); only
	// the first six ordinals are meaningful here.
	ds, _, err := p.Parse("FileType=text/acmi/tacview\n#1.0\nA1,T=1|2|3|4|5|6|7|8|9\n")
	require.NoError(t, err)

	states := ds.Objects["A1"].States
	require.Len(t, states, 1)
	require.NotNil(t, states[0].Roll)
	assert.Equal(t, 4.0, *states[0].Roll)
	require.NotNil(t, states[0].Yaw)
	assert.Equal(t, 6.0, *states[0].Yaw)
}

func TestParse_QuotedValueUnwrapped(t *testing.T) {
	p := newTestParser()

	ds, _, err := p.Parse("FileType=text/acmi/tacview\n#1.0\nA1,Name=\"Boeing, 737\"\n")
	require.NoError(t, err)
	assert.Equal(t, "Boeing, 737", ds.Objects["A1"].Properties["Name"])
}

func TestParse_TokenWithoutEqualsIsEmptyValueKey(t *testing.T) {
	p := newTestParser()

	ds, _, err := p.Parse("FileType=text/acmi/tacview\n#1.0\nA1,Afterburner\n")
	require.NoError(t, err)

	v, ok := ds.Objects["A1"].Properties["Afterburner"]
	require.True(t, ok)
	assert.Equal(t, "", v)
}
