package output

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputFormatValid(t *testing.T) {
	tests := []struct {
		format OutputFormat
		valid  bool
	}{
		{FormatYAML, true},
		{FormatJSON, true},
		{FormatTable, true},
		{OutputFormat("dir"), false},
		{OutputFormat(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.format.Valid())
		})
	}
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		input string
		want  OutputFormat
		valid bool
	}{
		{"yaml", FormatYAML, true},
		{"yml", FormatYAML, true},
		{"JSON", FormatJSON, true},
		{"Table", FormatTable, true},
		{"invalid", OutputFormat("invalid"), false},
		{"", OutputFormat(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, valid := ParseOutputFormat(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.valid, valid)
		})
	}
}

func TestValidFormats(t *testing.T) {
	assert.Equal(t, []string{"table", "yaml", "json"}, ValidFormats())
}

func TestMarshal(t *testing.T) {
	v := struct {
		OS      string   `json:"os"`
		Servers []string `json:"servers"`
	}{OS: "Linux", Servers: []string{"rhel8-x86_64"}}

	data, err := Marshal(FormatYAML, v)
	require.NoError(t, err)
	assert.Equal(t, "os: Linux\nservers:\n- rhel8-x86_64\n", string(data))

	data, err = Marshal(FormatJSON, v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"os":"Linux","servers":["rhel8-x86_64"]}`, string(data))

	_, err = Marshal(FormatTable, v)
	assert.Error(t, err)
}
