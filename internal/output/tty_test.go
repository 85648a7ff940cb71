package output

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"  yes  \n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"sure\n", false},
		{"y", true},
	}

	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			var out bytes.Buffer
			got, err := confirm(strings.NewReader(tt.input), &out, "Continue?")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, stripAnsi(out.String()), "Continue? [y/N]")
		})
	}
}

func TestRunWithSpinnerReturnsActionError(t *testing.T) {
	// Either path must run the action and return its error.
	called := false
	err := RunWithSpinner(context.Background(), func() error {
		called = true
		return errors.New("boom")
	}, WithTitle("Building"))

	assert.True(t, called)
	assert.EqualError(t, err, "boom")
}

func TestTable(t *testing.T) {
	tbl := NewTable("OS", "SERVER", "TOOLCHAINS").
		Row("Linux", "rhel8-x86_64", "R3.14.12.7, R7.0.7").
		Row("Windows", "windows6_3-AMD64", "R3.14.12.7")

	assert.Equal(t, 2, tbl.Len())
	out := stripAnsi(tbl.String())
	for _, want := range []string{"SERVER", "rhel8-x86_64", "windows6_3-AMD64", "R7.0.7"} {
		assert.Contains(t, out, want)
	}
}
