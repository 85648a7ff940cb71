package output

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
)

func stripAnsi(s string) string {
	return ansi.Strip(s)
}

func TestStatusStyle(t *testing.T) {
	tests := []struct {
		name     string
		status   string
		wantBold bool
		wantFG   lipgloss.TerminalColor
		wantDim  bool
	}{
		{name: "submitted returns green", status: StatusSubmitted, wantFG: ColorGreen},
		{name: "local-only returns yellow", status: StatusLocalOnly, wantFG: ColorYellow},
		{name: "cancelled returns faint", status: StatusCancelled, wantDim: true},
		{name: "failed returns bold red", status: StatusFailed, wantBold: true, wantFG: ColorBoldRed},
		{name: "unknown returns default unstyled", status: "unknown-value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			style := StatusStyle(tt.status)
			assert.Equal(t, tt.wantBold, style.GetBold())
			assert.Equal(t, tt.wantDim, style.GetFaint())
			if tt.wantFG != nil {
				assert.Equal(t, tt.wantFG, style.GetForeground(), "foreground color mismatch")
			}
		})
	}
}

func TestFormatStatusLine(t *testing.T) {
	line := FormatStatusLine("support/motion 1-2", StatusSubmitted)
	stripped := stripAnsi(line)

	assert.True(t, strings.HasPrefix(stripped, "m:support/motion 1-2"))
	assert.True(t, strings.HasSuffix(stripped, StatusSubmitted))

	t.Run("alignment consistency", func(t *testing.T) {
		line1 := stripAnsi(FormatStatusLine("ioc/BL01I 3-1", StatusFailed))
		line2 := stripAnsi(FormatStatusLine("support/motion/pmac 2-11", StatusFailed))

		assert.Equal(t, strings.Index(line1, StatusFailed), strings.Index(line2, StatusFailed),
			"status words should align to same column")
	})

	t.Run("long labels keep a gap", func(t *testing.T) {
		label := strings.Repeat("x", 60)
		assert.Contains(t, stripAnsi(FormatStatusLine(label, StatusCancelled)), label+"  "+StatusCancelled)
	})
}

func TestFormatCheckmark(t *testing.T) {
	result := FormatCheckmark("Job submitted")
	assert.Contains(t, result, "✔", "should contain checkmark")
	assert.Contains(t, result, "Job submitted", "should contain message")
}

func TestFormatVetCheck(t *testing.T) {
	t.Run("without detail", func(t *testing.T) {
		stripped := stripAnsi(FormatVetCheck("Schema validation passed", ""))
		assert.Equal(t, "✔ Schema validation passed", stripped)
	})

	t.Run("alignment consistency", func(t *testing.T) {
		line1 := stripAnsi(FormatVetCheck("Config file found", "~/.modrel/config.yaml"))
		line2 := stripAnsi(FormatVetCheck("Catalog loaded", "/shared/catalog.yaml"))

		assert.Equal(t,
			strings.Index(line1, "~/.modrel/config.yaml"),
			strings.Index(line2, "/shared/catalog.yaml"),
			"detail text should align to same column")
	})
}

func TestFormatField(t *testing.T) {
	assert.Equal(t, "queue: /shared/queue", stripAnsi(FormatField("queue", "/shared/queue")))
}
