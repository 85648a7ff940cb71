package output

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette. Never use inline lipgloss.Color literals elsewhere.
var (
	// ColorCyan is used for identifiable nouns: modules, targets, paths.
	ColorCyan = lipgloss.Color("14")

	// ColorGreen is used for the "submitted" outcome.
	ColorGreen = lipgloss.Color("82")

	// ColorYellow is used for outcomes that stopped early on purpose.
	ColorYellow = lipgloss.Color("220")

	// ColorBoldRed is used for the "failed" outcome (matches ERROR level).
	ColorBoldRed = lipgloss.Color("204")

	// ColorGreenCheck is used for the completion checkmark (✔).
	ColorGreenCheck = lipgloss.Color("10")

	// ColorDimGray is used for borders and other structural chrome.
	ColorDimGray = lipgloss.Color("240")

	// ColorBlue is used for table headers.
	ColorBlue = lipgloss.Color("12")
)

// Semantic styles.
var (
	// StyleNoun styles identifiable nouns (modules, targets, queue entries).
	StyleNoun = lipgloss.NewStyle().Foreground(ColorCyan)

	// StyleAction styles action verbs (releasing, tagging, submitting).
	StyleAction = lipgloss.NewStyle().Bold(true)

	// StyleDim styles structural chrome (scope prefixes, separators, timestamps).
	StyleDim = lipgloss.NewStyle().Faint(true)

	// StyleSummary styles completion and summary lines.
	StyleSummary = lipgloss.NewStyle().Bold(true)
)

// Release outcome names, matching release.Outcome values.
const (
	StatusSubmitted = "submitted"
	StatusLocalOnly = "local-only"
	StatusCancelled = "cancelled"
	StatusFailed    = "failed"
)

// StatusStyle returns the style for a release outcome.
// Unknown statuses return an unstyled default.
func StatusStyle(status string) lipgloss.Style {
	switch status {
	case StatusSubmitted:
		return lipgloss.NewStyle().Foreground(ColorGreen)
	case StatusLocalOnly:
		return lipgloss.NewStyle().Foreground(ColorYellow)
	case StatusCancelled:
		return lipgloss.NewStyle().Faint(true)
	case StatusFailed:
		return lipgloss.NewStyle().Bold(true).Foreground(ColorBoldRed)
	default:
		return lipgloss.NewStyle()
	}
}

// minLabelColumnWidth keeps the status column aligned across lines.
const minLabelColumnWidth = 48

// FormatStatusLine renders a labelled line with a right-aligned,
// color-coded status suffix.
//
// Format: m:<area/module version>  <status>
func FormatStatusLine(label, status string) string {
	padding := minLabelColumnWidth - len(label)
	if padding < 2 {
		padding = 2
	}

	return StyleDim.Render("m:") +
		StyleNoun.Render(label) +
		strings.Repeat(" ", padding) +
		StatusStyle(status).Render(status)
}

// FormatCheckmark renders a green checkmark with a message for stdout output.
func FormatCheckmark(msg string) string {
	check := lipgloss.NewStyle().Foreground(ColorGreenCheck).Render("✔")
	return check + " " + msg
}

// vetLabelWidth aligns the detail column of vet check lines.
const vetLabelWidth = 34

// FormatVetCheck renders a passed check with an optional dim detail aligned
// in a second column.
func FormatVetCheck(label, detail string) string {
	line := FormatCheckmark(label)
	if detail == "" {
		return line
	}
	padding := vetLabelWidth - len(label)
	if padding < 2 {
		padding = 2
	}
	return line + strings.Repeat(" ", padding) + StyleDim.Render(detail)
}

// FormatField renders "key: value" with the value styled as a noun.
func FormatField(key, value string) string {
	return StyleDim.Render(key+":") + " " + StyleNoun.Render(value)
}
