// Package tui holds cadence's terminal presentation: the Lip Gloss style
// system and the text, JSON and YAML outputs used by the CLI.
//
// # Semantic Colors
//
//   - ColorPrimary (Blue): running work, headings
//   - ColorSuccess (Green): completed tasks
//   - ColorWarning (Yellow): interrupted tasks, refusals
//   - ColorError (Red): failed tasks
//   - ColorMuted (Gray): timestamps and secondary text
//
// Every status is shown as icon + color + text so the output still reads
// correctly without color. CheckNoColor honors NO_COLOR and TERM=dumb.
package tui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/mrz1836/cadence/internal/constants"
)

//nolint:gochecknoglobals // style system constants
var (
	// ColorPrimary is blue.
	ColorPrimary = lipgloss.AdaptiveColor{Light: "#0087AF", Dark: "#00D7FF"}
	// ColorSuccess is green.
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#008700", Dark: "#00FF87"}
	// ColorWarning is yellow.
	ColorWarning = lipgloss.AdaptiveColor{Light: "#AF8700", Dark: "#FFD700"}
	// ColorError is red.
	ColorError = lipgloss.AdaptiveColor{Light: "#AF0000", Dark: "#FF5F5F"}
	// ColorMuted is gray.
	ColorMuted = lipgloss.AdaptiveColor{Light: "#585858", Dark: "#6C6C6C"}

	// StyleBold applies bold formatting.
	StyleBold = lipgloss.NewStyle().Bold(true)
	// StyleDim applies faint formatting.
	StyleDim = lipgloss.NewStyle().Faint(true)
)

// OutputStyles holds the message styles.
type OutputStyles struct {
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	Dim     lipgloss.Style
	Header  lipgloss.Style
	Label   lipgloss.Style
}

// NewOutputStyles creates the message styles.
func NewOutputStyles() *OutputStyles {
	return &OutputStyles{
		Success: lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true),
		Error:   lipgloss.NewStyle().Foreground(ColorError).Bold(true),
		Warning: lipgloss.NewStyle().Foreground(ColorWarning),
		Info:    lipgloss.NewStyle().Foreground(ColorPrimary),
		Dim:     lipgloss.NewStyle().Foreground(ColorMuted),
		Header:  lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true),
		Label:   lipgloss.NewStyle().Foreground(ColorMuted).Width(labelWidth),
	}
}

// labelWidth aligns key/value rows in the status view.
const labelWidth = 14

// CheckNoColor drops to the ASCII profile when color is unwanted.
func CheckNoColor() {
	if !HasColorSupport() {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// HasColorSupport is false when NO_COLOR is set (to any value) or TERM=dumb.
func HasColorSupport() bool {
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return false
	}
	return os.Getenv("TERM") != "dumb"
}

// TaskStatusColor returns the semantic color for status.
func TaskStatusColor(status constants.TaskStatus) lipgloss.AdaptiveColor {
	switch status {
	case constants.TaskStatusRunning:
		return ColorPrimary
	case constants.TaskStatusCompleted:
		return ColorSuccess
	case constants.TaskStatusInterrupted:
		return ColorWarning
	case constants.TaskStatusFailed:
		return ColorError
	}
	return ColorMuted
}

// TaskStatusIcon returns the status glyph.
func TaskStatusIcon(status constants.TaskStatus) string {
	switch status {
	case constants.TaskStatusRunning:
		return "●"
	case constants.TaskStatusCompleted:
		return "✓"
	case constants.TaskStatusInterrupted:
		return "⚠"
	case constants.TaskStatusFailed:
		return "✗"
	}
	return "○"
}

// FormatStatus renders "icon status" in the status color.
func FormatStatus(status constants.TaskStatus) string {
	return lipgloss.NewStyle().
		Foreground(TaskStatusColor(status)).
		Render(TaskStatusIcon(status) + " " + status.String())
}
