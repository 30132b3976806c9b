package tui

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/mrz1836/cadence/internal/errors"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ValidFormat reports whether format is one of the supported output formats.
func ValidFormat(format string) bool {
	switch format {
	case FormatText, FormatJSON, FormatYAML:
		return true
	}
	return false
}

// Output writes command results. Structured outputs (JSON, YAML) ignore the
// human-oriented messages and print only Data values and errors.
type Output interface {
	Success(msg string)
	Error(err error)
	Warning(msg string)
	Info(msg string)
	// Data prints v. Text output calls text() instead when it is non-nil.
	Data(v any, text func(w io.Writer, s *OutputStyles)) error
}

// NewOutput returns the Output for format. Unknown formats fall back to text.
func NewOutput(w io.Writer, format string) Output {
	switch format {
	case FormatJSON:
		return &jsonOutput{w: w}
	case FormatYAML:
		return &yamlOutput{w: w}
	}
	return NewTextOutput(w)
}

// TextOutput prints styled, human-readable output.
type TextOutput struct {
	w      io.Writer
	styles *OutputStyles
}

// NewTextOutput creates a TextOutput, honoring NO_COLOR.
func NewTextOutput(w io.Writer) *TextOutput {
	CheckNoColor()
	return &TextOutput{w: w, styles: NewOutputStyles()}
}

// Success prints a green check line.
func (o *TextOutput) Success(msg string) {
	_, _ = fmt.Fprintln(o.w, o.styles.Success.Render("✓ "+msg))
}

// Error prints the user-facing message and, when known, the suggested action.
func (o *TextOutput) Error(err error) {
	msg, action := errors.Actionable(err)
	_, _ = fmt.Fprintln(o.w, o.styles.Error.Render("✗ "+msg))
	if msg != err.Error() {
		_, _ = fmt.Fprintln(o.w, o.styles.Dim.Render("  "+err.Error()))
	}
	if action != "" {
		_, _ = fmt.Fprintln(o.w, o.styles.Dim.Render("  ▸ Try: "+action))
	}
}

// Warning prints a yellow warning line.
func (o *TextOutput) Warning(msg string) {
	_, _ = fmt.Fprintln(o.w, o.styles.Warning.Render("⚠ "+msg))
}

// Info prints an informational line.
func (o *TextOutput) Info(msg string) {
	_, _ = fmt.Fprintln(o.w, o.styles.Info.Render(msg))
}

// Data renders v through text, or as indented JSON when text is nil.
func (o *TextOutput) Data(v any, text func(w io.Writer, s *OutputStyles)) error {
	if text != nil {
		text(o.w, o.styles)
		return nil
	}
	return encodeJSON(o.w, v)
}

type jsonOutput struct {
	w io.Writer
}

type jsonError struct {
	Type       string `json:"type"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func (o *jsonOutput) Success(string) {}
func (o *jsonOutput) Warning(string) {}
func (o *jsonOutput) Info(string)    {}

func (o *jsonOutput) Error(err error) {
	msg, action := errors.Actionable(err)
	je := jsonError{Type: "error", Message: msg, Suggestion: action}
	if msg != err.Error() {
		je.Details = err.Error()
	}
	_ = encodeJSON(o.w, je)
}

func (o *jsonOutput) Data(v any, _ func(io.Writer, *OutputStyles)) error {
	return encodeJSON(o.w, v)
}

type yamlOutput struct {
	w io.Writer
}

func (o *yamlOutput) Success(string) {}
func (o *yamlOutput) Warning(string) {}
func (o *yamlOutput) Info(string)    {}

func (o *yamlOutput) Error(err error) {
	msg, action := errors.Actionable(err)
	doc := map[string]string{"type": "error", "message": msg}
	if action != "" {
		doc["suggestion"] = action
	}
	if msg != err.Error() {
		doc["details"] = err.Error()
	}
	_ = encodeYAML(o.w, doc)
}

func (o *yamlOutput) Data(v any, _ func(io.Writer, *OutputStyles)) error {
	return encodeYAML(o.w, v)
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

func encodeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return enc.Close()
}
