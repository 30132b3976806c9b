// Package logging keeps secrets out of cadence's log files.
//
// Executor stderr and result text can echo credentials back to us, so every
// log sink the CLI opens is wrapped in a FilteringWriter.
package logging

import (
	"io"
	"regexp"

	"github.com/rs/zerolog"
)

// RedactedValue replaces every matched secret.
const RedactedValue = "[REDACTED]"

// sensitivePatterns match credential formats that show up in agent output.
//
//nolint:gochecknoglobals // compiled once
var sensitivePatterns = []*regexp.Regexp{
	// Anthropic keys must come before the generic sk- form.
	regexp.MustCompile(`sk-ant-[a-zA-Z0-9_-]+`),
	regexp.MustCompile(`sk-[a-zA-Z0-9]{20,}`),
	regexp.MustCompile(`gh[pousr]_[a-zA-Z0-9]{20,}`),
	regexp.MustCompile(`(?i)(api[_-]?key|apikey)\s*[:=]\s*["']?[a-zA-Z0-9_-]{16,}["']?`),
	regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9._-]{20,}`),
	regexp.MustCompile(`(?i)(secret|password|passwd|credential)\s*[:=]\s*["']?[^\s"']{8,}["']?`),
	regexp.MustCompile(`-----BEGIN[A-Z ]*PRIVATE KEY-----`),
}

// ContainsSensitiveData reports whether s matches any secret pattern.
func ContainsSensitiveData(s string) bool {
	for _, p := range sensitivePatterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

// FilterSensitiveValue replaces every secret in value with RedactedValue.
func FilterSensitiveValue(value string) string {
	for _, p := range sensitivePatterns {
		value = p.ReplaceAllString(value, RedactedValue)
	}
	return value
}

// SensitiveDataHook marks events whose message contains a secret. zerolog
// hooks cannot rewrite the message; the FilteringWriter does the redaction.
type SensitiveDataHook struct{}

// NewSensitiveDataHook returns a SensitiveDataHook.
func NewSensitiveDataHook() *SensitiveDataHook {
	return &SensitiveDataHook{}
}

// Run implements zerolog.Hook.
func (h *SensitiveDataHook) Run(e *zerolog.Event, _ zerolog.Level, msg string) {
	if ContainsSensitiveData(msg) {
		e.Bool("contains_filtered_data", true)
	}
}

// FilteringWriter redacts secrets before passing bytes to the wrapped writer.
type FilteringWriter struct {
	w io.Writer
}

// NewFilteringWriter wraps w.
func NewFilteringWriter(w io.Writer) *FilteringWriter {
	return &FilteringWriter{w: w}
}

// Write filters p and reports len(p) on success so callers never see a short
// write caused by redaction.
func (fw *FilteringWriter) Write(p []byte) (int, error) {
	if _, err := fw.w.Write([]byte(FilterSensitiveValue(string(p)))); err != nil {
		return 0, err
	}
	return len(p), nil
}
