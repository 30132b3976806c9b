// Package notes reads the free-form progress notes file that autonomous
// prompts include. Any read problem is treated as "no notes".
package notes

import (
	"os"
	"strings"
	"unicode/utf8"
)

// MaxBytes caps how much of the notes file is read into a prompt.
const MaxBytes = 16 * 1024

// File reads notes from a path on disk.
type File struct {
	path string
}

// NewFile returns a reader for path.
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the notes file location.
func (f *File) Path() string {
	return f.path
}

// Read returns the trimmed notes, or ok=false when the file is missing,
// unreadable, or blank.
func (f *File) Read() (string, bool) {
	if f == nil || f.path == "" {
		return "", false
	}
	data, err := os.ReadFile(f.path) //#nosec G304 -- path comes from validated config
	if err != nil {
		return "", false
	}
	if len(data) > MaxBytes {
		data = data[:MaxBytes]
		for len(data) > 0 && !utf8.Valid(data) {
			data = data[:len(data)-1]
		}
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", false
	}
	return text, true
}
