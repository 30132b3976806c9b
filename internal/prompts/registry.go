package prompts

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"text/template"
	"time"
)

//go:embed templates/common/*.tmpl templates/task/*.tmpl
var templateFS embed.FS

const (
	templateRoot  = "templates"
	commonPattern = "templates/common/*.tmpl"
	taskPattern   = "templates/task/*.tmpl"
)

// registry holds the parsed prompt templates. It is filled once at package
// init and read-only afterwards, so lookups need no locking.
type registry struct {
	templates map[PromptID]*template.Template
}

//nolint:gochecknoglobals // templates are embedded and parsed once
var globalRegistry = mustLoadRegistry(templateFS)

func funcMap() template.FuncMap {
	return template.FuncMap{
		"join":       strings.Join,
		"hasContent": func(s string) bool { return strings.TrimSpace(s) != "" },
		"truncate":   Truncate,
		"formatTime": formatTime,
		"lower":      strings.ToLower,
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.UTC().Format(time.RFC3339)
}

func mustLoadRegistry(fsys fs.FS) *registry {
	r, err := loadRegistry(fsys)
	if err != nil {
		panic(fmt.Sprintf("failed to load embedded templates: %v", err))
	}
	return r
}

// loadRegistry parses the shared partials once, then clones that base for
// every task template so each prompt can call {{template "common/..."}}.
func loadRegistry(fsys fs.FS) (*registry, error) {
	base := template.New("").Funcs(funcMap())
	commons, err := fs.Glob(fsys, commonPattern)
	if err != nil {
		return nil, err
	}
	for _, name := range commons {
		content, readErr := fs.ReadFile(fsys, name)
		if readErr != nil {
			return nil, fmt.Errorf("reading common template %s: %w", name, readErr)
		}
		if _, parseErr := base.New(string(promptIDFromPath(name))).Parse(string(content)); parseErr != nil {
			return nil, fmt.Errorf("parsing common template %s: %w", name, parseErr)
		}
	}

	tasks, err := fs.Glob(fsys, taskPattern)
	if err != nil {
		return nil, err
	}

	r := &registry{templates: make(map[PromptID]*template.Template, len(tasks))}
	for _, name := range tasks {
		content, readErr := fs.ReadFile(fsys, name)
		if readErr != nil {
			return nil, fmt.Errorf("reading template %s: %w", name, readErr)
		}
		id := promptIDFromPath(name)

		clone, cloneErr := base.Clone()
		if cloneErr != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", id, cloneErr)
		}
		tmpl, parseErr := clone.New(string(id)).Parse(string(content))
		if parseErr != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, parseErr)
		}
		r.templates[id] = tmpl
	}
	return r, nil
}

// promptIDFromPath maps templates/task/user.tmpl to task/user.
func promptIDFromPath(name string) PromptID {
	id := strings.TrimPrefix(name, templateRoot+"/")
	return PromptID(strings.TrimSuffix(id, path.Ext(id)))
}

func (r *registry) get(id PromptID) (*template.Template, error) {
	tmpl, ok := r.templates[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
	}
	return tmpl, nil
}
