// Package prompts builds the text handed to the executor.
// Prompt bodies are text/template files embedded at compile time; the
// Synthesizer fills them from role context, recent history, and progress notes.
package prompts

import (
	"bytes"
	"errors"
	"fmt"
)

var (
	// ErrTemplateNotFound is returned for an unregistered PromptID.
	ErrTemplateNotFound = errors.New("template not found")

	// ErrTemplateExecution wraps a failure while executing a template.
	ErrTemplateExecution = errors.New("template execution failed")

	// ErrInvalidData is returned when data does not match the prompt's type.
	ErrInvalidData = errors.New("invalid data type for template")
)

// Render executes the prompt id with data. UserTask takes UserTaskData and
// AutonomousTask takes AutonomousTaskData.
func Render(id PromptID, data any) (string, error) {
	if err := checkData(id, data); err != nil {
		return "", err
	}

	tmpl, err := globalRegistry.get(id)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: prompt %s: %w", ErrTemplateExecution, id, err)
	}
	return buf.String(), nil
}

func checkData(id PromptID, data any) error {
	var ok bool
	switch id {
	case UserTask:
		_, ok = data.(UserTaskData)
	case AutonomousTask:
		_, ok = data.(AutonomousTaskData)
	default:
		return nil
	}
	if !ok {
		return fmt.Errorf("%w: %s got %T", ErrInvalidData, id, data)
	}
	return nil
}
