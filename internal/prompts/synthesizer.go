package prompts

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mrz1836/cadence/internal/clock"
	"github.com/mrz1836/cadence/internal/constants"
	"github.com/mrz1836/cadence/internal/domain"
)

// HistoryReader is the read-only view of the lifecycle store the synthesizer needs.
type HistoryReader interface {
	RecentHistory(n int) []domain.HistoryEntry
}

// NotesReader returns the progress notes blob, or ok=false when there are none.
type NotesReader interface {
	Read() (text string, ok bool)
}

// RepoReader describes the repository's current state, or ok=false when it
// cannot. The git package's Describer implements it.
type RepoReader interface {
	Read() (text string, ok bool)
}

// SynthesizerConfig holds the tunables for payload synthesis.
type SynthesizerConfig struct {
	// HistoryWindow is how many recent entries an autonomous prompt includes.
	HistoryWindow int
	// PromptTruncate caps each history entry's prompt text, in runes.
	PromptTruncate int
	// RoleDescription is included in autonomous prompts when set.
	RoleDescription string
}

// Synthesizer builds task payloads. It holds no state of its own; output
// depends only on its inputs and the clock.
type Synthesizer struct {
	history HistoryReader
	notes   NotesReader
	repo    RepoReader
	clock   clock.Clock
	cfg     SynthesizerConfig
	logger  zerolog.Logger
}

// SynthesizerOption configures a Synthesizer.
type SynthesizerOption func(*Synthesizer)

// WithClock sets the clock used for the prompt timestamp.
func WithClock(c clock.Clock) SynthesizerOption {
	return func(s *Synthesizer) {
		s.clock = clock.OrReal(c)
	}
}

// WithRepo adds a repository state section to autonomous prompts.
func WithRepo(r RepoReader) SynthesizerOption {
	return func(s *Synthesizer) {
		s.repo = r
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) SynthesizerOption {
	return func(s *Synthesizer) {
		s.logger = logger
	}
}

// NewSynthesizer creates a synthesizer. notes may be nil.
func NewSynthesizer(history HistoryReader, notes NotesReader, cfg SynthesizerConfig, opts ...SynthesizerOption) *Synthesizer {
	if cfg.HistoryWindow < 0 {
		cfg.HistoryWindow = 0
	}
	if cfg.PromptTruncate <= 0 {
		cfg.PromptTruncate = constants.DefaultPromptTruncate
	}
	s := &Synthesizer{
		history: history,
		notes:   notes,
		clock:   clock.RealClock{},
		cfg:     cfg,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UserPayload wraps instruction with situational context.
func (s *Synthesizer) UserPayload(instruction string, role domain.RoleContext) string {
	data := UserTaskData{
		Context:     s.contextData(role),
		Instruction: instruction,
	}
	out, err := Render(UserTask, data)
	if err != nil {
		s.logger.Warn().Err(err).Msg("user prompt render failed, passing instruction through")
		return instruction
	}
	return out
}

// AutonomousPayload builds a self-directed prompt from recent history,
// progress notes, and repository state. Missing notes or repository state
// omit their section.
func (s *Synthesizer) AutonomousPayload(role domain.RoleContext) string {
	data := AutonomousTaskData{
		Context:         s.contextData(role),
		RoleDescription: s.cfg.RoleDescription,
		History:         s.summaries(),
	}
	if s.notes != nil {
		if text, ok := s.notes.Read(); ok {
			data.Notes = text
		}
	}
	if s.repo != nil {
		if text, ok := s.repo.Read(); ok {
			data.Repository = text
		}
	}

	out, err := Render(AutonomousTask, data)
	if err != nil {
		s.logger.Warn().Err(err).Msg("autonomous prompt render failed, using minimal directive")
		return fmt.Sprintf("You are acting as %s in %s (cycle %d). Choose and carry out the most valuable next step.",
			role.Name, role.RepositoryPath, role.CycleNumber)
	}
	return out
}

func (s *Synthesizer) contextData(role domain.RoleContext) ContextData {
	return ContextData{
		RoleName:       role.Name,
		RepositoryPath: role.RepositoryPath,
		CycleNumber:    role.CycleNumber,
		Timestamp:      s.clock.Now(),
	}
}

func (s *Synthesizer) summaries() []HistorySummary {
	if s.history == nil || s.cfg.HistoryWindow == 0 {
		return nil
	}
	entries := s.history.RecentHistory(s.cfg.HistoryWindow)
	out := make([]HistorySummary, 0, len(entries))
	for _, e := range entries {
		out = append(out, HistorySummary{
			Kind:        e.Kind.String(),
			Status:      e.Status.String(),
			Prompt:      Truncate(e.Payload, s.cfg.PromptTruncate),
			Result:      Truncate(e.ResultText, s.cfg.PromptTruncate),
			CompletedAt: e.CompletedAt,
			DurationMs:  e.DurationMs,
		})
	}
	return out
}
