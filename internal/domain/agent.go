// Package domain provides shared domain types for the cadence work loop.
package domain

// Agent names the executor backend configured under executor.agent.
type Agent string

const (
	// AgentClaude shells out to the Claude Code CLI.
	AgentClaude Agent = "claude"

	// AgentStub completes every task at once by echoing its payload.
	AgentStub Agent = "stub"
)

// defaultModels holds the model alias used when executor.model is empty.
//
//nolint:gochecknoglobals // read-only lookup table
var defaultModels = map[Agent]string{
	AgentClaude: "sonnet",
}

func (a Agent) String() string {
	return string(a)
}

// IsValid reports whether a is a supported backend.
func (a Agent) IsValid() bool {
	return a == AgentClaude || a == AgentStub
}

// DefaultModel returns the model alias for a, or "" when a takes no model.
func (a Agent) DefaultModel() string {
	return defaultModels[a]
}
