package ai

import (
	"context"
	"os/exec"
	"sync"
	"testing"
	"time"
)

// EnsureNoRealAPIKeys unsets API keys for the duration of the test so that a
// mistake in a mock can never reach the real service.
func EnsureNoRealAPIKeys(t *testing.T) {
	t.Helper()
	t.Setenv("ANTHROPIC_API_KEY", "")
}

// mockResult is one scripted response of MockExecutor.
type mockResult struct {
	stdout []byte
	stderr []byte
	err    error
}

// MockExecutor is a CommandExecutor that replays scripted results without
// starting a subprocess. The last result repeats once the script runs out.
type MockExecutor struct {
	mu      sync.Mutex
	results []mockResult
	calls   int
	// CapturedCmd stores the last executed command for verification.
	CapturedCmd *exec.Cmd
	// Block makes Execute wait for ctx to end and return its error.
	Block bool
}

func newMockExecutor(results ...mockResult) *MockExecutor {
	return &MockExecutor{results: results}
}

func (m *MockExecutor) Execute(ctx context.Context, cmd *exec.Cmd) ([]byte, []byte, error) {
	m.mu.Lock()
	m.CapturedCmd = cmd
	m.calls++
	idx := m.calls - 1
	m.mu.Unlock()

	if m.Block {
		<-ctx.Done()
		return nil, nil, ctx.Err()
	}
	if len(m.results) == 0 {
		return nil, nil, nil
	}
	if idx >= len(m.results) {
		idx = len(m.results) - 1
	}
	r := m.results[idx]
	return r.stdout, r.stderr, r.err
}

func (m *MockExecutor) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// skipBackoff replaces timeSleep for the duration of the test.
func skipBackoff(t *testing.T) {
	t.Helper()
	orig := timeSleep
	timeSleep = func(time.Duration) <-chan time.Time {
		ch := make(chan time.Time, 1)
		ch <- time.Now()
		return ch
	}
	t.Cleanup(func() { timeSleep = orig })
}
