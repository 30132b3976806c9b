package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cadenceerrors "github.com/mrz1836/cadence/internal/errors"
)

// createTestGitRepo initializes a temporary repository on branch "main".
func createTestGitRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	dir := t.TempDir()
	runGit(t, dir, "init", "-q")
	runGit(t, dir, "symbolic-ref", "HEAD", "refs/heads/main")
	runGit(t, dir, "config", "user.email", "test@example.com")
	runGit(t, dir, "config", "user.name", "Test User")
	runGit(t, dir, "config", "commit.gpgsign", "false")
	return dir
}

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.CommandContext(context.Background(), "git", args...) //#nosec G204 -- test helper
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v: %s", args, out)
}

func commitFile(t *testing.T, dir, name, content, msg string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	runGit(t, dir, "add", name)
	runGit(t, dir, "commit", "-q", "-m", msg)
}

func TestRunCommand(t *testing.T) {
	dir := createTestGitRepo(t)
	ctx := context.Background()

	out, err := RunCommand(ctx, dir, "rev-parse", "--is-inside-work-tree")
	require.NoError(t, err)
	assert.Equal(t, "true", out)

	_, err = RunCommand(ctx, dir, "rev-parse", "--verify", "no-such-ref")
	require.ErrorIs(t, err, cadenceerrors.ErrGitOperation)
	assert.Contains(t, err.Error(), "git rev-parse --verify no-such-ref")
}

func TestRunCommand_Canceled(t *testing.T) {
	dir := createTestGitRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RunCommand(ctx, dir, "status")
	require.ErrorIs(t, err, context.Canceled)
}

func TestInspect_NotARepo(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	// A directory under the temp root; git stops at the filesystem root.
	dir := t.TempDir()
	t.Setenv("GIT_CEILING_DIRECTORIES", filepath.Dir(dir))

	_, err := Inspect(context.Background(), dir, 3)
	require.ErrorIs(t, err, cadenceerrors.ErrNotGitRepo)
}

func TestInspect_EmptyRepo(t *testing.T) {
	dir := createTestGitRepo(t)

	state, err := Inspect(context.Background(), dir, 3)
	require.NoError(t, err)
	assert.Equal(t, "main", state.Branch)
	assert.Empty(t, state.Head)
	assert.Empty(t, state.Changed)
	assert.Empty(t, state.RecentCommits)
	assert.Contains(t, state.Summary(), "no commits yet")
}

func TestInspect_WithHistoryAndChanges(t *testing.T) {
	dir := createTestGitRepo(t)
	commitFile(t, dir, "a.txt", "a", "add a")
	commitFile(t, dir, "b.txt", "b", "add b")
	commitFile(t, dir, "c.txt", "c", "add c")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("changed"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.txt"), []byte("new"), 0o600))

	state, err := Inspect(context.Background(), dir, 2)
	require.NoError(t, err)
	assert.Equal(t, "main", state.Branch)
	assert.NotEmpty(t, state.Head)
	assert.Equal(t, []string{"M a.txt", "?? new.txt"}, state.Changed)
	require.Len(t, state.RecentCommits, 2)
	assert.Contains(t, state.RecentCommits[0], "add c")
	assert.Contains(t, state.RecentCommits[1], "add b")

	summary := state.Summary()
	assert.Contains(t, summary, "- Branch: main ("+state.Head+")")
	assert.Contains(t, summary, "2 uncommitted change(s)")
	assert.Contains(t, summary, "- Recent commits:")
}

func TestInspect_DetachedHead(t *testing.T) {
	dir := createTestGitRepo(t)
	commitFile(t, dir, "a.txt", "a", "add a")
	runGit(t, dir, "checkout", "-q", "--detach")

	state, err := Inspect(context.Background(), dir, 0)
	require.NoError(t, err)
	assert.Equal(t, detachedBranch, state.Branch)
	assert.Empty(t, state.RecentCommits)
	assert.Contains(t, state.Summary(), "Working tree: clean")
}

func TestDescriber_Read(t *testing.T) {
	dir := createTestGitRepo(t)
	commitFile(t, dir, "a.txt", "a", "first commit")

	text, ok := NewDescriber(dir, 5, zerolog.Nop()).Read()
	require.True(t, ok)
	assert.Contains(t, text, "first commit")

	t.Setenv("GIT_CEILING_DIRECTORIES", filepath.Dir(t.TempDir()))
	_, ok = NewDescriber(t.TempDir(), 5, zerolog.Nop()).Read()
	assert.False(t, ok)
}

func TestSplitLines(t *testing.T) {
	t.Parallel()

	assert.Nil(t, splitLines(""))
	assert.Equal(t, []string{"a", "b"}, splitLines("a\n\n  b \n"))
}
