package git

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	cadenceerrors "github.com/mrz1836/cadence/internal/errors"
)

// detachedBranch is reported when HEAD does not point at a branch.
const detachedBranch = "(detached)"

// DefaultInspectTimeout bounds the git calls made for one prompt.
const DefaultInspectTimeout = 5 * time.Second

// RepoState summarizes a working tree.
type RepoState struct {
	// Branch is the checked-out branch, or "(detached)".
	Branch string
	// Head is the abbreviated HEAD commit. Empty before the first commit.
	Head string
	// Changed lists porcelain status lines for uncommitted changes.
	Changed []string
	// RecentCommits are "<sha> <subject>" lines, newest first.
	RecentCommits []string
}

// Inspect reads the branch, HEAD, uncommitted changes and the last commits
// of the repository at dir. It returns ErrNotGitRepo when dir is not inside a
// work tree. A repository with no commits yet has an empty Head.
func Inspect(ctx context.Context, dir string, commits int) (*RepoState, error) {
	inside, err := RunCommand(ctx, dir, "rev-parse", "--is-inside-work-tree")
	if err != nil || inside != "true" {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %s", cadenceerrors.ErrNotGitRepo, dir)
	}

	state := &RepoState{Branch: detachedBranch}
	if branch, err := RunCommand(ctx, dir, "symbolic-ref", "--short", "-q", "HEAD"); err == nil && branch != "" {
		state.Branch = branch
	}

	// Fails in a repository without commits; that just means no HEAD.
	if head, err := RunCommand(ctx, dir, "rev-parse", "--short", "HEAD"); err == nil {
		state.Head = head
	}

	status, err := RunCommand(ctx, dir, "status", "--porcelain")
	if err != nil {
		return nil, err
	}
	state.Changed = splitLines(status)

	if commits > 0 && state.Head != "" {
		log, err := RunCommand(ctx, dir, "log", "-n", strconv.Itoa(commits), "--format=%h %s")
		if err != nil {
			return nil, err
		}
		state.RecentCommits = splitLines(log)
	}

	return state, nil
}

// Summary renders the state as short markdown-friendly lines.
func (s *RepoState) Summary() string {
	var b strings.Builder
	head := s.Head
	if head == "" {
		head = "no commits yet"
	}
	fmt.Fprintf(&b, "- Branch: %s (%s)\n", s.Branch, head)

	if len(s.Changed) == 0 {
		b.WriteString("- Working tree: clean\n")
	} else {
		fmt.Fprintf(&b, "- Working tree: %d uncommitted change(s)\n", len(s.Changed))
		for _, line := range s.Changed {
			fmt.Fprintf(&b, "  %s\n", line)
		}
	}

	if len(s.RecentCommits) > 0 {
		b.WriteString("- Recent commits:\n")
		for _, c := range s.RecentCommits {
			fmt.Fprintf(&b, "  %s\n", c)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// Describer reads a fresh RepoState summary on every call. It satisfies the
// synthesizer's repository reader: any failure yields ok=false and the
// section is omitted.
type Describer struct {
	dir     string
	commits int
	timeout time.Duration
	logger  zerolog.Logger
}

// NewDescriber returns a Describer for dir listing up to commits commits.
func NewDescriber(dir string, commits int, logger zerolog.Logger) *Describer {
	return &Describer{
		dir:     dir,
		commits: commits,
		timeout: DefaultInspectTimeout,
		logger:  logger,
	}
}

// Read returns the summary, or ok=false when dir is not a readable repository.
func (d *Describer) Read() (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	state, err := Inspect(ctx, d.dir, d.commits)
	if err != nil {
		d.logger.Debug().Err(err).Str("dir", d.dir).Msg("repository state unavailable")
		return "", false
	}
	return state.Summary(), true
}

// splitLines returns the non-blank lines of s, trimmed.
func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
