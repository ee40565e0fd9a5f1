package gitsync

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// Git is the exec-backed Runner. Every invocation is bounded by the caller's
// context, so a hung remote cannot freeze the orchestrator.
type Git struct {
	dir    string
	logger *slog.Logger
}

// NewGit creates a runner operating on the repository at dir.
func NewGit(dir string, logger *slog.Logger) *Git {
	if logger == nil {
		logger = slog.Default()
	}
	return &Git{dir: dir, logger: logger}
}

// Status reports whether the worktree has uncommitted changes and, when an
// upstream is configured, how many commits it is ahead.
func (g *Git) Status(ctx context.Context) (WorktreeStatus, error) {
	if _, err := os.Stat(filepath.Join(g.dir, ".git")); err != nil {
		return WorktreeStatus{}, fmt.Errorf("not a git repository: %s", g.dir)
	}

	out, err := g.run(ctx, "status", "--porcelain")
	if err != nil {
		return WorktreeStatus{}, err
	}
	st := WorktreeStatus{Dirty: len(bytes.TrimSpace(out)) > 0}

	// Ahead count is best-effort: without an upstream rev-list fails, which
	// simply means there is nothing to push.
	if out, err := g.run(ctx, "rev-list", "--count", "@{u}..HEAD"); err == nil {
		if n, convErr := strconv.Atoi(strings.TrimSpace(string(out))); convErr == nil {
			st.Ahead = n
		}
	}
	return st, nil
}

// CommitAll stages everything and commits with the given message.
func (g *Git) CommitAll(ctx context.Context, message string) error {
	if _, err := g.run(ctx, "add", "-A"); err != nil {
		return err
	}
	_, err := g.run(ctx, "commit", "-m", message)
	return err
}

// Push pushes the current branch to its upstream.
func (g *Git) Push(ctx context.Context) error {
	_, err := g.run(ctx, "push")
	return err
}

func (g *Git) run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		g.logger.Debug("git command failed",
			slog.String("args", strings.Join(args, " ")),
			slog.String("output", string(bytes.TrimSpace(out))))
		return nil, fmt.Errorf("git %s: %w: %s", args[0], err, bytes.TrimSpace(out))
	}
	return out, nil
}
