// Package ops holds the side-effecting collaborator ports the core calls
// through: external editor invocation and clipboard writes. Both are
// interfaces so the orchestrator stays testable without spawning processes.
package ops

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Editor launches an external editor on a note file and blocks until it
// exits.
type Editor interface {
	Open(ctx context.Context, path string) error
}

// ExecEditor runs the configured editor command as a child process in the
// archive root. An empty command falls back to $EDITOR, then to vim.
type ExecEditor struct {
	cmd string
	dir string
}

// NewExecEditor creates an editor runner for the archive at dir.
func NewExecEditor(cmd, dir string) *ExecEditor {
	return &ExecEditor{cmd: cmd, dir: dir}
}

// Open runs the editor on path, inheriting the terminal.
func (e *ExecEditor) Open(ctx context.Context, path string) error {
	name, args := e.resolve()
	if path != "" {
		args = append(args, path)
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = e.dir
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("editor %s: %w", name, err)
	}
	return nil
}

// resolve splits the configured command into executable and leading args.
func (e *ExecEditor) resolve() (string, []string) {
	cmd := e.cmd
	if cmd == "" {
		cmd = os.Getenv("EDITOR")
	}
	if cmd == "" {
		cmd = "vim"
	}
	fields := strings.Fields(cmd)
	return fields[0], fields[1:]
}
