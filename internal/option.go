package internal

import (
	"github.com/veleda/ansuz/internal/gitsync"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config    *Config
	gitRunner gitsync.Runner
	onReady   func(*Runtime)
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithGitRunner overrides the exec-backed git runner, mainly for tests.
func WithGitRunner(r gitsync.Runner) Option {
	return func(a *application) {
		a.gitRunner = r
	}
}

// WithRuntimeHook registers a callback invoked once wiring is complete,
// giving a front-end access to the live collaborators.
func WithRuntimeHook(fn func(*Runtime)) Option {
	return func(a *application) {
		a.onReady = fn
	}
}
