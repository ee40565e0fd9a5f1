// Package gitsync decides whether a git add/commit/push cycle is necessary
// and drives it through an external runner when it is.
package gitsync

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/veleda/ansuz/internal/apperr"
)

// State is one position in the sync pipeline:
//
//	Idle → CheckingStatus → {CheckFailed | NothingToSync |
//	    Committing → {CommitFailed | Pushing → {Success | PushFailed}}} → Idle
//
// The pipeline is linear and never resumes mid-state across runs; every
// invocation starts fresh from CheckingStatus.
type State int

const (
	StateIdle State = iota
	StateCheckingStatus
	StateNothingToSync
	StateCommitting
	StatePushing
	StateSuccess
	StateCheckFailed
	StateCommitFailed
	StatePushFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCheckingStatus:
		return "checking-status"
	case StateNothingToSync:
		return "nothing-to-sync"
	case StateCommitting:
		return "committing"
	case StatePushing:
		return "pushing"
	case StateSuccess:
		return "success"
	case StateCheckFailed:
		return "check-failed"
	case StateCommitFailed:
		return "commit-failed"
	case StatePushFailed:
		return "push-failed"
	default:
		return "unknown"
	}
}

// WorktreeStatus is what a status check reports. Ahead is best-effort: zero
// when the repository has no upstream or counting is unavailable.
type WorktreeStatus struct {
	Dirty bool
	Ahead int
}

// Runner is the git primitive contract. The controller decides whether and
// what to invoke; it never touches git's object model itself.
type Runner interface {
	Status(ctx context.Context) (WorktreeStatus, error)
	CommitAll(ctx context.Context, message string) error
	Push(ctx context.Context) error
}

// Result is the ephemeral outcome of one run. It is recomputed on every
// request and never cached across invocations.
type Result struct {
	State   State // terminal: NothingToSync, Success, or a *Failed state
	Message string
	Ahead   int
	Err     error // *apperr.SyncError when a stage failed
}

// Controller owns the sync state machine. One run executes at a time; a
// trigger arriving mid-run is rejected rather than queued.
type Controller struct {
	runner  Runner
	logger  *slog.Logger
	timeout time.Duration

	mu      sync.Mutex
	running bool
	state   State
	last    Result
}

// NewController creates a controller. timeout bounds one full run so a hung
// remote cannot block a quit indefinitely.
func NewController(runner Runner, logger *slog.Logger, timeout time.Duration) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &Controller{runner: runner, logger: logger, timeout: timeout, state: StateIdle}
}

// State returns the pipeline's current position.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastResult returns the outcome of the most recent run.
func (c *Controller) LastResult() Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Run executes one full pipeline pass and returns its terminal result.
// A clean worktree with nothing to push terminates in NothingToSync without
// invoking commit or push. A clean worktree that is ahead of upstream (a
// commit whose earlier push failed) goes straight to the push stage.
func (c *Controller) Run(ctx context.Context) Result {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return Result{State: StateIdle, Message: "sync already in progress"}
	}
	c.running = true
	c.state = StateCheckingStatus
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	res := c.pipeline(ctx)

	c.mu.Lock()
	c.running = false
	c.state = StateIdle
	c.last = res
	c.mu.Unlock()
	return res
}

func (c *Controller) pipeline(ctx context.Context) Result {
	status, err := c.runner.Status(ctx)
	if err != nil {
		c.logger.Warn("sync: status check failed", slog.String("error", err.Error()))
		return Result{
			State:   StateCheckFailed,
			Message: "status check failed",
			Err:     &apperr.SyncError{Stage: apperr.StageCheck, Err: err},
		}
	}

	if !status.Dirty && status.Ahead == 0 {
		c.setState(StateNothingToSync)
		c.logger.Info("sync: up to date")
		return Result{State: StateNothingToSync, Message: "already up to date"}
	}

	if status.Dirty {
		c.setState(StateCommitting)
		msg := commitMessage(time.Now())
		if err := c.runner.CommitAll(ctx, msg); err != nil {
			c.logger.Error("sync: commit failed", slog.String("error", err.Error()))
			return Result{
				State:   StateCommitFailed,
				Message: "commit failed",
				Err:     &apperr.SyncError{Stage: apperr.StageCommit, Err: err},
			}
		}
		c.logger.Info("sync: committed", slog.String("message", msg))
	}

	c.setState(StatePushing)
	if err := c.runner.Push(ctx); err != nil {
		// The commit above is intact; only the push stage failed.
		c.logger.Error("sync: push failed", slog.String("error", err.Error()))
		return Result{
			State:   StatePushFailed,
			Message: "push failed, local commit preserved",
			Ahead:   status.Ahead,
			Err:     &apperr.SyncError{Stage: apperr.StagePush, Err: err},
		}
	}

	c.setState(StateSuccess)
	c.logger.Info("sync: pushed")
	return Result{State: StateSuccess, Message: "synced", Ahead: status.Ahead}
}

func commitMessage(now time.Time) string {
	return fmt.Sprintf("notes sync %s", now.Format("2006-01-02 15:04:05"))
}
