// Package apperr defines the error taxonomy shared across the core.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a note or folder is absent from the index.
	ErrNotFound = errors.New("not found")
	// ErrNameCollision is returned when a rename or create target already exists.
	ErrNameCollision = errors.New("name collision")
	// ErrNotANote is returned when a note operation is applied to a folder.
	ErrNotANote = errors.New("not a note")
	// ErrNotAFolder is returned when a navigation target is not a folder.
	ErrNotAFolder = errors.New("not a folder")
	// ErrSymlinkCycle marks a walk entry skipped because its resolved target
	// was already visited. Non-fatal: the walk continues without it.
	ErrSymlinkCycle = errors.New("symlink cycle bounded")
)

// Sync pipeline stages.
const (
	StageCheck  = "check"
	StageCommit = "commit"
	StagePush   = "push"
)

// SyncError reports the failing stage of an add/commit/push cycle.
// A push-stage error never implies a lost commit: the commit created
// before the push remains in local history.
type SyncError struct {
	Stage string
	Err   error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync %s failed: %v", e.Stage, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }
