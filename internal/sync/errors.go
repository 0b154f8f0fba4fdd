package sync

import (
	"errors"
	"fmt"
)

// Stage names a step of a sync run.
type Stage string

const (
	StageConfig   Stage = "config"
	StageResolve  Stage = "resolve"
	StageCollect  Stage = "collect"
	StageNaming   Stage = "naming"
	StageSnapshot Stage = "snapshot"
)

// AbortError is returned when a run stops before materialization. The target
// tree has not been modified.
type AbortError struct {
	Stage Stage
	Err   error
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("sync aborted during %s: %v", e.Stage, e.Err)
}

func (e *AbortError) Unwrap() error {
	return e.Err
}

func abort(stage Stage, err error) error {
	return &AbortError{Stage: stage, Err: err}
}

// IsAborted reports whether err stopped a run before anything was written.
func IsAborted(err error) bool {
	var ae *AbortError
	return errors.As(err, &ae)
}

// errOutsideRoot is returned for destinations or purge paths that leave the
// sync root.
var errOutsideRoot = errors.New("path escapes the sync root")
