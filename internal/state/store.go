// Package state records the history of interpreter runs and builds in SQLite.
package state

import (
	"context"
	"time"
)

// Mode is the backend a run used.
type Mode string

const (
	ModeInterpret Mode = "interpret"
	ModeCompile   Mode = "compile"
)

// RunStatus represents the status of a recorded run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one recorded interpretation or build of a source file.
type Run struct {
	ID          string
	Source      string
	SourceHash  string
	Mode        Mode
	Target      string
	OptLevel    int
	IRNodes     int
	Status      RunStatus
	Error       string
	StartedAt   time.Time
	CompletedAt *time.Time
}

// Duration returns how long the run took, or zero while it is running.
func (r *Run) Duration() time.Duration {
	if r.CompletedAt == nil {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// Store is the run history interface used by the engine.
type Store interface {
	CreateRun(ctx context.Context, run *Run) (*Run, error)
	CompleteRun(ctx context.Context, id string, status RunStatus, errMsg string) error
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRuns(ctx context.Context, limit int) ([]*Run, error)
	Close() error
}
