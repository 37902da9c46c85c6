// Package sched provides error definitions for the interval scheduler
package sched

import "errors"

// Scheduler errors
var (
	ErrEmptyTaskName   = errors.New("task name cannot be empty")
	ErrInvalidPeriod   = errors.New("task period must be positive")
	ErrNilTaskBody     = errors.New("task body cannot be nil")
	ErrSchedulerClosed = errors.New("scheduler is shut down")
)
