// Package task implements the Task domain model and Task Runner
// (spec §3, §4.5): sequential execution of a task's workflows, overall
// progress/timing, and cooperative cancellation between workflows.
package task

import (
	"sync"
	"time"

	"github.com/weaveflow/weaveflow/engine/core"
	"github.com/weaveflow/weaveflow/engine/workflow"
)

// Template is a frozen, executable blueprint referenced by many tasks
// (spec §3). WorkflowOrder fixes the sequence the Task Runner executes
// Workflows in — not a dependency graph, just an explicit run order.
type Template struct {
	Workflows     []*workflow.Workflow `json:"workflows"`
	WorkflowOrder []string              `json:"workflowOrder"`
}

// ExecutionResults is the sub-structure the Task Runner owns and
// updates on completion (spec §4.5).
type ExecutionResults struct {
	TotalWorkflows   int        `json:"totalWorkflows"`
	SucceededCount   int        `json:"succeededCount"`
	FailedWorkflows  int        `json:"failedWorkflows"`
	StartTime        time.Time  `json:"startTime"`
	EndTime          *time.Time `json:"endTime,omitempty"`
	DurationMillis   int64      `json:"durationMillis,omitempty"`
}

// Task is called "workflow group" in the original product's source
// (spec §3); this codebase only ever calls it Task.
type Task struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	Description      string            `json:"description"`
	Template         *Template         `json:"template"`
	Status           core.TaskStatus   `json:"status"`
	Progress         float64           `json:"progress"`
	ExecutionResults *ExecutionResults `json:"executionResults,omitempty"`
}

// Execution is the ephemeral run-state the Scheduler/Runner maintain
// while a task is active (spec §3 "TaskExecution"). It is never
// persisted and is discarded once the task terminates.
type Execution struct {
	TaskID               string
	IsRunning            bool
	Progress             float64
	StartTime            time.Time
	EndTime              *time.Time
	CurrentWorkflowIndex int
	TotalWorkflows       int
	aborted              chan struct{}
	finished             chan struct{}
	abortOnce            sync.Once
	finishOnce           sync.Once
}

// NewExecution creates the ephemeral run-state for a task about to be
// admitted by the Scheduler.
func NewExecution(taskID string, totalWorkflows int) *Execution {
	return &Execution{
		TaskID:         taskID,
		IsRunning:      true,
		TotalWorkflows: totalWorkflows,
		StartTime:      timeNow(),
		aborted:        make(chan struct{}),
		finished:       make(chan struct{}),
	}
}

// Abort signals the execution's cancellation channel. Safe to call more
// than once.
func (e *Execution) Abort() {
	e.abortOnce.Do(func() { close(e.aborted) })
}

// Done returns the channel that closes when Abort is called, for use in
// select statements at suspension points (spec §5).
func (e *Execution) Done() <-chan struct{} {
	return e.aborted
}

// MarkFinished closes the execution's completion channel. Called once
// by the Task Runner when the run terminates.
func (e *Execution) MarkFinished() {
	e.finishOnce.Do(func() { close(e.finished) })
}

// Finished returns the channel that closes once the run has terminated,
// letting the Scheduler await completion without polling.
func (e *Execution) Finished() <-chan struct{} {
	return e.finished
}

// timeNow centralizes the one time.Now() call this package needs.
func timeNow() time.Time {
	return time.Now()
}
