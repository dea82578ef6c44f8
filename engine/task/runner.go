package task

import (
	"context"
	"time"

	"github.com/weaveflow/weaveflow/engine/core"
	"github.com/weaveflow/weaveflow/engine/workflow"
	"github.com/weaveflow/weaveflow/pkg/logger"
)

// Runner executes a task's workflows one at a time, as if a user opened
// each in a multi-workflow view in turn (spec §4.5).
type Runner struct {
	workflowRunner     *workflow.Runner
	interWorkflowPause time.Duration
}

func NewRunner(workflowRunner *workflow.Runner, interWorkflowPause time.Duration) *Runner {
	if interWorkflowPause <= 0 {
		interWorkflowPause = 500 * time.Millisecond
	}
	return &Runner{workflowRunner: workflowRunner, interWorkflowPause: interWorkflowPause}
}

// Run executes every workflow named in t.Template.WorkflowOrder,
// sequentially. A workflow failure does not abort the task; the Runner
// logs it and continues (spec §4.5). exec carries the task's abort
// signal and is updated in place with progress/timing.
func (r *Runner) Run(ctx context.Context, t *Task, exec *Execution) {
	log := logger.FromContext(ctx).With("task_id", t.ID)
	t.Status = core.TaskRunning
	results := &ExecutionResults{
		TotalWorkflows: len(t.Template.WorkflowOrder),
		StartTime:      timeNow(),
	}

	for i, wfID := range t.Template.WorkflowOrder {
		select {
		case <-exec.Done():
			t.Status = terminalStatus(results, true)
			r.finish(t, exec, results)
			return
		case <-ctx.Done():
			t.Status = terminalStatus(results, true)
			r.finish(t, exec, results)
			return
		default:
		}

		exec.CurrentWorkflowIndex = i
		wf := findWorkflow(t.Template, wfID)
		if wf == nil {
			log.Warn("workflow not found in template, skipping", "workflow_id", wfID)
			results.FailedWorkflows++
			r.advance(t, exec, results, i)
			continue
		}

		if err := r.workflowRunner.Run(ctx, wf); err != nil {
			log.Warn("workflow failed", "workflow_id", wfID, "error", err)
			results.FailedWorkflows++
		} else if workflowSucceeded(wf) {
			results.SucceededCount++
		} else {
			results.FailedWorkflows++
		}

		r.advance(t, exec, results, i)

		if i < len(t.Template.WorkflowOrder)-1 {
			select {
			case <-time.After(r.interWorkflowPause):
			case <-exec.Done():
			case <-ctx.Done():
			}
		}
	}

	t.Status = terminalStatus(results, false)
	r.finish(t, exec, results)
}

func (r *Runner) advance(t *Task, exec *Execution, results *ExecutionResults, completedIndex int) {
	total := results.TotalWorkflows
	if total == 0 {
		t.Progress = 0
		exec.Progress = 0
		return
	}
	progress := float64(completedIndex+1) / float64(total)
	t.Progress = progress
	exec.Progress = progress
}

func (r *Runner) finish(t *Task, exec *Execution, results *ExecutionResults) {
	end := timeNow()
	results.EndTime = &end
	results.DurationMillis = end.Sub(results.StartTime).Milliseconds()
	t.ExecutionResults = results
	exec.IsRunning = false
	exec.EndTime = &end
	exec.MarkFinished()
}

// terminalStatus picks a Task's final status. aborted distinguishes a
// stop (spec §8 Scenario F, a TESTABLE PROPERTY) from a natural run to
// the end of WorkflowOrder (Open Question 4): a stop never yields
// Completed, even if one or more workflows had already succeeded
// before the stop landed — Idle when at least one succeeded, Failed
// when none did. A natural run resolves Open Question 4's policy:
// Completed whenever at least one workflow succeeded (including mixed
// outcomes, surfaced via FailedWorkflows > 0), Failed only when every
// workflow in the task failed.
func terminalStatus(results *ExecutionResults, aborted bool) core.TaskStatus {
	if aborted {
		if results.SucceededCount > 0 {
			return core.TaskIdle
		}
		return core.TaskFailed
	}
	if results.TotalWorkflows > 0 && results.SucceededCount == 0 {
		return core.TaskFailed
	}
	return core.TaskCompleted
}

func findWorkflow(t *Template, id string) *workflow.Workflow {
	for _, wf := range t.Workflows {
		if wf.ID == id {
			return wf
		}
	}
	return nil
}

func workflowSucceeded(wf *workflow.Workflow) bool {
	for _, s := range wf.Steps {
		if s.Status == core.StepError {
			return false
		}
	}
	return true
}
