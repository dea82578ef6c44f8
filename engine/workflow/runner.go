package workflow

import (
	"context"
	"fmt"

	"github.com/weaveflow/weaveflow/engine/core"
	"github.com/weaveflow/weaveflow/engine/step"
	"github.com/weaveflow/weaveflow/pkg/logger"
)

// Runner drives one workflow's steps to completion (spec §4.4).
type Runner struct {
	executor *step.Executor
}

func NewRunner(executor *step.Executor) *Runner {
	return &Runner{executor: executor}
}

// Run executes every step of w in topological order. Steps whose
// dependencies did not all succeed are marked Skipped and carry a
// message naming the failed ancestor; a step is never retried within a
// run. ctx cancellation is checked between steps (spec §5 suspension
// points); a task's Execution.Abort is not observed here.
func (r *Runner) Run(ctx context.Context, w *Workflow) error {
	ordered, err := topologicalOrder(w.Steps)
	if err != nil {
		return err
	}

	results := make(map[string]*step.Result)
	log := logger.FromContext(ctx).With("workflow_id", w.ID)

	for _, s := range ordered {
		select {
		case <-ctx.Done():
			return core.NewError(core.ErrCancelled, "workflow run cancelled")
		default:
		}

		if failedDep := firstFailedDependency(s, results); failedDep != "" {
			s.Status = core.StepSkipped
			s.Result = &step.Result{
				Success: false,
				Message: fmt.Sprintf("skipped: dependency %q did not succeed", failedDep),
			}
			results[s.ID] = s.Result
			continue
		}

		s.Status = core.StepRunning
		result := r.executor.Execute(ctx, s, results)
		results[s.ID] = result
		if result.Success {
			s.Status = core.StepSuccess
		} else {
			s.Status = core.StepError
		}
		s.Result = result

		log.Debug("workflow progress", "progress", w.Progress())
	}
	return nil
}

func firstFailedDependency(s *step.Step, results map[string]*step.Result) string {
	for _, dep := range s.Dependencies {
		result, ran := results[dep]
		if !ran || result == nil || !result.Success {
			return dep
		}
	}
	return ""
}

// RerunStep re-executes exactly s, using the workflow's current live
// results for its dependencies (spec §4.4 "Re-run this step only"). It
// requires every declared dependency to currently hold a success
// result; a non-success dependency produces a warning, not a failure —
// the caller decided to proceed by invoking this operation.
func (r *Runner) RerunStep(ctx context.Context, w *Workflow, stepID string) (warning string, err error) {
	target := w.StepByID(stepID)
	if target == nil {
		return "", core.NewError(core.ErrNotFound, fmt.Sprintf("step %q not found", stepID))
	}

	live := liveResults(w)
	for _, dep := range target.Dependencies {
		if result, ok := live[dep]; !ok || result == nil || !result.Success {
			warning = fmt.Sprintf("dependency %q does not currently hold a success result", dep)
		}
	}

	target.Reset()
	target.Status = core.StepRunning
	result := r.executor.Execute(ctx, target, live)
	target.Result = result
	if result.Success {
		target.Status = core.StepSuccess
	} else {
		target.Status = core.StepError
	}
	return warning, nil
}

// RerunFromStep resets stepID and every step with Order >= its Order,
// then re-executes the closure in topological order, using unchanged
// upstream results for dependencies outside the closure (spec §4.4
// "Re-run from this step forward").
func (r *Runner) RerunFromStep(ctx context.Context, w *Workflow, stepID string) error {
	start := w.StepByID(stepID)
	if start == nil {
		return core.NewError(core.ErrNotFound, fmt.Sprintf("step %q not found", stepID))
	}

	ordered, err := topologicalOrder(w.Steps)
	if err != nil {
		return err
	}

	closure := make(map[string]bool)
	for _, s := range w.Steps {
		if s.Order >= start.Order {
			closure[s.ID] = true
		}
	}
	for _, s := range ordered {
		if closure[s.ID] {
			s.Reset()
		}
	}

	results := liveResults(w)
	for id := range closure {
		delete(results, id)
	}

	for _, s := range ordered {
		if !closure[s.ID] {
			continue
		}
		select {
		case <-ctx.Done():
			return core.NewError(core.ErrCancelled, "rerun cancelled")
		default:
		}

		if failedDep := firstFailedDependency(s, results); failedDep != "" {
			s.Status = core.StepSkipped
			s.Result = &step.Result{
				Success: false,
				Message: fmt.Sprintf("skipped: dependency %q did not succeed", failedDep),
			}
			results[s.ID] = s.Result
			continue
		}

		s.Status = core.StepRunning
		result := r.executor.Execute(ctx, s, results)
		results[s.ID] = result
		s.Result = result
		if result.Success {
			s.Status = core.StepSuccess
		} else {
			s.Status = core.StepError
		}
	}
	return nil
}

func liveResults(w *Workflow) map[string]*step.Result {
	results := make(map[string]*step.Result, len(w.Steps))
	for _, s := range w.Steps {
		if s.Result != nil {
			results[s.ID] = s.Result
		}
	}
	return results
}
