// Package workflow implements the Workflow domain model and Runner
// (spec §3, §4.4): topological step execution, progress tracking, and
// the two partial re-execution operations.
package workflow

import (
	"github.com/weaveflow/weaveflow/engine/step"
)

// Workflow is a DAG of steps (spec §3).
type Workflow struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Steps       []*step.Step `json:"steps"`
}

// StepByID returns the step with the given id, or nil.
func (w *Workflow) StepByID(id string) *step.Step {
	for _, s := range w.Steps {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// Progress reports completedCount/totalSteps (spec §4.4 step 4).
func (w *Workflow) Progress() float64 {
	if len(w.Steps) == 0 {
		return 0
	}
	completed := 0
	for _, s := range w.Steps {
		if s.Status.IsTerminal() {
			completed++
		}
	}
	return float64(completed) / float64(len(w.Steps))
}
