// Package scheduler implements the Scheduler (spec §4.6): admission
// control bounded by a global concurrency cap, batch-execute-all
// dispatch across idle tasks, and stop-one/stop-all.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/weaveflow/weaveflow/engine/core"
	"github.com/weaveflow/weaveflow/engine/task"
	"github.com/weaveflow/weaveflow/pkg/logger"
)

// Scheduler admits and runs tasks under a global concurrency cap. It is
// not durable: nothing here survives a process restart, matching the
// spec's "running tasks revert to idle on load" invariant — that reset
// happens in the Configuration Store, not here.
type Scheduler struct {
	taskRunner      *task.Runner
	maxConcurrent   int
	interTaskPause  time.Duration

	mu         sync.Mutex
	executions map[string]*task.Execution
}

func New(taskRunner *task.Runner, maxConcurrent int, interTaskPause time.Duration) *Scheduler {
	if maxConcurrent <= 0 {
		maxConcurrent = 6
	}
	if interTaskPause <= 0 {
		interTaskPause = 200 * time.Millisecond
	}
	return &Scheduler{
		taskRunner:     taskRunner,
		maxConcurrent:  maxConcurrent,
		interTaskPause: interTaskPause,
		executions:     make(map[string]*task.Execution),
	}
}

// Admit starts t running in the background if the number of currently
// executing tasks is strictly below maxConcurrent; otherwise it rejects
// with ConcurrencyLimit. The Scheduler never queues (spec §4.6).
func (s *Scheduler) Admit(ctx context.Context, t *task.Task) (*task.Execution, error) {
	s.mu.Lock()
	if len(s.executions) >= s.maxConcurrent {
		s.mu.Unlock()
		return nil, core.NewError(core.ErrConcurrencyLimit, "maximum concurrent tasks reached")
	}
	exec := task.NewExecution(t.ID, len(t.Template.WorkflowOrder))
	s.executions[t.ID] = exec
	s.mu.Unlock()

	go s.run(ctx, t, exec)
	return exec, nil
}

func (s *Scheduler) run(ctx context.Context, t *task.Task, exec *task.Execution) {
	defer func() {
		s.mu.Lock()
		delete(s.executions, t.ID)
		s.mu.Unlock()
	}()
	s.taskRunner.Run(ctx, t, exec)
}

// BatchExecuteAll takes the given idle-and-executable tasks and spawns
// up to maxConcurrent independent workers, each pulling the next idle
// task by index and running it to completion with a short pause
// between a worker's successive tasks (spec §4.6).
func (s *Scheduler) BatchExecuteAll(ctx context.Context, tasks []*task.Task) {
	var index int64
	var mu sync.Mutex
	next := func() (*task.Task, bool) {
		mu.Lock()
		defer mu.Unlock()
		if int(index) >= len(tasks) {
			return nil, false
		}
		t := tasks[index]
		index++
		return t, true
	}

	workers := s.maxConcurrent
	if workers > len(tasks) {
		workers = len(tasks)
	}

	var wg sync.WaitGroup
	log := logger.FromContext(ctx)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				t, ok := next()
				if !ok {
					return
				}
				exec, err := s.Admit(ctx, t)
				if err != nil {
					log.Warn("batch execute: admission rejected", "task_id", t.ID, "error", err)
					continue
				}
				<-exec.Finished()
				select {
				case <-time.After(s.interTaskPause):
				case <-ctx.Done():
					return
				}
			}
		}()
	}
	wg.Wait()
}

// StopOne marks the task's abort signal; the Task Runner observes it at
// the next boundary (spec §4.6).
func (s *Scheduler) StopOne(taskID string) error {
	s.mu.Lock()
	exec, ok := s.executions[taskID]
	s.mu.Unlock()
	if !ok {
		return core.NewError(core.ErrNotFound, "task is not currently executing")
	}
	exec.Abort()
	return nil
}

// StopAll issues a stop to every currently-executing task and resolves
// once all have acknowledged (best-effort, settled-all).
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	executions := make([]*task.Execution, 0, len(s.executions))
	for _, exec := range s.executions {
		executions = append(executions, exec)
	}
	s.mu.Unlock()

	for _, exec := range executions {
		exec.Abort()
	}
	for _, exec := range executions {
		<-exec.Finished()
	}
}

// RunningCount reports how many tasks are currently executing.
func (s *Scheduler) RunningCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.executions)
}
