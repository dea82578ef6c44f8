package scheduler

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weaveflow/weaveflow/engine/content"
	"github.com/weaveflow/weaveflow/engine/core"
	"github.com/weaveflow/weaveflow/engine/llmclient"
	"github.com/weaveflow/weaveflow/engine/step"
	"github.com/weaveflow/weaveflow/engine/task"
	"github.com/weaveflow/weaveflow/engine/workflow"
)

type fakeCompleter struct{}

func (fakeCompleter) Complete(_ context.Context, _, _ string) (*llmclient.Response, error) {
	return &llmclient.Response{Content: "```\nok\n```"}, nil
}

func buildTask(t *testing.T, dir, id string) *task.Task {
	t.Helper()
	inPath := filepath.Join(dir, id+"-in.txt")
	require.NoError(t, os.WriteFile(inPath, []byte("seed"), 0o644))

	wf := &workflow.Workflow{
		ID: id + "-wf",
		Steps: []*step.Step{
			{
				ID: id + "-s1",
				Config: step.Config{
					FileInputs:     []step.FileInput{{Name: "a", Path: inPath}},
					PromptInputs:   []step.PromptInput{{Content: "{{a}}"}},
					OutputFolder:   filepath.Join(dir, "out"),
					OutputFileName: id + ".txt",
					APIEndpoint:    step.EndpointChatRelay,
				},
			},
		},
	}
	return &task.Task{
		ID: id,
		Template: &task.Template{
			Workflows:     []*workflow.Workflow{wf},
			WorkflowOrder: []string{wf.ID},
		},
	}
}

func newTestScheduler(maxConcurrent int) *Scheduler {
	exec := step.NewExecutor(content.New(), map[step.EndpointVariant]step.Completer{
		step.EndpointChatRelay: fakeCompleter{},
	})
	wfRunner := workflow.NewRunner(exec)
	taskRunner := task.NewRunner(wfRunner, time.Millisecond)
	return New(taskRunner, maxConcurrent, time.Millisecond)
}

func TestAdmit_RejectsAtConcurrencyLimit(t *testing.T) {
	dir := t.TempDir()
	sched := newTestScheduler(1)

	slow := buildTask(t, dir, "slow")
	_, err := sched.Admit(context.Background(), slow)
	require.NoError(t, err)

	blocked := buildTask(t, dir, "blocked")
	_, err = sched.Admit(context.Background(), blocked)
	require.Error(t, err)
	var coreErr *core.Error
	require.ErrorAs(t, err, &coreErr)
	assert.Equal(t, core.ErrConcurrencyLimit, coreErr.Code)
}

func TestBatchExecuteAll_RunsEveryTask(t *testing.T) {
	dir := t.TempDir()
	sched := newTestScheduler(2)

	tasks := []*task.Task{
		buildTask(t, dir, "t1"),
		buildTask(t, dir, "t2"),
		buildTask(t, dir, "t3"),
	}
	sched.BatchExecuteAll(context.Background(), tasks)

	for _, tsk := range tasks {
		assert.Equal(t, core.TaskCompleted, tsk.Status)
	}
	assert.Equal(t, 0, sched.RunningCount())
}

func TestStopOne_AbortsRunningTask(t *testing.T) {
	dir := t.TempDir()
	sched := newTestScheduler(1)
	tsk := buildTask(t, dir, "t1")

	exec, err := sched.Admit(context.Background(), tsk)
	require.NoError(t, err)
	require.NoError(t, sched.StopOne(tsk.ID))
	<-exec.Finished()
}

func TestStopOne_UnknownTaskIsNotFound(t *testing.T) {
	sched := newTestScheduler(1)
	err := sched.StopOne("nope")
	require.Error(t, err)
}
