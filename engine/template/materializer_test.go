package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weaveflow/weaveflow/engine/step"
	"github.com/weaveflow/weaveflow/engine/task"
	"github.com/weaveflow/weaveflow/engine/workflow"
)

func buildTemplate() *task.Template {
	wf := &workflow.Workflow{
		ID: "wf1",
		Steps: []*step.Step{
			{
				ID: "s1",
				Config: step.Config{
					FileInputs: []step.FileInput{
						{Name: "src", Path: "src/widgets/Widget.java"},
						{Name: "doc", Path: "shared/doc.md"},
					},
					OutputFolder:   "out",
					OutputFileName: "Result.java",
				},
			},
		},
	}
	return &task.Template{
		Workflows:     []*workflow.Workflow{wf},
		WorkflowOrder: []string{"wf1"},
	}
}

func TestMaterialize_RewritesFileInputsAndOutputs(t *testing.T) {
	tmpl := buildTemplate()
	tasks, err := Materialize(tmpl, []Selection{
		{SourcePath: "/repo", FileID: "widgets/button.java"},
	}, Options{NamePrefix: "gen-", NamePattern: "", Description: "process {fileName} from {sourcePath}"})
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	step0 := tasks[0].Template.Workflows[0].Steps[0]
	assert.Equal(t, "src/widgets/Button.java", step0.Config.FileInputs[0].Path)
	assert.Equal(t, "gen-Button.java", step0.Config.OutputFileName)
	assert.Equal(t, "out/widgets", step0.Config.OutputFolder)
	assert.Equal(t, "process Button from /repo", tasks[0].Description)
	assert.Equal(t, "gen--Button", tasks[0].Name)
}

func TestMaterialize_PreservesSentinelInput(t *testing.T) {
	tmpl := buildTemplate()
	tmpl.Workflows[0].Steps[0].Config.FileInputs[1].Name = apiDocumentSentinel
	tasks, err := Materialize(tmpl, []Selection{
		{SourcePath: "/repo", FileID: "widgets/button.java"},
	}, Options{})
	require.NoError(t, err)

	step0 := tasks[0].Template.Workflows[0].Steps[0]
	assert.Equal(t, "shared/doc.md", step0.Config.FileInputs[1].Path)
}

func TestMaterialize_JSPInputConsumesRawSelection(t *testing.T) {
	tmpl := buildTemplate()
	tmpl.Workflows[0].Steps[0].Config.FileInputs[0].Name = "jsp"
	tmpl.Workflows[0].Steps[0].Config.FileInputs[0].Path = "pages/old.jsp"

	tasks, err := Materialize(tmpl, []Selection{
		{SourcePath: "/repo", FileID: "pages/index.jsp"},
	}, Options{})
	require.NoError(t, err)

	step0 := tasks[0].Template.Workflows[0].Steps[0]
	assert.Equal(t, "/repo/pages/index.jsp", step0.Config.FileInputs[0].Path)
}

func TestMaterialize_IsDeterministicModuloID(t *testing.T) {
	tmpl := buildTemplate()
	selections := []Selection{{SourcePath: "/repo", FileID: "widgets/button.java"}}

	first, err := Materialize(tmpl, selections, Options{NamePrefix: "gen-"})
	require.NoError(t, err)
	second, err := Materialize(tmpl, selections, Options{NamePrefix: "gen-"})
	require.NoError(t, err)

	assert.Equal(t, first[0].Name, second[0].Name)
	assert.Equal(t, first[0].Template.Workflows[0].Steps[0].Config.OutputFileName,
		second[0].Template.Workflows[0].Steps[0].Config.OutputFileName)
	assert.NotEqual(t, first[0].ID, second[0].ID)
}

func TestMaterialize_RejectsEmptyFileID(t *testing.T) {
	tmpl := buildTemplate()
	_, err := Materialize(tmpl, []Selection{{SourcePath: "/repo", FileID: ""}}, Options{})
	require.Error(t, err)
}
