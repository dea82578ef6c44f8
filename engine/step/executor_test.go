package step

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weaveflow/weaveflow/engine/content"
	"github.com/weaveflow/weaveflow/engine/llmclient"
)

type fakeCompleter struct {
	response *llmclient.Response
	err      error
	lastUser string
}

func (f *fakeCompleter) Complete(_ context.Context, _, userPrompt string) (*llmclient.Response, error) {
	f.lastUser = userPrompt
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func writeTemp(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestExecute_HappyPath(t *testing.T) {
	dir := t.TempDir()
	inputPath := writeTemp(t, dir, "input.go", "package foo\n")

	fake := &fakeCompleter{response: &llmclient.Response{Content: "prelude\n```go\npackage bar\n```\n"}}
	exec := NewExecutor(content.New(), map[EndpointVariant]Completer{EndpointChatRelay: fake})

	s := &Step{
		ID: "s1",
		Config: Config{
			FileInputs:     []FileInput{{Name: "src", Path: inputPath}},
			PromptInputs:   []PromptInput{{Content: "transform this: {{src}}"}},
			OutputFolder:   filepath.Join(dir, "out"),
			OutputFileName: "result.go",
			APIEndpoint:    EndpointChatRelay,
		},
	}

	result := exec.Execute(context.Background(), s, nil)
	require.True(t, result.Success)
	assert.Equal(t, "package bar", result.Data.Content)

	written, err := os.ReadFile(filepath.Join(dir, "out", "result.go"))
	require.NoError(t, err)
	assert.Equal(t, "package bar", string(written))

	assert.Contains(t, fake.lastUser, "transform this:")
	assert.Contains(t, fake.lastUser, "package foo")
}

func TestExecute_MissingOutputFieldsIsConfigInvalid(t *testing.T) {
	exec := NewExecutor(content.New(), map[EndpointVariant]Completer{})
	s := &Step{
		Config: Config{
			FileInputs:   []FileInput{{Name: "a", Path: "x"}},
			PromptInputs: []PromptInput{{Content: "{{a}}"}},
		},
	}
	result := exec.Execute(context.Background(), s, nil)
	assert.False(t, result.Success)
}

func TestExecute_DependencyNotYetSuccessfulIsDependencyMissing(t *testing.T) {
	exec := NewExecutor(content.New(), map[EndpointVariant]Completer{})
	s := &Step{
		Config: Config{
			FileInputs:     []FileInput{{Name: "a", DependsOn: "upstream"}},
			PromptInputs:   []PromptInput{{Content: "{{a}}"}},
			OutputFolder:   "out",
			OutputFileName: "x.go",
			APIEndpoint:    EndpointChatRelay,
		},
	}
	result := exec.Execute(context.Background(), s, map[string]*Result{
		"upstream": {Success: false, Message: "boom"},
	})
	assert.False(t, result.Success)
}

func TestExecute_UnknownTokenIsConfigInvalid(t *testing.T) {
	exec := NewExecutor(content.New(), map[EndpointVariant]Completer{EndpointChatRelay: &fakeCompleter{}})
	s := &Step{
		Config: Config{
			FileInputs:     []FileInput{{Name: "a", Path: "x"}},
			PromptInputs:   []PromptInput{{Content: "{{missing}}"}},
			OutputFolder:   "out",
			OutputFileName: "x.go",
			APIEndpoint:    EndpointChatRelay,
		},
	}
	result := exec.Execute(context.Background(), s, nil)
	assert.False(t, result.Success)
}

func TestExecute_UnregisteredEndpointIsDependencyMissing(t *testing.T) {
	dir := t.TempDir()
	inputPath := writeTemp(t, dir, "in.go", "x")
	exec := NewExecutor(content.New(), map[EndpointVariant]Completer{})
	s := &Step{
		Config: Config{
			FileInputs:     []FileInput{{Name: "a", Path: inputPath}},
			PromptInputs:   []PromptInput{{Content: "{{a}}"}},
			OutputFolder:   filepath.Join(dir, "out"),
			OutputFileName: "x.go",
			APIEndpoint:    EndpointDirectQianwen,
		},
	}
	result := exec.Execute(context.Background(), s, nil)
	assert.False(t, result.Success)
}
