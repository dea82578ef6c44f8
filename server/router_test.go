package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weaveflow/weaveflow/engine/configstore"
	"github.com/weaveflow/weaveflow/engine/content"
	"github.com/weaveflow/weaveflow/engine/llmclient"
	"github.com/weaveflow/weaveflow/engine/scheduler"
	"github.com/weaveflow/weaveflow/engine/step"
	"github.com/weaveflow/weaveflow/engine/task"
	"github.com/weaveflow/weaveflow/engine/workflow"
	"github.com/weaveflow/weaveflow/server/middleware"
)

type scriptedCompleter struct {
	response *llmclient.Response
	err      error
}

func (c *scriptedCompleter) Complete(_ context.Context, _, _ string) (*llmclient.Response, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.response, nil
}

func newTestServer(t *testing.T) (*Server, string) {
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()

	contentStore := content.New()
	configStore := configstore.New(filepath.Join(dir, "configs"))
	completer := &scriptedCompleter{response: &llmclient.Response{Content: "```go\npackage main\n```"}}
	executor := step.NewExecutor(contentStore, map[step.EndpointVariant]step.Completer{
		step.EndpointChatRelay: completer,
	})
	workflowRunner := workflow.NewRunner(executor)
	taskRunner := task.NewRunner(workflowRunner, time.Millisecond)
	sched := scheduler.New(taskRunner, 4, time.Millisecond)

	srv := New(contentStore, configStore, executor, completer, sched, middleware.CORSConfig{})
	return srv, dir
}

func doRequest(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)
	return rec
}

func TestHealthzAndReadyz(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/api/readyz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestConfigSaveLoadDeleteInfo(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/config/info", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var info envelopeBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, false, info.Data["exists"])

	rec = doRequest(t, srv, http.MethodPost, "/api/config/save", map[string]any{"workflows": []any{}})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/api/config/load", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, srv, http.MethodDelete, "/api/config/delete", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/api/config/load", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListFilesRejectsMissingBody(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doRequest(t, srv, http.MethodPost, "/api/list-files", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProcessFileHappyPath(t *testing.T) {
	srv, dir := newTestServer(t)
	srcPath := filepath.Join(dir, "input.txt")
	require.NoError(t, content.New().WriteFile(srcPath, []byte("hello")))

	rec := doRequest(t, srv, http.MethodPost, "/api/process-file", map[string]any{
		"inputs": []map[string]any{
			{"type": "file", "value": srcPath},
			{"type": "prompt", "value": "summarize the above"},
		},
		"outputFileName": "out.go",
		"outputFolder":   filepath.Join(dir, "out"),
	})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestProcessFileDirectRejectsUnknownModel(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doRequest(t, srv, http.MethodPost, "/api/process-file-direct", map[string]any{
		"inputs":         []map[string]any{{"type": "prompt", "value": "hi"}},
		"outputFileName": "out.go",
		"outputFolder":   "out",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type envelopeBody struct {
	Success bool           `json:"success"`
	Data    map[string]any `json:"data"`
}
