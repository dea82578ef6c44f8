// Package step implements the Step domain model and the Step Executor
// (spec §3, §4.3): resolving file dependencies, rendering prompts with
// ordered {{name}} substitution, invoking the LLM Client, and persisting
// the extracted result.
package step

import "github.com/weaveflow/weaveflow/engine/core"

// EndpointVariant selects which LLM transport a step is wired to
// (spec §4.2, §6).
type EndpointVariant string

const (
	EndpointChatRelay     EndpointVariant = "chat-relay"
	EndpointDirectQianwen EndpointVariant = "direct-qianwen"
	EndpointDirectDeepSeek EndpointVariant = "direct-deepseek"
)

// FileInput is one entry in a step's fileInputs list (spec §3). Exactly
// one of Path or DependsOn is effective at execution time.
type FileInput struct {
	Name      string `json:"name"`
	Path      string `json:"path,omitempty"`
	DependsOn string `json:"dependsOn,omitempty"`
}

// PromptInput is one entry in a step's promptInputs list (spec §3).
// FileReferences is informational only — {{name}} tokens in Content are
// what actually drive substitution.
type PromptInput struct {
	Content        string   `json:"content"`
	FileReferences []string `json:"fileReferences,omitempty"`
}

// Config is the user-authored, persisted half of a step (spec §3). It
// never carries runtime Status/Result — those live on Step.
type Config struct {
	FileInputs     []FileInput   `json:"fileInputs"`
	PromptInputs   []PromptInput `json:"promptInputs"`
	OutputFolder   string        `json:"outputFolder"`
	OutputFileName string        `json:"outputFileName"`
	APIEndpoint    EndpointVariant `json:"apiEndpoint"`
}

// Step is one node in a workflow's dependency graph.
type Step struct {
	ID           string   `json:"id"`
	Order        int      `json:"order"`
	Dependencies []string `json:"dependencies"`
	Config       Config   `json:"config"`

	// Runtime fields: transient, stripped by the Configuration Store on
	// save (spec §3 invariant 6). Never set these directly from persisted
	// data; a load always yields Pending/nil.
	Status core.StepStatus `json:"status"`
	Result *Result          `json:"result,omitempty"`
}

// Result is the outcome of one Step Executor run (spec §3 "StepResult").
type Result struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Data    *ResultData    `json:"data,omitempty"`
}

// ResultData carries the output descriptor consumed by dependent steps.
type ResultData struct {
	Path    string `json:"path,omitempty"`
	Content string `json:"content,omitempty"`
	Size    int    `json:"size,omitempty"`
}

// Reset returns the step to its persistable state: Pending status, no
// result. Used by the Workflow Runner before a partial re-run; the
// Configuration Store applies the same reset to raw JSON on save.
func (s *Step) Reset() {
	s.Status = core.StepPending
	s.Result = nil
}
