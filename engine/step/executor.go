package step

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/weaveflow/weaveflow/engine/content"
	"github.com/weaveflow/weaveflow/engine/core"
	"github.com/weaveflow/weaveflow/engine/llmclient"
	"github.com/weaveflow/weaveflow/pkg/logger"
)

// Completer is the narrow surface the Executor needs from an LLM
// client, letting tests substitute a scripted fake (see llmclient.Transport).
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (*llmclient.Response, error)
}

// Executor runs the seven-step algorithm of spec §4.3 for a single step.
// It never returns a Go error for a domain failure — those are carried
// on the returned Result, matching "never throw into the Runner".
type Executor struct {
	content *content.Store
	clients map[EndpointVariant]Completer
}

// NewExecutor builds an Executor. clients maps each endpoint variant a
// step may name in its config to the Completer that serves it; a step
// naming a variant with no registered client fails DependencyMissing.
func NewExecutor(store *content.Store, clients map[EndpointVariant]Completer) *Executor {
	return &Executor{content: store, clients: clients}
}

// Execute runs one step to completion. prior holds the results of every
// dependency that has already run in this workflow execution.
func (e *Executor) Execute(ctx context.Context, s *Step, prior map[string]*Result) *Result {
	log := logger.FromContext(ctx).With("step_id", s.ID)
	start := time.Now()

	result := e.execute(ctx, s, prior)

	if result.Success {
		log.Debug("step succeeded", "duration_ms", time.Since(start).Milliseconds())
	} else {
		log.Warn("step failed", "duration_ms", time.Since(start).Milliseconds(), "message", result.Message)
	}
	return result
}

func (e *Executor) execute(ctx context.Context, s *Step, prior map[string]*Result) *Result {
	if err := validate(s); err != nil {
		return fail(err)
	}

	nameToPath, err := resolveFilePaths(s, prior)
	if err != nil {
		return fail(err)
	}

	segments, err := renderAllPrompts(s.Config.PromptInputs, nameToPath)
	if err != nil {
		return fail(err)
	}

	payload, err := materialize(e.content, segments)
	if err != nil {
		return fail(err)
	}

	client, ok := e.clients[s.Config.APIEndpoint]
	if !ok {
		return fail(core.NewError(core.ErrDependencyMissing,
			fmt.Sprintf("no LLM client registered for endpoint variant: %s", s.Config.APIEndpoint)))
	}

	resp, err := client.Complete(ctx, "", payload)
	if err != nil {
		return fail(core.WrapError(core.ErrLLM, "LLM invocation failed", err))
	}
	extracted := llmclient.ExtractCodeFence(resp.Content)
	if resp.TruncatedAtLimit && extracted == "" {
		return fail(core.NewError(core.ErrLLM, "continuation ceiling reached with no terminal reason"))
	}

	outPath := filepath.Join(s.Config.OutputFolder, s.Config.OutputFileName)
	if err := e.content.WriteFile(outPath, []byte(extracted)); err != nil {
		return fail(err)
	}

	return &Result{
		Success: true,
		Message: "step completed",
		Data: &ResultData{
			Path:    outPath,
			Content: extracted,
			Size:    len(extracted),
		},
	}
}

func validate(s *Step) error {
	if len(s.Config.FileInputs) == 0 {
		return core.NewError(core.ErrConfigInvalid, "step has no fileInputs")
	}
	if len(s.Config.PromptInputs) == 0 {
		return core.NewError(core.ErrConfigInvalid, "step has no promptInputs")
	}
	if strings.TrimSpace(s.Config.OutputFolder) == "" || strings.TrimSpace(s.Config.OutputFileName) == "" {
		return core.NewError(core.ErrConfigInvalid, "step is missing outputFolder/outputFileName")
	}
	return nil
}

func resolveFilePaths(s *Step, prior map[string]*Result) (map[string]string, error) {
	nameToPath := make(map[string]string, len(s.Config.FileInputs))
	for _, f := range s.Config.FileInputs {
		if f.DependsOn != "" {
			depResult, ok := prior[f.DependsOn]
			if !ok || depResult == nil || !depResult.Success || depResult.Data == nil || depResult.Data.Path == "" {
				return nil, core.NewError(core.ErrDependencyMissing,
					fmt.Sprintf("dependency %q for input %q has no successful result", f.DependsOn, f.Name))
			}
			nameToPath[f.Name] = depResult.Data.Path
			continue
		}
		if strings.TrimSpace(f.Path) == "" {
			return nil, core.NewError(core.ErrConfigInvalid, fmt.Sprintf("input %q has no path", f.Name))
		}
		nameToPath[f.Name] = f.Path
	}
	return nameToPath, nil
}

func renderAllPrompts(prompts []PromptInput, nameToPath map[string]string) ([]segment, error) {
	var all []segment
	for _, p := range prompts {
		segs, err := renderSegments(p.Content, nameToPath)
		if err != nil {
			return nil, err
		}
		all = append(all, segs...)
	}
	return all, nil
}

func materialize(store *content.Store, segments []segment) (string, error) {
	var parts []string
	for _, seg := range segments {
		switch seg.kind {
		case segmentPrompt:
			parts = append(parts, seg.value)
		case segmentFile:
			text, err := store.ReadFile(seg.value)
			if err != nil {
				return "", err
			}
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n"), nil
}

func fail(err error) *Result {
	return &Result{Success: false, Message: err.Error()}
}
