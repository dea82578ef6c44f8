package server

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/weaveflow/weaveflow/engine/core"
	"github.com/weaveflow/weaveflow/engine/step"
)

// processInput is one entry of the process-file/process-file-direct
// request body (spec §6): a flat, ordered list of file references and
// literal prompt text, rather than the named {{name}} step shape —
// this handler adapts it into exactly one synthetic step so the same
// Step Executor algorithm in engine/step runs underneath both surfaces.
type processInput struct {
	Type  string `json:"type" binding:"required,oneof=file prompt"`
	Value string `json:"value" binding:"required"`
}

type processFileRequest struct {
	Inputs         []processInput `json:"inputs" binding:"required,min=1"`
	OutputFileName string         `json:"outputFileName" binding:"required"`
	OutputFolder   string         `json:"outputFolder" binding:"required"`
}

func buildSyntheticStep(req processFileRequest, endpoint step.EndpointVariant) *step.Step {
	var fileInputs []step.FileInput
	var promptInputs []step.PromptInput

	for i, in := range req.Inputs {
		if in.Type == "file" {
			name := fmt.Sprintf("input%d", i)
			fileInputs = append(fileInputs, step.FileInput{Name: name, Path: in.Value})
			promptInputs = append(promptInputs, step.PromptInput{Content: "{{" + name + "}}"})
			continue
		}
		promptInputs = append(promptInputs, step.PromptInput{Content: in.Value})
	}

	return &step.Step{
		ID: "control-api-" + string(endpoint),
		Config: step.Config{
			FileInputs:     fileInputs,
			PromptInputs:   promptInputs,
			OutputFolder:   req.OutputFolder,
			OutputFileName: req.OutputFileName,
			APIEndpoint:    endpoint,
		},
	}
}

// handleProcessFile executes one Step Executor pass via the chat-relay
// LLM variant (spec §6 POST /api/process-file).
func (s *Server) handleProcessFile(c *gin.Context) {
	var req processFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, core.WrapError(core.ErrConfigInvalid, "invalid request body", err))
		return
	}
	synthetic := buildSyntheticStep(req, step.EndpointChatRelay)
	result := s.executor.Execute(c.Request.Context(), synthetic, nil)
	respondStepResult(c, result)
}

// handleProcessFileDirect executes the same pass via the direct-
// streaming LLM variant; ?model= selects qianwen or deepseek
// (spec §6 POST /api/process-file-direct).
func (s *Server) handleProcessFileDirect(c *gin.Context) {
	model := c.Query("model")
	var endpoint step.EndpointVariant
	switch model {
	case "qianwen":
		endpoint = step.EndpointDirectQianwen
	case "deepseek":
		endpoint = step.EndpointDirectDeepSeek
	default:
		respondError(c, core.NewError(core.ErrConfigInvalid, "model must be one of: qianwen, deepseek"))
		return
	}

	var req processFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, core.WrapError(core.ErrConfigInvalid, "invalid request body", err))
		return
	}
	synthetic := buildSyntheticStep(req, endpoint)
	result := s.executor.Execute(c.Request.Context(), synthetic, nil)
	respondStepResult(c, result)
}

func respondStepResult(c *gin.Context, result *step.Result) {
	if !result.Success {
		respondError(c, core.NewError(core.ErrLLM, result.Message))
		return
	}
	respondOK(c, result.Data, result.Message)
}

// handleGenerateReact is a thin pass-through to the chat relay
// (spec §6 POST /api/generate-react).
func (s *Server) handleGenerateReact(c *gin.Context) {
	var req struct {
		Message      string `json:"message" binding:"required"`
		SessionID    string `json:"sessionId"`
		SystemPrompt string `json:"systemPrompt"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, core.WrapError(core.ErrConfigInvalid, "invalid request body", err))
		return
	}
	resp, err := s.relayClient.Complete(c.Request.Context(), req.SystemPrompt, req.Message)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"reply": resp.Content}, "")
}

// handleListFiles returns paths relative to folderPath whose extension
// matches fileType (spec §6 POST /api/list-files).
func (s *Server) handleListFiles(c *gin.Context) {
	var req struct {
		FolderPath string `json:"folderPath" binding:"required"`
		FileType   string `json:"fileType"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, core.WrapError(core.ErrConfigInvalid, "invalid request body", err))
		return
	}
	files, err := s.content.ListFiles(req.FolderPath, req.FileType)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"files": files}, "")
}
