package server

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	"github.com/weaveflow/weaveflow/engine/configstore"
	"github.com/weaveflow/weaveflow/engine/core"
	"github.com/weaveflow/weaveflow/engine/task"
	"github.com/weaveflow/weaveflow/engine/template"
)

// streamGroupDocument is one entry of multi-file-stream-config.json's
// "streamGroups" array: a template plus the file selections and naming
// options the Template Materializer needs to expand it (spec §4.7,
// §6 "legacy server-side runner").
type streamGroupDocument struct {
	ID         string                 `json:"id"`
	Template   *task.Template         `json:"template"`
	Selections []template.Selection   `json:"selections"`
	Options    template.Options       `json:"options"`
}

type multiStreamDocument struct {
	StreamGroups []streamGroupDocument `json:"streamGroups"`
}

// handleMultiStreamProcess materializes the named stream group's
// template across its selections and runs every resulting task to
// completion through the Scheduler, returning a per-task summary
// (spec §6 POST /api/multi-stream/process).
func (s *Server) handleMultiStreamProcess(c *gin.Context) {
	var req struct {
		StreamGroupID string `json:"streamGroupId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, core.WrapError(core.ErrConfigInvalid, "invalid request body", err))
		return
	}

	body, err := s.configStore.Load(configstore.MultiFileStream)
	if err != nil {
		respondError(c, err)
		return
	}
	var doc multiStreamDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		respondError(c, core.WrapError(core.ErrConfigInvalid, "failed to decode multi-file-stream-config.json", err))
		return
	}

	group := findStreamGroup(doc.StreamGroups, req.StreamGroupID)
	if group == nil {
		respondError(c, core.NewError(core.ErrNotFound, "stream group not found: "+req.StreamGroupID))
		return
	}

	tasks, err := template.Materialize(group.Template, group.Selections, group.Options)
	if err != nil {
		respondError(c, err)
		return
	}

	s.scheduler.BatchExecuteAll(c.Request.Context(), tasks)
	respondOK(c, summarizeTasks(tasks), "stream group processed")
}

func findStreamGroup(groups []streamGroupDocument, id string) *streamGroupDocument {
	for i := range groups {
		if groups[i].ID == id {
			return &groups[i]
		}
	}
	return nil
}

func summarizeTasks(tasks []*task.Task) []gin.H {
	summaries := make([]gin.H, 0, len(tasks))
	for _, t := range tasks {
		summaries = append(summaries, gin.H{
			"id":               t.ID,
			"name":             t.Name,
			"status":           t.Status,
			"executionResults": t.ExecutionResults,
		})
	}
	return summaries
}
