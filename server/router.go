package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// registerRoutes mounts the full route table of spec §6, plus the
// liveness/readiness endpoints this implementation adds ambiently.
func (s *Server) registerRoutes() {
	s.engine.GET("/api/healthz", s.handleHealthz)
	s.engine.GET("/api/readyz", s.handleReadyz)

	api := s.engine.Group("/api")
	api.POST("/process-file", s.handleProcessFile)
	api.POST("/process-file-direct", s.handleProcessFileDirect)
	api.POST("/generate-react", s.handleGenerateReact)
	api.POST("/list-files", s.handleListFiles)

	api.POST("/config/save", s.handleConfigSave)
	api.GET("/config/load", s.handleConfigLoad)
	api.DELETE("/config/delete", s.handleConfigDelete)
	api.GET("/config/info", s.handleConfigInfo)

	api.POST("/multi-stream/save", s.handleMultiStreamSave)
	api.GET("/multi-stream/load", s.handleMultiStreamLoad)
	api.POST("/multi-stream/process", s.handleMultiStreamProcess)
	api.GET("/multi-stream/info", s.handleMultiStreamInfo)
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleReadyz always reports ready, together with the number of tasks
// currently running; it does not report a scheduler at its concurrency
// cap as not ready.
func (s *Server) handleReadyz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":        "ready",
		"runningTasks":  s.scheduler.RunningCount(),
	})
}
