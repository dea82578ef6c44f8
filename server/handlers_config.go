package server

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"

	"github.com/weaveflow/weaveflow/engine/configstore"
	"github.com/weaveflow/weaveflow/engine/core"
)

func (s *Server) handleConfigSave(c *gin.Context) {
	s.handleDocumentSave(c, configstore.AppConfig)
}

func (s *Server) handleConfigLoad(c *gin.Context) {
	s.handleDocumentLoad(c, configstore.AppConfig)
}

func (s *Server) handleConfigDelete(c *gin.Context) {
	if err := s.configStore.Delete(configstore.AppConfig); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil, "app-config.json deleted")
}

func (s *Server) handleConfigInfo(c *gin.Context) {
	s.handleDocumentInfo(c, configstore.AppConfig, nil)
}

func (s *Server) handleMultiStreamSave(c *gin.Context) {
	s.handleDocumentSave(c, configstore.MultiFileStream)
}

func (s *Server) handleMultiStreamLoad(c *gin.Context) {
	s.handleDocumentLoad(c, configstore.MultiFileStream)
}

func (s *Server) handleMultiStreamInfo(c *gin.Context) {
	extra := func(body []byte) gin.H {
		return gin.H{"streamGroupsCount": len(gjson.GetBytes(body, "streamGroups").Array())}
	}
	s.handleDocumentInfo(c, configstore.MultiFileStream, extra)
}

func (s *Server) handleDocumentSave(c *gin.Context, doc configstore.Document) {
	body, err := c.GetRawData()
	if err != nil {
		respondError(c, core.WrapError(core.ErrConfigInvalid, "failed to read request body", err))
		return
	}
	if err := s.configStore.Save(doc, body); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil, string(doc)+" saved")
}

func (s *Server) handleDocumentLoad(c *gin.Context, doc configstore.Document) {
	body, err := s.configStore.Load(doc)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, json.RawMessage(body), "")
}

func (s *Server) handleDocumentInfo(c *gin.Context, doc configstore.Document, extra func([]byte) gin.H) {
	info, err := s.configStore.Info(doc)
	if err != nil {
		respondError(c, err)
		return
	}
	data := gin.H{
		"configPath":   s.configStore.Path(doc),
		"exists":       info.Exists,
		"size":         info.Size,
		"lastModified": info.LastModified,
	}
	if extra != nil && info.Exists {
		if body, loadErr := s.configStore.Load(doc); loadErr == nil {
			for k, v := range extra(body) {
				data[k] = v
			}
		}
	}
	respondOK(c, data, "")
}
