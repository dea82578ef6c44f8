package server

import (
	"github.com/gin-gonic/gin"

	"github.com/weaveflow/weaveflow/engine/configstore"
	"github.com/weaveflow/weaveflow/engine/content"
	"github.com/weaveflow/weaveflow/engine/scheduler"
	"github.com/weaveflow/weaveflow/engine/step"
	"github.com/weaveflow/weaveflow/pkg/logger"
	"github.com/weaveflow/weaveflow/server/middleware"
)

// Server wires the engine components behind the Control API (spec §6).
// It holds no business logic of its own: every handler validates its
// request, calls the engine operations behind its route, and maps the
// result through the shared Envelope.
type Server struct {
	engine      *gin.Engine
	content     *content.Store
	configStore *configstore.Store
	executor    *step.Executor
	relayClient step.Completer
	scheduler   *scheduler.Scheduler
}

// New builds a Server with its routes registered and ready to serve.
func New(
	contentStore *content.Store,
	configStore *configstore.Store,
	executor *step.Executor,
	relayClient step.Completer,
	sched *scheduler.Scheduler,
	cors middleware.CORSConfig,
) *Server {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(logger.GetDefault()))
	engine.Use(middleware.CORS(cors))

	s := &Server{
		engine:      engine,
		content:     contentStore,
		configStore: configStore,
		executor:    executor,
		relayClient: relayClient,
		scheduler:   sched,
	}
	s.registerRoutes()
	return s
}

// Engine exposes the underlying gin.Engine for http.Server to serve.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}
