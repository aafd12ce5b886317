package api

import (
	"fundrag/backend/internal/agent"
	"fundrag/backend/internal/knowledge"
	"fundrag/backend/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Deps are the services the HTTP API is built on
type Deps struct {
	Orchestrator *agent.Orchestrator
	Store        *knowledge.Store
	// Loader backs POST /api/admin/reload. Reload is disabled when nil.
	Loader knowledge.Loader
}

// Server holds the handler state
type Server struct {
	deps   Deps
	logger *zap.Logger
}

// NewRouter builds the gin engine with every route and middleware installed
func NewRouter(deps Deps) *gin.Engine {
	s := &Server{deps: deps, logger: logger.Named("api")}

	router := gin.New()
	router.Use(requestID())
	router.Use(ginLogger(s.logger))
	router.Use(gin.Recovery())
	router.Use(cors())

	router.GET("/health", s.health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		api.POST("/query", s.query)
		api.POST("/ask", s.ask)
		api.GET("/entities", s.entities)
		api.POST("/admin/reload", s.reload)
	}

	return router
}
