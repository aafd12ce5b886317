package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"fundrag/backend/internal/agent"
	"fundrag/backend/internal/constants"
	"fundrag/backend/internal/query"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type queryRequest struct {
	Query string `json:"query" binding:"required"`
}

// health always answers 200 so the process stays live while a reload is
// pending. status is "degraded" when no knowledge base is loaded.
func (s *Server) health(c *gin.Context) {
	snap := s.deps.Store.Current()
	if snap == nil || snap.Empty() {
		c.JSON(http.StatusOK, gin.H{"status": "degraded", "snapshot": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"snapshot": gin.H{
			"source":    snap.Source(),
			"loaded_at": snap.LoadedAt(),
			"counts":    snap.Counts(),
		},
	})
}

// query resolves and assembles without generating an answer
func (s *Server) query(c *gin.Context) {
	q, ok := bindQuery(c)
	if !ok {
		return
	}
	s.respond(c, s.deps.Orchestrator.Retrieve(q))
}

// ask runs the full pipeline
func (s *Server) ask(c *gin.Context) {
	q, ok := bindQuery(c)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), constants.QueryTimeout)
	defer cancel()

	s.respond(c, s.deps.Orchestrator.Answer(ctx, q))
}

func (s *Server) respond(c *gin.Context, res *agent.Result) {
	if res.Unavailable() {
		c.JSON(http.StatusServiceUnavailable, res)
		return
	}
	c.JSON(http.StatusOK, res)
}

// bindQuery writes a 400 and returns false for a missing, blank or oversized query
func bindQuery(c *gin.Context) (string, bool) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	q := strings.TrimSpace(req.Query)
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query must not be blank"})
		return "", false
	}
	if len(q) > constants.MaxQueryLength {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("query exceeds %d bytes", constants.MaxQueryLength),
		})
		return "", false
	}
	return q, true
}

func (s *Server) entities(c *gin.Context) {
	catalog, ok := query.NewEngine(s.deps.Store.Current()).Catalog()
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": constants.MsgDataUnavailable})
		return
	}
	c.JSON(http.StatusOK, catalog)
}

func (s *Server) reload(c *gin.Context) {
	if s.deps.Loader == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "reload is not configured"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), constants.ReloadTimeout)
	defer cancel()

	snap, err := s.deps.Store.Reload(ctx, s.deps.Loader)
	if err != nil {
		s.logger.Error("Reload failed",
			zap.String("request_id", c.GetString(keyRequestID)),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":        "reloaded",
		"source":        snap.Source(),
		"counts":        snap.Counts(),
		"dropped_links": snap.DroppedLinks(),
	})
}
