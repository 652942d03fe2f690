// Package web exposes the loaded dataset and per-session filtering over HTTP.
package web

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"deathmap/internal/filter"
	"deathmap/internal/logger"
	"deathmap/internal/session"
)

// Server wires the session manager to a gin router.
type Server struct {
	sessions *session.Manager
	log      *logger.Logger
	router   *gin.Engine
}

// NewServer builds the router. The manager's base session may be empty,
// loaded or failed; handlers report its state.
func NewServer(sessions *session.Manager, log *logger.Logger) *Server {
	router := gin.New()

	s := &Server{sessions: sessions, log: log.With("component", "web"), router: router}

	router.Use(gin.Recovery(), requestLogger(s.log))

	router.GET("/health", s.health)

	api := router.Group("/api")
	api.GET("/dataset", s.dataset)
	s.registerSessionRoutes(api.Group("/sessions"))

	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) registerSessionRoutes(rg *gin.RouterGroup) {
	rg.POST("", s.createSession)
	rg.DELETE("/:id", s.deleteSession)
	rg.GET("/:id/filters", s.getFilters)
	rg.PATCH("/:id/filters", s.patchFilters)
	rg.POST("/:id/reset", s.resetFilters)
	rg.GET("/:id/records", s.records)
	rg.GET("/:id/stats", s.stats)
	rg.GET("/:id/geojson", s.geojson)
}

func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		args := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		}

		if c.Writer.Status() >= http.StatusInternalServerError {
			log.Error("request", args...)
			return
		}

		log.Debug("request", args...)
	}
}

// abortWithError maps domain errors to status codes.
func (s *Server) abortWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, session.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, session.ErrNotLoaded), errors.Is(err, session.ErrLoadFailed):
		status = http.StatusServiceUnavailable
	case errors.Is(err, filter.ErrInvalidSpecification):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "path", c.Request.URL.Path, "error", err)
	}

	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
