package httpapi

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"DjenScanner/internal/ports"
	"DjenScanner/internal/textproc"
	"DjenScanner/internal/usecase"
)

// NextRunner exposes the scheduler's upcoming trigger for the status route.
type NextRunner interface {
	NextRun() (time.Time, bool)
}

// Server exposes the extraction pipeline over HTTP.
type Server struct {
	engine    *gin.Engine
	extractor *usecase.Extractor
	repo      ports.RecordRepository
	processor *textproc.Processor
	scheduler NextRunner
	logger    *slog.Logger
}

// ServerDeps wires the collaborators consumed by the HTTP surface.
type ServerDeps struct {
	Extractor   *usecase.Extractor
	Repo        ports.RecordRepository
	Processor   *textproc.Processor
	Scheduler   NextRunner
	CORSOrigins []string
	Logger      *slog.Logger
}

// NewServer builds the gin engine with all routes registered.
func NewServer(deps ServerDeps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine:    engine,
		extractor: deps.Extractor,
		repo:      deps.Repo,
		processor: deps.Processor,
		scheduler: deps.Scheduler,
		logger:    logger,
	}

	engine.Use(s.requestLogger())

	if len(deps.CORSOrigins) > 0 {
		engine.Use(cors.New(cors.Config{
			AllowOrigins: deps.CORSOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders: []string{"Content-Type", "Authorization"},
		}))
	}

	s.registerRoutes()
	return s
}

// Handler returns the engine for use with an http.Server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) registerRoutes() {
	s.engine.GET("/health", s.handleHealth)
	s.engine.GET("/status", s.handleStatus)
	s.engine.GET("/selftest", s.handleSelfTest)
	s.engine.POST("/extract", s.handleExtract)
	s.engine.GET("/notifications", s.handleNotifications)
	s.engine.GET("/stats/courts", s.handleCourtStats)
	s.engine.GET("/logs", s.handleLogs)
	s.engine.GET("/scheduler/status", s.handleSchedulerStatus)

	s.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "endpoint not found"})
	})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("api request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}
