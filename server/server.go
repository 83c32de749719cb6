package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hupe1980/rephrase/coordinator"
	"github.com/hupe1980/rephrase/core"
	"github.com/hupe1980/rephrase/history"
	"github.com/hupe1980/rephrase/logging"
)

// Service and version reported by /health.
const (
	ServiceName = "Rephrase.AI Backend"
	Version     = "1.0.0"
)

// Pipeline is the part of the coordinator the API drives.
type Pipeline interface {
	Rephrase(ctx context.Context, req coordinator.Request) (*core.Suggestion, error)
	Analyze(ctx context.Context, text string, turns []core.ConversationTurn) (*core.Analysis, error)
	Complete(ctx context.Context, partial string) string
}

var _ Pipeline = (*coordinator.Coordinator)(nil)

// Options configure the server.
type Options struct {
	Logger         *logging.PipelineLogger
	AllowedOrigins []string
	// ShutdownTimeout bounds graceful shutdown in Run.
	ShutdownTimeout time.Duration
}

// Server serves the JSON API.
type Server struct {
	pipeline Pipeline
	context  coordinator.ContextSource
	history  history.Store
	logger   *logging.PipelineLogger
	opts     Options
	engine   *gin.Engine
}

// New builds the router.
func New(p Pipeline, src coordinator.ContextSource, hist history.Store, optFns ...func(o *Options)) *Server {
	opts := Options{
		ShutdownTimeout: 10 * time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewLogger(&logging.LoggerConfig{Level: logging.LogLevelError, Output: io.Discard})
	}

	s := &Server{
		pipeline: p,
		context:  src,
		history:  hist,
		logger:   opts.Logger.WithComponent("server"),
		opts:     opts,
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestID(), s.requestLogger(), cors(opts.AllowedOrigins))
	for _, g := range []*gin.RouterGroup{r.Group("/api"), r.Group("/")} {
		s.registerRoutes(g)
	}
	s.engine = r
	return s
}

func (s *Server) registerRoutes(g *gin.RouterGroup) {
	g.GET("/health", s.health)
	g.POST("/rephrase", s.rephrase)
	g.POST("/analyze", s.analyze)
	g.GET("/context", s.userContext)
	g.GET("/examples", s.examples)
	g.POST("/save_message", s.saveMessage)
	g.GET("/history", s.listHistory)
	g.GET("/complete", s.complete)
}

// Handler returns the http.Handler serving the API.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
