// Package server exposes the pipeline over HTTP
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ankek/archdiagram/internal/ir"
	"github.com/ankek/archdiagram/internal/pipeline"
)

// Generator produces diagrams
type Generator interface {
	Generate(ctx context.Context, req ir.RenderRequest) (*pipeline.Result, error)
}

// Options configures the HTTP adapter
type Options struct {
	Service     string
	Version     string
	CORSOrigins []string            // "*" allows every origin
	Gatherer    prometheus.Gatherer // nil disables /metrics
	Logger      zerolog.Logger
}

// Server is the HTTP front end
type Server struct {
	generator Generator
	opts      Options
	router    *gin.Engine
	http      *http.Server
}

// New creates a server listening on addr
func New(addr string, g Generator, opts Options) *Server {
	if opts.Service == "" {
		opts.Service = "archdiagram"
	}

	s := &Server{generator: g, opts: opts}
	s.router = s.buildRouter()
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      2 * time.Minute,
	}
	return s
}

func (s *Server) buildRouter() *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware(s.opts.Logger))
	r.Use(cors.New(corsConfig(s.opts.CORSOrigins)))

	h := &handler{generator: s.generator, opts: s.opts}
	r.GET("/", h.root)
	r.GET("/healthz", h.health)
	r.POST("/generate-diagram", h.generate)

	if s.opts.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{})))
	}
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", RequestIDHeader},
		ExposeHeaders: []string{RequestIDHeader, FallbackHeader},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until Shutdown is called
func (s *Server) ListenAndServe() error {
	s.opts.Logger.Info().Str("addr", s.http.Addr).Msg("http server listening")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
