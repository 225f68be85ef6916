// Package server provides the HTTP API and single-page UI for kaku.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/kaku/internal/config"
	"github.com/hyperjump/kaku/internal/generator"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// Server is the HTTP server for the kaku API.
type Server struct {
	gen    atomic.Pointer[generator.Generator]
	config *config.ServerConfig
	logger *zap.Logger
	server *http.Server
}

// NewServer creates a server around gen. The generator can be replaced later with SetGenerator.
func NewServer(gen *generator.Generator, cfg *config.ServerConfig, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		config: cfg,
		logger: logger,
	}
	s.gen.Store(gen)
	return s
}

// SetGenerator swaps the generator used by new requests. In-flight requests keep the one they started with.
func (s *Server) SetGenerator(gen *generator.Generator) {
	s.gen.Store(gen)
}

func (s *Server) current() *generator.Generator {
	return s.gen.Load()
}

// Handler builds the routed, instrumented handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.config.RequestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/", s.handleIndex)
	r.Post("/generate", s.handleGenerateForm)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/posts", s.handleCreatePost)
		r.Post("/posts/download", s.handleDownload)
		r.Post("/prompt", s.handlePrompt)
		r.Get("/options", s.handleOptions)
	})
	r.Get("/health", s.handleHealth)

	c := cors.New(cors.Options{
		AllowedOrigins:   s.config.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
	})
	return otelhttp.NewHandler(c.Handler(r), "kaku",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
