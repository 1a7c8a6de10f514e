package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"stairlight/internal/api/handlers"
	"stairlight/internal/mask"
	"stairlight/internal/metrics"
	"stairlight/internal/player"
	"stairlight/internal/resilience"
	"stairlight/internal/trigger"
)

type Server struct {
	router     *chi.Mux
	engine     *player.Engine
	resilient  *resilience.Handler
	compositor *mask.Compositor
	maskStore  *mask.Store
	source     *trigger.MQTTSource
	metrics    *metrics.Metrics
	logger     *zap.Logger
	httpServer *http.Server
}

func NewServer(
	engine *player.Engine,
	resilient *resilience.Handler,
	compositor *mask.Compositor,
	maskStore *mask.Store,
	source *trigger.MQTTSource,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Server {
	s := &Server{
		engine:     engine,
		resilient:  resilient,
		compositor: compositor,
		maskStore:  maskStore,
		source:     source,
		metrics:    m,
		logger:     logger,
	}

	s.router = chi.NewRouter()
	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)

	// The mask editor UI runs off a laptop on the venue LAN.
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}

func (s *Server) setupRoutes() {
	statusHandler := handlers.NewStatusHandler(s.engine, s.resilient, s.source, s.logger)
	masksHandler := handlers.NewMasksHandler(s.compositor, s.maskStore, s.logger)
	controlHandler := handlers.NewControlHandler(s.engine, s.logger)

	s.router.With(middleware.Timeout(10*time.Second)).Get("/health", statusHandler.Health)
	s.router.With(middleware.Timeout(10*time.Second)).Get("/status", statusHandler.Status)
	s.router.With(middleware.Timeout(10*time.Second)).Get("/errors", statusHandler.Errors)
	s.router.With(middleware.Timeout(10*time.Second)).Post("/reset", statusHandler.Reset)

	s.router.With(middleware.Timeout(10*time.Second)).Get("/masks", masksHandler.Get)
	s.router.With(middleware.Timeout(10*time.Second)).Put("/masks", masksHandler.Put)

	// Trigger handling sleeps through the debounce window before switching,
	// so this route gets a longer timeout.
	s.router.With(middleware.Timeout(30*time.Second)).Post("/trigger", controlHandler.Trigger)

	s.router.Handle("/metrics", s.metrics.Handler())
}

func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
		MaxHeaderBytes:    1 << 20,
		ReadHeaderTimeout: 30 * time.Second,
	}

	s.logger.Info("Starting HTTP server", zap.String("addr", addr))
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
