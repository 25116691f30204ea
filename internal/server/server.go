package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/techzara/platform/config"
	"github.com/techzara/platform/internal/db"
	"github.com/techzara/platform/internal/handlers"
	"github.com/techzara/platform/internal/logger"
	"github.com/techzara/platform/internal/metrics"
	"github.com/techzara/platform/internal/mq"
	"github.com/techzara/platform/internal/services"
	"github.com/techzara/platform/internal/storage"
	"github.com/techzara/platform/internal/store"
	"go.uber.org/zap"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	storage    *storage.Storage
	mq         *mq.MQ
	log        *zap.Logger
}

// Dependencies are the services the HTTP API is built on.
type Dependencies struct {
	Users     *services.UserService
	Presences *services.PresenceService
	Profiles  *services.ProfileService
}

// New connects the configured backends and constructs a Server.
func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*Server, error) {
	if cfg.JWT.Secret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	objects, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("open storage: %w", err)
	}

	broker, err := mq.Open(ctx, cfg.MQ)
	if err != nil {
		_ = objects.Close()
		_ = dbConn.Close()
		return nil, fmt.Errorf("open mq: %w", err)
	}

	userRepo := store.NewUserRepository(dbConn)
	presenceRepo := store.NewPresenceRepository(dbConn)

	var objectStore services.ObjectStore
	if objects != nil {
		objectStore = objects
	}

	deps := Dependencies{
		Users:     services.NewUserService(userRepo, services.NewBcryptHasher(), services.NewEventPublisher(broker)),
		Presences: services.NewPresenceService(userRepo, presenceRepo),
		Profiles:  services.NewProfileService(userRepo, objectStore),
	}

	log.Info("backends ready",
		zap.String("storage", cfg.Storage.Backend),
		zap.String("mq", cfg.MQ.Backend),
	)

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	router := NewRouter(cfg, log, deps)
	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		storage:    objects,
		mq:         broker,
		log:        log,
	}, nil
}

// NewRouter builds the HTTP routes and middleware over deps.
func NewRouter(cfg config.Config, log *zap.Logger, deps Dependencies) *chi.Mux {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.NewHTTPMetrics(cfg.ServiceName, registry)

	authHandler := handlers.NewAuthHandler(deps.Users, cfg.JWT)
	authz := handlers.NewAuthorizer(deps.Users, handlers.UserAccessPolicy)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		logger.Middleware(log),
		middleware.Recoverer,
		httpMetrics.Middleware,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Method(http.MethodGet, "/metrics", httpMetrics.Handler())
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, authHandler)
	})
	router.Route("/users", func(r chi.Router) {
		handlers.UserRouter(r,
			handlers.NewUserHandler(deps.Users),
			handlers.NewPresenceHandler(deps.Presences),
			handlers.NewProfileHandler(deps.Profiles),
			authHandler.RequireAuth,
			authz,
		)
	})
	return router
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server until it is shut down.
func (s *Server) Start() error {
	s.log.Info("http server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, waits for in-flight ones until ctx is
// done and then closes the backends.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if s.mq != nil {
		if closeErr := s.mq.Close(); closeErr != nil {
			s.log.Warn("failed to close mq", zap.Error(closeErr))
		}
	}
	if closeErr := s.storage.Close(); closeErr != nil {
		s.log.Warn("failed to close storage", zap.Error(closeErr))
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return err
}
