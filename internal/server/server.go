package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/usersoap/usersvc/config"
	"github.com/usersoap/usersvc/internal/db"
	"github.com/usersoap/usersvc/internal/events"
	"github.com/usersoap/usersvc/internal/handlers"
	"github.com/usersoap/usersvc/internal/hasher"
	"github.com/usersoap/usersvc/internal/metrics"
	"github.com/usersoap/usersvc/internal/mq"
	"github.com/usersoap/usersvc/internal/services"
	"github.com/usersoap/usersvc/internal/storage"
	"github.com/usersoap/usersvc/internal/store"
)

const startupPingTimeout = 10 * time.Second

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	mq         *mq.MQ
	logger     *slog.Logger
}

// Dependencies are the collaborators the router is built from.
type Dependencies struct {
	Users    *services.UserService
	Store    handlers.Pinger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

// New migrates the schema, connects the store and the broker, and builds the
// HTTP server. It fails when either the database or the broker is unreachable.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := db.Migrate(cfg.Database); err != nil {
		return nil, err
	}
	dbConn, err := db.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	backend, err := mq.NewBackend(ctx, cfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("create mq backend: %w", err)
	}
	queue := mq.New(backend)

	pingCtx, cancel := context.WithTimeout(ctx, startupPingTimeout)
	defer cancel()
	if err := queue.Ping(pingCtx); err != nil {
		_ = queue.Close()
		_ = dbConn.Close()
		return nil, fmt.Errorf("connect to %s: %w", cfg.MQBackend, err)
	}

	spool, err := storage.New(ctx, cfg)
	if err != nil {
		_ = queue.Close()
		_ = dbConn.Close()
		return nil, fmt.Errorf("open event spool: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	userRepo := store.NewUserRepository(dbConn)
	publisher := events.NewPublisher(queue, cfg.Events, spool, m, logger)
	userService := services.NewUserService(userRepo, hasher.New(cfg.Hasher), publisher, logger)

	router := NewRouter(cfg, Dependencies{
		Users:    userService,
		Store:    userRepo,
		Metrics:  m,
		Gatherer: registry,
		Logger:   logger,
	})

	httpServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.ServerHost, strconv.Itoa(cfg.ServerPort)),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.InfoContext(ctx, "server configured",
		"addr", httpServer.Addr,
		"mq_backend", cfg.MQBackend,
		"queue", cfg.Events.Queue,
		"spool_backend", cfg.SpoolBackend,
	)

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		mq:         queue,
		logger:     logger,
	}, nil
}

// NewRouter builds the chi router with middleware, the SOAP routes and the
// metrics endpoint.
func NewRouter(cfg config.Config, deps Dependencies) *chi.Mux {
	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	if len(cfg.AllowedOrigins) > 0 {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", "SOAPAction"},
			MaxAge:         300,
		}))
	}

	if deps.Gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}
	handlers.RegisterRouter(router, deps.Users, deps.Store, deps.Metrics, deps.Logger)
	return router
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server. It returns nil after Shutdown.
func (s *Server) Start() error {
	s.logger.Info("listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and releases the store and broker.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if s.mq != nil {
		err = errors.Join(err, s.mq.Close())
	}
	if s.db != nil {
		err = errors.Join(err, s.db.Close())
	}
	return err
}
