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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/shopscript/apiserver/config"
	"github.com/shopscript/apiserver/internal/auth"
	"github.com/shopscript/apiserver/internal/db"
	"github.com/shopscript/apiserver/internal/events"
	"github.com/shopscript/apiserver/internal/handlers"
	"github.com/shopscript/apiserver/internal/logger"
	"github.com/shopscript/apiserver/internal/mq"
	"github.com/shopscript/apiserver/internal/services"
	"github.com/shopscript/apiserver/internal/storage"
	"github.com/shopscript/apiserver/internal/store"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	queue      *mq.MQ
	log        zerolog.Logger
}

// New wires repositories, services and routes. It seeds the bootstrap admin
// and the default site settings before returning.
func New(ctx context.Context, cfg config.Config, log zerolog.Logger) (*Server, error) {
	tokens, err := auth.NewTokenSigner(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return nil, errors.New("JWT_SECRET is required")
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	objects, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("open storage: %w", err)
	}

	queue, err := mq.Open(ctx, cfg.MQ)
	if err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("open message queue: %w", err)
	}
	if queue == nil {
		log.Info().Msg("messaging disabled, domain events will be dropped")
	}
	publisher := events.NewPublisher(queue)

	adminRepo := store.NewAdminRepository(dbConn)
	userRepo := store.NewUserRepository(dbConn)
	productRepo := store.NewProductRepository(dbConn)
	orderRepo := store.NewOrderRepository(dbConn)
	reviewRepo := store.NewReviewRepository(dbConn)
	settingRepo := store.NewSettingRepository(dbConn)

	hasher := auth.NewBcryptHasher(0)
	svc := handlers.Services{
		Auth:     services.NewAuthService(adminRepo, userRepo, hasher, tokens),
		Recovery: services.NewRecoveryService(userRepo, hasher),
		Products: services.NewProductService(productRepo),
		Orders:   services.NewOrderService(orderRepo, productRepo, publisher),
		Reviews:  services.NewReviewService(reviewRepo, productRepo, publisher),
		Settings: services.NewSettingService(settingRepo),
		Uploads:  services.NewUploadService(objects, cfg.PublicBaseURL, cfg.Upload.MaxBytes),
	}

	s := &Server{db: dbConn, queue: queue, log: log}
	if err := s.seed(log.WithContext(ctx), cfg, svc); err != nil {
		_ = s.close()
		return nil, err
	}

	router := chi.NewRouter()
	router.Use(middleware.RealIP)
	router.Use(logger.Middleware(log)...)
	router.Use(
		middleware.Recoverer,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Handle("/metrics", promhttp.Handler())
	handlers.Mount(router, svc, tokens)

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	s.router = router
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

func (s *Server) seed(ctx context.Context, cfg config.Config, svc handlers.Services) error {
	created, err := svc.Auth.BootstrapAdmin(ctx, cfg.Bootstrap.AdminUsername, cfg.Bootstrap.AdminPassword)
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	if created {
		s.log.Warn().Str("username", cfg.Bootstrap.AdminUsername).Msg("created bootstrap admin account, change its password")
	}

	seeded, err := svc.Settings.SeedDefaults(ctx)
	if err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}
	if seeded {
		s.log.Info().Msg("seeded default site settings")
	}
	return nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server until it is shut down.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.httpServer.Addr).Msg("http server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, then closes the queue and database.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if cerr := s.close(); err == nil {
		err = cerr
	}
	return err
}

func (s *Server) close() error {
	var errs []error
	if s.queue != nil {
		errs = append(errs, s.queue.Close())
	}
	if s.db != nil {
		errs = append(errs, s.db.Close())
	}
	return errors.Join(errs...)
}
