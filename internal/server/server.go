// Package server wires the development backend: database, services,
// handlers, middleware and routes. It is the composition root; nothing else
// constructs these pieces.
//
//	sqlite.DB → service.*Service → handler.*Handler → chi routes
//
// The route table mirrors the mobile backend the sync client talks to, so
// the client can be run end to end on a laptop.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/sakif/hangang/internal/auth"
	"github.com/sakif/hangang/internal/config"
	"github.com/sakif/hangang/internal/handler"
	"github.com/sakif/hangang/internal/metrics"
	"github.com/sakif/hangang/internal/middleware"
	sqliteRepo "github.com/sakif/hangang/internal/repository/sqlite"
	"github.com/sakif/hangang/internal/service"
)

// Server owns the router and the database connection.
type Server struct {
	router   *chi.Mux
	config   config.Server
	logger   *slog.Logger
	db       *sqliteRepo.DB
	registry *prometheus.Registry
	metrics  *metrics.Metrics

	passwordCost int
}

// Option customises a Server.
type Option func(*Server)

// WithPasswordCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func WithPasswordCost(cost int) Option {
	return func(s *Server) { s.passwordCost = cost }
}

// New opens the database at cfg.DBPath, seeds markers when asked to and
// builds the router.
func New(ctx context.Context, cfg config.Server, logger *slog.Logger, opts ...Option) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("server: opening database: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	s := &Server{
		router:       chi.NewRouter(),
		config:       cfg,
		logger:       logger,
		db:           db,
		registry:     reg,
		metrics:      metrics.New(reg),
		passwordCost: auth.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.setupRoutes(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("server: setting up routes: %w", err)
	}
	return s, nil
}

// setupRoutes registers middleware and routes.
//
// Middleware order: RequestID first so the logger can print it, Recoverer
// inside the logger and metrics so a panic is still counted as a 500.
func (s *Server) setupRoutes(ctx context.Context) error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.Metrics(s.metrics))
	s.router.Use(chimiddleware.Recoverer)

	authService := service.NewAuthService(s.db, auth.NewPasswordServiceWithCost(s.passwordCost), s.logger)
	communityService := service.NewCommunityService(s.db, s.logger)
	boardService := service.NewBoardService(s.db, s.logger)

	if s.config.SeedMarkers {
		if _, err := boardService.SeedMarkers(ctx); err != nil {
			return err
		}
	}

	authHandler := handler.NewAuthHandler(authService, s.logger)
	communityHandler := handler.NewCommunityHandler(communityService, s.logger)
	boardHandler := handler.NewBoardHandler(boardService, s.logger)

	s.router.Route("/api/user", func(r chi.Router) {
		r.Post("/signup", authHandler.HandleSignUp)
		r.Post("/login", authHandler.HandleLogin)
	})

	// Inquiries live at the root, as on the mobile backend.
	s.router.Get("/select", boardHandler.HandleListInquiries)
	s.router.Get("/select/{userID}", boardHandler.HandleListUserInquiries)
	s.router.Post("/insert", boardHandler.HandleCreateInquiry)
	s.router.Put("/update/{id}", boardHandler.HandleAnswerInquiry)

	s.router.Get("/marker/select", boardHandler.HandleListMarkers)

	s.router.Route("/busking", func(r chi.Router) {
		r.Get("/select", boardHandler.HandleListBusking)
		r.Get("/select/{userID}", boardHandler.HandleListUserBusking)
		r.Post("/insert", boardHandler.HandleCreateBusking)
		r.Put("/update/{id}", boardHandler.HandleSetBuskingState)
	})

	s.router.Route("/community", func(r chi.Router) {
		r.Get("/select", communityHandler.HandleListPosts)
		r.Post("/insert", communityHandler.HandleCreatePost)
		r.Put("/update/{id}", communityHandler.HandleUpdatePost)
		r.Delete("/delete/{id}", communityHandler.HandleDeletePost)
	})

	s.router.Route("/comment", func(r chi.Router) {
		r.Get("/select", communityHandler.HandleListComments)
		r.Post("/insert", communityHandler.HandleCreateComment)
		r.Delete("/delete/{id}", communityHandler.HandleDeleteComment)
	})

	s.router.Route("/postlike", func(r chi.Router) {
		r.Get("/select", communityHandler.HandleListLikes)
		r.Post("/insert", communityHandler.HandleCreateLike)
		r.Delete("/delete", communityHandler.HandleDeleteLike)
	})

	s.router.Method(http.MethodGet, "/metrics", metrics.Handler(s.registry))

	return nil
}

// Handler returns the root handler, for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start serves until SIGINT/SIGTERM, then drains in-flight requests for up
// to 30 seconds and closes the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("dev backend starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("server: graceful shutdown failed: %w", err)
		}
		s.logger.Info("dev backend stopped gracefully")
	}

	return nil
}
