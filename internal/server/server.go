// Package server wires the store, services, handlers, and middleware into
// one HTTP server, and owns its lifecycle. main stays minimal; everything
// that connects one layer to another happens here, in one place.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/nurso96/PrintMaker-Forum/internal/auth"
	"github.com/nurso96/PrintMaker-Forum/internal/handler"
	"github.com/nurso96/PrintMaker-Forum/internal/middleware"
	sqliteRepo "github.com/nurso96/PrintMaker-Forum/internal/repository/sqlite"
	"github.com/nurso96/PrintMaker-Forum/internal/service"
)

const serviceName = "printmaker-forum"

// Config holds everything the server needs from the environment.
type Config struct {
	Port           int
	DBPath         string
	BackendURL     string // base URL of the identity backend
	JWTSecret      string // signing secret for local session tokens
	ServiceVersion string
	AllowedOrigins []string
}

// Server owns the router and the database connection. The connection is
// closed during shutdown, after in-flight requests have drained.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New assembles the full dependency chain: store, token service, delegate
// client, services, handlers, routes. Each layer sees only the layer
// below it.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

func (s *Server) setupRoutes() error {
	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	delegate := auth.NewClient(s.config.BackendURL, s.logger)

	threadService := service.NewThreadService(s.db, s.logger)
	postService := service.NewPostService(s.db, s.logger)
	userService := service.NewUserService(s.db, s.logger)
	categoryService := service.NewCategoryService(s.db, s.db, s.logger)

	threadHandler := handler.NewThreadHandler(threadService, s.logger)
	postHandler := handler.NewPostHandler(postService, s.logger)
	userHandler := handler.NewUserHandler(userService, s.logger)
	categoryHandler := handler.NewCategoryHandler(categoryService, s.logger)
	authHandler := handler.NewAuthHandler(tokens, userService, s.logger)
	healthHandler := handler.NewHealthHandler(s.db, serviceName, s.config.ServiceVersion, s.logger)

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	// Read routes see the local session cookie when one is present, so
	// responses can be personalized without a backend round trip.
	s.router.Use(auth.OptionalSession(tokens))

	requireSession := auth.RequireSession(delegate)
	canPost := auth.RequirePermission(auth.PermPost)
	canModerate := auth.RequirePermission(auth.PermModerate)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", healthHandler.HandleHealth)
		r.Get("/stats", categoryHandler.HandleStats)

		r.Get("/categories", categoryHandler.HandleList)
		r.Get("/categories/{slug}", categoryHandler.HandleGet)
		r.Get("/categories/{slug}/threads/{threadSlug}", threadHandler.HandleGetDetail)

		r.Get("/threads", threadHandler.HandleList)
		r.Post("/threads/{id}/view", threadHandler.HandleRecordView)
		r.Get("/posts/{id}/replies", postHandler.HandleReplies)

		r.Get("/search/threads", threadHandler.HandleSearch)
		r.Get("/search/users", userHandler.HandleSearch)
		r.Get("/users/{username}", userHandler.HandleProfile)

		// Session establishment validates its own bearer token.
		r.Group(func(r chi.Router) {
			r.Use(requireSession)
			r.Post("/auth/session", authHandler.HandleSession)
			r.Get("/auth/me", authHandler.HandleMe)
		})
		r.Post("/auth/logout", authHandler.HandleLogout)

		// Writing requires a posting-capable backend session.
		r.Group(func(r chi.Router) {
			r.Use(requireSession, canPost)
			r.Post("/threads", threadHandler.HandleCreate)
			r.Post("/posts", postHandler.HandleCreate)
			r.Post("/posts/{id}/reactions", postHandler.HandleAddReaction)
			r.Delete("/posts/{id}/reactions/{type}", postHandler.HandleRemoveReaction)
		})

		// Moderation.
		r.Group(func(r chi.Router) {
			r.Use(requireSession, canModerate)
			r.Delete("/threads/{id}", threadHandler.HandleDelete)
			r.Delete("/posts/{id}", postHandler.HandleDelete)
			r.Post("/users/{id}/reputation", userHandler.HandleAwardReputation)
			r.Post("/users/{id}/badges", userHandler.HandleAwardBadge)
			r.Post("/badges", userHandler.HandleCreateBadge)
		})
	})

	return nil
}

// Start runs the server until SIGINT/SIGTERM, then drains in-flight
// requests for up to 30 seconds before closing the database.
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

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
			slog.String("backend", s.config.BackendURL),
			slog.String("version", s.config.ServiceVersion),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
