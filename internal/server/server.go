// Package server sets up the HTTP server, router, and all route definitions.
//
// This is the composition root: the database, token and password services,
// business services and handlers are created here and wired to routes, so
// every other package receives its dependencies explicitly.
//
//	config -> sqlite.DB -> UserDB / SwapDB
//	       -> TokenService, PasswordService
//	       -> AuthService, ProfileService, SwapService
//	       -> AuthHandler, UserHandler, SwapHandler, HealthHandler
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

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sakif/skillswap/internal/auth"
	"github.com/sakif/skillswap/internal/config"
	"github.com/sakif/skillswap/internal/handler"
	"github.com/sakif/skillswap/internal/middleware"
	sqliteRepo "github.com/sakif/skillswap/internal/repository/sqlite"
	"github.com/sakif/skillswap/internal/service"
)

// Server represents the HTTP server and all its dependencies. It owns the
// database handle and closes it on shutdown.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New opens the database, builds every service and registers the routes.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(ctx, cfg.Storage.Path)
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

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database.
func (s *Server) Close() error {
	return s.db.Close()
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET    /healthz                   -> DB ping
//	GET    /metrics                   -> Prometheus exposition
//	POST   /api/auth/register         -> sign up
//	POST   /api/auth/login            -> sign in
//	GET    /api/auth/github/login     -> redirect to GitHub
//	GET    /api/auth/github/callback  -> finish GitHub sign-in
//	GET    /api/users/me              -> own profile         [auth]
//	PUT    /api/users/me              -> replace own profile [auth]
//	GET    /api/users/search          -> public profiles     [auth]
//	GET    /api/users/{id}            -> one public profile  [auth]
//	POST   /api/swaps                 -> propose a swap      [auth]
//	GET    /api/swaps/sent            -> swaps I requested   [auth]
//	GET    /api/swaps/received        -> swaps sent to me    [auth]
//	PUT    /api/swaps/{id}            -> change status       [auth]
//	DELETE /api/swaps/{id}            -> withdraw            [auth]
//	GET    /api/dashboard             -> profile and counts  [auth]
//
// Middleware runs in the order added. The logger and metrics sit outside
// Recoverer so a recovered panic is still logged and counted as a 500.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.Metrics)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		// Echo any origin back so credentialed browser requests are allowed.
		AllowOriginFunc:  func(*http.Request, string) bool { return true },
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	tokens, err := auth.NewTokenService(s.config.Auth.JWTSecret, s.config.Auth.TokenTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService(s.config.Auth.BcryptCost)

	users := s.db.Users()
	swaps := s.db.Swaps()

	authService := service.NewAuthService(users, tokens, passwords, s.logger)
	profileService := service.NewProfileService(users, s.logger)
	swapService := service.NewSwapService(
		users, swaps, service.PolicyFor(s.config.Swaps.StrictTransitions), s.logger,
	)

	// A typed nil *GitHubProvider would be a non-nil interface value, so the
	// handler only receives the provider when it exists.
	var github handler.GitHubOAuth
	if s.config.GitHub.Enabled() {
		github = auth.NewGitHubProvider(
			s.config.GitHub.ClientID,
			s.config.GitHub.ClientSecret,
			s.config.GitHub.CallbackURL,
		)
	} else {
		s.logger.Info("GitHub sign-in disabled, client credentials not set")
	}

	authHandler := handler.NewAuthHandler(authService, github, s.logger)
	userHandler := handler.NewUserHandler(profileService, s.logger)
	swapHandler := handler.NewSwapHandler(swapService, s.logger)
	healthHandler := handler.NewHealthHandler(s.db, s.logger)

	s.router.Get("/healthz", healthHandler.HandleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.HandleRegister)
			r.Post("/login", authHandler.HandleLogin)
			r.Get("/github/login", authHandler.HandleGitHubLogin)
			r.Get("/github/callback", authHandler.HandleGitHubCallback)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(authService, s.logger))

			r.Get("/users/me", userHandler.HandleMe)
			r.Put("/users/me", userHandler.HandleUpdateMe)
			r.Get("/users/search", userHandler.HandleSearch)
			r.Get("/users/{id}", userHandler.HandleGet)

			r.Post("/swaps", swapHandler.HandleCreate)
			r.Get("/swaps/sent", swapHandler.HandleListSent)
			r.Get("/swaps/received", swapHandler.HandleListReceived)
			r.Put("/swaps/{id}", swapHandler.HandleUpdateStatus)
			r.Delete("/swaps/{id}", swapHandler.HandleDelete)

			r.Get("/dashboard", swapHandler.HandleDashboard)
		})
	})

	return nil
}

// Start serves HTTP until SIGINT or SIGTERM, then shuts down gracefully:
// stop accepting connections, wait for in-flight requests up to the
// configured shutdown timeout, and close the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         s.config.HTTP.Address,
		Handler:      s.router,
		ReadTimeout:  s.config.HTTP.ReadTimeout,
		WriteTimeout: s.config.HTTP.WriteTimeout,
		IdleTimeout:  s.config.HTTP.IdleTimeout,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.String("address", s.config.HTTP.Address),
			slog.String("database", s.config.Storage.Path),
			slog.Bool("strict_transitions", s.config.Swaps.StrictTransitions),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), s.config.HTTP.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
