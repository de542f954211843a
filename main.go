package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"gitea.com/go-chi/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/stackmesh/user-service/authenticator"
	"github.com/stackmesh/user-service/config"
	"github.com/stackmesh/user-service/controllers"
	"github.com/stackmesh/user-service/database"
	authmiddleware "github.com/stackmesh/user-service/middleware"
	"github.com/stackmesh/user-service/repositories"
	"github.com/stackmesh/user-service/services"
	"github.com/stackmesh/user-service/token"
)

func main() {
	// A .env file is optional; deployments configure through the environment.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		zlog.Fatal().Err(err).Msg("Failed to load .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		zlog.Fatal().Err(err).Msg("Invalid configuration")
	}

	logger := newLogger(cfg)

	// Initialize database
	db, err := database.Initialize(cfg.DatabasePath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.DatabasePath).Msg("Failed to initialize database")
	}
	defer db.Close()

	// Initialize repositories and services
	repos := repositories.NewRepositories(db)
	srvs := services.NewServices(repos)

	// Initialize the service token codec
	codec, err := token.New(token.Config{
		Secret:    cfg.JWT.Secret,
		Algorithm: cfg.JWT.Algorithm,
		TTL:       cfg.TokenTTL(),
		Issuer:    cfg.JWT.Issuer,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize token codec")
	}

	// Initialize the OpenID Connect provider
	provider, err := authenticator.NewOpenIDProvider(authenticator.Config{
		Name:         "google",
		IssuerURL:    cfg.OIDC.IssuerURL,
		ClientID:     cfg.OIDC.ClientID,
		ClientSecret: cfg.OIDC.ClientSecret,
		RedirectURL:  cfg.OIDC.RedirectURL,
		Scopes:       cfg.OIDC.Scopes,
		HTTPTimeout:  cfg.OIDC.HTTPTimeout,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize identity provider")
	}

	// Initialize controllers
	ctrl := controllers.NewControllers(srvs, codec)

	// Set up router
	r, err := setupRouter(cfg, logger, ctrl, provider, codec)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to setup router")
	}

	logger.Info().
		Str("port", cfg.Port).
		Str("database", cfg.DatabasePath).
		Str("provider", provider.Name()).
		Str("issuer", cfg.OIDC.IssuerURL).
		Msg("User service listening")

	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		logger.Fatal().Err(err).Msg("Server stopped")
	}
}

// newLogger builds the root logger from configuration.
func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var out io.Writer = os.Stderr
	if cfg.LogFormat == "console" {
		out = zerolog.ConsoleWriter{Out: os.Stderr}
	}

	return zerolog.New(out).Level(level).With().
		Timestamp().
		Str("service", "user-service").
		Logger()
}

// setupRouter configures all routes
func setupRouter(cfg *config.Config, logger zerolog.Logger, ctrl *controllers.Controllers, provider authenticator.Provider, codec *token.Codec) (*chi.Mux, error) {
	r := chi.NewRouter()

	// Middleware
	r.Use(authmiddleware.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second)) // 60 second timeout for OAuth callbacks
	r.Use(middleware.Compress(5))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	// The session only ferries the anti-CSRF state between /auth/login and
	// /auth/callback, so the middleware is mounted on those routes alone.
	sessionHandler, err := session.Sessioner(session.Options{
		Provider:       "memory",
		ProviderConfig: "",
		CookieName:     cfg.SessionCookieName,
		Secure:         cfg.SessionSecure,
		Gclifetime:     cfg.SessionLifetime,
		Maxlifetime:    cfg.SessionLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session: %w", err)
	}

	// PUBLIC ROUTES (no authentication required)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status": "healthy", "service": "user-service"}`)
	})

	r.Route("/auth", func(r chi.Router) {
		r.Use(sessionHandler)
		r.Get("/login", ctrl.Auth.Login(provider))
		r.Get("/callback", ctrl.Auth.Callback(provider))
	})

	// PROTECTED ROUTES (bearer token required)
	r.Group(func(r chi.Router) {
		r.Use(authmiddleware.RequireAuth(codec))
		r.Use(authmiddleware.AuditLogger(logger))

		r.Route("/users", func(r chi.Router) {
			r.Get("/", ctrl.Users.List)
			r.Get("/me", ctrl.Users.Me)
			r.Patch("/me", ctrl.Users.UpdateMe)
			r.Get("/me/logins", ctrl.Users.MyLogins)
		})
	})

	return r, nil
}
