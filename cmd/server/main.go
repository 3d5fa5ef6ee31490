package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	h "github.com/gorilla/handlers"
	"github.com/rs/zerolog"

	"github.com/ram-app/ram-api/internal/authz"
	"github.com/ram-app/ram-api/internal/config"
	"github.com/ram-app/ram-api/internal/handlers"
	"github.com/ram-app/ram-api/internal/middleware"
	"github.com/ram-app/ram-api/internal/migration"
	"github.com/ram-app/ram-api/internal/notification"
	"github.com/ram-app/ram-api/internal/ownership"
	"github.com/ram-app/ram-api/internal/repository"
	"github.com/ram-app/ram-api/internal/routes"
	"github.com/ram-app/ram-api/internal/session"
	"github.com/ram-app/ram-api/internal/token"

	_ "github.com/lib/pq" // PostgreSQL driver
)

type application struct {
	config    *config.Config
	db        *sql.DB
	logger    zerolog.Logger
	ownership *ownership.Service
}

func main() {
	// Set up structured, level-based logging.
	consoleWriter := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
	logger := zerolog.New(consoleWriter).With().Timestamp().Logger()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.SetFlags(0)
	log.SetOutput(logger)

	// Load configuration.
	cfg := config.Load()

	// Initialize database connection.
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to the database")
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to ping database")
	}

	// Run database migrations.
	migration.RunMigrations(cfg.DatabaseURL, logger)

	app := &application{
		config: cfg,
		db:     db,
		logger: logger,
	}

	// Initialize the HTTP router and middleware.
	router := app.initRouter()
	loggedRouter := middleware.LoggingMiddleware(logger)(router)
	corsHandler := h.CORS(
		h.AllowedOrigins([]string{cfg.CORSOrigin}),
		h.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		h.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		h.AllowCredentials(),
	)(loggedRouter)

	// Purge expired invite codes in the background.
	housekeepingCtx, stopHousekeeping := context.WithCancel(context.Background())
	go app.runHousekeeping(housekeepingCtx)

	// Start the HTTP server and handle graceful shutdown.
	app.startServer(corsHandler, stopHousekeeping)

	logger.Info().Msg("Application terminated.")
}

// initRouter sets up repositories, services and HTTP handlers.
func (app *application) initRouter() http.Handler {
	// Repositories
	userRepo := repository.NewUserRepository(app.db)
	petRepo := repository.NewPetRepository(app.db)
	ownerRepo := repository.NewOwnerRepository(app.db)
	inviteRepo := repository.NewInviteRepository(app.db)
	providerRepo := repository.NewProviderRepository(app.db)
	postRepo := repository.NewPostRepository(app.db)
	reportRepo := repository.NewReportRepository(app.db)
	notificationRepo := repository.NewNotificationRepository(app.db)

	// Session handling and access guard.
	codec := token.NewCodec(app.config.SessionKey)
	sessions := session.NewStore(codec, app.config.SecureCookie)
	guard := authz.NewGuard(sessions, userRepo, ownerRepo)

	// Services
	notificationService := notification.NewService(notificationRepo, app.logger)
	app.ownership = ownership.NewService(petRepo, ownerRepo, inviteRepo, notificationService, app.logger)

	loginLimiter := middleware.NewRateLimiter(app.config.Login.RatePerMinute, app.config.Login.Burst)

	// Handlers
	authHandler := handlers.NewAuthHandler(userRepo, sessions, app.logger)
	petHandler := handlers.NewPetHandler(petRepo, guard, app.logger)
	familyHandler := handlers.NewFamilyHandler(app.ownership, guard, app.logger)
	providerHandler := handlers.NewProviderHandler(providerRepo, guard, app.logger)
	postHandler := handlers.NewPostHandler(postRepo, app.logger)
	reportHandler := handlers.NewReportHandler(reportRepo, notificationService, app.logger)
	notificationHandler := handlers.NewNotificationHandler(notificationService, app.logger)
	adminHandler := handlers.NewAdminHandler(userRepo, app.logger)

	return routes.NewRouter(
		guard,
		loginLimiter,
		authHandler,
		petHandler,
		familyHandler,
		providerHandler,
		postHandler,
		reportHandler,
		notificationHandler,
		adminHandler,
	)
}

// runHousekeeping periodically deletes expired invite rows.
func (app *application) runHousekeeping(ctx context.Context) {
	ticker := time.NewTicker(app.config.Housekeeping.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := app.ownership.PurgeExpired(ctx); err != nil {
				app.logger.Error().Err(err).Msg("invite housekeeping failed")
			}
		}
	}
}

// startServer launches the HTTP server and handles graceful shutdown.
func (app *application) startServer(handler http.Handler, stopHousekeeping context.CancelFunc) {
	server := &http.Server{
		Addr:    ":" + app.config.ServerPort,
		Handler: handler,
	}

	// Channel to listen for server errors
	serverErrCh := make(chan error, 1)
	go func() {
		app.logger.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
	}()

	// Wait for an interrupt signal or a server error.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-quit:
		app.logger.Info().Msgf("Received signal: %s. Shutting down...", sig)
	case err := <-serverErrCh:
		app.logger.Error().Err(err).Msg("Server error occurred")
	}

	stopHousekeeping()

	// Gracefully shut down the HTTP server.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		app.logger.Error().Err(err).Msg("HTTP server shutdown error")
	} else {
		app.logger.Info().Msg("HTTP server shutdown complete.")
	}
}
