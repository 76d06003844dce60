package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"

	"github.com/fitpulse/fitpulse-api/internal/auth"
	"github.com/fitpulse/fitpulse-api/internal/compare"
	"github.com/fitpulse/fitpulse-api/internal/config"
	"github.com/fitpulse/fitpulse-api/internal/database"
	"github.com/fitpulse/fitpulse-api/internal/email"
	"github.com/fitpulse/fitpulse-api/internal/group"
	httpServer "github.com/fitpulse/fitpulse-api/internal/http"
	"github.com/fitpulse/fitpulse-api/internal/logging"
	"github.com/fitpulse/fitpulse-api/internal/notification"
	"github.com/fitpulse/fitpulse-api/internal/progress"
	"github.com/fitpulse/fitpulse-api/internal/ratelimit"
	"github.com/fitpulse/fitpulse-api/internal/settings"
	"github.com/fitpulse/fitpulse-api/internal/subscription"
	"github.com/fitpulse/fitpulse-api/internal/user"
)

// @title           FitPulse API
// @version         1.0
// @description     Fitness progress tracking API with groups, comparisons and leaderboards.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
	)

	// Initialize database connection and run migrations
	db, sqlDB, err := initDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	if err := database.RunMigrations(context.Background(), sqlDB); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Initialize Redis connection
	redisClient, err := initRedis(cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to initialize Redis: %w", err)
	}
	defer redisClient.Close()

	// Initialize repositories
	userRepo := user.NewRepository(db)
	authRepo := auth.NewRepository(db)
	resetRepo := auth.NewResetRepository(db)
	groupRepo := group.NewRepository(db)
	progressRepo := progress.NewRepository(db)
	compareRepo := compare.NewRepository(db)
	notificationRepo := notification.NewRepository(db)
	settingsRepo := settings.NewRepository(db)
	subscriptionRepo := subscription.NewRepository(db)

	// Initialize rate limiter
	rateLimiter := ratelimit.NewLimiter(redisClient)

	// Initialize PASETO service
	pasetoService, err := auth.NewPasetoService(cfg.Auth.PasetoKey)
	if err != nil {
		return fmt.Errorf("failed to initialize PASETO service: %w", err)
	}

	// Initialize email service
	emailService := email.NewService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FrontendURL,
	)

	// Initialize services
	authService := auth.NewService(
		userRepo,
		authRepo,
		resetRepo,
		pasetoService,
		emailService,
		logger,
		cfg.Auth.AccessTokenDuration,
		cfg.Auth.RefreshTokenDuration,
		cfg.Auth.ResetTokenDuration,
		cfg.Auth.MaxSessionsPerUser,
	)
	groupService := group.NewService(groupRepo)

	// Initialize HTTP handlers
	handlers := httpServer.Handlers{
		Auth:          auth.NewHandler(authService, rateLimiter, logger),
		Users:         user.NewHandler(userRepo, auth.GetUserIDFromContext),
		Groups:        group.NewHandler(groupService),
		Progress:      progress.NewHandler(progressRepo),
		Compare:       compare.NewHandler(compareRepo, userRepo),
		Notifications: notification.NewHandler(notificationRepo),
		Settings:      settings.NewHandler(settingsRepo),
		Subscriptions: subscription.NewHandler(subscriptionRepo),
	}
	authMiddleware := auth.NewMiddleware(pasetoService)

	// Initialize router
	router := httpServer.NewRouter(cfg, handlers, authMiddleware, logger)

	// Initialize HTTP server
	serverAddr := ":" + cfg.Server.Port
	server := httpServer.NewServer(
		serverAddr,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
		logger,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	// Wait for interrupt signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		logger.Info("received shutdown signal", "signal", sig.String())

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// initDB initializes the database connection and returns the Bun wrapper
// along with the raw sql.DB used by the migration runner
func initDB(cfg config.DatabaseConfig) (*bun.DB, *sql.DB, error) {
	sqlDB, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify connection
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	return database.NewBunDB(sqlDB), sqlDB, nil
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Verify connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}
