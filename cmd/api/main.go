package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"

	"inventory-api/internal/auth"
	"inventory-api/internal/config"
	"inventory-api/internal/database"
	"inventory-api/internal/email"
	httpServer "inventory-api/internal/http"
	"inventory-api/internal/logging"
	"inventory-api/internal/product"
	"inventory-api/internal/storage"
	"inventory-api/internal/user"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
	)

	db, err := initDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	// Redis is optional: without it, product reads go straight to Postgres.
	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = initRedis(cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to initialize Redis: %w", err)
		}
		defer redisClient.Close()
	} else {
		logger.Info("redis not configured, product cache disabled")
	}

	// Image storage is optional: without it, image uploads are rejected.
	var imageStore product.ObjectStore
	if cfg.Storage.Bucket != "" {
		s3Store, err := storage.NewS3Store(context.Background(), cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to initialize image storage: %w", err)
		}
		imageStore = s3Store
	} else {
		logger.Info("object storage not configured, image uploads disabled")
	}

	// Repositories
	userRepo := user.NewRepository(db)
	resetTokenRepo := auth.NewBunResetTokenRepository(db)
	productRepo := product.NewRepository(db)
	productStore := product.NewCachingStore(redisClient, 5*time.Minute, productRepo)

	// Session token provider
	tokenService, err := newTokenService(cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to initialize token service: %w", err)
	}

	emailService := email.NewService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
	)

	resetTokenService := auth.NewResetTokenService(resetTokenRepo, cfg.Auth.ResetTokenDuration)
	authService := auth.NewService(
		userRepo,
		resetTokenService,
		tokenService,
		auth.NewPasswordHasher(),
		emailService,
		logger,
		cfg.Email.FrontendURL,
	)
	productService := product.NewService(productStore, imageStore, logger)

	// HTTP layer
	authHandler := auth.NewHandler(authService, logger, cfg.Server.IsDevelopment(), cfg.Auth.SessionTokenDuration)
	authMiddleware := auth.NewMiddleware(tokenService)
	productHandler := product.NewHandler(productService, logger, cfg.Server.IsDevelopment())

	router := httpServer.NewRouter(cfg, authHandler, authMiddleware, productHandler, logger)

	server := httpServer.NewServer(
		":"+cfg.Server.Port,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Printf("Received signal: %v", sig)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// newTokenService selects the session token provider from configuration.
func newTokenService(cfg config.AuthConfig) (auth.TokenService, error) {
	switch cfg.Provider {
	case "paseto":
		return auth.NewPasetoService(cfg.Secret, cfg.SessionTokenDuration)
	default:
		return auth.NewJWTService(cfg.Secret, cfg.SessionTokenDuration)
	}
}

// initDB initializes the database connection and returns a Bun DB instance.
func initDB(cfg config.DatabaseConfig) (*bun.DB, error) {
	sqlDB, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	return database.NewBunDB(sqlDB), nil
}

// initRedis initializes the Redis connection and returns a Redis client.
func initRedis(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}
