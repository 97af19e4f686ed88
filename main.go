package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"onboardbuddy/config"
	"onboardbuddy/middleware"
	"onboardbuddy/routes"
	"onboardbuddy/stores"
	"onboardbuddy/utils"
	"onboardbuddy/worker"

	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := log.New(os.Stdout, "SERVER: ", log.Ldate|log.Ltime|log.Lshortfile)

	if err := config.LoadConfig(); err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}
	cfg := config.AppConfig

	if cfg.Environment == "production" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.Environment,
		}); err != nil {
			logger.Printf("Sentry initialization failed: %v", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	if err := config.ConnectDB(); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	var (
		redisClient  *redis.Client
		limitStorage fiber.Storage
	)
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Fatalf("Failed to connect to redis: %v", err)
		}
		limitStorage = middleware.NewRedisStorage(redisClient)
	}

	var backend stores.SnapshotBackend = stores.NewGormBackend(config.DB)
	if cfg.SnapshotBackend == "redis" {
		backend = stores.NewRedisBackend(redisClient)
	}

	storage := utils.NewObjectStorage(cfg.Storage)
	cleanupWorker := worker.NewImageCleanupWorker(storage, log.New(os.Stdout, "CLEANUP: ", log.LstdFlags))

	registry := stores.NewRegistry(backend, stores.WorkspaceOptions{
		Cleaner:  cleanupWorker,
		Location: config.Location(),
	})
	cleanupWorker.Registry = registry

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go cleanupWorker.Start(ctx)

	dueDateWorker := worker.NewDueDateWorker(registry, log.New(os.Stdout, "DUEDATE: ", log.LstdFlags))
	go dueDateWorker.Start(ctx)

	app := fiber.New(fiber.Config{
		BodyLimit: utils.MaxUploadSize + 1024*1024,
	})
	app.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.AllowedOrigins()...)))

	routes.SetupRoutes(app, routes.Dependencies{
		DB:           config.DB,
		Config:       cfg,
		Registry:     registry,
		Storage:      storage,
		Mailer:       utils.NewMailer(cfg),
		LimitStorage: limitStorage,
	})

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "running",
			"version": "1.0.0",
		})
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit

		logger.Println("Shutting down...")
		cancel()

		saveCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
		defer done()
		registry.Each(func(w *stores.Workspace) {
			if err := registry.Save(saveCtx, w.AccountID); err != nil {
				logger.Printf("Failed to save workspace %d: %v", w.AccountID, err)
			}
		})
		if err := app.Shutdown(); err != nil {
			logger.Printf("Server shutdown failed: %v", err)
		}
	}()

	logger.Printf("🚀 Server starting on port %s", cfg.ServerPort)
	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
	if redisClient != nil {
		redisClient.Close()
	}
}
