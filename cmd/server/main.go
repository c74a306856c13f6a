package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/zombar/veracity/internal/analyzer"
	"github.com/zombar/veracity/internal/api"
	"github.com/zombar/veracity/internal/database"
	"github.com/zombar/veracity/internal/queue"
	"github.com/zombar/veracity/pkg/logging"
	"github.com/zombar/veracity/pkg/metrics"
	"github.com/zombar/veracity/pkg/tracing"
)

func main() {
	// Setup structured logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("veracity service initializing", "version", "1.0.0")

	// Initialize tracing
	tp, err := tracing.InitTracer("veracity")
	if err != nil {
		logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
	} else {
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Error("error shutting down tracer", "error", err)
			}
		}()
		logger.Info("tracing initialized successfully")
	}

	// Get default values from environment variables, with fallbacks
	portDefault := getEnv("PORT", "8080")
	dbPathDefault := getEnv("DB_PATH", "veracity.db")
	redisAddrDefault := getEnv("REDIS_ADDR", "")
	concurrencyDefault := getEnvInt("QUEUE_CONCURRENCY", 5)
	retentionDefault := getEnvInt("RETENTION_DAYS", 30)

	var (
		port          = flag.String("port", portDefault, "Server port (env: PORT)")
		dbPath        = flag.String("db", dbPathDefault, "Database file path (env: DB_PATH)")
		redisAddr     = flag.String("redis", redisAddrDefault, "Redis address for the task queue, empty disables batch analysis (env: REDIS_ADDR)")
		concurrency   = flag.Int("queue-concurrency", concurrencyDefault, "Worker concurrency (env: QUEUE_CONCURRENCY)")
		retentionDays = flag.Int("retention-days", retentionDefault, "Days to keep analyses before the retention sweep deletes them (env: RETENTION_DAYS)")
	)
	flag.Parse()

	// Initialize database
	db, err := database.New(*dbPath)
	if err != nil {
		logger.Error("failed to initialize database", "error", err, "database_path", *dbPath)
		os.Exit(1)
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate(); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Initialize database metrics
	dbMetrics := metrics.NewDatabaseMetrics("veracity")
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			dbMetrics.UpdateDBStats(db.Conn())
		}
	}()
	logger.Info("database metrics initialized")

	// Business metrics are shared between the HTTP handler and the queue
	// worker so both paths feed the same series
	businessMetrics := metrics.NewBusinessMetrics("veracity")

	truthAnalyzer := analyzer.New()

	// The task queue is optional; without Redis the service still serves
	// synchronous analyses
	var queueClient *queue.Client
	var worker *queue.Worker
	var scheduler *queue.Scheduler
	if *redisAddr != "" {
		queueClient = queue.NewClient(queue.ClientConfig{RedisAddr: *redisAddr})
		defer queueClient.Close()

		worker = queue.NewWorker(queue.WorkerConfig{
			RedisAddr:     *redisAddr,
			Concurrency:   *concurrency,
			RetentionDays: *retentionDays,
		}, db, truthAnalyzer, businessMetrics)
		go func() {
			if err := worker.Start(); err != nil {
				logger.Error("queue worker failed", "error", err)
				os.Exit(1)
			}
		}()

		scheduler, err = queue.NewScheduler(*redisAddr)
		if err != nil {
			logger.Error("failed to initialize scheduler", "error", err)
			os.Exit(1)
		}
		go func() {
			if err := scheduler.Run(); err != nil {
				logger.Error("scheduler failed", "error", err)
				os.Exit(1)
			}
		}()

		logger.Info("task queue initialized", "redis_addr", *redisAddr, "concurrency", *concurrency)
	} else {
		logger.Info("task queue disabled, batch analysis unavailable")
	}

	// Initialize API handler. A nil interface value keeps the batch endpoint
	// returning 503 when the queue is disabled.
	var apiQueueClient api.QueueClient
	if queueClient != nil {
		apiQueueClient = queueClient
	}
	apiHandler := api.NewHandler(db, truthAnalyzer, apiQueueClient, businessMetrics)

	// Wrap handler with middleware chain: HTTP logging -> tracing -> handlers
	handler := logging.HTTPLoggingMiddleware(logger)(
		tracing.HTTPMiddleware("veracity")(apiHandler),
	)

	srv := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("veracity service starting",
			"port", *port,
			"database", *dbPath,
			"queue_enabled", *redisAddr != "",
			"retention_days", *retentionDays,
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	if scheduler != nil {
		scheduler.Shutdown()
	}
	if worker != nil {
		worker.Shutdown()
	}

	logger.Info("server stopped")
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
