package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"loan-engine/internal/api"
	mw "loan-engine/internal/api/middleware"
	"loan-engine/internal/batch"
	"loan-engine/internal/config"
	"loan-engine/internal/domain/loan"
	"loan-engine/internal/event"
	"loan-engine/internal/infrastructure/database/postgres"
)

const (
	rabbitDialAttempts = 5
	rabbitDialBackoff  = 2 * time.Second
	limiterSweepEvery  = 10 * time.Minute
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the reminder scheduler and the payment consumer",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfigAndLogger(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := initializeDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeDatabase(dbPool, logger)

	loanRepo := postgres.NewLoanRepository(dbPool, logger)
	rates, err := loan.NewRateTable(cfg.Loan.DefaultRates)
	if err != nil {
		return fmt.Errorf("invalid loan.defaultRates: %w", err)
	}

	var publisher event.EventPublisher = event.NewNoopPublisher(logger)
	rabbitConn := setupRabbitMQ(cfg.RabbitMQ, logger)
	if rabbitConn != nil {
		defer closeRabbitMQ(rabbitConn, logger)
		rabbitPublisher, err := event.NewRabbitMQEventPublisher(rabbitConn, cfg.RabbitMQ.ExchangeName, logger)
		if err != nil {
			return fmt.Errorf("failed to create event publisher: %w", err)
		}
		publisher = rabbitPublisher
	}

	loanService := loan.NewLoanService(loanRepo, rates, logger,
		loan.WithClosurePublisher(publisher),
		loan.WithMaxTenure(cfg.Loan.MaxTenureMonths),
	)

	if rabbitConn != nil {
		consumer, err := startPaymentConsumer(ctx, rabbitConn, cfg.RabbitMQ, loanService, logger)
		if err != nil {
			return err
		}
		defer consumer.Stop()
	}

	reminderJob := batch.NewEMIReminderJob(loanRepo, loanService, publisher, logger,
		batch.WithLeadDays(cfg.Batch.ReminderLeadDays),
		batch.WithConcurrency(cfg.Batch.ReminderConcurrency),
	)
	cronScheduler := startBatchJobs(cfg.Batch, logger, reminderJob)
	defer stopBatchJobs(cronScheduler, logger)

	limiter, closeLimiter := setupRateLimiter(ctx, cfg, logger)
	defer closeLimiter()

	router := api.SetupRouter(loanService, cfg, limiter, logger)
	return runServer(ctx, cfg.Server, router, logger)
}

func initializeDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	logger.Info("Initializing database connection pool...")
	dbPool, err := postgres.NewConnectionPool(ctx, cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database connection pool: %w", err)
	}

	if cfg.Database.MigrateOnStart {
		if err := postgres.RunMigrations(dbPool, postgres.MigrateUp, logger); err != nil {
			dbPool.Close()
			return nil, err
		}
	}
	return dbPool, nil
}

func closeDatabase(dbPool *pgxpool.Pool, logger *slog.Logger) {
	logger.Info("Closing database connection pool...")
	dbPool.Close()
}

// setupRabbitMQ returns nil when no broker is configured; events are then
// dropped by the no-op publisher and no payment consumer runs.
func setupRabbitMQ(cfg config.RabbitMQConfig, logger *slog.Logger) *amqp.Connection {
	if cfg.Host == "" {
		logger.Warn("RabbitMQ host not configured; events will not be published")
		return nil
	}

	var lastErr error
	for attempt := 1; attempt <= rabbitDialAttempts; attempt++ {
		conn, err := connectRabbitMQ(cfg, logger)
		if err == nil {
			return conn
		}
		lastErr = err
		logger.Warn("RabbitMQ not reachable yet", "attempt", attempt, "maxAttempts", rabbitDialAttempts, slog.Any("error", err))
		time.Sleep(time.Duration(attempt) * rabbitDialBackoff)
	}
	logger.Error("Giving up on RabbitMQ; events will not be published", slog.Any("error", lastErr))
	return nil
}

func connectRabbitMQ(cfg config.RabbitMQConfig, logger *slog.Logger) (*amqp.Connection, error) {
	logger.Info("Connecting to RabbitMQ", "host", cfg.Host, "port", cfg.Port)
	uri := amqp.URI{
		Scheme:   "amqp",
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
		Vhost:    "/",
	}

	conn, err := amqp.Dial(uri.String())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	logger.Info("RabbitMQ connection established.")

	go func() {
		if closeErr := <-conn.NotifyClose(make(chan *amqp.Error, 1)); closeErr != nil {
			logger.Error("RabbitMQ connection closed unexpectedly", slog.Any("error", closeErr))
		}
	}()

	return conn, nil
}

func closeRabbitMQ(conn *amqp.Connection, logger *slog.Logger) {
	logger.Info("Closing RabbitMQ connection...")
	if err := conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		logger.Error("Error closing RabbitMQ connection", slog.Any("error", err))
	}
}

func startPaymentConsumer(ctx context.Context, conn *amqp.Connection, cfg config.RabbitMQConfig, recorder event.PaymentRecorder, logger *slog.Logger) (*event.Consumer, error) {
	handler := event.NewPaymentEventHandler(recorder, logger)
	consumer, err := event.NewConsumer(conn, event.ConsumerConfig{
		Exchange:    cfg.ExchangeName,
		Queue:       cfg.PaymentQueue,
		Tag:         cfg.ConsumerTag,
		RoutingKeys: []string{event.RoutingKeyPaymentCompleted},
	}, handler.HandleDelivery, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment consumer: %w", err)
	}
	if err := consumer.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start payment consumer: %w", err)
	}
	return consumer, nil
}

func setupRateLimiter(ctx context.Context, cfg *config.Config, logger *slog.Logger) (mw.Limiter, func()) {
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		err := client.Ping(pingCtx).Err()
		if err == nil {
			logger.Info("Using Redis rate limiter", "addr", cfg.Redis.Addr)
			return mw.NewRedisRateLimiter(cfg.Server.RateLimit, client, logger), func() { _ = client.Close() }
		}
		logger.Warn("Redis unreachable, falling back to in-process rate limiter", "addr", cfg.Redis.Addr, slog.Any("error", err))
		_ = client.Close()
	}

	limiter := mw.NewRateLimiterMiddleware(cfg.Server.RateLimit, logger)
	stop := make(chan struct{})
	go limiter.Cleanup(limiterSweepEvery, stop)
	return limiter, func() { close(stop) }
}

func startBatchJobs(cfg config.BatchConfig, logger *slog.Logger, reminderJob *batch.EMIReminderJob) *cron.Cron {
	logger.Info("Initializing batch job scheduler...")
	c := cron.New()

	scheduleSpec := cfg.ReminderSchedule
	if scheduleSpec == "" {
		scheduleSpec = "0 8 * * *"
		logger.Warn("Reminder schedule not configured, using default", "schedule", scheduleSpec)
	}
	jobTimeout := cfg.ReminderTimeout
	if jobTimeout <= 0 {
		jobTimeout = 30 * time.Minute
	}

	jobID, err := c.AddJob(scheduleSpec, cron.FuncJob(func() {
		jobLogger := logger.With("job_name", "EMIReminder")
		jobLogger.Info("Cron triggered: Running EMI reminder job.")

		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		if runErr := reminderJob.Run(ctx); runErr != nil {
			jobLogger.Error("EMI reminder job finished with error", slog.Any("error", runErr))
		}
	}))
	if err != nil {
		logger.Error("Failed to schedule EMI reminder job", "schedule", scheduleSpec, slog.Any("error", err))
	} else {
		logger.Info("Scheduled EMI reminder job", "schedule", scheduleSpec, "job_id", jobID)
	}

	c.Start()
	logger.Info("Cron scheduler started.")
	return c
}

func stopBatchJobs(c *cron.Cron, logger *slog.Logger) {
	logger.Info("Stopping cron scheduler...")
	select {
	case <-c.Stop().Done():
		logger.Info("Cron scheduler stopped gracefully.")
	case <-time.After(15 * time.Second):
		logger.Warn("Cron scheduler shutdown timed out.")
	}
}

func runServer(ctx context.Context, cfg config.ServerConfig, router http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Server listening", "port", cfg.Port)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server exited unexpectedly: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("Shutdown signal received. Starting graceful shutdown...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server graceful shutdown failed", "error", err)
		if closeErr := srv.Close(); closeErr != nil {
			logger.Error("HTTP server forced close failed", "error", closeErr)
		}
		return err
	}

	if err := <-serverErrors; err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Warn("Server goroutine exited with unexpected error after shutdown", "error", err)
	}
	logger.Info("HTTP server gracefully stopped.")
	return nil
}
