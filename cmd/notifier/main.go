package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rabbitmq/amqp091-go"

	dbadapter "github.com/plotbid/plotbid/internal/adapters/database"
	eventsadapter "github.com/plotbid/plotbid/internal/adapters/events"
	"github.com/plotbid/plotbid/internal/config"
	"github.com/plotbid/plotbid/internal/domain/bids"
)

// The notifier records notification delivery: it consumes bid.decided events
// and flips the decided bid's notified flag.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("Unable to create connection pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if pingErr := pool.Ping(ctx); pingErr != nil {
		logger.Error("Unable to ping database", "error", pingErr)
		os.Exit(1)
	}
	logger.Info("Postgres Connected")

	if cfg.RabbitMQURL == "" {
		logger.Error("RABBITMQ_URL is not set")
		os.Exit(1)
	}
	amqpConn, err := amqp091.Dial(cfg.RabbitMQURL)
	if err != nil {
		logger.Error("Failed to connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer amqpConn.Close()
	logger.Info("RabbitMQ Connected")

	// MarkNotified needs no property lock, so the consumer talks straight to
	// the repository through the service.
	txManager := dbadapter.NewPostgresTransactionManager(pool, cfg.LockTimeout)
	propertyRepo := dbadapter.NewPostgresPropertyRepository(pool)
	bidRepo := dbadapter.NewPostgresBidRepository(pool)
	outboxRepo := dbadapter.NewPostgresOutboxRepository(pool)

	auctionService := bids.NewService(txManager, bidRepo, propertyRepo, outboxRepo, bids.Config{
		BidWindow:       cfg.BidWindow,
		FloorMultiplier: cfg.FloorMultiplier,
	})

	consumer := eventsadapter.NewNotifierConsumer(amqpConn, auctionService, logger)

	logger.Info("Starting notifier worker...")
	if err := consumer.Run(ctx); err != nil {
		logger.Error("Notifier stopped", "error", err)
		os.Exit(1)
	}
}
