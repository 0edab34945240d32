package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	apiadapter "github.com/plotbid/plotbid/internal/adapters/api"
	dbadapter "github.com/plotbid/plotbid/internal/adapters/database"
	eventsadapter "github.com/plotbid/plotbid/internal/adapters/events"
	"github.com/plotbid/plotbid/internal/config"
	"github.com/plotbid/plotbid/internal/domain/bids"
	"github.com/plotbid/plotbid/internal/domain/properties"
	"github.com/plotbid/plotbid/internal/predictor"
	"github.com/plotbid/plotbid/migrations"
	"github.com/plotbid/plotbid/pkg/auth"
	pkgevents "github.com/plotbid/plotbid/pkg/events"
)

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

	// Postgres
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

	if err := runMigrations(cfg.DatabaseURL); err != nil {
		logger.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	// RabbitMQ
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

	rabbitPublisher, err := eventsadapter.NewRabbitMQPublisher(amqpConn)
	if err != nil {
		logger.Error("Failed to create RabbitMQ publisher", "error", err)
		os.Exit(1)
	}
	defer rabbitPublisher.Close()

	// Repositories
	txManager := dbadapter.NewPostgresTransactionManager(pool, cfg.LockTimeout)
	propertyRepo := dbadapter.NewPostgresPropertyRepository(pool)
	bidRepo := dbadapter.NewPostgresBidRepository(pool)
	outboxRepo := dbadapter.NewPostgresOutboxRepository(pool)

	// Domain services
	propertyService := properties.NewService(propertyRepo)
	auctionService := bids.NewService(txManager, bidRepo, propertyRepo, outboxRepo, bids.Config{
		BidWindow:       cfg.BidWindow,
		FloorMultiplier: cfg.FloorMultiplier,
	})

	// Price predictor, with a Redis read-through cache when available
	var pricePredictor predictor.Predictor = predictor.NewHTTPPredictor(cfg.PredictorURL, 10*time.Second)
	if cfg.RedisURL != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisURL})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis connection failed, predictions are uncached", "error", err)
		} else {
			logger.Info("Redis Connected")
			pricePredictor = predictor.NewCachedPredictor(pricePredictor, rdb, cfg.PredictorTTL, logger)
		}
	}

	// Token validation against the external identity service
	var signer *auth.Signer
	if cfg.JWTPublicKeyPath != "" {
		publicKey, err := os.ReadFile(cfg.JWTPublicKeyPath)
		if err != nil {
			logger.Error("Failed to read JWT public key", "error", err)
			os.Exit(1)
		}
		signer, err = auth.NewSignerFromPublicKey(publicKey, cfg.JWTIssuer)
		if err != nil {
			logger.Error("Failed to create token validator", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Warn("JWT_PUBLIC_KEY_PATH not set, running without authentication")
	}

	handler := apiadapter.NewHandler(auctionService, propertyService, pricePredictor)
	router := apiadapter.SetupRouter(handler, signer)

	outboxRelay := pkgevents.NewOutboxRelay(
		outboxRepo,
		rabbitPublisher,
		txManager,
		cfg.OutboxBatchSize,
		cfg.OutboxInterval,
		eventsadapter.AuctionExchange,
		logger,
	)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting Outbox Relay...")
		return outboxRelay.Run(gctx)
	})

	g.Go(func() error {
		logger.Info("Starting API", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Service stopped", "error", err)
		os.Exit(1)
	}
}

func runMigrations(databaseURL string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	return migrations.Up(db)
}
