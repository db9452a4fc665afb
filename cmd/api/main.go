package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/flicky/storefront/internal/config"
	"github.com/flicky/storefront/internal/handler"
	"github.com/flicky/storefront/internal/repository"
	"github.com/flicky/storefront/internal/seed"
	"github.com/flicky/storefront/internal/service"
	"github.com/flicky/storefront/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}))
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("storefront stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	store := repository.NewStore()
	userRepo := repository.NewUserRepository(store)
	productRepo := repository.NewProductRepository(store)
	cartRepo := repository.NewCartRepository(store)
	orderRepo := repository.NewOrderRepository(store)
	activityRepo := repository.NewActivityRepository(store)

	if cfg.Store.Seed {
		if err := seed.Load(ctx, productRepo, userRepo); err != nil {
			return fmt.Errorf("seed store: %w", err)
		}
		log.Info("seeded demo catalog and accounts")
	}

	redisClient, err := connectRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		log.Info("connected to Redis", "addr", cfg.Redis.Addr)
	}

	amqpConn, amqpCh, err := connectRabbitMQ(cfg.RabbitMQ)
	if err != nil {
		return err
	}
	if amqpConn != nil {
		defer amqpConn.Close()
		defer amqpCh.Close()
		log.Info("connected to RabbitMQ")
	}

	// Without a broker, order events go straight to the worker.
	orderWorker := worker.NewOrderWorker(amqpCh, activityRepo, worker.NewDeduper(redisClient), log)
	var publisher service.EventPublisher = worker.NewDirectPublisher(orderWorker)
	if amqpCh != nil {
		publisher = worker.NewPublisher(amqpCh)
		if err := orderWorker.Start(ctx); err != nil {
			return fmt.Errorf("start order worker: %w", err)
		}
		defer orderWorker.Stop()
	}

	svc := handler.Services{
		Auth:      service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration),
		Product:   service.NewProductService(productRepo, redisClient),
		Cart:      service.NewCartService(cartRepo, productRepo),
		Order:     service.NewOrderService(orderRepo, cartRepo, publisher, log),
		Dashboard: service.NewDashboardService(productRepo, orderRepo, activityRepo),
	}
	router := handler.NewRouter(handler.RouterOptions{
		Logger:         log,
		Latency:        cfg.Store.Latency,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	}, svc, handler.NewHealthHandler(redisClient, amqpConn))

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting HTTP server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}

// connectRedis returns a nil client when no address is configured.
func connectRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to Redis: %w", err)
	}
	return client, nil
}

// connectRabbitMQ returns nils when no URL is configured.
func connectRabbitMQ(cfg config.RabbitMQConfig) (*amqp.Connection, *amqp.Channel, error) {
	if cfg.URL == "" {
		return nil, nil, nil
	}
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("open RabbitMQ channel: %w", err)
	}
	if err := worker.SetupRabbitMQ(ch); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("setup RabbitMQ: %w", err)
	}
	return conn, ch, nil
}
