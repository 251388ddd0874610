package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/Leganyst/booking-core/internal/commerce"
	"github.com/Leganyst/booking-core/internal/config"
	"github.com/Leganyst/booking-core/internal/db"
	"github.com/Leganyst/booking-core/internal/events"
	"github.com/Leganyst/booking-core/internal/httpapi"
	"github.com/Leganyst/booking-core/internal/idempotency"
	"github.com/Leganyst/booking-core/internal/logger"
	"github.com/Leganyst/booking-core/internal/model"
	"github.com/Leganyst/booking-core/internal/scheduling"
	"github.com/Leganyst/booking-core/internal/service"
	"github.com/Leganyst/booking-core/internal/telemetry"
	"github.com/Leganyst/booking-core/internal/worker"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "booking-core: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Config from env.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		ServiceName: cfg.App.Name,
		Development: !cfg.IsProduction(),
	})
	defer func() { _ = log.Sync() }()

	shutdownTracing, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:       cfg.OTel.Enabled,
		ServiceName:   cfg.OTel.ServiceName,
		Environment:   cfg.App.Environment,
		CollectorAddr: cfg.OTel.CollectorAddr,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}

	// 2. Database and migrations.
	gormDB, err := db.NewGormDB(&cfg.DB, log)
	if err != nil {
		return fmt.Errorf("init db: %w", err)
	}
	defer func() { _ = db.Close(gormDB) }()

	if cfg.DB.AutoMigrate {
		if err := model.AutoMigrate(gormDB); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
	}

	// 3. Post-commit event delivery and request dedupe.
	publisher, err := newPublisher(cfg, log)
	if err != nil {
		return fmt.Errorf("init publisher: %w", err)
	}
	defer func() { _ = publisher.Close() }()

	idem, err := newIdempotencyStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init idempotency store: %w", err)
	}
	if idem != nil {
		defer func() { _ = idem.Close() }()
	}

	// 4. Domain services.
	svc := scheduling.NewService(gormDB, scheduling.Options{
		HoldTTL:     cfg.Scheduling.HoldTTL,
		SweepBatch:  cfg.Scheduling.SweepBatch,
		Publisher:   publisher,
		Idempotency: idem,
		Logger:      log.Named("scheduling"),
	})
	linker := commerce.NewLinker(gormDB, log.Named("commerce"))

	var sweeper *worker.ExpiryWorker
	if cfg.Scheduling.SweepEnabled {
		sweeper = worker.NewExpiryWorker(svc, log, &worker.ExpiryWorkerConfig{
			ScanInterval: cfg.Scheduling.SweepInterval,
			ScanTimeout:  cfg.Scheduling.SweepInterval,
		})
		sweeper.Start(ctx)
	}

	// 5. gRPC server.
	grpcServer, health := service.NewServer(
		service.NewCalendarService(svc),
		service.NewAdminService(svc, linker),
		service.ServerOptions{Reflection: cfg.GRPC.Reflection, Logger: log.Named("grpc")},
	)
	lis, err := net.Listen("tcp", cfg.GRPC.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.GRPC.Addr, err)
	}

	errCh := make(chan error, 2)
	go func() {
		log.Info("grpc server listening", zap.String("addr", cfg.GRPC.Addr))
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc serve: %w", err)
		}
	}()

	// 6. HTTP server.
	var httpServer *http.Server
	if cfg.HTTP.Enabled {
		if cfg.IsProduction() {
			gin.SetMode(gin.ReleaseMode)
		}
		router := httpapi.NewRouter(
			httpapi.NewHandler(svc, linker, log.Named("http")),
			httpapi.RouterConfig{
				JWT:    httpapi.JWTConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer},
				Logger: log.Named("http"),
			},
		)
		httpServer = &http.Server{
			Addr:         cfg.HTTP.Addr,
			Handler:      router,
			ReadTimeout:  cfg.HTTP.ReadTimeout,
			WriteTimeout: cfg.HTTP.WriteTimeout,
		}
		go func() {
			log.Info("http server listening", zap.String("addr", cfg.HTTP.Addr))
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("http serve: %w", err)
			}
		}()
	}

	// 7. Graceful shutdown on signal or server failure.
	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err = <-errCh:
		log.Error("server failed, shutting down", zap.Error(err))
	}

	health.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if httpServer != nil {
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Warn("http shutdown", zap.Error(err))
		}
	}
	grpcServer.GracefulStop()
	if sweeper != nil {
		sweeper.Stop()
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn("tracer shutdown", zap.Error(err))
	}
	return err
}

func newPublisher(cfg *config.Config, log *zap.Logger) (events.Publisher, error) {
	switch cfg.Events.Driver {
	case "amqp":
		return events.NewAMQPPublisher(cfg.Events.AMQPURL, cfg.Events.AMQPExchange)
	case "kafka":
		return events.NewKafkaPublisher(cfg.Events.KafkaBrokers, cfg.Events.KafkaTopic, cfg.App.Name)
	case "none":
		return events.NewLogPublisher(zap.NewNop()), nil
	default:
		return events.NewLogPublisher(log.Named("events")), nil
	}
}

// newIdempotencyStore prefers Redis, falls back to a local Bolt file, and
// returns nil when neither is configured.
func newIdempotencyStore(ctx context.Context, cfg *config.Config) (idempotency.Store, error) {
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:        cfg.Redis.Addr,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			DialTimeout: cfg.Redis.DialTimeout,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		return idempotency.NewRedisStore(client, cfg.Redis.KeyTTL), nil
	}
	if cfg.Bolt.Path != "" {
		return idempotency.NewBoltStore(cfg.Bolt.Path, cfg.Redis.KeyTTL)
	}
	return nil, nil
}
