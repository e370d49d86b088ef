package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"defense_service/internal/cache"
	"defense_service/internal/certificate"
	"defense_service/internal/config"
	"defense_service/internal/data/memory"
	"defense_service/internal/data/postgres"
	"defense_service/internal/db"
	"defense_service/internal/handler"
	"defense_service/internal/kafka"
	"defense_service/internal/middleware"
	"defense_service/internal/policy"
	"defense_service/internal/probe"
	"defense_service/internal/service"
	"defense_service/pkg/logging"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	zapLogger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}

	logger := logging.New(zapLogger)
	defer logger.Sync()
	ctx = logging.ContextWithLogger(ctx, logger)

	cfg, err := config.New()
	if err != nil {
		logger.Fatal(ctx, "cannot create config", zap.Error(err))
	}

	p, err := policy.Load(cfg.PolicyPath)
	if err != nil {
		logger.Fatal(ctx, "cannot load policy", zap.Error(err))
	}

	var (
		repo   service.Repository
		pinger probe.Pinger
	)
	switch cfg.Storage {
	case config.StorageMemory:
		repo = memory.New()
		logger.Info(ctx, "Using in-memory storage")
	default:
		pool, err := db.New(ctx, cfg)
		if err != nil {
			logger.Fatal(ctx, "cannot create db", zap.Error(err))
		}
		defer pool.Close()
		pgRepo := postgres.NewRepository(pool)
		repo, pinger = pgRepo, pgRepo
	}

	var notifier service.Notifier = kafka.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		sender := kafka.NewEventSender(cfg.KafkaBrokers, cfg.KafkaDefenseTopic)
		defer sender.Close()
		notifier = sender
	}

	var renderer service.CertificateRenderer
	if cfg.S3Endpoint != "" {
		s3Client, err := certificate.NewClient(ctx, cfg)
		if err != nil {
			logger.Fatal(ctx, "cannot create s3 client", zap.Error(err))
		}
		renderer = certificate.NewS3Renderer(s3Client, cfg.CertificateBucket)
	}

	var resultCache handler.Cache = cache.Nop{}
	if cfg.RedisURL != "" {
		rdb, err := cache.NewRedisClient(cfg.RedisURL)
		if err != nil {
			logger.Fatal(ctx, "cannot create redis client", zap.Error(err))
		}
		defer rdb.Close()
		resultCache = cache.NewRedisCache(rdb)
	}

	h := handler.New(
		service.NewThesisService(repo, time.Now),
		service.NewCommitteeService(repo, time.Now),
		service.NewSchedulerService(repo, notifier, &p.Scheduling, time.Now),
		service.NewGradingService(repo, notifier, renderer, p.Grading, time.Now),
		resultCache,
		cfg.ResultCacheTTL,
	)

	r := chi.NewRouter()
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(func(next http.Handler) http.Handler {
		return http.MaxBytesHandler(next, 1<<20)
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	h.RegisterRoutes(r)

	grpcServer := probe.NewServer(logger)
	healthProbe := probe.Register(grpcServer, pinger)
	go healthProbe.Watch(ctx)

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCHealthPort))
	if err != nil {
		logger.Fatal(ctx, "cannot create listener", zap.Error(err))
	}
	go func() {
		if err := grpcServer.Serve(listener); err != nil {
			logger.Fatal(ctx, "failed to serve grpc health", zap.Error(err))
		}
	}()

	port := fmt.Sprintf(":%d", cfg.HTTPPort)
	logger.Info(ctx, "Starting server", zap.String("port", port), zap.Int("grpc_health_port", cfg.GRPCHealthPort))

	srv := &http.Server{
		Addr:              port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "cannot start http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info(ctx, "Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "server forced to shutdown", zap.Error(err))
	}
	grpcServer.GracefulStop()
	logger.Info(ctx, "Server stopped")
}
