// Package main runs the lucky draw HTTP service.
package main

import (
	"context"
	"database/sql"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/R3E-Network/luckydraw/internal/api"
	"github.com/R3E-Network/luckydraw/internal/config"
	"github.com/R3E-Network/luckydraw/internal/draw"
	"github.com/R3E-Network/luckydraw/internal/events"
	"github.com/R3E-Network/luckydraw/internal/middleware"
	"github.com/R3E-Network/luckydraw/internal/storage"
	"github.com/R3E-Network/luckydraw/internal/storage/memory"
	"github.com/R3E-Network/luckydraw/internal/storage/postgres"
	"github.com/R3E-Network/luckydraw/internal/token"
	"github.com/R3E-Network/luckydraw/internal/vrf"
	"github.com/R3E-Network/luckydraw/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config/luckydraw.yaml", "Path to config file")
	flag.Parse()

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.LoadFromPath(*configPath)
	if err != nil {
		logger.NewDefault("luckydraw").WithError(err).Fatal("Failed to load configuration")
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log := logger.New("luckydraw", level)
	log.WithField("listen_addr", cfg.HTTP.ListenAddr).Info("Starting lucky draw service")

	store, closeStore, err := openStore(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to open store")
	}
	defer closeStore()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := buildEventSink(ctx, cfg, log)

	coordinator := vrf.NewLocal(log, 64)
	go coordinator.Run(ctx)

	svc := draw.New(cfg.Owner, store, token.NewBank("luckydraw-custody"), coordinator, log)
	svc.WithEvents(sink)
	svc.WithRandomnessConfig(cfg.Randomness)

	var auth mux.MiddlewareFunc
	if cfg.Auth.JWTSecret != "" {
		auth = middleware.Auth(cfg.Auth.JWTSecret)
	} else {
		log.Warn("JWT secret not configured; write routes trust the caller header")
	}

	router := api.New(svc, log).Router(auth)
	router.Use(middleware.Logging(log))
	router.Use(middleware.Metrics())

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, log)

	server := &http.Server{
		Addr:         cfg.HTTP.ListenAddr,
		Handler:      middleware.CORS(limiter.Handler(router)),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.WithField("addr", cfg.HTTP.ListenAddr).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.WithError(err).Fatal("Server error")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("Shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}
}

func openStore(cfg *config.Config, log *logger.Logger) (storage.DrawStore, func(), error) {
	if cfg.Database.URL == "" {
		log.Info("No database configured; using in-memory store")
		return memory.New(), func() {}, nil
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, nil, err
	}
	if err := postgres.Migrate(db); err != nil {
		db.Close()
		return nil, nil, err
	}
	log.Info("Connected to postgres")
	return postgres.New(db), func() { db.Close() }, nil
}

func buildEventSink(ctx context.Context, cfg *config.Config, log *logger.Logger) events.Sink {
	sinks := []events.Sink{events.NewLogSink(log)}
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			log.WithError(err).Warn("Redis unreachable; events will only be logged")
		} else {
			sinks = append(sinks, events.NewRedisSink(client, cfg.Redis.Channel))
		}
	}
	return events.Multi(sinks)
}
