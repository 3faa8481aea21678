package main

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/laserdata/laser-api/internal/config"
	"github.com/laserdata/laser-api/internal/database"
	"github.com/laserdata/laser-api/internal/document/repository"
	"github.com/laserdata/laser-api/internal/document/service"
	"github.com/laserdata/laser-api/internal/lifecycle"
	"github.com/laserdata/laser-api/internal/server"
	"github.com/laserdata/laser-api/pkg/logger"
	"github.com/laserdata/laser-api/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(envFiles...)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Config{Level: cfg.Log.Level, FlushInterval: cfg.Log.FlushInterval})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Close()
	log.Info("config loaded", logger.Fields{
		"environment": cfg.Server.Environment,
		"container":   cfg.Runtime.Container,
		"mongo":       cfg.MongoDB.URI != "",
		"redis":       cfg.Redis.Host != "",
		"logLevel":    logger.ParseLevel(cfg.Log.Level).String(),
	})

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	docs := newDocumentService(cfg, log)
	rdb := connectRedis(cmd.Context(), cfg, log)

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	srv := server.New(server.Deps{Config: cfg, Logger: log, Documents: docs, Redis: rdb})

	lc := lifecycle.New(log, lifecycle.SignalsFor(cfg.Runtime.Container), cfg.Server.ShutdownTimeout)
	lc.OnShutdown("http", srv.Shutdown)
	lc.OnShutdown("mongodb", docs.Close)
	if rdb != nil {
		lc.OnShutdown("redis", func(context.Context) error { return rdb.Close() })
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	served := make(chan error, 1)
	go func() {
		served <- srv.Start()
		cancel()
	}()

	// exits the process on a shutdown signal; returns only if the server stopped first
	_ = lc.Run(ctx)
	if err := <-served; err != nil {
		log.Error("server failed", logger.Fields{"error": err.Error()})
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// newDocumentService picks the document store from configuration. Problems with
// the connection string are reported per request, never at startup.
func newDocumentService(cfg *config.Config, log *logger.Logger) service.Service {
	mc := cfg.MongoDB
	if mc.URI == "" {
		log.Warn("MONGODB_URI is not set; /mongo-test will answer 500")
		return service.NewUnconfiguredService()
	}
	opts := database.ClientOptions(mc)
	if mc.DialPerRequest {
		log.Info("MongoDB: dialing per request", logger.Fields{"database": mc.Database, "collection": mc.Collection})
		return service.NewService(repository.NewDialRepo(opts, mc.Database, mc.Collection, mc.Timeout), mc.Timeout)
	}
	client, err := database.Open(opts)
	if err != nil {
		log.Error("MongoDB client setup failed", logger.Fields{"error": err.Error()})
		return service.NewUnavailableService(err)
	}
	log.Info("MongoDB: pooled client ready", logger.Fields{"database": mc.Database, "collection": mc.Collection, "maxPoolSize": mc.MaxPoolSize})
	return service.NewMongoService(client.Database(mc.Database).Collection(mc.Collection), mc.Timeout)
}

// connectRedis returns a client for the shared rate limiter, or nil when Redis is
// not needed or unreachable.
func connectRedis(ctx context.Context, cfg *config.Config, log *logger.Logger) *redis.Client {
	if !cfg.RateLimit.Enabled || !cfg.RateLimit.UseRedis || cfg.Redis.Host == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr(), Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("failed to connect to Redis; using in-memory rate limiter", logger.Fields{"addr": cfg.Redis.Addr(), "error": err.Error()})
		_ = rdb.Close()
		return nil
	}
	log.Info("Connected to Redis for rate limiting", logger.Fields{"addr": cfg.Redis.Addr()})
	return rdb
}
