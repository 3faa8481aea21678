package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/laserdata/laser-api/handlers"
	"github.com/laserdata/laser-api/internal/config"
	"github.com/laserdata/laser-api/internal/document/handler"
	"github.com/laserdata/laser-api/internal/document/service"
	"github.com/laserdata/laser-api/pkg/logger"
	"github.com/laserdata/laser-api/pkg/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// Deps are the collaborators the server routes to.
type Deps struct {
	Config    *config.Config
	Logger    *logger.Logger
	Documents service.Service
	// Redis is optional; it backs the shared rate limiter when configured.
	Redis *redis.Client
}

type Server struct {
	engine *gin.Engine
	server *http.Server
	log    *logger.Logger
}

// New builds the gin engine and registers every route.
func New(d Deps) *Server {
	cfg, log := d.Config, d.Logger

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log, cfg.Runtime.Project), middleware.AccessLog(log))

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && d.Redis != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(d.Redis, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	handlers.RegisterGreetingRoutes(r, log)
	handler.RegisterDocumentRoutes(r, d.Documents, log)
	handlers.RegisterHealthRoutes(r, d.Documents, cfg.MongoDB.Timeout)
	handlers.RegisterSwagger(r)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return &Server{
		engine: r,
		log:    log,
		server: &http.Server{
			Addr:         cfg.Server.Addr(),
			Handler:      r,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}
}

// Handler returns the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// Start listens on the configured address. It returns nil after Shutdown.
func (s *Server) Start() error {
	s.log.Info("Starting server", logger.Fields{"addr": s.server.Addr})
	return ignoreClosed(s.server.ListenAndServe())
}

// Serve accepts connections on l. It returns nil after Shutdown.
func (s *Server) Serve(l net.Listener) error {
	return ignoreClosed(s.server.Serve(l))
}

// Shutdown stops accepting connections and waits for in-flight requests until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Initiating graceful server shutdown")
	return s.server.Shutdown(ctx)
}

func ignoreClosed(err error) error {
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
