package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/amikeal/sms-checkin-relay/internal/di"
	"github.com/amikeal/sms-checkin-relay/internal/repository"
	"github.com/amikeal/sms-checkin-relay/pkg/config"
	"github.com/amikeal/sms-checkin-relay/pkg/database"
	"github.com/amikeal/sms-checkin-relay/pkg/logger"
	"github.com/amikeal/sms-checkin-relay/pkg/middleware"
	"github.com/amikeal/sms-checkin-relay/pkg/redis"
	"github.com/amikeal/sms-checkin-relay/pkg/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(&logger.Config{
		Level:       logLevel(cfg),
		ServiceName: cfg.App.Name,
		Development: cfg.IsDevelopment(),
	}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	log := logger.Get()
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err := telemetry.Init(ctx, &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    cfg.OTel.ServiceName,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
	}); err != nil {
		log.Fatal("failed to initialize telemetry", zap.Error(err))
	}

	db, err := database.NewPostgres(ctx, postgresConfig(cfg))
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := repository.EnsureSchema(ctx, db.Pool()); err != nil {
		log.Fatal("failed to ensure database schema", zap.Error(err))
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = redis.NewClient(ctx, &redis.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			log.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer redisClient.Close()
	}

	container := di.NewContainer(cfg, db, redisClient)
	router := setupRouter(cfg, container)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("environment", cfg.App.Environment),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
	}
	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		log.Error("telemetry shutdown failed", zap.Error(err))
	}
	log.Info("server stopped")
}

func setupRouter(cfg *config.Config, c *di.Container) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger.Get()))

	router.GET("/health", c.HealthHandler.Health)

	// Carrier webhook. Authenticated upstream by the carrier's signed
	// callback URL, not by JWT.
	router.POST("/webhook/inbound", c.InboundHandler.Handle)

	// Admin API
	api := router.Group("/api/v1")
	api.Use(middleware.JWTMiddleware(&middleware.JWTConfig{
		Secret: cfg.JWT.Secret,
	}))
	{
		api.POST("/tenants", c.TenantHandler.Create)
		api.GET("/tenants", c.TenantHandler.List)
		api.GET("/tenants/:id", c.TenantHandler.GetByID)
		api.PUT("/tenants/:id", c.TenantHandler.Update)
		api.DELETE("/tenants/:id", c.TenantHandler.Delete)
		api.POST("/tenants/:id/usage", c.TenantHandler.RecordUsage)
	}

	return router
}

func logLevel(cfg *config.Config) string {
	if cfg.App.Debug {
		return "debug"
	}
	return "info"
}

func postgresConfig(cfg *config.Config) *database.PostgresConfig {
	pg := database.DefaultPostgresConfig()
	pg.Host = cfg.Database.Host
	pg.Port = cfg.Database.Port
	pg.User = cfg.Database.User
	pg.Password = cfg.Database.Password
	pg.Database = cfg.Database.DBName
	pg.SSLMode = cfg.Database.SSLMode
	pg.MaxConns = int32(cfg.Database.MaxOpenConns)
	pg.MinConns = int32(cfg.Database.MaxIdleConns)
	pg.MaxConnLifetime = cfg.Database.ConnMaxLifetime
	pg.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime
	return pg
}
