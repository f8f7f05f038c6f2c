// Package app boots the service: configuration, database, shared-state
// backends, the routing core, and the HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/promptline/smsrouter/internal/analytics"
	"github.com/promptline/smsrouter/internal/backend"
	"github.com/promptline/smsrouter/internal/config"
	"github.com/promptline/smsrouter/internal/continuation"
	"github.com/promptline/smsrouter/internal/db"
	"github.com/promptline/smsrouter/internal/http/api"
	"github.com/promptline/smsrouter/internal/ratelimit"
	"github.com/promptline/smsrouter/internal/routing"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Migrate opens the database and runs migrations.
func Migrate(ctx context.Context, cfg config.AppConfig) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	dsn, err := config.LoadDatabaseDSN(configPath)
	if err != nil {
		return err
	}
	conn, err := db.Open(dsn)
	if err != nil {
		return err
	}
	return db.Migrate(conn)
}

// RunServer boots the SMS routing server.
func RunServer(ctx context.Context, appCfg config.AppConfig, defaultPort int) error {
	configPath := config.ResolveConfigPath(appCfg.ConfigPath)

	cfg, errLoad := config.Load(configPath)
	if errLoad != nil {
		return errLoad
	}
	if defaultPort > 0 {
		cfg.Server.Port = defaultPort
	}
	if cfg.OpenAI.APIKey == "" {
		return errors.New("missing OpenAI API key (set `openai.api-key` in config or OPENAI_API_KEY)")
	}

	dsn, errDSN := config.LoadDatabaseDSN(configPath)
	if errDSN != nil {
		return errDSN
	}
	conn, errOpen := db.Open(dsn)
	if errOpen != nil {
		return errOpen
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}
	log.Infof("database ready, dialect=%s", db.DialectName(conn))

	engine := buildEngine(conn, cfg)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", server.Addr)
		if errServe := server.ListenAndServe(); errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			errCh <- errServe
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
			return fmt.Errorf("shutdown: %w", errShutdown)
		}
		return nil
	case errServe := <-errCh:
		return errServe
	}
}

// buildEngine assembles the routing core and mounts the HTTP surface.
func buildEngine(conn *gorm.DB, cfg config.Config) *gin.Engine {
	limiter := ratelimit.NewManager(func() ratelimit.Settings {
		return ratelimit.Settings{
			RedisEnabled:  cfg.Redis.Enabled,
			RedisAddr:     cfg.Redis.Addr,
			RedisPassword: cfg.Redis.Password,
			RedisDB:       cfg.Redis.DB,
			RedisPrefix:   cfg.Redis.Prefix,
		}
	}, nil, nil)

	continuations := buildContinuationStore(cfg)

	orchestrator := routing.NewOrchestrator(conn, limiter, continuations, cfg.Channel.Limit, nil)
	generator := backend.NewOpenAIGenerator(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL)
	analyticsService := analytics.NewService(conn)

	engine := gin.New()
	engine.Use(gin.Recovery())
	api.RegisterRoutes(engine, orchestrator, generator, analyticsService)
	return engine
}

// buildContinuationStore picks redis when configured, memory otherwise.
func buildContinuationStore(cfg config.Config) continuation.Store {
	if cfg.Redis.Enabled && cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return continuation.NewRedisStore(client, cfg.Redis.Prefix, cfg.Continuation.TTL)
	}
	return continuation.NewMemoryStore(cfg.Continuation.Capacity, cfg.Continuation.TTL, nil)
}
