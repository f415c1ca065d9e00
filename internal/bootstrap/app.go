// Package bootstrap wires configuration into services shared by the server and the CLI.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appanalysis "github.com/bryanwahyu/reason3/internal/application/analysis"
	appchat "github.com/bryanwahyu/reason3/internal/application/chat"
	"github.com/bryanwahyu/reason3/internal/config"
	domain "github.com/bryanwahyu/reason3/internal/domain/analysis"
	"github.com/bryanwahyu/reason3/internal/infra/ai/prompt"
	"github.com/bryanwahyu/reason3/internal/infra/ai/provider"
	"github.com/bryanwahyu/reason3/internal/infra/db/mysql"
	"github.com/bryanwahyu/reason3/internal/infra/db/postgres"
	"github.com/bryanwahyu/reason3/internal/infra/db/sqlite"
	"github.com/bryanwahyu/reason3/internal/infra/fetch"
	"github.com/bryanwahyu/reason3/internal/infra/httpserver"
	"github.com/bryanwahyu/reason3/internal/infra/storage"
	"github.com/bryanwahyu/reason3/internal/middleware"
)

// App holds the wired services and the resources to release on exit.
type App struct {
	Config        *config.Config
	Logger        *zap.Logger
	Claims        *appanalysis.Service
	Accessibility *appanalysis.Service
	Chat          *appchat.Service

	limiter  middleware.Limiter
	checkers map[string]middleware.HealthChecker
	closers  []func() error
}

// New connects every configured backend. Optional backends that fail to
// connect are fatal: a misconfigured audit trail should not run silently.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	app := &App{
		Config:   cfg,
		Logger:   logger,
		checkers: map[string]middleware.HealthChecker{},
	}

	model, err := provider.New(ctx, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("model provider: %w", err)
	}
	if model == nil {
		logger.Warn("no API credential configured, running in demo mode", zap.String("provider", cfg.LLM.Provider))
	} else {
		logger.Info("model ready", zap.String("provider", cfg.LLM.Provider), zap.String("model", model.Name()))
	}

	opts := []appanalysis.Option{
		appanalysis.WithLogger(logger),
		appanalysis.WithFetcher(fetch.NewFetcher(fetch.Options{})),
	}

	repo, err := app.openRepository(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}
	if repo != nil {
		opts = append(opts, appanalysis.WithRepository(repo))
	}

	if cfg.Minio.Enabled {
		store, err := storage.New(ctx, storage.Options{
			Endpoint:  cfg.Minio.Endpoint,
			Region:    cfg.Minio.Region,
			Bucket:    cfg.Minio.BucketName,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			UseSSL:    cfg.Minio.UseSSL,
		})
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("minio init: %w", err)
		}
		opts = append(opts, appanalysis.WithImageStore(store))
	}

	if err := app.openLimiter(ctx); err != nil {
		app.Close()
		return nil, err
	}

	app.Claims = appanalysis.NewService(model, prompt.Claims{}, opts...)
	app.Accessibility = appanalysis.NewService(model, prompt.Accessibility{}, opts...)
	app.Chat = appchat.NewService(model, prompt.GetChatPrompt, appchat.WithLogger(logger.Named("chat")))
	return app, nil
}

func (a *App) openRepository(ctx context.Context) (domain.Repository, error) {
	var (
		db   *sql.DB
		err  error
		repo domain.Repository
	)
	switch a.Config.Audit.Driver {
	case "mysql":
		if db, err = mysql.Connect(ctx, a.Config.MySQLDSN()); err != nil {
			return nil, fmt.Errorf("mysql connect: %w", err)
		}
		if err = mysql.EnsureSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("mysql schema: %w", err)
		}
		repo = mysql.NewAnalysisRepository(db)
	case "postgres":
		if db, err = postgres.Connect(ctx, a.Config.PostgresDSN()); err != nil {
			return nil, fmt.Errorf("postgres connect: %w", err)
		}
		if err = postgres.EnsureSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("postgres schema: %w", err)
		}
		repo = postgres.NewAnalysisRepository(db)
	case "sqlite":
		if db, err = sqlite.Open(ctx, a.Config.SQLitePath()); err != nil {
			return nil, err
		}
		repo = sqlite.NewAnalysisRepository(db)
	default:
		return nil, nil
	}
	a.checkers["database"] = &middleware.DatabaseHealthChecker{DB: db}
	a.closers = append(a.closers, db.Close)
	a.Logger.Info("audit trail enabled", zap.String("driver", a.Config.Audit.Driver))
	return repo, nil
}

func (a *App) openLimiter(ctx context.Context) error {
	rl := a.Config.RateLimit
	switch rl.Backend {
	case "memory":
		l := middleware.NewRateLimiter(rl.Capacity, rl.RefillRate)
		a.limiter = l
		a.closers = append(a.closers, func() error { l.Stop(); return nil })
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     a.Config.Redis.Addr,
			Username: a.Config.Redis.Username,
			Password: a.Config.Redis.Password,
			DB:       a.Config.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return fmt.Errorf("redis ping failed: %w", err)
		}
		a.limiter = middleware.NewRedisLimiter(client, a.Config.Redis.Prefix, rl.Capacity, time.Minute)
		a.checkers["redis"] = &middleware.RedisHealthChecker{Client: client}
		a.closers = append(a.closers, client.Close)
	}
	return nil
}

// Handler builds the HTTP API.
func (a *App) Handler() http.Handler {
	return httpserver.NewRouter(httpserver.Options{
		Claims:         a.Claims,
		Accessibility:  a.Accessibility,
		Chat:           a.Chat,
		History:        a.Claims,
		Logger:         a.Logger,
		APIKeys:        a.Config.Auth.APIKeys,
		AllowedOrigins: a.Config.CORS.AllowedOrigins,
		Limiter:        a.limiter,
		Checkers:       a.checkers,
	})
}

// Service returns the analysis service for flavor.
func (a *App) Service(flavor domain.Flavor) (*appanalysis.Service, error) {
	switch flavor {
	case domain.FlavorClaims, "":
		return a.Claims, nil
	case domain.FlavorAccessibility:
		return a.Accessibility, nil
	}
	return nil, fmt.Errorf("unknown flavor %q (allowed: claims, accessibility)", flavor)
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.Logger.Warn("close failed", zap.Error(err))
		}
	}
	a.closers = nil
}
