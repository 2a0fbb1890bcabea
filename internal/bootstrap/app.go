package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"dealdocs-backend/internal/documents"
	"dealdocs-backend/internal/duplicates"
	"dealdocs-backend/internal/extractions"
	"dealdocs-backend/internal/shared/config"
	"dealdocs-backend/internal/shared/lock"
	"dealdocs-backend/internal/shared/retry"
	"dealdocs-backend/internal/shared/server"
	"dealdocs-backend/internal/shared/storage/db"
	"dealdocs-backend/internal/shared/telemetry"
)

// App holds shared dependencies.
type App struct {
	Config            config.Config
	Router            *gin.Engine
	DB                *sql.DB
	Redis             *redis.Client
	DocumentsRepo     documents.DocumentsRepo
	ExtractionsRepo   extractions.ExtractionsRepo
	DocumentsService  *documents.Service
	ExtractionService *extractions.Service
	DuplicateService  *duplicates.Service
}

// Options tweak Build for callers that are not the API server.
type Options struct {
	DBOptions     db.Options
	SkipMigration bool
}

// Build wires the API server's dependencies and routes.
func Build(cfg config.Config) (*App, error) {
	return BuildWith(context.Background(), cfg, Options{DBOptions: db.OptionsFromEnv(db.DefaultServerOptions())})
}

// BuildWith prepares dependencies with explicit options.
func BuildWith(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}

	sqlDB, err := buildDB(ctx, cfg, opts)
	if err != nil {
		return nil, err
	}

	redisClient, err := buildRedis(ctx, cfg)
	if err != nil {
		closeDB(sqlDB)
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Redis:  redisClient,
	}
	if err := buildServices(app); err != nil {
		_ = app.Close()
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:            cfg,
		DocumentHandler:   documents.NewHandler(app.DocumentsService),
		ExtractionHandler: extractions.NewHandler(app.ExtractionService),
		DuplicateHandler:  duplicates.NewHandler(app.DuplicateService),
	})
	return app, nil
}

// Close releases the database and Redis connections.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	var firstErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			firstErr = err
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func buildDB(ctx context.Context, cfg config.Config, opts Options) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if config.IsDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_store", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts.DBOptions)
	if err != nil {
		if config.IsDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_store", map[string]any{"reason": "database connect failed", "error": err})
			return nil, nil
		}
		return nil, err
	}
	if opts.SkipMigration {
		return sqlDB, nil
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		closeDB(sqlDB)
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildRedis(ctx context.Context, cfg config.Config) (*redis.Client, error) {
	if strings.TrimSpace(cfg.RedisURL) == "" {
		return nil, nil
	}
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(redisOpts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		if config.IsDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.redis_unavailable", map[string]any{"error": err})
			return nil, nil
		}
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func buildServices(app *App) error {
	if app.DB != nil {
		app.DocumentsRepo = &documents.PGRepo{DB: app.DB}
		app.ExtractionsRepo = &extractions.PGRepo{DB: app.DB}
	} else {
		app.DocumentsRepo = documents.NewMemoryRepo()
		app.ExtractionsRepo = extractions.NewMemoryRepo()
	}

	schema, err := extractions.LoadSchemaValidator(app.Config.Extractions.SchemaFile)
	if err != nil {
		return err
	}

	extSvc := extractions.NewService(app.ExtractionsRepo)
	extSvc.Schema = schema
	extSvc.RenumberOnDelete = app.Config.Extractions.RenumberOnDelete
	extSvc.Retry = retry.Policy{
		MaxAttempts: app.Config.Extractions.CreateMaxAttempts,
		BaseDelay:   app.Config.Extractions.RetryBaseDelay,
	}
	if app.Redis != nil {
		locker := lock.NewRedis(app.Redis, app.Config.LockTTL)
		extSvc.Locker = locker
		telemetry.Info("bootstrap.redis_lock", map[string]any{"owner": locker.OwnerID()})
	}

	app.DocumentsService = &documents.Service{Repo: app.DocumentsRepo}
	app.ExtractionService = extSvc
	app.DuplicateService = duplicates.NewService(app.DocumentsService)
	return nil
}

func closeDB(sqlDB *sql.DB) {
	if sqlDB != nil {
		_ = sqlDB.Close()
	}
}
