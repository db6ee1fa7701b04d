package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/daily-reflections/core/internal/config"
	"github.com/daily-reflections/core/internal/database"
	"github.com/daily-reflections/core/internal/middleware"
	"github.com/daily-reflections/core/internal/modules/content/diary"
	"github.com/daily-reflections/core/internal/modules/processing/ai"
	pkgcron "github.com/daily-reflections/core/internal/pkg/cron"
	jwtpkg "github.com/daily-reflections/core/internal/pkg/jwt"
	pkgredis "github.com/daily-reflections/core/internal/pkg/redis"
	"github.com/daily-reflections/core/internal/pkg/taskqueue"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App holds all application dependencies.
type App struct {
	cfg      *config.AppConfig
	router   *gin.Engine
	db       *gorm.DB
	rc       *pkgredis.Client
	logger   *zap.Logger
	loc      *time.Location
	entries  *diary.Service
	tasks    *taskqueue.Service
	pipeline *ai.Pipeline
	sched    *pkgcron.Scheduler
	cancel   context.CancelFunc
}

// New initializes the application: DB → Redis → enrichment → routes.
// The schema is expected to exist already (see database.EnsureSchema).
func New(logger *zap.Logger, cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	db, err := database.Connect(cfg, false)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	rc, err := pkgredis.Connect(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}

	return newWithDeps(logger, cfg, db, rc)
}

func newWithDeps(logger *zap.Logger, cfg *config.AppConfig, db *gorm.DB, rc *pkgredis.Client) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if secret := strings.TrimSpace(cfg.JWTSecret); secret != "" {
		jwtpkg.SetSecret(secret)
	} else {
		logger.Warn("jwt_secret is empty, using built-in development secret")
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}

	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Metrics())
	router.Use(newCORS(cfg))

	entries := diary.NewService(db)
	tasks := taskqueue.NewService(rc)
	pipeline, err := newPipeline(cfg, entries, tasks, logger)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	sched := pkgcron.New(logger)

	a := &App{
		cfg:      cfg,
		router:   router,
		db:       db,
		rc:       rc,
		logger:   logger,
		loc:      loc,
		entries:  entries,
		tasks:    tasks,
		pipeline: pipeline,
		sched:    sched,
		cancel:   cancel,
	}
	if err := a.registerCronJobs(); err != nil {
		cancel()
		return nil, err
	}
	sched.Start(ctx)
	a.registerRoutes()
	return a, nil
}

// newPipeline builds the enrichment pipeline. With AI disabled the pipeline
// is still constructed so handlers can trigger it unconditionally.
func newPipeline(cfg *config.AppConfig, entries *diary.Service, tasks *taskqueue.Service, logger *zap.Logger) (*ai.Pipeline, error) {
	opts := ai.Options{
		Timeout:           cfg.AITimeout(),
		RequestsPerMinute: cfg.AI.RequestsPerMinute,
		ImageEndpoint:     cfg.AI.ImageSearchEndpoint,
	}
	if !cfg.AIEnabled() {
		logger.Info("ai enrichment disabled")
		return ai.NewPipeline(nil, entries, tasks, logger, opts), nil
	}
	gen, err := ai.NewGenerator(cfg.AI.Provider)
	if err != nil {
		return nil, fmt.Errorf("ai provider: %w", err)
	}
	logger.Info("ai enrichment enabled",
		zap.String("provider", cfg.AI.Provider.Type),
		zap.String("model", cfg.AI.Provider.DefaultModel))
	return ai.NewPipeline(gen, entries, tasks, logger, opts), nil
}

// Addr returns the listen address.
func (a *App) Addr() string { return fmt.Sprintf(":%d", a.cfg.Port) }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }

// Shutdown drains in-flight enrichment runs, stops the scheduler and closes
// connections. Runs still going when ctx expires are cancelled.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.pipeline.Shutdown(ctx)
	a.cancel()
	a.sched.Wait()
	if cerr := a.rc.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if sqlDB, derr := a.db.DB(); derr == nil {
		_ = sqlDB.Close()
	}
	return err
}
