package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tablecast/signage/internal/config"
	"github.com/tablecast/signage/internal/database"
	"github.com/tablecast/signage/internal/middleware"
	"github.com/tablecast/signage/internal/modules/processing/ai"
	pkgcron "github.com/tablecast/signage/internal/pkg/cron"
	"github.com/tablecast/signage/internal/pkg/jwt"
	"github.com/tablecast/signage/internal/pkg/objectstore"
	pkgredis "github.com/tablecast/signage/internal/pkg/redis"
	"github.com/tablecast/signage/internal/pkg/slideimage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const devJWTSecret = "signage-dev-secret"

// App holds all application dependencies.
type App struct {
	cfg       *config.AppConfig
	router    *gin.Engine
	db        *gorm.DB
	redis     *pkgredis.Client
	store     objectstore.Gateway
	completer ai.Completer
	renderer  *slideimage.Renderer
	signer    *jwt.Signer
	authn     *middleware.Authenticator
	logger    *zap.Logger
	cancel    context.CancelFunc
	sched     *pkgcron.Scheduler
}

// New initializes the application: DB, Redis, storage, AI, then routes.
func New(logger *zap.Logger, cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if err := applyTimezone(cfg.Timezone); err != nil {
		return nil, err
	}

	secret := cfg.JWTSecret
	if secret == "" {
		if !cfg.IsDev() {
			return nil, errors.New("jwt_secret is required in production")
		}
		logger.Warn("jwt_secret is empty, using the development secret")
		secret = devJWTSecret
	}
	signer, err := jwt.NewSigner(secret)
	if err != nil {
		return nil, err
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	app := &App{cfg: cfg, db: db, logger: logger, cancel: cancel}

	if cfg.Redis.Enabled() {
		rc, err := pkgredis.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("redis: %w", err)
		}
		app.redis = rc
	} else {
		logger.Info("redis not configured, rate limiting disabled")
	}

	app.store = openStorage(ctx, cfg, logger)
	app.completer, err = ai.NewCompleter(cfg.AI, newPolicy("ai", cfg.Resilience, logger), logger)
	switch {
	case errors.Is(err, ai.ErrNotConfigured):
		logger.Warn("ai provider not configured, generation endpoints will fail")
	case err != nil:
		cancel()
		return nil, fmt.Errorf("ai: %w", err)
	}

	app.renderer, err = slideimage.NewRenderer()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("slide renderer: %w", err)
	}
	app.signer = signer
	app.authn = middleware.NewAuthenticator(db, signer)

	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	app.router = gin.New()
	app.router.HandleMethodNotAllowed = true

	app.sched = pkgcron.New(logger)
	app.registerRoutes()
	go app.sched.Start(ctx)

	return app, nil
}

// openStorage falls back to an always-failing gateway so the API still starts
// when storage is misconfigured; storage-backed handlers then answer 500.
func openStorage(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) objectstore.Gateway {
	if !cfg.Storage.HasCredentials() {
		logger.Warn("storage credentials missing", zap.String("driver", cfg.Storage.Driver))
		return objectstore.NewUnavailable(cfg.Storage.Bucket, "missing credentials")
	}
	store, err := objectstore.Open(ctx, cfg.Storage, newPolicy("storage", cfg.Resilience, logger), logger)
	if err != nil {
		logger.Error("storage init failed", zap.Error(err))
		return objectstore.NewUnavailable(cfg.Storage.Bucket, err.Error())
	}
	return store
}

// Addr returns the listen address.
func (a *App) Addr() string { return fmt.Sprintf(":%d", a.cfg.Port) }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }

// Shutdown stops background jobs and releases connections.
func (a *App) Shutdown() {
	a.cancel()
	if closer, ok := unwrapStore(a.store).(io.Closer); ok {
		if err := closer.Close(); err != nil {
			a.logger.Warn("close storage", zap.Error(err))
		}
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if err := database.Close(a.db); err != nil {
		a.logger.Warn("close database", zap.Error(err))
	}
}

func unwrapStore(g objectstore.Gateway) objectstore.Gateway {
	if r, ok := g.(*objectstore.Resilient); ok {
		return r.Unwrap()
	}
	return g
}
