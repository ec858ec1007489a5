package app

import (
	"github.com/gin-gonic/gin"
	"github.com/tablecast/signage/internal/middleware"
	"github.com/tablecast/signage/internal/modules/auth/user"
	"github.com/tablecast/signage/internal/modules/business"
	"github.com/tablecast/signage/internal/modules/content/display"
	"github.com/tablecast/signage/internal/modules/content/slide"
	"github.com/tablecast/signage/internal/modules/content/slideshow"
	"github.com/tablecast/signage/internal/modules/processing/ai"
	"github.com/tablecast/signage/internal/modules/storage/media"
	"github.com/tablecast/signage/internal/modules/system/core/health"
	"github.com/tablecast/signage/internal/pkg/response"
)

const apiPrefix = "/api/v1"

func (a *App) registerRoutes() {
	r := a.router
	cfg := a.cfg

	var counter middleware.Counter
	if a.redis != nil {
		counter = a.redis
	}
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(a.logger))
	r.Use(middleware.Metrics())
	r.Use(corsMiddleware(cfg.AllowedOrigins, cfg.IsDev()))
	r.Use(a.authn.Optional())
	r.Use(middleware.RateLimit(counter, a.logger.Named("ratelimit")))

	r.NoRoute(func(c *gin.Context) { response.NotFound(c) })
	r.NoMethod(func(c *gin.Context) { response.MethodNotAllowed(c) })

	api := r.Group(apiPrefix)
	authMW := a.authn.Required()
	admin := api.Group("/admin", authMW, middleware.RequireAdmin())

	businesses := business.NewService(a.db)
	pipeline := media.NewPipeline(a.db, a.store, businesses, media.Options{
		SignedURLTTL:   cfg.Storage.SignedURLTTL,
		MaxUploadBytes: cfg.Storage.MaxUploadBytes(),
		PublicBaseURL:  cfg.Storage.PublicBaseURL,
	}, a.logger)
	reconciler := media.NewReconciler(a.db, a.store, a.logger)
	slides := slide.NewService(a.db, businesses, pipeline, a.renderer, a.logger)

	user.NewHandler(user.NewService(a.db, a.signer)).RegisterRoutes(api, authMW)
	business.NewHandler(businesses).RegisterRoutes(api, authMW)

	mediaHandler := media.NewHandler(pipeline, reconciler, businesses, cfg.Reconcile.MinAge)
	mediaHandler.RegisterRoutes(api, authMW)
	mediaHandler.RegisterAdminRoutes(admin)

	slideHandler := slide.NewHandler(slides)
	slideHandler.RegisterRoutes(api, authMW)
	slideHandler.RegisterAdminRoutes(admin)

	slideshow.NewHandler(slideshow.NewService(a.db, businesses)).RegisterRoutes(api, authMW)
	display.NewHandler(display.NewService(a.db)).RegisterRoutes(api)
	ai.NewHandler(ai.NewService(a.completer, cfg.AI.MaxTokens)).RegisterRoutes(api, authMW)

	deps := health.Deps{DB: a.db, Storage: a.store}
	if a.redis != nil {
		deps.Redis = a.redis
	}
	health.RegisterRoutes(api, admin, deps, a.sched)

	a.registerCronJobs(reconciler)
}
