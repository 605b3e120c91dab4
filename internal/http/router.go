package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/vistahr/stayhub/internal/auth"
	"github.com/vistahr/stayhub/internal/config"
	"github.com/vistahr/stayhub/internal/domain/user"
	"github.com/vistahr/stayhub/internal/geocode"
	"github.com/vistahr/stayhub/internal/geodata"
	"github.com/vistahr/stayhub/internal/http/handlers"
	"github.com/vistahr/stayhub/internal/http/middlewares"
	"github.com/vistahr/stayhub/internal/observability"
	"github.com/vistahr/stayhub/internal/repo/postgres"
)

const maxBodyBytes = 1 << 20 // 1 MiB, photos arrive as URLs not uploads

func NewRouter(
	log *slog.Logger,
	pool *pgxpool.Pool,
	cfg config.Config,
	dir *geodata.Directory,
	geocoder *geocode.Client,
	prom *observability.Prom,
	reg *prometheus.Registry,
) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(maxBodyBytes))
	r.Use(middlewares.RequireJSON())
	r.Use(otelgin.Middleware("stayhub"))
	r.Use(prom.GinHandleMiddleware())

	// health + metrics

	ping := func() error {
		if pool == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return pool.Ping(ctx)
	}

	health := handlers.NewHealthHandler(ping)
	r.GET("/health", health.Health)
	r.GET("/readyz", health.Ready)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// wire up repositories and handlers

	usersRepo := postgres.NewUsersRepo(pool, prom)
	listingsRepo := postgres.NewListingsRepo(pool, prom)

	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.AccessTTL())
	authMW := middlewares.NewAuthMiddleware(jwtManager, usersRepo)

	limiter := middlewares.NewRateLimiter(cfg.RateLimit, cfg.RateLimitWindow)

	authHandler := handlers.NewAuthHandler(usersRepo, jwtManager)
	listingsHandler := handlers.NewListingsHandler(listingsRepo, dir)
	locationsHandler := handlers.NewLocationsHandler(dir, geocoder)

	api := r.Group("/api")

	// public surface

	api.POST("/auth/register", limiter.Middleware(middlewares.KeyByIP), authHandler.Register)
	api.POST("/auth/login", limiter.Middleware(middlewares.KeyByIP), authHandler.Login)

	api.GET("/locations/cities", locationsHandler.Cities)
	api.GET("/locations/barangays", locationsHandler.Barangays)
	api.GET("/geocode", limiter.Middleware(middlewares.KeyByIP), locationsHandler.Geocode)

	api.GET("/listings/feed", listingsHandler.Feed)

	// the wizard itself is owners-only

	owned := api.Group("/listings")
	owned.Use(authMW.RequireAuth(), authMW.RequireRole(user.RoleOwner), limiter.Middleware(middlewares.KeyByUserOrIP))

	owned.POST("/step-1", listingsHandler.CreateDraft)
	owned.GET("/drafts/latest", listingsHandler.LatestDraft)
	owned.GET("/:id", listingsHandler.GetByID)
	owned.PATCH("/:id/step-2", listingsHandler.Step2)
	owned.PATCH("/:id/step-3", listingsHandler.Step3)
	owned.PATCH("/:id/step-4", listingsHandler.Step4)
	owned.PATCH("/:id/step-5", listingsHandler.Step5)
	owned.PATCH("/:id/step-6", listingsHandler.Step6)
	owned.PATCH("/:id/step-7", listingsHandler.Step7)
	owned.PATCH("/:id/step-8", listingsHandler.Step8)
	owned.POST("/:id/submit-for-verification", listingsHandler.Submit)

	return r
}
