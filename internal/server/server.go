// Package server wires repositories, services and handlers into one gin engine.
package server

import (
	"context"
	"net/http"
	"time"

	"admetrics/internal/config"
	"admetrics/internal/middleware"
	"admetrics/internal/modules/advertisement"
	"admetrics/internal/modules/auth"
	"admetrics/internal/modules/factmetrics"
	"admetrics/internal/modules/feed"
	"admetrics/internal/modules/heartbeat"
	"admetrics/internal/pkg/jwt"
	"admetrics/internal/pkg/response"
	"admetrics/internal/probe"
	"admetrics/internal/repository"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// App is the assembled process: the router plus the background pieces main
// has to start and stop.
type App struct {
	Router    *gin.Engine
	Heartbeat *heartbeat.Scheduler
	Feed      *feed.Hub
	Facts     *factmetrics.Service
}

func New(cfg *config.Config, db *gorm.DB, prober probe.Prober) *App {
	userRepo := repository.NewUserRepository(db)
	adRepo := repository.NewAdvertisementRepository(db)
	dimRepo := repository.NewDimensionRepository(db)
	factRepo := repository.NewFactRepository(db)

	j := jwt.New(cfg.SecretKey, cfg.AccessTokenTTL)
	resolver := factmetrics.NewResolver(dimRepo, factmetrics.PolicyFrom(cfg.DimensionDedup))

	authService := auth.NewService(userRepo, resolver, j)
	adService := advertisement.NewService(adRepo, userRepo, cfg.DefaultBuyURL)

	hub := feed.NewHub()
	factService := factmetrics.NewService(factRepo, resolver, userRepo, adRepo, prober)
	factService.SetPublisher(hub)

	scheduler := heartbeat.New(cfg.HeartbeatSpec, cfg.HeartbeatLogPath)

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.ErrorLogger(),
		middleware.RequestLogger(),
		middleware.Prometheus(),
		middleware.CORS(cfg.CORSOrigins),
	)

	r.GET("/health", healthHandler(db))
	r.GET("/metrics", middleware.PrometheusHandler())

	// public
	auth.NewHandler(authService).RegisterPublicRoutes(r)
	heartbeat.NewHandler(scheduler).RegisterPublicRoutes(r)
	feed.NewWSHandler(hub, j).RegisterPublicRoutes(r)

	factHandler := factmetrics.NewHandler(factService)

	// guests allowed, tokens honored
	optional := r.Group("/")
	optional.Use(middleware.OptionalAuth(j))
	{
		factHandler.RegisterOptionalAuthRoutes(optional)
	}

	protected := r.Group("/")
	protected.Use(middleware.OptionalAuth(j), middleware.RequireAuth())
	{
		advertisement.NewHandler(adService).RegisterProtectedRoutes(protected)
		factHandler.RegisterProtectedRoutes(protected)
	}

	return &App{
		Router:    r,
		Heartbeat: scheduler,
		Feed:      hub,
		Facts:     factService,
	}
}

func healthHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			response.Error(c, http.StatusServiceUnavailable, "UNAVAILABLE", "database unreachable")
			return
		}
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	}
}
