package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/hosteldesk/hosteldesk-api/api/swagger"
	"github.com/hosteldesk/hosteldesk-api/internal/handler"
	"github.com/hosteldesk/hosteldesk-api/internal/middleware"
	"github.com/hosteldesk/hosteldesk-api/internal/models"
	"github.com/hosteldesk/hosteldesk-api/internal/repository"
	"github.com/hosteldesk/hosteldesk-api/internal/service"
	"github.com/hosteldesk/hosteldesk-api/pkg/cache"
	"github.com/hosteldesk/hosteldesk-api/pkg/config"
	"github.com/hosteldesk/hosteldesk-api/pkg/database"
	"github.com/hosteldesk/hosteldesk-api/pkg/jobs"
	"github.com/hosteldesk/hosteldesk-api/pkg/logger"
	corsmiddleware "github.com/hosteldesk/hosteldesk-api/pkg/middleware/cors"
	"github.com/hosteldesk/hosteldesk-api/pkg/middleware/ratelimit"
	reqidmiddleware "github.com/hosteldesk/hosteldesk-api/pkg/middleware/requestid"
	"github.com/hosteldesk/hosteldesk-api/pkg/storage"
)

// @title HostelDesk API
// @version 1.0.0
// @description Hostel management API for students and wardens
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close() //nolint:errcheck

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	hostelRepo := repository.NewHostelRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	complaintRepo := repository.NewComplaintRepository(db)
	helpRepo := repository.NewHelpRequestRepository(db)
	outingRepo := repository.NewOutingRepository(db)
	reportRepo := repository.NewReportRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, true)
	eventSvc := service.NewEventService(redisClient, cfg.Events, logr)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "hosteldesk-api",
	})
	hostelSvc := service.NewHostelService(hostelRepo, validate, logr)
	dashboardSvc := service.NewDashboardService(
		bookingRepo, complaintRepo, helpRepo, helpRepo, outingRepo, userRepo,
		cacheSvc, cfg.Dashboard, logr)
	bookingSvc := service.NewBookingService(bookingRepo, hostelRepo, eventSvc, userRepo, dashboardSvc, metricsSvc, validate, logr)
	complaintSvc := service.NewComplaintService(complaintRepo, eventSvc, userRepo, dashboardSvc, metricsSvc, validate, logr)
	helpSvc := service.NewHelpRequestService(helpRepo, eventSvc, userRepo, dashboardSvc, metricsSvc, validate, logr)
	outingSvc := service.NewOutingService(outingRepo, eventSvc, userRepo, dashboardSvc, metricsSvc, validate, logr)

	exportStore, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare export storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
	reportSvc := service.NewReportService(
		reportRepo, bookingRepo, complaintRepo, helpRepo, outingRepo, userRepo,
		exportStore, signer, validate, cfg.Reports, logr)

	reportQueue := jobs.NewQueue("reports", reportSvc.HandleJob, jobs.QueueConfig{
		Workers:    cfg.Reports.WorkerConcurrency,
		MaxRetries: cfg.Reports.WorkerRetries,
		Logger:     logr,
	})
	reportSvc.SetQueue(reportQueue)

	queueCtx, queueCancel := context.WithCancel(context.Background())
	defer queueCancel()
	reportQueue.Start(queueCtx)
	defer reportQueue.Stop()

	if cfg.Reports.Enabled && cfg.Reports.RetentionTTL > 0 {
		go sweepExports(queueCtx, exportStore, cfg.Reports.RetentionTTL, logr)
	}

	if cfg.Seed.Hostels {
		seedCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := hostelSvc.SeedDefaults(seedCtx); err != nil {
			logr.Sugar().Warnw("hostel seeding failed", "error", err)
		}
		cancel()
	}

	authHandler := handler.NewAuthHandler(authSvc)
	hostelHandler := handler.NewHostelHandler(hostelSvc)
	bookingHandler := handler.NewBookingHandler(bookingSvc)
	complaintHandler := handler.NewComplaintHandler(complaintSvc)
	helpHandler := handler.NewHelpRequestHandler(helpSvc)
	outingHandler := handler.NewOutingHandler(outingSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	eventHandler := handler.NewEventHandler(eventSvc, metricsSvc)
	reportHandler := handler.NewReportHandler(reportSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		redisOK := redisClient.Ping(c.Request.Context()).Err() == nil
		dbOK := db.PingContext(c.Request.Context()) == nil
		status := http.StatusOK
		if !redisOK || !dbOK {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ready", "db": dbOK, "redis": redisOK})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	if cfg.RateLimit.Enabled {
		limiter := ratelimit.NewTokenBucket(cfg.RateLimit.Capacity, cfg.RateLimit.PerMinute)
		auth.Use(limiter.Middleware())
	}
	auth.POST("/signup", authHandler.Signup)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
	auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)

	api.GET("/hostels", hostelHandler.List)
	api.GET("/hostels/:id", hostelHandler.Get)

	protected := api.Group("", middleware.JWT(authSvc))

	wardenOnly := middleware.RequireRoles(models.RoleWarden)
	studentOnly := middleware.RequireRoles(models.RoleStudent)

	protected.POST("/hostels", wardenOnly, hostelHandler.Create)
	protected.PUT("/hostels/:id", wardenOnly, hostelHandler.Update)
	protected.DELETE("/hostels/:id", wardenOnly, hostelHandler.Delete)

	protected.POST("/bookings", studentOnly, bookingHandler.Create)
	protected.GET("/bookings", bookingHandler.List)
	protected.GET("/bookings/:id", bookingHandler.Get)
	protected.PATCH("/bookings/:id/status", wardenOnly, bookingHandler.Transition)

	protected.POST("/complaints", studentOnly, complaintHandler.Create)
	protected.GET("/complaints", complaintHandler.List)
	protected.GET("/complaints/:id", complaintHandler.Get)
	protected.PATCH("/complaints/:id/status", wardenOnly, complaintHandler.Transition)

	protected.GET("/help-requests/categories", helpHandler.Categories)
	protected.POST("/help-requests", studentOnly, helpHandler.Create)
	protected.GET("/help-requests", helpHandler.List)
	protected.GET("/help-requests/:id", helpHandler.Get)
	protected.PATCH("/help-requests/:id/status", wardenOnly, helpHandler.Transition)

	protected.POST("/outing-requests", studentOnly, outingHandler.Create)
	protected.GET("/outing-requests", outingHandler.List)
	protected.GET("/outing-requests/:id", outingHandler.Get)
	protected.PATCH("/outing-requests/:id/status", wardenOnly, outingHandler.Transition)

	protected.GET("/dashboard/student", studentOnly, dashboardHandler.Student)
	protected.GET("/dashboard/warden", wardenOnly, dashboardHandler.Warden)

	if cfg.Events.Enabled {
		api.GET("/events/stream", middleware.QueryTokenJWT(authSvc), eventHandler.Stream)
	}

	if cfg.Reports.Enabled {
		protected.POST("/reports", wardenOnly, reportHandler.Create)
		protected.GET("/reports/:id", wardenOnly, reportHandler.Get)
		api.GET("/reports/download", reportHandler.Download)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Sugar().Infow("server stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}

// sweepExports periodically deletes rendered report files past the
// retention TTL. Download tokens for those files expire sooner, so
// removal never races a valid download.
func sweepExports(ctx context.Context, store *storage.LocalStorage, ttl time.Duration, logr *zap.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := store.CleanupOlderThan(ttl)
			if err != nil {
				logr.Sugar().Warnw("export cleanup failed", "error", err)
				continue
			}
			if len(deleted) > 0 {
				logr.Sugar().Infow("expired exports removed", "count", len(deleted))
			}
		}
	}
}
