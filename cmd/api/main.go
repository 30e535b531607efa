package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/motoserwis/warsztat-api/api/swagger"
	"github.com/motoserwis/warsztat-api/internal/handler"
	"github.com/motoserwis/warsztat-api/internal/middleware"
	"github.com/motoserwis/warsztat-api/internal/models"
	"github.com/motoserwis/warsztat-api/internal/repository"
	"github.com/motoserwis/warsztat-api/internal/service"
	"github.com/motoserwis/warsztat-api/pkg/cache"
	"github.com/motoserwis/warsztat-api/pkg/config"
	"github.com/motoserwis/warsztat-api/pkg/database"
	"github.com/motoserwis/warsztat-api/pkg/logger"
	corsmiddleware "github.com/motoserwis/warsztat-api/pkg/middleware/cors"
	reqidmiddleware "github.com/motoserwis/warsztat-api/pkg/middleware/requestid"
	"github.com/motoserwis/warsztat-api/pkg/storage"
	"github.com/motoserwis/warsztat-api/pkg/validation"
)

// @title Warsztat API
// @version 1.0.0
// @description Multi-tenant repair shop management API
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, report cache disabled", "error", err)
		redisClient = nil
	}

	store, err := storage.NewLocalStorage(cfg.Attachments.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init attachment storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Attachments.SignedURLSecret, cfg.Attachments.SignedURLTTL)

	validate := validation.New()

	userRepo := repository.NewUserRepository(db)
	clientRepo := repository.NewClientRepository(db)
	vehicleRepo := repository.NewVehicleRepository(db)
	orderRepo := repository.NewRepairOrderRepository(db)
	mechanicRepo := repository.NewMechanicRepository(db)
	timeEntryRepo := repository.NewTimeEntryRepository(db)
	noteRepo := repository.NewInternalNoteRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	attachmentRepo := repository.NewAttachmentRepository(db)
	reportRepo := repository.NewReportRepository(db)

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, cfg.JWT, validate, logr)
	userSvc := service.NewUserService(userRepo, validate, logr)
	clientSvc := service.NewClientService(clientRepo, validate, logr)
	vehicleSvc := service.NewVehicleService(vehicleRepo, clientRepo, validate, logr)
	orderSvc := service.NewRepairOrderService(orderRepo, vehicleRepo, activityRepo, validate, logr)
	mechanicSvc := service.NewMechanicService(mechanicRepo, validate, logr)
	timeEntrySvc := service.NewTimeEntryService(timeEntryRepo, orderRepo, mechanicRepo, activityRepo, validate, logr)
	noteSvc := service.NewInternalNoteService(noteRepo, orderRepo, userRepo, mechanicRepo, validate, logr)
	attachmentSvc := service.NewAttachmentService(attachmentRepo, orderRepo, store, signer, cfg.Attachments.MaxFileSizeBytes, logr)
	reportSvc := service.NewReportService(reportRepo, redisClient, cfg.Reports, metricsSvc, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	clientHandler := handler.NewClientHandler(clientSvc)
	vehicleHandler := handler.NewVehicleHandler(vehicleSvc)
	orderHandler := handler.NewRepairOrderHandler(orderSvc, timeEntrySvc, noteSvc, attachmentSvc)
	mechanicHandler := handler.NewMechanicHandler(mechanicSvc)
	timeEntryHandler := handler.NewTimeEntryHandler(timeEntrySvc)
	noteHandler := handler.NewInternalNoteHandler(noteSvc)
	attachmentHandler := handler.NewAttachmentHandler(attachmentSvc)
	reportHandler := handler.NewReportHandler(reportSvc)

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
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)
	api.GET("/attachments/download", attachmentHandler.Download)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))

	authed.POST("/auth/logout", authHandler.Logout)
	authed.PUT("/auth/password", authHandler.ChangePassword)

	office := authed.Group("")
	office.Use(middleware.RequireRoles(models.RoleOwner, models.RoleOffice))
	{
		office.GET("/clients", clientHandler.List)
		office.GET("/clients/:id", clientHandler.Get)
		office.POST("/clients", clientHandler.Create)
		office.PUT("/clients/:id", clientHandler.Update)
		office.DELETE("/clients/:id", clientHandler.Delete)

		office.GET("/vehicles", vehicleHandler.List)
		office.GET("/vehicles/:id", vehicleHandler.Get)
		office.POST("/vehicles", vehicleHandler.Create)
		office.PUT("/vehicles/:id", vehicleHandler.Update)
		office.DELETE("/vehicles/:id", vehicleHandler.Delete)

		office.GET("/repair-orders", orderHandler.List)
		office.POST("/repair-orders", orderHandler.Create)
		office.PUT("/repair-orders/:id", orderHandler.Update)
		office.DELETE("/repair-orders/:id", orderHandler.Delete)
		office.GET("/repair-orders/:id/activity", orderHandler.Activity)
		office.DELETE("/attachments/:id", attachmentHandler.Delete)

		office.GET("/mechanics", mechanicHandler.List)
		office.GET("/mechanics/:id", mechanicHandler.Get)
		office.POST("/mechanics", mechanicHandler.Create)
		office.PUT("/mechanics/:id", mechanicHandler.Update)

		office.PUT("/notes/:id", noteHandler.Update)
		office.DELETE("/notes/:id", noteHandler.Delete)

		office.GET("/users", userHandler.List)

		office.GET("/reports/time", reportHandler.TimeReport)
		office.GET("/reports/time/export", reportHandler.Export)
	}

	// Mechanics see the workboard, log time and leave notes but cannot
	// manage the office-side records above.
	shopFloor := authed.Group("")
	shopFloor.Use(middleware.RequireRoles(models.RoleOwner, models.RoleOffice, models.RoleMechanic))
	{
		shopFloor.GET("/repair-orders/workboard", orderHandler.ListWorkboard)
		shopFloor.GET("/repair-orders/:id", orderHandler.Get)
		shopFloor.PATCH("/repair-orders/:id/status", orderHandler.UpdateStatus)

		shopFloor.GET("/repair-orders/:id/time-entries", orderHandler.ListTimeEntries)
		shopFloor.POST("/repair-orders/:id/time-entries", orderHandler.CreateTimeEntry)
		shopFloor.PUT("/time-entries/:id", timeEntryHandler.Update)
		shopFloor.DELETE("/time-entries/:id", timeEntryHandler.Delete)

		shopFloor.GET("/repair-orders/:id/notes", orderHandler.ListNotes)
		shopFloor.POST("/repair-orders/:id/notes", orderHandler.CreateNote)

		shopFloor.GET("/repair-orders/:id/attachments", orderHandler.ListAttachments)
		shopFloor.POST("/repair-orders/:id/attachments", orderHandler.UploadAttachment)
	}

	owner := authed.Group("")
	owner.Use(middleware.RequireRoles(models.RoleOwner))
	{
		owner.GET("/users/:id", userHandler.Get)
		owner.POST("/users", userHandler.Create)
		owner.PUT("/users/:id", userHandler.Update)
		owner.DELETE("/users/:id", userHandler.Delete)

		owner.DELETE("/mechanics/:id", mechanicHandler.Delete)
	}

	scheduler := cron.New()
	if spec := cfg.Maintenance.TokenPurgeSpec; spec != "" {
		_, err := scheduler.AddFunc(spec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			purged, err := userRepo.PurgeExpiredRefreshTokens(ctx, time.Now().UTC())
			if err != nil {
				logr.Sugar().Errorw("refresh token purge failed", "error", err)
				return
			}
			if purged > 0 {
				logr.Sugar().Infow("purged expired refresh tokens", "count", purged)
			}
		})
		if err != nil {
			logr.Sugar().Fatalw("invalid token purge cron spec", "spec", spec, "error", err)
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
