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
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/campus-timetable-api/api/swagger"
	"github.com/noah-isme/campus-timetable-api/internal/handler"
	internalmiddleware "github.com/noah-isme/campus-timetable-api/internal/middleware"
	"github.com/noah-isme/campus-timetable-api/internal/models"
	"github.com/noah-isme/campus-timetable-api/internal/repository"
	"github.com/noah-isme/campus-timetable-api/internal/service"
	"github.com/noah-isme/campus-timetable-api/pkg/cache"
	"github.com/noah-isme/campus-timetable-api/pkg/config"
	"github.com/noah-isme/campus-timetable-api/pkg/database"
	appErrors "github.com/noah-isme/campus-timetable-api/pkg/errors"
	"github.com/noah-isme/campus-timetable-api/pkg/export"
	"github.com/noah-isme/campus-timetable-api/pkg/jobs"
	"github.com/noah-isme/campus-timetable-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/campus-timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/campus-timetable-api/pkg/middleware/requestid"
	"github.com/noah-isme/campus-timetable-api/pkg/response"
	"github.com/noah-isme/campus-timetable-api/pkg/storage"
)

// @title Campus Timetable API
// @version 1.0.0
// @description Weekly university timetable generation, listing and export.
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, falling back to local lock and no cache", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	courseRepo := repository.NewCourseRepository(db)
	classroomRepo := repository.NewClassroomRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	generationLock := repository.NewGenerationLock(redisClient, cfg.Scheduler.LockTTL, logr)

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Schedules.CacheTTL, logr, redisClient != nil)
	authSvc := service.NewAuthService(validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
	})
	generatorSvc := service.NewScheduleGeneratorService(
		courseRepo, classroomRepo, scheduleRepo, db, generationLock, cacheSvc, metrics, validate, logr,
		service.ScheduleGeneratorConfig{PerBlockAvailability: cfg.Scheduler.PerBlockAvailability},
	)
	scheduleSvc := service.NewScheduleService(scheduleRepo, cacheSvc, validate, logr, cfg.Schedules.CacheTTL)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics, "/health", "/ready", "/metrics"))
	r.Use(internalmiddleware.WithResponseMeta())

	metricsHandler := handler.NewMetricsHandler(metrics, db)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	secured := api.Group("", internalmiddleware.JWT(authSvc))
	adminOnly := internalmiddleware.RequireRoles(models.RoleAdmin)

	generatorHandler := handler.NewScheduleGeneratorHandler(generatorSvc)
	generate := generatorHandler.Generate
	if !cfg.Scheduler.Enabled {
		generate = disabled("timetable generation is disabled")
	}
	secured.POST("/scheduler/generate", adminOnly, internalmiddleware.Audit(logr, "GENERATE", "timetable"), generate)
	secured.GET("/scheduler/status", generatorHandler.Status)

	scheduleHandler := handler.NewScheduleHandler(scheduleSvc)
	secured.GET("/schedules", scheduleHandler.List)
	secured.POST("/schedules/days/delete", adminOnly, internalmiddleware.Audit(logr, "DELETE_DAYS", "schedules"), scheduleHandler.DeleteByDays)

	if cfg.Exports.Enabled {
		exportQueue, err := wireExports(ctx, cfg, db, scheduleRepo, metrics, logr, api, secured, adminOnly)
		if err != nil {
			logr.Fatal("failed to init exports", zap.Error(err))
		}
		defer exportQueue.Stop()
	} else {
		off := disabled("timetable exports are disabled")
		secured.POST("/exports", adminOnly, off)
		secured.GET("/exports/:id", off)
		api.GET("/export/:token", off)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

func wireExports(
	ctx context.Context,
	cfg *config.Config,
	db *sqlx.DB,
	schedules *repository.ScheduleRepository,
	metrics *service.MetricsService,
	logr *zap.Logger,
	api, secured *gin.RouterGroup,
	adminOnly gin.HandlerFunc,
) (*jobs.Queue, error) {
	fileStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		return nil, err
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exportSvc := service.NewExportService(schedules, fileStore, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Exports.SignedURLTTL,
	}, logr, export.NewCSVExporter(), export.NewPDFExporter())

	exportRepo := repository.NewExportRepository(db)
	worker := service.NewExportWorker(exportRepo, exportSvc, metrics, cfg.Exports.WorkerRetries, logr)
	queue := jobs.NewQueue("timetable-exports", worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Exports.WorkerConcurrency,
		MaxRetries: cfg.Exports.WorkerRetries,
		Logger:     logr,
	})
	queue.Start(ctx)
	if err := metrics.TrackQueueDepth("timetable-exports", queue.Pending); err != nil {
		logr.Warn("register export queue depth gauge", zap.Error(err))
	}

	jobSvc := service.NewExportJobService(exportRepo, queue, exportSvc, logr, service.ExportJobServiceConfig{
		ResultTTL:       cfg.Exports.SignedURLTTL,
		CleanupInterval: time.Hour,
	})
	jobSvc.StartCleanup(ctx)

	exportHandler := handler.NewExportHandler(jobSvc)
	secured.POST("/exports", adminOnly, internalmiddleware.Audit(logr, "EXPORT", "timetable"), exportHandler.Create)
	secured.GET("/exports/:id", exportHandler.Get)
	api.GET("/export/:token", exportHandler.Download)
	return queue, nil
}

func disabled(message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		response.Error(c, appErrors.Clone(appErrors.ErrServiceDisabled, message))
	}
}
