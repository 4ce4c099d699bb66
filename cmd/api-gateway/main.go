package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/hallpass/school-portal-api/api/swagger"
	"github.com/hallpass/school-portal-api/internal/handler"
	appmiddleware "github.com/hallpass/school-portal-api/internal/middleware"
	"github.com/hallpass/school-portal-api/internal/realtime"
	"github.com/hallpass/school-portal-api/internal/repository"
	"github.com/hallpass/school-portal-api/internal/service"
	"github.com/hallpass/school-portal-api/pkg/cache"
	"github.com/hallpass/school-portal-api/pkg/config"
	"github.com/hallpass/school-portal-api/pkg/database"
	"github.com/hallpass/school-portal-api/pkg/jobs"
	"github.com/hallpass/school-portal-api/pkg/logger"
	corsmiddleware "github.com/hallpass/school-portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/hallpass/school-portal-api/pkg/middleware/requestid"
)

// @title School Portal API
// @version 1.0.0
// @description Grade tracking, analytics and scheduling for schools
// @BasePath /
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
	defer db.Close()

	validate := validator.New()
	metricsService := service.NewMetricsService()

	var cacheService *service.CacheService
	if cfg.Analytics.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		} else {
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheService = service.NewCacheService(cacheRepo, metricsService, cfg.Analytics.CacheTTL, logr, true)
			defer cacheRepo.Close() //nolint:errcheck
		}
	}

	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	reportRepo := repository.NewReportRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)

	authService := service.NewAuthService(userRepo, tokenRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "school-portal-api",
	})
	userService := service.NewUserService(userRepo, validate, logr)
	subjectService := service.NewSubjectService(subjectRepo, userRepo, validate, logr)
	enrollmentService := service.NewEnrollmentService(enrollmentRepo, userRepo, subjectRepo, logr)

	var hub *realtime.Hub
	if cfg.Realtime.Enabled {
		hub = realtime.NewHub(logr)
		defer hub.Close()
	}
	notificationService := service.NewNotificationService(notificationRepo, hub, logr)

	assignmentService := service.NewAssignmentService(assignmentRepo, notificationService, validate, logr)
	gradebookService := service.NewGradebookService(assignmentRepo, cacheService, metricsService, logr)
	analyticsService := service.NewAnalyticsService(analyticsRepo, cacheService, metricsService, logr)
	attendanceService := service.NewAttendanceService(attendanceRepo, cacheService, validate, logr)
	scheduleService := service.NewScheduleService(scheduleRepo, subjectRepo, validate, logr)
	dashboardService := service.NewDashboardService(dashboardRepo, attendanceRepo, cfg.Grading.PassingGrade, logr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	exportService := service.NewExportService(reportRepo, gradebookService, subjectRepo, cfg.Reports.StorageDir, logr)
	if cfg.Reports.Enabled {
		reportQueue := jobs.NewQueue("reports", exportService.HandleJob, jobs.QueueConfig{
			Workers:    cfg.Reports.WorkerConcurrency,
			MaxRetries: cfg.Reports.WorkerRetries,
			Logger:     logr,
		})
		exportService.BindQueue(reportQueue)
		reportQueue.Start(ctx)
		defer reportQueue.Stop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(appmiddleware.Metrics(metricsService))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handlers := &handler.Handlers{
		Auth:          handler.NewAuthHandler(authService, userService),
		Users:         handler.NewUserHandler(userService),
		Subjects:      handler.NewSubjectHandler(subjectService),
		Enrollments:   handler.NewEnrollmentHandler(enrollmentService),
		Assignments:   handler.NewAssignmentHandler(assignmentService),
		Gradebook:     handler.NewGradebookHandler(gradebookService, subjectService, notificationService),
		Analytics:     handler.NewAnalyticsHandler(analyticsService, userService),
		Attendance:    handler.NewAttendanceHandler(attendanceService, subjectService, notificationService, userService),
		Schedule:      handler.NewScheduleHandler(scheduleService),
		Dashboard:     handler.NewDashboardHandler(dashboardService, analyticsService),
		Notifications: handler.NewNotificationHandler(notificationService, hub, enrollmentService),
		Reports:       handler.NewReportHandler(exportService),
		Metrics:       handler.NewMetricsHandler(metricsService),
	}
	handlers.Register(r, authService)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
