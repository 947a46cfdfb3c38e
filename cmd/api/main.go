package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/campushub/srms-api/internal/handler"
	internalmiddleware "github.com/campushub/srms-api/internal/middleware"
	"github.com/campushub/srms-api/internal/models"
	"github.com/campushub/srms-api/internal/repository"
	"github.com/campushub/srms-api/internal/service"
	"github.com/campushub/srms-api/pkg/cache"
	"github.com/campushub/srms-api/pkg/config"
	"github.com/campushub/srms-api/pkg/database"
	"github.com/campushub/srms-api/pkg/logger"
	corsmiddleware "github.com/campushub/srms-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campushub/srms-api/pkg/middleware/requestid"
)

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
	defer db.Close()

	metricsSvc := service.NewMetricsService()

	// Redis is optional: without it the API runs with analytics caching off.
	var cacheRepo service.CacheRepository
	cacheEnabled := false
	if cfg.Analytics.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, analytics caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
			cacheEnabled = true
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Analytics.CacheTTL, logr, cacheEnabled)

	validate := validator.New()

	accountRepo := repository.NewAccountRepository(db)
	semesterRepo := repository.NewSemesterRepository(db)

	authSvc := service.NewAuthService(accountRepo, validate, logr, service.AuthConfig{
		TokenSecret: cfg.JWT.Secret,
		TokenExpiry: cfg.JWT.Expiration,
		Issuer:      cfg.JWT.Issuer,
	})
	studentSvc := service.NewStudentService(accountRepo, semesterRepo, validate, logr)
	semesterSvc := service.NewSemesterService(semesterRepo, accountRepo, cacheSvc, metricsSvc, validate, logr)
	exportSvc := service.NewExportService(semesterSvc, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	semesterHandler := handler.NewSemesterHandler(semesterSvc, exportSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

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

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.GET("/me", internalmiddleware.JWT(authSvc), authHandler.Me)
	auth.POST("/change-password", internalmiddleware.JWT(authSvc), authHandler.ChangePassword)

	students := api.Group("/students", internalmiddleware.JWT(authSvc), internalmiddleware.RequireRoles(models.RoleMentor))
	students.GET("", studentHandler.List)
	students.POST("", studentHandler.Create)
	students.GET("/:id", studentHandler.Get)
	students.PUT("/:id", studentHandler.Update)
	students.DELETE("/:id", studentHandler.Delete)

	semesters := api.Group("/semesters", internalmiddleware.JWT(authSvc))
	semesters.GET("/student/:studentId", semesterHandler.ListByStudent)
	semesters.GET("/analytics/:studentId", semesterHandler.Performance)
	semesters.GET("/transcript/:studentId", semesterHandler.Transcript)
	semesters.GET("/:id", semesterHandler.Get)

	mentorSemesters := semesters.Group("", internalmiddleware.RequireRoles(models.RoleMentor))
	mentorSemesters.POST("", semesterHandler.Create)
	mentorSemesters.PUT("/:id", semesterHandler.Update)
	mentorSemesters.POST("/:id/subjects", semesterHandler.AddSubject)
	mentorSemesters.DELETE("/:id", semesterHandler.Delete)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
