package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/openlistr/listings-api/api/swagger"
	"github.com/openlistr/listings-api/internal/bootstrap"
	"github.com/openlistr/listings-api/internal/fields"
	"github.com/openlistr/listings-api/internal/handler"
	"github.com/openlistr/listings-api/internal/middleware"
	"github.com/openlistr/listings-api/internal/repository"
	"github.com/openlistr/listings-api/internal/search"
	"github.com/openlistr/listings-api/internal/service"
	"github.com/openlistr/listings-api/pkg/cache"
	"github.com/openlistr/listings-api/pkg/config"
	"github.com/openlistr/listings-api/pkg/csrf"
	"github.com/openlistr/listings-api/pkg/database"
	"github.com/openlistr/listings-api/pkg/logger"
	corsmiddleware "github.com/openlistr/listings-api/pkg/middleware/cors"
	reqidmiddleware "github.com/openlistr/listings-api/pkg/middleware/requestid"
)

// @title Listings API
// @version 0.1.0
// @description Directory service with runtime-extensible listing fields.
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

	var redisClient *redis.Client
	if client, err := cache.NewRedis(cfg.Redis); err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
	} else {
		redisClient = client
		defer redisClient.Close() //nolint:errcheck
	}

	// Registries are populated once at startup; everything after this point
	// only reads them.
	fieldReg := fields.NewRegistry(logr)
	renderer := fields.NewRenderer(fieldReg)
	filterReg := search.NewRegistry(fieldReg, logr)
	if err := bootstrap.Run(fieldReg, renderer, filterReg); err != nil {
		logr.Sugar().Fatalw("bootstrap failed", "error", err)
	}

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, 10*time.Minute, logr, true)
	} else {
		cacheSvc = service.NewCacheService(nil, metricsSvc, 0, logr, false)
	}

	listingRepo := repository.NewListingRepository(db)
	attachmentRepo := repository.NewAttachmentRepository(db)
	taxonomyRepo := repository.NewTaxonomyRepository(db)

	strict := cfg.Env != config.EnvProduction
	fieldValidator := fields.NewValidator(fieldReg, logr, strict)

	engine := search.NewEngine(filterReg, fieldReg, listingRepo, search.Config{
		DefaultPageSize: cfg.Search.DefaultPageSize,
		MaxPageSize:     cfg.Search.MaxPageSize,
		DefaultSort:     cfg.Search.DefaultSort,
	}, logr)

	listingSvc := service.NewListingService(listingRepo, attachmentRepo, taxonomyRepo,
		fieldReg, fieldValidator, nil, cacheSvc, metricsSvc, logr)
	searchSvc := service.NewSearchService(engine, attachmentRepo, listingSvc, metricsSvc, logr)
	taxonomySvc := service.NewTaxonomyService(taxonomyRepo, cacheSvc, cfg.Taxonomy.CountsCacheTTL, logr)
	exportSvc := service.NewExportService(searchSvc, listingSvc, fieldReg, cfg.Export.MaxRows, logr)

	signer := csrf.NewSigner(cfg.Submission.CSRFSecret, cfg.Submission.CSRFTTL)

	listingHandler := handler.NewListingHandler(listingSvc, searchSvc, taxonomySvc, renderer)
	submissionHandler := handler.NewSubmissionHandler(listingSvc, renderer, signer)
	adminHandler := handler.NewAdminListingHandler(listingSvc, renderer, signer)
	schemaHandler := handler.NewSchemaHandler(fieldReg, filterReg, renderer)
	exportHandler := handler.NewExportHandler(exportSvc)

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
	r.GET("/ready", readiness(db, logr))
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.GET("/listings", listingHandler.Search)
		api.GET("/listings/:id", listingHandler.Get)
		api.GET("/categories", listingHandler.Categories)
		api.GET("/tags", listingHandler.Tags)

		api.GET("/schema/fields", schemaHandler.Fields)
		api.GET("/schema/groups", schemaHandler.Groups)
		api.GET("/schema/filters", schemaHandler.Filters)

		if cfg.Submission.Enabled {
			api.GET("/submissions/form", submissionHandler.Form)
			api.POST("/submissions", submissionHandler.Submit)
		}

		admin := api.Group("/admin")
		{
			admin.POST("/listings", adminHandler.Create)
			admin.GET("/listings/form", adminHandler.Form)
			admin.GET("/listings/:id", adminHandler.Get)
			admin.PUT("/listings/:id", adminHandler.Update)
			admin.DELETE("/listings/:id", adminHandler.Delete)
			admin.GET("/listings/:id/form", adminHandler.Form)

			if cfg.Export.Enabled {
				admin.GET("/export/listings", exportHandler.SearchCSV)
				admin.GET("/export/listings/:id", exportHandler.ListingPDF)
			}
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func readiness(db *sqlx.DB, logr *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			logr.Sugar().Warnw("readiness check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}
