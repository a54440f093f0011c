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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/azizur-rahaman/skillflow-sub002/api/swagger"
	"github.com/azizur-rahaman/skillflow-sub002/internal/handler"
	internalmiddleware "github.com/azizur-rahaman/skillflow-sub002/internal/middleware"
	"github.com/azizur-rahaman/skillflow-sub002/internal/repository"
	"github.com/azizur-rahaman/skillflow-sub002/internal/service"
	"github.com/azizur-rahaman/skillflow-sub002/pkg/cache"
	"github.com/azizur-rahaman/skillflow-sub002/pkg/config"
	"github.com/azizur-rahaman/skillflow-sub002/pkg/database"
	"github.com/azizur-rahaman/skillflow-sub002/pkg/jobs"
	"github.com/azizur-rahaman/skillflow-sub002/pkg/logger"
	corsmiddleware "github.com/azizur-rahaman/skillflow-sub002/pkg/middleware/cors"
	reqidmiddleware "github.com/azizur-rahaman/skillflow-sub002/pkg/middleware/requestid"
	"github.com/azizur-rahaman/skillflow-sub002/pkg/storage"
)

// @title SkillFlow Minting API
// @version 1.0.0
// @description Credential minting wizard for verified learner skills.
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metricsSvc := service.NewMetricsService()
	workflowCfg := service.WorkflowConfigFrom(cfg.Minting, cfg.Evidence)
	delayer := service.TimerDelayer{}

	var (
		db        *sqlx.DB
		skills    service.SkillSource = service.NewSimulatedSkillCatalog(delayer, cfg.Skills.LoadDelay)
		historyDB *repository.MintTransactionRepository
	)
	if cfg.Skills.Source == config.SkillSourcePostgres {
		db, err = database.NewPostgres(ctx, cfg.Database, logr)
		if err != nil {
			logr.Fatal("failed to connect to postgres", zap.Error(err))
		}
		defer db.Close()
		applied, err := database.Migrate(ctx, db)
		if err != nil {
			logr.Fatal("failed to apply migrations", zap.Error(err))
		}
		logr.Info("database ready", zap.Int("migrations_applied", applied))
		skills = repository.NewSkillRepository(db)
		historyDB = repository.NewMintTransactionRepository(db)
	}

	if cfg.Skills.CacheEnabled {
		redisClient, err := cache.NewRedis(ctx, cfg.Redis, logr)
		if err != nil {
			logr.Warn("redis unavailable, skill cache disabled", zap.Error(err))
		} else {
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			defer cacheRepo.Close()
			cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Skills.CacheTTL, logr, true)
			skills = service.NewCachedSkillSource(skills, cacheSvc, cfg.Skills.CacheTTL)
		}
	}

	fileStore, err := storage.NewLocalStorage(cfg.Evidence.StorageDir, cfg.Evidence.MaxFileSizeBytes)
	if err != nil {
		logr.Fatal("failed to prepare storage", zap.Error(err))
	}
	signer := storage.NewSignedURLSigner(cfg.Evidence.SignedURLSecret, cfg.Evidence.SignedURLTTL)

	exportCfg := service.ExportConfig{APIPrefix: cfg.APIPrefix}
	var exportSvc *service.ExportService
	if historyDB != nil {
		exportSvc = service.NewExportService(fileStore, signer, historyDB, exportCfg, logr, nil)
	} else {
		exportSvc = service.NewExportService(fileStore, signer, nil, exportCfg, logr, nil)
	}

	uploader := service.NewStorageEvidenceUploader(
		service.NewSimulatedEvidenceUploader(delayer, cfg.Evidence.UploadDelay),
		fileStore, signer, cfg.Evidence.AllowedMIMEs, cfg.Evidence.MaxFileSizeBytes, cfg.APIPrefix, logr,
	)

	deps := service.WorkflowDeps{
		Skills:   skills,
		Uploader: uploader,
		Verifier: service.NewSimulatedEvidenceVerifier(delayer, cfg.Evidence.VerifyDelay),
		Chain:    service.NewSimulatedChain(cfg.Minting.IPFSGateway, cfg.Minting.ContractAddress),
		Delayer:  delayer,
		Metrics:  metricsSvc,
	}
	if proofSigner := service.NewCredentialSigner(cfg.Minting.ProofSecret, cfg.Minting.Issuer); proofSigner != nil {
		deps.Signer = proofSigner
	}

	svcCfg := service.MintingServiceConfig{
		Workflow:        workflowCfg,
		IdleTTL:         cfg.Sessions.IdleTTL,
		CleanupInterval: cfg.Sessions.CleanupInterval,
	}
	var mintingSvc *service.MintingService
	if historyDB != nil {
		mintingSvc = service.NewMintingService(svcCfg, deps, historyDB, exportSvc, logr)
	} else {
		mintingSvc = service.NewMintingService(svcCfg, deps, nil, exportSvc, logr)
	}

	verifyQueue := jobs.NewQueue("evidence-verification", mintingSvc.HandleVerificationJob, jobs.QueueConfig{
		Workers:    cfg.Verification.WorkerConcurrency,
		MaxRetries: cfg.Verification.WorkerRetries,
		Logger:     logr,
	})
	verifyQueue.Start(ctx)
	defer verifyQueue.Stop()
	mintingSvc.SetVerificationQueue(verifyQueue)

	go mintingSvc.Run(ctx)
	go runExportCleanup(ctx, exportSvc, cfg.Evidence.SignedURLTTL, logr)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc, "/metrics", "/health", "/ready"))

	metricsHandler := handler.NewMetricsHandler(metricsSvc)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if db != nil {
			if err := db.PingContext(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	mintingHandler := handler.NewMintingHandler(mintingSvc, exportSvc, validator.New(), cfg.Evidence.MaxFileSizeBytes)
	api := r.Group(cfg.APIPrefix)
	api.GET("/metrics/summary", metricsHandler.Summary)
	minting := api.Group("/minting")
	mintingHandler.RegisterDownloads(minting)
	owned := minting.Group("")
	owned.Use(internalmiddleware.RequireOwner())
	mintingHandler.Register(owned)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "skill_source", cfg.Skills.Source)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
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

func runExportCleanup(ctx context.Context, exports *service.ExportService, ttl time.Duration, logr *zap.Logger) {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	ticker := time.NewTicker(ttl)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := exports.Cleanup(0)
			if err != nil {
				logr.Warn("export cleanup failed", zap.Error(err))
				continue
			}
			if len(removed) > 0 {
				logr.Info("removed expired exports", zap.Int("files", len(removed)))
			}
		}
	}
}
