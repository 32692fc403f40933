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
	"go.uber.org/zap"

	_ "github.com/noah-isme/attendance-tracker/api/swagger"
	"github.com/noah-isme/attendance-tracker/internal/handler"
	"github.com/noah-isme/attendance-tracker/internal/relay"
	"github.com/noah-isme/attendance-tracker/internal/repository"
	"github.com/noah-isme/attendance-tracker/internal/router"
	"github.com/noah-isme/attendance-tracker/internal/service"
	"github.com/noah-isme/attendance-tracker/pkg/cache"
	"github.com/noah-isme/attendance-tracker/pkg/config"
	"github.com/noah-isme/attendance-tracker/pkg/database"
	"github.com/noah-isme/attendance-tracker/pkg/jobs"
	"github.com/noah-isme/attendance-tracker/pkg/logger"
	"github.com/noah-isme/attendance-tracker/pkg/storage"
)

// @title Attendance Tracker API
// @version 1.0.0
// @description Class attendance, statistics, reports and device transfer.
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg, "attendance-api")
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metricsSvc *service.MetricsService
	if cfg.Metrics.Enabled {
		metricsSvc = service.NewMetricsService()
	}

	slot, closeSlot, err := openSnapshotSlot(ctx, cfg)
	if err != nil {
		logr.Fatal("failed to open snapshot backend", zap.String("backend", cfg.Snapshot.Backend), zap.Error(err))
	}
	defer closeSlot()

	store := service.NewStore(slot, service.StoreConfig{
		Slot:             cfg.Snapshot.Slot,
		ProKey:           cfg.License.ProKey,
		EvalKey:          cfg.License.EvalKey,
		EvalPeriod:       cfg.License.EvalPeriod,
		FreeStudentLimit: cfg.License.FreeStudentLimit,
	}, logr.Named("store"), service.WithSnapshotMetrics(metricsSvc))
	if err := store.Load(ctx); err != nil {
		logr.Fatal("failed to load attendance document", zap.Error(err))
	}

	handlers := router.Handlers{
		Students:   handler.NewStudentHandler(store),
		Subjects:   handler.NewSubjectHandler(store),
		Attendance: handler.NewAttendanceHandler(store),
		Calendar:   handler.NewCalendarHandler(store),
		Settings:   handler.NewSettingsHandler(store),
		Stats:      handler.NewStatsHandler(store),
		Metrics:    handler.NewMetricsHandler(metricsSvc),
	}

	if cfg.Relay.Enabled {
		redisClient, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Fatal("failed to connect redis", zap.Error(err))
		}
		defer redisClient.Close() //nolint:errcheck
		relayRepo := repository.NewRelayRepository(redisClient, logr.Named("relay"))
		relaySvc := service.NewRelayService(relayRepo, service.RelayServiceConfig{TTL: cfg.Relay.TTL}, metricsSvc, logr.Named("relay"))
		handlers.Relay = handler.NewRelayHandler(relaySvc, cfg.Relay.MaxPayloadBytes)
	}

	var transfer *service.TransferService
	if cfg.Relay.BaseURL != "" {
		transfer = service.NewTransferService(store, relay.NewClient(cfg.Relay.BaseURL, cfg.Relay.ClientTimeout, logr.Named("relay-client")), logr.Named("transfer"))
	} else {
		transfer = service.NewTransferService(store, nil, logr.Named("transfer"))
	}
	transfer.Start(ctx)
	defer transfer.Close()
	handlers.Transfer = handler.NewTransferHandler(transfer)

	var reportQueue *jobs.Queue
	if cfg.Reports.Enabled {
		files, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			logr.Fatal("failed to prepare report storage", zap.Error(err))
		}
		signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
		exporter := service.NewExportService(store, files, signer, service.ExportConfig{
			APIPrefix: cfg.APIPrefix,
			ResultTTL: cfg.Reports.SignedURLTTL,
		}, logr.Named("export"))
		reportRepo := repository.NewReportRepository()
		worker := service.NewReportWorker(reportRepo, exporter, metricsSvc, logr.Named("report-worker"))

		var reportSvc *service.ReportService
		reportQueue = jobs.NewQueue("reports", worker.Handle, jobs.QueueConfig{
			Workers:    cfg.Reports.WorkerConcurrency,
			MaxRetries: cfg.Reports.WorkerRetries,
			Logger:     logr,
			OnDead: func(job jobs.Job, err error) {
				reportSvc.MarkDead(job, err)
			},
		})
		reportSvc = service.NewReportService(reportRepo, reportQueue, exporter, metricsSvc, logr.Named("reports"), service.ReportServiceConfig{
			ResultTTL:       cfg.Reports.SignedURLTTL,
			CleanupInterval: cfg.Reports.CleanupInterval,
		})
		reportQueue.Start(ctx)
		reportSvc.RecoverPendingJobs(ctx)
		reportSvc.StartCleanup(ctx)
		handlers.Reports = handler.NewReportHandler(reportSvc, exporter)
	}

	engine := router.New(router.Options{
		Env:            cfg.Env,
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Logger:         logr,
		Metrics:        metricsSvc,
	}, handlers)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "relay", cfg.Relay.Enabled, "reports", cfg.Reports.Enabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
	if reportQueue != nil {
		reportQueue.Stop()
	}
}

type snapshotSlot interface {
	Load(ctx context.Context, slot string) ([]byte, error)
	Save(ctx context.Context, slot string, version int, document []byte) error
}

func openSnapshotSlot(ctx context.Context, cfg *config.Config) (snapshotSlot, func(), error) {
	switch cfg.Snapshot.Backend {
	case config.SnapshotBackendPostgres:
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		repo := repository.NewSnapshotRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return repo, func() { _ = db.Close() }, nil
	default:
		files, err := storage.NewLocalStorage(cfg.Snapshot.Dir)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewFileSnapshotRepository(files), func() {}, nil
	}
}
