package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"plantasset/internal/alerting"
	"plantasset/internal/broker"
	"plantasset/internal/config"
	cronrunner "plantasset/internal/cron"
	"plantasset/internal/db"
	"plantasset/internal/handler"
	"plantasset/internal/ingest"
	"plantasset/internal/logger"
	"plantasset/internal/mapping"
	"plantasset/internal/notify"
	gormrepository "plantasset/internal/repository/gorm"
	"plantasset/internal/service"
	"plantasset/internal/timeseries"
)

func main() {
	cfgPath := os.Getenv("PA_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("PA_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	store := gormrepository.New(dbConn.Gorm)

	if err := service.SeedSignalTypes(context.Background(), store, logger); err != nil {
		logger.Warn("signal type seeding failed", zap.Error(err))
	}

	influx := timeseries.NewInflux(cfg.Influx)
	defer influx.Close()
	if err := influx.Ping(context.Background()); err != nil {
		logger.Warn("influx unreachable at startup", zap.Error(err))
	}

	rabbit, err := broker.NewRabbit(cfg.Rabbit, logger)
	if err != nil {
		logger.Fatal("rabbit connect failed", zap.Error(err))
	}
	defer rabbit.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cache := mapping.NewCache(store, logger, cfg.MappingCache.RefreshInterval)
	go func() {
		if err := cache.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("mapping cache stopped", zap.Error(err))
		}
	}()

	hub := notify.NewHub(logger)
	go hub.Run()

	notifications := &notify.Service{
		Repo:       store,
		Hub:        hub,
		Logger:     logger,
		DefaultTTL: cfg.Notifications.DefaultTTL,
	}

	hierarchy := &service.Hierarchy{Repo: store, Logger: logger}
	evaluator := &alerting.Evaluator{
		States:   alerting.NewStateStore(),
		Meta:     hierarchy,
		Trail:    store,
		Notifier: notifications,
		Logger:   logger,
		Priority: cfg.Notifications.AlertPriority,
	}

	if cfg.Telemetry.ConsumerEnabled {
		worker := &ingest.Worker{
			Broker:    rabbit,
			Cache:     cache,
			Writer:    influx,
			Evaluator: evaluator,
			Logger:    logger,
			Queue:     cfg.Rabbit.TelemetryQueue,
		}
		go func() {
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("telemetry worker stopped", zap.Error(err))
			}
		}()
	}

	mappings := &service.Mappings{Repo: store, Cache: cache, Logger: logger}
	reports := &service.Reports{
		Repo:   store,
		Query:  influx,
		Queue:  rabbit,
		Bucket: cfg.Influx.Bucket,
		Cfg:    cfg.Reports,
		Rabbit: cfg.Rabbit,
		Logger: logger,
	}
	reader := &timeseries.Reader{
		Mappings: store,
		Query:    influx,
		Bucket:   cfg.Influx.Bucket,
		Logger:   logger,
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm, Influx: influx, Cache: cache}
	healthHandler.Register(engine)
	assetHandler := &handler.AssetHandler{Hierarchy: hierarchy, Repo: store}
	assetHandler.Register(engine)
	mappingHandler := &handler.MappingHandler{Mappings: mappings}
	mappingHandler.Register(engine)
	telemetryHandler := &handler.TelemetryHandler{
		Reader:    reader,
		Publisher: rabbit,
		Queue:     cfg.Rabbit.TelemetryQueue,
	}
	telemetryHandler.Register(engine)
	alertHandler := &handler.AlertHandler{Repo: store}
	alertHandler.Register(engine)
	notificationHandler := &handler.NotificationHandler{Service: notifications, Repo: store, Hub: hub, Logger: logger}
	notificationHandler.Register(engine)
	reportHandler := &handler.ReportHandler{Reports: reports, Repo: store}
	reportHandler.Register(engine)

	if cfg.Cron.Enabled {
		runner := cronrunner.NewRunner(logger)
		if err := runner.Add(cfg.Notifications.CleanupSchedule, "notification-cleanup", notifications.CleanupExpired); err != nil {
			logger.Warn("cron register notification cleanup failed", zap.Error(err))
		}
		runner.Start()
		defer runner.Stop()
	}

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization,X-User-Id")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
