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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"signalscout/internal/accuracy"
	"signalscout/internal/config"
	cronrunner "signalscout/internal/cron"
	"signalscout/internal/db"
	"signalscout/internal/handler"
	"signalscout/internal/logger"
	"signalscout/internal/market"
	"signalscout/internal/pipeline"
	"signalscout/internal/publish"
	gormrepository "signalscout/internal/repository/gorm"
	"signalscout/internal/source"
)

func main() {
	cfgPath := os.Getenv("SC_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("SC_ENV_ONLY"); envOnlyRaw != "" {
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

	prices := market.NewTickerProvider(cfg.Market, logger)
	processor := pipeline.NewProcessor(cfg, prices, store, logger)

	var publisher *publish.Publisher
	if cfg.Publish.Enabled {
		publisher = publish.NewPublisher(cfg.Publish.Broker, cfg.Publish.Topic)
		defer publisher.Close()
	}

	scanner := pipeline.NewScanService(processor, store, publisher, logger, cfg)
	for _, entry := range cfg.Sources {
		switch entry.Type {
		case "http_json":
			scanner.Register(source.NewHTTPJSONFetcher(entry.Name, entry.Endpoint, nil))
		case "static", "":
			scanner.Register(source.NewStaticFetcher(entry.Name))
		default:
			logger.Warn("unknown source type",
				zap.String("name", entry.Name), zap.String("type", entry.Type))
		}
	}

	tracker := accuracy.NewTracker(store, prices, logger, cfg.Accuracy)

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm}
	healthHandler.Register(engine)
	signalHandler := &handler.SignalHandler{Repo: store, Processor: processor}
	signalHandler.Register(engine)
	channelHandler := &handler.ChannelHandler{Repo: store}
	channelHandler.Register(engine)
	adminHandler := &handler.AdminHandler{Scanner: scanner, Tracker: tracker, Repo: store}
	adminHandler.Register(engine)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Market.StreamURL != "" && len(cfg.Market.StreamAssets) > 0 {
		stream := market.NewStream(market.StreamOptions{
			URL:    cfg.Market.StreamURL,
			Assets: cfg.Market.StreamAssets,
			Logger: logger,
		}, prices)
		go func() {
			if err := stream.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("price stream stopped", zap.Error(err))
			}
		}()
	}

	if cfg.Cron.Enabled {
		cronRunner := cronrunner.New(logger, ctx)
		_, err = cronRunner.Add(cfg.Cron.Scan, func(ctx context.Context) {
			if _, err := scanner.RunOnce(ctx); err != nil {
				logger.Warn("cron scan failed", zap.Error(err))
			}
		})
		if err != nil {
			logger.Warn("cron register scan failed", zap.Error(err))
		}
		_, err = cronRunner.Add(cfg.Cron.Resolution, func(ctx context.Context) {
			if err := tracker.RunOnce(ctx, time.Now().UTC()); err != nil {
				logger.Warn("cron resolution failed", zap.Error(err))
			}
		})
		if err != nil {
			logger.Warn("cron register resolution failed", zap.Error(err))
		}
		cronRunner.Start()
		defer cronRunner.Stop()
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown failed", zap.Error(err))
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
