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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/hega4444/btcgame/internal/client/binance"
	"github.com/hega4444/btcgame/internal/client/coingecko"
	"github.com/hega4444/btcgame/internal/client/exchangerate"
	"github.com/hega4444/btcgame/internal/config"
	cronrunner "github.com/hega4444/btcgame/internal/cron"
	"github.com/hega4444/btcgame/internal/db"
	"github.com/hega4444/btcgame/internal/game"
	"github.com/hega4444/btcgame/internal/handler"
	"github.com/hega4444/btcgame/internal/logger"
	"github.com/hega4444/btcgame/internal/pricefeed"
	gormrepository "github.com/hega4444/btcgame/internal/repository/gorm"

	_ "github.com/hega4444/btcgame/docs"
)

func main() {
	cfgPath := os.Getenv("BTCGAME_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("BTCGAME_ENV_ONLY"); envOnlyRaw != "" {
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

	binanceHTTP := &http.Client{Timeout: cfg.PriceFeed.Binance.Timeout}
	binanceClient := binance.NewClient(binanceHTTP, cfg.PriceFeed.Binance.BaseURL)
	ratesHTTP := &http.Client{Timeout: cfg.PriceFeed.ExchangeRate.Timeout}
	ratesClient := exchangerate.NewClient(ratesHTTP, cfg.PriceFeed.ExchangeRate.BaseURL)
	geckoHTTP := &http.Client{Timeout: cfg.PriceFeed.CoinGecko.Timeout}
	geckoClient := coingecko.NewClient(geckoHTTP, cfg.PriceFeed.CoinGecko.BaseURL)

	store := gormrepository.New(dbConn.Gorm)
	ledger := &game.Ledger{Users: store, Logger: logger}
	resolver := &game.Resolver{
		Prices:         store,
		Wagers:         store,
		Ledger:         ledger,
		Logger:         logger,
		SettleDuration: cfg.Game.SettleDuration,
	}
	sweeper := &game.Sweeper{
		Wagers:    store,
		Resolver:  resolver,
		Logger:    logger,
		Grace:     cfg.Game.SweepGrace,
		BatchSize: cfg.Game.SweepBatchSize,
	}
	history := &pricefeed.History{
		Repo:      store,
		CoinGecko: geckoClient,
		Logger:    logger,
		Points:    cfg.PriceFeed.HistoryPoints,
		Interval:  cfg.PriceFeed.PollInterval,
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(handler.CORSMiddleware())
	engine.Use(handler.RequestIDMiddleware())
	engine.Use(handler.AccessLogMiddleware(logger))

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm}
	healthHandler.Register(engine)
	betHandler := &handler.BetHandler{Resolver: resolver, Logger: logger}
	betHandler.Register(engine)
	priceHandler := &handler.PriceHandler{History: history, Logger: logger}
	priceHandler.Register(engine)
	userHandler := &handler.UserHandler{Users: store, Logger: logger}
	userHandler.Register(engine)
	leaderboardHandler := &handler.LeaderboardHandler{Users: store, Logger: logger}
	leaderboardHandler.Register(engine)

	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Every successful ingestion cycle sweeps ripe bets, so settlement lag
	// tracks the feed cadence rather than a separate timer.
	afterIngest := func(ctx context.Context) {
		if err := sweeper.RunOnce(ctx); err != nil {
			logger.Warn("post-ingest sweep failed", zap.Error(err))
		}
	}

	if cfg.PriceFeed.Binance.UseStream {
		stream := &pricefeed.Stream{
			Repo:        store,
			Rates:       ratesClient,
			Logger:      logger,
			Config:      cfg.PriceFeed,
			AfterIngest: afterIngest,
		}
		go func() {
			if err := stream.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("price stream stopped", zap.Error(err))
			}
		}()
	} else {
		updater := &pricefeed.Updater{
			Repo:        store,
			Binance:     binanceClient,
			Rates:       ratesClient,
			Logger:      logger,
			Config:      cfg.PriceFeed,
			AfterIngest: afterIngest,
		}
		go func() {
			if err := updater.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("price updater stopped", zap.Error(err))
			}
		}()
	}

	// Fallback sweep loop: catches ripe bets even when the feed stalls.
	go func() {
		if err := sweeper.Run(ctx, cfg.Game.SweepInterval); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("sweep loop stopped", zap.Error(err))
		}
	}()

	cronRunner := cronrunner.New(logger, ctx)
	_, err = cronRunner.Add(cfg.Retention.CleanupSpec, func(ctx context.Context) {
		before := time.Now().UTC().Add(-cfg.Retention.TickMaxAge)
		n, err := store.DeletePriceTicksBefore(ctx, before)
		if err != nil {
			logger.Warn("tick cleanup failed", zap.Error(err))
			return
		}
		if n > 0 {
			logger.Info("deleted old price ticks", zap.Int64("count", n))
		}
	})
	if err != nil {
		logger.Warn("cron register tick cleanup failed", zap.Error(err))
	}
	cronRunner.Start()
	defer cronRunner.Stop()

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
