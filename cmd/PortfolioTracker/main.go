package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	database "github.com/sebuszqo/PortfolioTracker/db"
	"github.com/sebuszqo/PortfolioTracker/internal/api"
	"github.com/sebuszqo/PortfolioTracker/internal/config"
	"github.com/sebuszqo/PortfolioTracker/internal/logging"
	"github.com/sebuszqo/PortfolioTracker/internal/marketdata"
	portfolios "github.com/sebuszqo/PortfolioTracker/internal/portfolio"
	"go.uber.org/zap"
)

// store bundles the selected holdings repository with its health check and
// the resources to release on shutdown.
type store struct {
	repo   portfolios.HoldingRepository
	health api.HealthCheck
	closer io.Closer
}

func openStore(ctx context.Context, cfg *config.Config) (*store, error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		dbService, err := database.NewDBService(ctx, cfg.Store.ConnectionString)
		if err != nil {
			return nil, err
		}
		if err := portfolios.EnsureSchema(ctx, dbService.DB); err != nil {
			dbService.Close()
			return nil, err
		}
		zap.L().Info("database connected", zap.Any("health", dbService.Health(ctx)))
		return &store{
			repo:   portfolios.NewHoldingRepository(dbService.DB),
			health: dbService.Ping,
			closer: dbService,
		}, nil

	case config.DriverRedis:
		client := portfolios.NewRedisClient(cfg.Store.RedisAddr, cfg.Store.RedisPassword)
		if err := client.WithContext(ctx).Ping().Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("could not connect to redis: %w", err)
		}
		return &store{
			repo: portfolios.NewRedisHoldingRepository(client),
			health: func(ctx context.Context) error {
				return client.WithContext(ctx).Ping().Err()
			},
			closer: client,
		}, nil

	case config.DriverLevelDB:
		db, err := portfolios.OpenLevelDB(cfg.Store.LevelDBPath)
		if err != nil {
			return nil, err
		}
		return &store{repo: portfolios.NewLevelDBHoldingRepository(db), closer: db}, nil

	case config.DriverMemory:
		zap.L().Warn("using in-memory store, holdings are lost on restart")
		return &store{repo: portfolios.NewMemoryHoldingRepository()}, nil
	}
	return nil, fmt.Errorf("store driver invalid: %s", cfg.Store.Driver)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Missing configuration, update to start server: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		log.Fatalf("Could not initialize logger: %v", err)
	}
	defer logger.Sync()

	undo := zap.ReplaceGlobals(logger)
	defer undo()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatal("could not initialize holdings store", zap.Error(err), zap.String("driver", cfg.Store.Driver))
	}
	if st.closer != nil {
		defer st.closer.Close()
	}

	yahooClient := marketdata.NewYahooFinanceClient(cfg.Quote.BaseURL, cfg.Quote.Timeout.Duration, logger)
	breaker := marketdata.NewCircuitBreaker(cfg.Quote.BreakerThreshold, cfg.Quote.BreakerReset.Duration, logger, marketdata.ErrQuoteNotFound)
	marketDataService := marketdata.NewMarketDataService(yahooClient, breaker, cfg.Quote.CacheTTL.Duration, logger)
	marketDataHandler := marketdata.NewHandler(marketDataService, api.RespondJSON, api.RespondError)

	portfolioService := portfolios.NewPortfolioService(st.repo, logger)
	valuationService := portfolios.NewValuationService(portfolioService, marketDataService, logger)
	portfolioHandler := portfolios.NewHandler(portfolioService, valuationService, logger, api.RespondJSON, api.RespondError)

	server := api.NewServer(portfolioHandler, marketDataHandler, st.health, cfg.CORSOrigins, logger)

	scheduler, err := marketdata.StartPriceRefreshScheduler(cfg.Quote.RefreshSchedule, marketDataService, portfolioService, logger)
	if err != nil {
		logger.Fatal("scheduler didn't start, stopping the app", zap.Error(err), zap.String("schedule", cfg.Quote.RefreshSchedule))
	}
	defer scheduler.Stop()

	if cfg.PprofAddr != "" {
		logger.Info("starting pprof", zap.String("addr", cfg.PprofAddr))
		go func() {
			logger.Warn("pprof stopped", zap.Error(http.ListenAndServe(cfg.PprofAddr, nil)))
		}()
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("server starting", zap.String("addr", cfg.HTTPAddr), zap.String("store", cfg.Store.Driver))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server failed to start", zap.Error(err))
	}
	logger.Info("server stopped")
}
