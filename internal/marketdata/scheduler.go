package marketdata

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// TickerSource lists the tickers whose prices should be kept warm.
type TickerSource interface {
	GetHoldingTickers(ctx context.Context) ([]string, error)
}

// StartPriceRefreshScheduler refreshes the prices of every held ticker on
// schedule. The caller stops the returned cron on shutdown.
func StartPriceRefreshScheduler(schedule string, marketDataService Service, tickers TickerSource, logger *zap.Logger) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		refreshHeldPrices(context.Background(), marketDataService, tickers, logger)
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}

func refreshHeldPrices(ctx context.Context, marketDataService Service, tickers TickerSource, logger *zap.Logger) {
	held, err := tickers.GetHoldingTickers(ctx)
	if err != nil {
		logger.Error("error listing held tickers", zap.Error(err))
		return
	}
	if len(held) == 0 {
		logger.Debug("no holdings to be priced")
		return
	}

	updated, err := marketDataService.RefreshPrices(ctx, held)
	if err != nil {
		logger.Error("error updating prices", zap.Error(err))
		return
	}
	logger.Info("prices refreshed", zap.Int("updated", updated), zap.Int("held", len(held)))
}
