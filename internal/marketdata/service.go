package marketdata

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Client is an upstream price source.
type Client interface {
	GetCurrentPrice(ctx context.Context, ticker string) (float64, error)
}

type Service interface {
	GetCurrentPrice(ctx context.Context, ticker string) (float64, error)
	RefreshPrices(ctx context.Context, tickers []string) (int, error)
}

type service struct {
	client  Client
	breaker *CircuitBreaker
	cache   *quoteCache
	logger  *zap.Logger
}

func NewMarketDataService(client Client, breaker *CircuitBreaker, cacheTTL time.Duration, logger *zap.Logger) Service {
	return &service{
		client:  client,
		breaker: breaker,
		cache:   newQuoteCache(cacheTTL),
		logger:  logger,
	}
}

// GetCurrentPrice serves a fresh cached price when there is one and asks the
// upstream otherwise.
func (s *service) GetCurrentPrice(ctx context.Context, ticker string) (float64, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return 0, ErrQuoteNotFound
	}

	if price, ok := s.cache.get(ticker); ok {
		return price, nil
	}
	return s.fetch(ctx, ticker)
}

func (s *service) fetch(ctx context.Context, ticker string) (float64, error) {
	var price float64
	err := s.breaker.Execute(func() error {
		var err error
		price, err = s.client.GetCurrentPrice(ctx, ticker)
		return err
	})
	if err != nil {
		s.logger.Warn("could not fetch price", zap.String("ticker", ticker), zap.Error(err))
		return 0, err
	}
	if price <= 0 {
		return 0, ErrQuoteNotFound
	}

	s.cache.set(ticker, price)
	return price, nil
}

// RefreshPrices re-fetches the given tickers in parallel and returns how many
// were updated. Individual failures are logged and skipped.
func (s *service) RefreshPrices(ctx context.Context, tickers []string) (int, error) {
	s.cache.prune()
	if len(tickers) == 0 {
		return 0, nil
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	updated := 0

	maxGoroutines := 10
	sem := make(chan struct{}, maxGoroutines)

	for _, ticker := range tickers {
		wg.Add(1)
		sem <- struct{}{}
		go func(t string) {
			defer wg.Done()
			defer func() { <-sem }()

			if _, err := s.fetch(ctx, strings.ToUpper(t)); err != nil {
				return
			}
			mu.Lock()
			updated++
			mu.Unlock()
		}(ticker)
	}
	wg.Wait()

	return updated, ctx.Err()
}
