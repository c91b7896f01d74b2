package marketdata

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(client Client, ttl time.Duration) Service {
	breaker := NewCircuitBreaker(2, time.Minute, zap.NewNop(), ErrQuoteNotFound)
	return NewMarketDataService(client, breaker, ttl, zap.NewNop())
}

func TestService_GetCurrentPrice_UsesCache(t *testing.T) {
	client := &MockClient{Prices: map[string]float64{"AAPL": 190}}
	svc := newTestService(client, time.Minute)

	price, err := svc.GetCurrentPrice(context.Background(), "aapl")
	require.NoError(t, err)
	assert.Equal(t, 190.0, price)

	price, err = svc.GetCurrentPrice(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 190.0, price)
	assert.Equal(t, 1, client.calls())
}

func TestService_GetCurrentPrice_NotFound(t *testing.T) {
	svc := newTestService(&MockClient{}, time.Minute)

	_, err := svc.GetCurrentPrice(context.Background(), "NOPE")
	assert.ErrorIs(t, err, ErrQuoteNotFound)

	_, err = svc.GetCurrentPrice(context.Background(), " ")
	assert.ErrorIs(t, err, ErrQuoteNotFound)
}

func TestService_GetCurrentPrice_BreakerOpens(t *testing.T) {
	client := &MockClient{Err: errUpstreamDown}
	svc := newTestService(client, time.Minute)
	ctx := context.Background()

	_, err := svc.GetCurrentPrice(ctx, "AAPL")
	assert.ErrorIs(t, err, errUpstreamDown)
	_, err = svc.GetCurrentPrice(ctx, "AAPL")
	assert.ErrorIs(t, err, errUpstreamDown)

	_, err = svc.GetCurrentPrice(ctx, "AAPL")
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 2, client.calls())
}

func TestService_RefreshPrices(t *testing.T) {
	client := &MockClient{Prices: map[string]float64{"AAPL": 190, "MSFT": 410}}
	svc := newTestService(client, time.Minute)

	updated, err := svc.RefreshPrices(context.Background(), []string{"AAPL", "MSFT", "GONE"})
	require.NoError(t, err)
	assert.Equal(t, 2, updated)

	// served from the warmed cache
	price, err := svc.GetCurrentPrice(context.Background(), "MSFT")
	require.NoError(t, err)
	assert.Equal(t, 410.0, price)
	assert.Equal(t, 3, client.calls())
}

func TestRefreshHeldPrices(t *testing.T) {
	client := &MockClient{Prices: map[string]float64{"AAPL": 190}}
	svc := newTestService(client, time.Minute)

	refreshHeldPrices(context.Background(), svc, &MockTickerSource{Tickers: []string{"AAPL"}}, zap.NewNop())
	assert.Equal(t, 1, client.calls())

	refreshHeldPrices(context.Background(), svc, &MockTickerSource{Err: errUpstreamDown}, zap.NewNop())
	refreshHeldPrices(context.Background(), svc, &MockTickerSource{}, zap.NewNop())
	assert.Equal(t, 1, client.calls())
}

func TestStartPriceRefreshScheduler(t *testing.T) {
	svc := newTestService(&MockClient{}, time.Minute)

	_, err := StartPriceRefreshScheduler("not a schedule", svc, &MockTickerSource{}, zap.NewNop())
	assert.Error(t, err)

	c, err := StartPriceRefreshScheduler("@every 1h", svc, &MockTickerSource{}, zap.NewNop())
	require.NoError(t, err)
	assert.Len(t, c.Entries(), 1)
	<-c.Stop().Done()
}
