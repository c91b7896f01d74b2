package portfolios

import (
	"context"
	"errors"
	"sync"
	"testing"

	portfolioErrors "github.com/sebuszqo/PortfolioTracker/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService() (Service, *MemoryHoldingRepository) {
	repo := NewMemoryHoldingRepository()
	return NewPortfolioService(repo, zap.NewNop()), repo
}

func TestService_BuyCreatesHolding(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	msg, err := svc.BuyStock(ctx, "AAPL", 10, 50)
	require.NoError(t, err)
	assert.Equal(t, "Bought 10 shares of AAPL.", msg)

	holding, err := repo.FindByTicker(ctx, "AAPL")
	require.NoError(t, err)
	assert.NotEmpty(t, holding.ID)
	assert.Equal(t, int64(10), holding.Quantity)
	assert.Equal(t, 500.0, holding.TotalCost)
}

func TestService_BuySellScenario(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	_, err := svc.BuyStock(ctx, "X", 10, 50)
	require.NoError(t, err)
	first, err := repo.FindByTicker(ctx, "X")
	require.NoError(t, err)

	msg, err := svc.BuyStock(ctx, "X", 5, 60)
	require.NoError(t, err)
	assert.Equal(t, "Bought 5 more shares of X.", msg)

	holding, err := repo.FindByTicker(ctx, "X")
	require.NoError(t, err)
	assert.Equal(t, first.ID, holding.ID)
	assert.Equal(t, int64(15), holding.Quantity)
	assert.Equal(t, 800.0, holding.TotalCost)

	msg, err = svc.SellStock(ctx, "X", 15)
	require.NoError(t, err)
	assert.Equal(t, "Sold all 15 shares of X.", msg)

	holdings, err := svc.GetHoldings(ctx)
	require.NoError(t, err)
	assert.Empty(t, holdings)
}

func TestService_PartialSell(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	_, err := svc.BuyStock(ctx, "X", 10, 50)
	require.NoError(t, err)

	msg, err := svc.SellStock(ctx, "X", 4)
	require.NoError(t, err)
	assert.Equal(t, "Sold 4 shares of X. 6 shares remaining.", msg)

	holding, err := repo.FindByTicker(ctx, "X")
	require.NoError(t, err)
	assert.Equal(t, int64(6), holding.Quantity)
	assert.Equal(t, 300.0, holding.TotalCost)
}

func TestService_RejectedSellLeavesHoldingUntouched(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	_, err := svc.BuyStock(ctx, "X", 10, 50)
	require.NoError(t, err)
	before, err := repo.FindByTicker(ctx, "X")
	require.NoError(t, err)

	_, err = svc.SellStock(ctx, "X", 11)
	assert.ErrorIs(t, err, ErrInsufficientShares)

	after, err := repo.FindByTicker(ctx, "X")
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestService_SellUnknownTicker(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.SellStock(context.Background(), "NOPE", 1)
	assert.ErrorIs(t, err, ErrStockNotFound)
}

func TestService_NormalizesTicker(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.BuyStock(ctx, "aapl", 1, 10)
	require.NoError(t, err)
	msg, err := svc.BuyStock(ctx, " AAPL ", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, "Bought 1 more shares of AAPL.", msg)

	tickers, err := svc.GetHoldingTickers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL"}, tickers)
}

func TestService_EmptyTicker(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.BuyStock(context.Background(), "  ", 1, 10)
	assert.True(t, portfolioErrors.IsValidationError(err))
}

func TestService_StoreFailureIsWrapped(t *testing.T) {
	storeErr := errors.New("connection refused")
	svc := NewPortfolioService(&FailingHoldingRepository{Err: storeErr}, zap.NewNop())

	_, err := svc.BuyStock(context.Background(), "AAPL", 1, 10)
	assert.ErrorIs(t, err, storeErr)

	_, err = svc.SellStock(context.Background(), "AAPL", 1)
	assert.ErrorIs(t, err, storeErr)

	_, err = svc.GetHoldings(context.Background())
	assert.ErrorIs(t, err, storeErr)
}

func TestService_ConcurrentBuysOnSameTicker(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.BuyStock(ctx, "AAPL", 2, 10)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	holding, err := repo.FindByTicker(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, int64(100), holding.Quantity)
	assert.Equal(t, 1000.0, holding.TotalCost)
}

func TestService_ConcurrentSellsNeverOversell(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	_, err := svc.BuyStock(ctx, "AAPL", 10, 10)
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	sold := 0
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.SellStock(ctx, "AAPL", 1); err == nil {
				mu.Lock()
				sold++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, sold)
	_, err = repo.FindByTicker(ctx, "AAPL")
	assert.ErrorIs(t, err, ErrHoldingNotFound)
}
