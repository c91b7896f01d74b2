package portfolios

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string, errors ...[]string) {
	payload := map[string]interface{}{
		"status":  "error",
		"error":   message,
		"message": message,
		"code":    status,
	}

	if len(errors) > 0 && len(errors[0]) > 0 {
		payload["errors"] = errors[0]
	}

	respondJSON(w, status, payload)
}

type MockPriceSource struct {
	mu     sync.Mutex
	Prices map[string]float64
	Calls  []string
}

func (m *MockPriceSource) GetCurrentPrice(_ context.Context, ticker string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, ticker)

	price, ok := m.Prices[ticker]
	if !ok {
		return 0, errors.New("no quote")
	}
	return price, nil
}

// FailingHoldingRepository returns Err from every call.
type FailingHoldingRepository struct {
	Err error
}

func (f *FailingHoldingRepository) FindByTicker(context.Context, string) (*Holding, error) {
	return nil, f.Err
}

func (f *FailingHoldingRepository) Upsert(context.Context, *Holding) error {
	return f.Err
}

func (f *FailingHoldingRepository) Delete(context.Context, string) error {
	return f.Err
}

func (f *FailingHoldingRepository) FindAll(context.Context) ([]Holding, error) {
	return nil, f.Err
}

// testHoldingRepository runs the contract every store implementation has to meet.
func testHoldingRepository(t *testing.T, repo HoldingRepository) {
	ctx := context.Background()

	_, err := repo.FindByTicker(ctx, "AAPL")
	assert.ErrorIs(t, err, ErrHoldingNotFound)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	id := uuid.New().String()
	require.NoError(t, repo.Upsert(ctx, &Holding{ID: id, TickerSymbol: "AAPL", Quantity: 10, TotalCost: 500}))
	require.NoError(t, repo.Upsert(ctx, &Holding{ID: uuid.New().String(), TickerSymbol: "MSFT", Quantity: 3, TotalCost: 10.0 / 3.0}))

	holding, err := repo.FindByTicker(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, id, holding.ID)
	assert.Equal(t, int64(10), holding.Quantity)
	assert.Equal(t, 500.0, holding.TotalCost)
	assert.False(t, holding.CreatedAt.IsZero())

	// update in place keeps the identity
	require.NoError(t, repo.Upsert(ctx, &Holding{ID: id, TickerSymbol: "AAPL", Quantity: 6, TotalCost: 300}))
	holding, err = repo.FindByTicker(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, id, holding.ID)
	assert.Equal(t, int64(6), holding.Quantity)
	assert.Equal(t, 300.0, holding.TotalCost)

	// float cost basis survives the round trip bit for bit
	holding, err = repo.FindByTicker(ctx, "MSFT")
	require.NoError(t, err)
	assert.Equal(t, 10.0/3.0, holding.TotalCost)

	all, err = repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, repo.Delete(ctx, "AAPL"))
	_, err = repo.FindByTicker(ctx, "AAPL")
	assert.ErrorIs(t, err, ErrHoldingNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "AAPL"), ErrHoldingNotFound)

	all, err = repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "MSFT", all[0].TickerSymbol)
}
