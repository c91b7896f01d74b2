package portfolios

import (
	"context"
	"sync"
	"time"
)

// MemoryHoldingRepository keeps holdings in process memory. It backs
// STORE_DRIVER=memory and the package tests.
type MemoryHoldingRepository struct {
	mu       sync.RWMutex
	holdings map[string]Holding
}

func NewMemoryHoldingRepository() *MemoryHoldingRepository {
	return &MemoryHoldingRepository{holdings: make(map[string]Holding)}
}

func (r *MemoryHoldingRepository) FindByTicker(_ context.Context, ticker string) (*Holding, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	holding, ok := r.holdings[ticker]
	if !ok {
		return nil, ErrHoldingNotFound
	}
	return &holding, nil
}

func (r *MemoryHoldingRepository) Upsert(_ context.Context, holding *Holding) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := r.holdings[holding.TickerSymbol]; ok {
		holding.ID = existing.ID
		holding.CreatedAt = existing.CreatedAt
	} else if holding.CreatedAt.IsZero() {
		holding.CreatedAt = now
	}
	holding.UpdatedAt = now
	r.holdings[holding.TickerSymbol] = *holding
	return nil
}

func (r *MemoryHoldingRepository) Delete(_ context.Context, ticker string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.holdings[ticker]; !ok {
		return ErrHoldingNotFound
	}
	delete(r.holdings, ticker)
	return nil
}

func (r *MemoryHoldingRepository) FindAll(_ context.Context) ([]Holding, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	holdings := make([]Holding, 0, len(r.holdings))
	for _, holding := range r.holdings {
		holdings = append(holdings, holding)
	}
	return holdings, nil
}
