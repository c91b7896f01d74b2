package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
)

type MockClient struct {
	mu     sync.Mutex
	Prices map[string]float64
	Err    error
	Calls  int
}

func (m *MockClient) GetCurrentPrice(_ context.Context, ticker string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++

	if m.Err != nil {
		return 0, m.Err
	}
	price, ok := m.Prices[ticker]
	if !ok {
		return 0, ErrQuoteNotFound
	}
	return price, nil
}

func (m *MockClient) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls
}

type MockTickerSource struct {
	Tickers []string
	Err     error
}

func (m *MockTickerSource) GetHoldingTickers(context.Context) ([]string, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Tickers, nil
}

var errUpstreamDown = errors.New("upstream down")

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string, _ ...[]string) {
	respondJSON(w, status, map[string]interface{}{
		"status":  "error",
		"error":   message,
		"message": message,
		"code":    status,
	})
}
