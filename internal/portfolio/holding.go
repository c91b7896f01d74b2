package portfolios

import (
	"strings"
	"time"
)

// Holding is the current position in one ticker. A stored Holding always has
// Quantity > 0; a fully sold position is deleted rather than kept at zero.
type Holding struct {
	ID           string
	TickerSymbol string
	Quantity     int64
	TotalCost    float64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type HoldingDTO struct {
	ID           string  `json:"_id"`
	TickerSymbol string  `json:"ticker_symbol"`
	Quantity     int64   `json:"quantity"`
	TotalCost    float64 `json:"total_cost"`
}

// AverageCost is the cost basis per share.
func (h Holding) AverageCost() float64 {
	return h.TotalCost / float64(h.Quantity)
}

func (h Holding) DTO() HoldingDTO {
	return HoldingDTO{
		ID:           h.ID,
		TickerSymbol: h.TickerSymbol,
		Quantity:     h.Quantity,
		TotalCost:    h.TotalCost,
	}
}

// NormalizeTicker maps user input onto the store key: "aapl " and "AAPL"
// address the same holding.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}
