package portfolios

import (
	"context"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const maxConcurrentQuotes = 10

// PriceSource is the part of the market data service the valuation needs.
type PriceSource interface {
	GetCurrentPrice(ctx context.Context, ticker string) (float64, error)
}

type HoldingValuation struct {
	TickerSymbol       string   `json:"ticker_symbol"`
	Quantity           int64    `json:"quantity"`
	TotalCost          float64  `json:"total_cost"`
	AverageCost        float64  `json:"average_cost"`
	Price              *float64 `json:"price"`
	MarketValue        *float64 `json:"market_value"`
	UnrealizedGainLoss *float64 `json:"unrealized_gain_loss"`
}

type Valuation struct {
	Holdings           []HoldingValuation `json:"holdings"`
	TotalCost          float64            `json:"total_cost"`
	TotalMarketValue   float64            `json:"total_market_value"`
	UnrealizedGainLoss float64            `json:"unrealized_gain_loss"`
	UnpricedTickers    []string           `json:"unpriced_tickers"`
}

type ValuationService struct {
	portfolioService Service
	prices           PriceSource
	logger           *zap.Logger
}

func NewValuationService(portfolioService Service, prices PriceSource, logger *zap.Logger) *ValuationService {
	return &ValuationService{
		portfolioService: portfolioService,
		prices:           prices,
		logger:           logger,
	}
}

// Value prices every holding in parallel. Holdings without a price are
// reported but left out of the market totals.
func (v *ValuationService) Value(ctx context.Context) (*Valuation, error) {
	holdings, err := v.portfolioService.GetHoldings(ctx)
	if err != nil {
		return nil, err
	}

	sort.Slice(holdings, func(i, j int) bool {
		return holdings[i].TickerSymbol < holdings[j].TickerSymbol
	})

	rows := make([]HoldingValuation, len(holdings))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentQuotes)

	for i, holding := range holdings {
		rows[i] = HoldingValuation{
			TickerSymbol: holding.TickerSymbol,
			Quantity:     holding.Quantity,
			TotalCost:    holding.TotalCost,
			AverageCost:  holding.AverageCost(),
		}
		g.Go(func() error {
			price, err := v.prices.GetCurrentPrice(gctx, holding.TickerSymbol)
			if err != nil {
				// a missing quote only leaves this row unpriced
				v.logger.Warn("no price for holding", zap.String("ticker", holding.TickerSymbol), zap.Error(err))
				return nil
			}
			marketValue := price * float64(holding.Quantity)
			gainLoss := marketValue - holding.TotalCost
			rows[i].Price = &price
			rows[i].MarketValue = &marketValue
			rows[i].UnrealizedGainLoss = &gainLoss
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	valuation := &Valuation{Holdings: rows, UnpricedTickers: []string{}}
	for _, row := range rows {
		valuation.TotalCost += row.TotalCost
		if row.MarketValue == nil {
			valuation.UnpricedTickers = append(valuation.UnpricedTickers, row.TickerSymbol)
			continue
		}
		valuation.TotalMarketValue += *row.MarketValue
		valuation.UnrealizedGainLoss += *row.UnrealizedGainLoss
	}
	return valuation, nil
}
