package portfolios

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	portfolioErrors "github.com/sebuszqo/PortfolioTracker/internal/errors"
	"go.uber.org/zap"
)

type Service interface {
	BuyStock(ctx context.Context, ticker string, quantity int64, price float64) (string, error)
	SellStock(ctx context.Context, ticker string, quantity int64) (string, error)
	GetHoldings(ctx context.Context) ([]Holding, error)
	GetHoldingTickers(ctx context.Context) ([]string, error)
}

type service struct {
	holdingRepo HoldingRepository
	locker      *keyedLocker
	logger      *zap.Logger
}

func NewPortfolioService(repo HoldingRepository, logger *zap.Logger) Service {
	return &service{
		holdingRepo: repo,
		locker:      newKeyedLocker(),
		logger:      logger,
	}
}

// findHolding maps "not stored" to a nil holding, which is what the ledger expects.
func (s *service) findHolding(ctx context.Context, ticker string) (*Holding, error) {
	holding, err := s.holdingRepo.FindByTicker(ctx, ticker)
	if err != nil {
		if errors.Is(err, ErrHoldingNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find holding %s: %w", ticker, err)
	}
	return holding, nil
}

func (s *service) BuyStock(ctx context.Context, ticker string, quantity int64, price float64) (string, error) {
	ticker = NormalizeTicker(ticker)
	if ticker == "" {
		return "", portfolioErrors.ErrInvalidRequestBody
	}

	unlock := s.locker.Lock(ticker)
	defer unlock()

	current, err := s.findHolding(ctx, ticker)
	if err != nil {
		return "", err
	}

	result, err := Buy(current, ticker, quantity, price)
	if err != nil {
		return "", err
	}

	if err := s.apply(ctx, result); err != nil {
		return "", err
	}

	s.logger.Info("stock bought",
		zap.String("ticker", ticker),
		zap.Int64("quantity", quantity),
		zap.Float64("price", price),
		zap.Int64("position", result.Holding.Quantity),
		zap.Float64("total_cost", result.Holding.TotalCost))
	return result.Message, nil
}

func (s *service) SellStock(ctx context.Context, ticker string, quantity int64) (string, error) {
	ticker = NormalizeTicker(ticker)
	if ticker == "" {
		return "", portfolioErrors.ErrInvalidRequestBody
	}

	unlock := s.locker.Lock(ticker)
	defer unlock()

	current, err := s.findHolding(ctx, ticker)
	if err != nil {
		return "", err
	}

	result, err := Sell(current, ticker, quantity)
	if err != nil {
		return "", err
	}

	if err := s.apply(ctx, result); err != nil {
		return "", err
	}

	s.logger.Info("stock sold",
		zap.String("ticker", ticker),
		zap.Int64("quantity", quantity),
		zap.Stringer("action", result.Action),
		zap.Int64("position", result.Holding.Quantity))
	return result.Message, nil
}

func (s *service) apply(ctx context.Context, result Result) error {
	switch result.Action {
	case ActionDelete:
		if err := s.holdingRepo.Delete(ctx, result.Holding.TickerSymbol); err != nil {
			return fmt.Errorf("delete holding %s: %w", result.Holding.TickerSymbol, err)
		}
	case ActionUpsert:
		holding := result.Holding
		if holding.ID == "" {
			holding.ID = uuid.New().String()
		}
		if err := s.holdingRepo.Upsert(ctx, &holding); err != nil {
			return fmt.Errorf("save holding %s: %w", holding.TickerSymbol, err)
		}
	default:
		return fmt.Errorf("unknown ledger action %s", result.Action)
	}
	return nil
}

func (s *service) GetHoldings(ctx context.Context) ([]Holding, error) {
	holdings, err := s.holdingRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list holdings: %w", err)
	}
	return holdings, nil
}

func (s *service) GetHoldingTickers(ctx context.Context) ([]string, error) {
	holdings, err := s.GetHoldings(ctx)
	if err != nil {
		return nil, err
	}
	tickers := make([]string, 0, len(holdings))
	for _, holding := range holdings {
		tickers = append(tickers, holding.TickerSymbol)
	}
	return tickers, nil
}
