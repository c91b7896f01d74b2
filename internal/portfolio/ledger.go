package portfolios

import (
	"errors"
	"fmt"
	"math"

	portfolioErrors "github.com/sebuszqo/PortfolioTracker/internal/errors"
)

var (
	ErrStockNotFound      = errors.New("stock not found in portfolio")
	ErrInsufficientShares = errors.New("cannot sell more shares than you own")
)

// Action tells the caller what to do with the store after a ledger operation.
type Action int

const (
	ActionUpsert Action = iota
	ActionDelete
)

func (a Action) String() string {
	switch a {
	case ActionUpsert:
		return "upsert"
	case ActionDelete:
		return "delete"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// Result is the outcome of Buy or Sell. For ActionDelete, Holding carries the
// ticker and the position as it was just before it was closed.
type Result struct {
	Action  Action
	Holding Holding
	Message string
}

// Buy adds quantity shares bought at price to current, which is nil when the
// ticker is not held yet. Buy never mutates current. A purchase that would
// overflow the share count or make the cost basis infinite is rejected.
func Buy(current *Holding, ticker string, quantity int64, price float64) (Result, error) {
	if quantity <= 0 || price <= 0 {
		return Result{}, portfolioErrors.ErrNonPositiveBuy
	}

	costOfPurchase := float64(quantity) * price
	if math.IsInf(costOfPurchase, 0) || math.IsNaN(costOfPurchase) {
		return Result{}, portfolioErrors.ErrCostTooLarge
	}

	if current == nil {
		return Result{
			Action: ActionUpsert,
			Holding: Holding{
				TickerSymbol: ticker,
				Quantity:     quantity,
				TotalCost:    costOfPurchase,
			},
			Message: fmt.Sprintf("Bought %d shares of %s.", quantity, ticker),
		}, nil
	}

	if quantity > math.MaxInt64-current.Quantity {
		return Result{}, portfolioErrors.ErrQuantityTooLarge
	}
	newTotalCost := current.TotalCost + costOfPurchase
	if math.IsInf(newTotalCost, 0) {
		return Result{}, portfolioErrors.ErrCostTooLarge
	}

	updated := *current
	updated.Quantity = current.Quantity + quantity
	updated.TotalCost = newTotalCost
	return Result{
		Action:  ActionUpsert,
		Holding: updated,
		Message: fmt.Sprintf("Bought %d more shares of %s.", quantity, ticker),
	}, nil
}

// Sell removes quantity shares from current at its average cost. The cost
// basis shrinks proportionally, so the average cost of the remaining shares
// is unchanged.
func Sell(current *Holding, ticker string, quantity int64) (Result, error) {
	if quantity <= 0 {
		return Result{}, portfolioErrors.ErrNonPositiveSell
	}
	if current == nil {
		return Result{}, ErrStockNotFound
	}
	if quantity > current.Quantity {
		return Result{}, ErrInsufficientShares
	}

	avgPrice := current.TotalCost / float64(current.Quantity)
	costToRemove := float64(quantity) * avgPrice

	newQuantity := current.Quantity - quantity
	newTotalCost := current.TotalCost - costToRemove

	if newQuantity == 0 {
		return Result{
			Action:  ActionDelete,
			Holding: *current,
			Message: fmt.Sprintf("Sold all %d shares of %s.", current.Quantity, ticker),
		}, nil
	}

	updated := *current
	updated.Quantity = newQuantity
	updated.TotalCost = newTotalCost
	return Result{
		Action:  ActionUpsert,
		Holding: updated,
		Message: fmt.Sprintf("Sold %d shares of %s. %d shares remaining.", quantity, ticker, newQuantity),
	}, nil
}
