package portfolios

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	portfolioErrors "github.com/sebuszqo/PortfolioTracker/internal/errors"
	"go.uber.org/zap"
)

type Valuer interface {
	Value(ctx context.Context) (*Valuation, error)
}

type Handler struct {
	portfolioService Service
	valuer           Valuer
	logger           *zap.Logger
	respondJSON      func(w http.ResponseWriter, status int, payload interface{})
	respondError     func(w http.ResponseWriter, status int, message string, errors ...[]string)
}

func NewHandler(
	portfolioService Service,
	valuer Valuer,
	logger *zap.Logger,
	respondJSON func(w http.ResponseWriter, status int, payload interface{}),
	respondError func(w http.ResponseWriter, status int, message string, errors ...[]string),
) *Handler {
	return &Handler{
		portfolioService: portfolioService,
		valuer:           valuer,
		logger:           logger,
		respondJSON:      respondJSON,
		respondError:     respondError,
	}
}

// shareCount accepts a whole number of shares written as 10, 10.0 or "10".
// Fractional or out of range values fail decoding.
type shareCount int64

func (c *shareCount) UnmarshalJSON(data []byte) error {
	raw := string(bytes.TrimSpace(data))
	if len(raw) > 0 && raw[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	}

	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*c = shareCount(n)
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("quantity %q is not a number", raw)
	}
	if f != math.Trunc(f) || f >= math.MaxInt64 || f < math.MinInt64 {
		return fmt.Errorf("quantity %q is not a whole number of shares", raw)
	}
	*c = shareCount(f)
	return nil
}

type buyRequest struct {
	TickerSymbol *string     `json:"ticker_symbol"`
	Quantity     *shareCount `json:"quantity"`
	Price        *float64    `json:"price"`
}

type sellRequest struct {
	TickerSymbol *string     `json:"ticker_symbol"`
	Quantity     *shareCount `json:"quantity"`
}

func (h *Handler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	holdings, err := h.portfolioService.GetHoldings(r.Context())
	if err != nil {
		h.logger.Error("list holdings failed", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "Failed to retrieve portfolio")
		return
	}

	response := make([]HoldingDTO, 0, len(holdings))
	for _, holding := range holdings {
		response = append(response, holding.DTO())
	}
	h.respondJSON(w, http.StatusOK, response)
}

func (h *Handler) BuyStock(w http.ResponseWriter, r *http.Request) {
	var req buyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, portfolioErrors.ErrInvalidRequestBody.Error())
		return
	}
	if req.TickerSymbol == nil || NormalizeTicker(*req.TickerSymbol) == "" || req.Quantity == nil || req.Price == nil {
		h.respondError(w, http.StatusBadRequest, portfolioErrors.ErrInvalidRequestBody.Error())
		return
	}
	if *req.Quantity <= 0 || *req.Price <= 0 {
		h.respondError(w, http.StatusBadRequest, portfolioErrors.ErrNonPositiveBuy.Error())
		return
	}

	message, err := h.portfolioService.BuyStock(r.Context(), *req.TickerSymbol, int64(*req.Quantity), *req.Price)
	if err != nil {
		if portfolioErrors.IsValidationError(err) {
			h.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("buy failed", zap.Error(err), zap.String("ticker", *req.TickerSymbol))
		h.respondError(w, http.StatusInternalServerError, "Failed to buy stock")
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"status":  "success",
		"message": message,
	})
}

func (h *Handler) SellStock(w http.ResponseWriter, r *http.Request) {
	var req sellRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, portfolioErrors.ErrInvalidRequestBody.Error())
		return
	}
	if req.TickerSymbol == nil || NormalizeTicker(*req.TickerSymbol) == "" || req.Quantity == nil {
		h.respondError(w, http.StatusBadRequest, portfolioErrors.ErrInvalidRequestBody.Error())
		return
	}
	if *req.Quantity <= 0 {
		h.respondError(w, http.StatusBadRequest, portfolioErrors.ErrNonPositiveSell.Error())
		return
	}

	message, err := h.portfolioService.SellStock(r.Context(), *req.TickerSymbol, int64(*req.Quantity))
	if err != nil {
		switch {
		case errors.Is(err, ErrStockNotFound):
			h.respondError(w, http.StatusNotFound, "Stock not found in portfolio.")
		case errors.Is(err, ErrInsufficientShares):
			h.respondError(w, http.StatusBadRequest, "Cannot sell more shares than you own.")
		case portfolioErrors.IsValidationError(err):
			h.respondError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("sell failed", zap.Error(err), zap.String("ticker", *req.TickerSymbol))
			h.respondError(w, http.StatusInternalServerError, "Failed to sell stock")
		}
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": message,
	})
}

func (h *Handler) GetValuation(w http.ResponseWriter, r *http.Request) {
	valuation, err := h.valuer.Value(r.Context())
	if err != nil {
		h.logger.Error("portfolio valuation failed", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "Failed to value portfolio")
		return
	}
	h.respondJSON(w, http.StatusOK, valuation)
}
