package marketdata

import (
	"net/http"
	"strings"
)

type Handler struct {
	marketDataService Service
	respondJSON       func(w http.ResponseWriter, status int, payload interface{})
	respondError      func(w http.ResponseWriter, status int, message string, errors ...[]string)
}

func NewHandler(
	marketDataService Service,
	respondJSON func(w http.ResponseWriter, status int, payload interface{}),
	respondError func(w http.ResponseWriter, status int, message string, errors ...[]string),
) *Handler {
	return &Handler{
		marketDataService: marketDataService,
		respondJSON:       respondJSON,
		respondError:      respondError,
	}
}

type priceResponse struct {
	Ticker string  `json:"ticker"`
	Price  float64 `json:"price"`
}

// GetStockPrice answers every lookup failure with 404, the service has
// already logged the cause.
func (h *Handler) GetStockPrice(w http.ResponseWriter, r *http.Request) {
	ticker := strings.ToUpper(strings.TrimSpace(r.PathValue("ticker")))

	price, err := h.marketDataService.GetCurrentPrice(r.Context(), ticker)
	if err != nil {
		h.respondError(w, http.StatusNotFound, "Could not find data for the ticker.")
		return
	}

	h.respondJSON(w, http.StatusOK, priceResponse{Ticker: ticker, Price: price})
}
