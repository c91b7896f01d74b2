package api

import (
	"context"
	"net/http"
	"time"

	"github.com/sebuszqo/PortfolioTracker/internal/marketdata"
	portfolios "github.com/sebuszqo/PortfolioTracker/internal/portfolio"
	"go.uber.org/zap"
)

// HealthCheck reports whether the holdings store is reachable.
type HealthCheck func(ctx context.Context) error

type Server struct {
	router            *http.ServeMux
	portfolioHandler  *portfolios.Handler
	marketDataHandler *marketdata.Handler
	healthCheck       HealthCheck
	corsOrigins       []string
	logger            *zap.Logger
}

func NewServer(portfolioHandler *portfolios.Handler, marketDataHandler *marketdata.Handler, healthCheck HealthCheck, corsOrigins []string, logger *zap.Logger) *Server {
	server := &Server{
		portfolioHandler:  portfolioHandler,
		marketDataHandler: marketDataHandler,
		healthCheck:       healthCheck,
		corsOrigins:       corsOrigins,
		logger:            logger,
		router:            http.NewServeMux(),
	}
	server.RegisterRoutes()
	return server
}

func notFoundHandler(w http.ResponseWriter, _ *http.Request) {
	RespondJSON(w, http.StatusNotFound, Response{Message: "Path not found"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if s.healthCheck != nil {
		if err := s.healthCheck(ctx); err != nil {
			s.logger.Warn("store health check failed", zap.Error(err))
			RespondJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "down",
			})
			return
		}
	}
	RespondJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}

func (s *Server) RegisterRoutes() {
	router := http.NewServeMux()
	router.HandleFunc("GET /api/ready", s.handleReady)

	// MARKET DATA API
	router.HandleFunc("GET /api/stock/{ticker}", s.marketDataHandler.GetStockPrice)

	// PORTFOLIO API
	router.HandleFunc("GET /api/portfolio", s.portfolioHandler.GetPortfolio)
	router.HandleFunc("GET /api/portfolio/valuation", s.portfolioHandler.GetValuation)
	router.HandleFunc("POST /api/portfolio/buy", s.portfolioHandler.BuyStock)
	router.HandleFunc("POST /api/portfolio/sell", s.portfolioHandler.SellStock)

	router.HandleFunc("/", notFoundHandler)
	s.router = router
}

// Handler returns the router wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	var handler http.Handler = s.router
	handler = RecoveryMiddleware(s.logger, handler)
	handler = CORSMiddleware(s.corsOrigins, handler)
	handler = LoggingMiddleware(s.logger, handler)
	return handler
}
