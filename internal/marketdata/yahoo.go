package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	ErrQuoteNotFound = errors.New("quote not found")
	// yahoo finance reports unknown symbols with this code
	yahooNotFoundCode = "Not Found"
)

// yahooChart is the subset of the v8 chart response the client reads.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency           string  `json:"currency"`
				Symbol             string  `json:"symbol"`
				ExchangeName       string  `json:"exchangeName"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				PreviousClose      float64 `json:"chartPreviousClose"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quotes []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Err *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// price prefers the live market price and falls back to the last close of
// the day, like the regularMarketPrice/history lookup of the web client.
func (q yahooChart) price() (float64, error) {
	if q.Chart.Err != nil {
		if q.Chart.Err.Code == yahooNotFoundCode {
			return 0, ErrQuoteNotFound
		}
		return 0, errors.New(q.Chart.Err.Description)
	}
	if len(q.Chart.Result) == 0 {
		return 0, ErrQuoteNotFound
	}

	result := q.Chart.Result[0]
	if result.Meta.RegularMarketPrice > 0 {
		return result.Meta.RegularMarketPrice, nil
	}
	if len(result.Indicators.Quotes) > 0 {
		closes := result.Indicators.Quotes[0].Close
		for i := len(closes) - 1; i >= 0; i-- {
			if closes[i] != nil && *closes[i] > 0 {
				return *closes[i], nil
			}
		}
	}
	return 0, ErrQuoteNotFound
}

// YahooFinanceClient fetches current prices from the Yahoo Finance chart API.
type YahooFinanceClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewYahooFinanceClient(baseURL string, timeout time.Duration, logger *zap.Logger) *YahooFinanceClient {
	return &YahooFinanceClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (c *YahooFinanceClient) GetCurrentPrice(ctx context.Context, ticker string) (float64, error) {
	fullURL := fmt.Sprintf("%s/v8/finance/chart/%s?range=1d&interval=1m", c.baseURL, url.PathEscape(ticker))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return 0, err
	}
	// yahoo rejects requests without a browser-like agent
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; PortfolioTracker/1.0)")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("download yahoo finance quote failed", zap.Error(err), zap.String("ticker", ticker))
		return 0, err
	}
	defer resp.Body.Close()

	// unknown symbols come back as 404 with an error document
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
		io.Copy(io.Discard, resp.Body)
		return 0, fmt.Errorf("error querying API: %s", resp.Status)
	}

	var chart yahooChart
	if err := json.NewDecoder(resp.Body).Decode(&chart); err != nil {
		if resp.StatusCode == http.StatusNotFound {
			return 0, ErrQuoteNotFound
		}
		c.logger.Error("unmarshal yahoo finance response failed", zap.Error(err), zap.String("ticker", ticker))
		return 0, err
	}

	price, err := chart.price()
	if err != nil {
		if errors.Is(err, ErrQuoteNotFound) {
			c.logger.Info("ignore quote due to symbol not found", zap.String("ticker", ticker))
		}
		return 0, err
	}
	return price, nil
}
