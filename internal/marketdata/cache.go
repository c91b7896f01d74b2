package marketdata

import (
	"sync"
	"time"
)

type cachedQuote struct {
	price     float64
	fetchedAt time.Time
}

// quoteCache keeps the last known price per ticker for ttl.
type quoteCache struct {
	mu     sync.RWMutex
	ttl    time.Duration
	quotes map[string]cachedQuote
	now    func() time.Time
}

func newQuoteCache(ttl time.Duration) *quoteCache {
	return &quoteCache{
		ttl:    ttl,
		quotes: make(map[string]cachedQuote),
		now:    time.Now,
	}
}

func (c *quoteCache) get(ticker string) (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	quote, ok := c.quotes[ticker]
	if !ok || c.now().Sub(quote.fetchedAt) > c.ttl {
		return 0, false
	}
	return quote.price, true
}

func (c *quoteCache) set(ticker string, price float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.quotes[ticker] = cachedQuote{price: price, fetchedAt: c.now()}
}

// prune drops entries older than ttl.
func (c *quoteCache) prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for ticker, quote := range c.quotes {
		if c.now().Sub(quote.fetchedAt) > c.ttl {
			delete(c.quotes, ticker)
			removed++
		}
	}
	return removed
}
