package marketdata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestQuoteCache(t *testing.T) {
	now := time.Now()
	cache := newQuoteCache(time.Minute)
	cache.now = func() time.Time { return now }

	_, ok := cache.get("AAPL")
	assert.False(t, ok)

	cache.set("AAPL", 190)
	price, ok := cache.get("AAPL")
	assert.True(t, ok)
	assert.Equal(t, 190.0, price)

	now = now.Add(2 * time.Minute)
	_, ok = cache.get("AAPL")
	assert.False(t, ok)

	assert.Equal(t, 1, cache.prune())
	assert.Empty(t, cache.quotes)
}
