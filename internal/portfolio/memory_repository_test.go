package portfolios

import "testing"

func TestMemoryHoldingRepository(t *testing.T) {
	testHoldingRepository(t, NewMemoryHoldingRepository())
}
