package strategy

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrMarketStale = errors.New("market data stale")
	ErrNotional    = errors.New("order notional exceeds configured maximum")
)

// RiskLimits are operational guards checked before each quoting cycle acts.
type RiskLimits struct {
	MaxOrderNotionalUSD float64
	MaxMarketAge        time.Duration
}

// CheckQuote gates a quoting cycle. quantity is the per-order size, ref the
// reference mid used to value it, age how old the reference snapshot is.
func CheckQuote(limits RiskLimits, quantity, ref float64, age time.Duration) error {
	if limits.MaxMarketAge > 0 && age > limits.MaxMarketAge {
		return fmt.Errorf("snapshot age %s exceeds %s: %w", age, limits.MaxMarketAge, ErrMarketStale)
	}
	if limits.MaxOrderNotionalUSD > 0 && quantity*ref > limits.MaxOrderNotionalUSD {
		return fmt.Errorf("notional %.2f exceeds %.2f: %w", quantity*ref, limits.MaxOrderNotionalUSD, ErrNotional)
	}
	return nil
}
