// Package venue defines the exchange adapter contract the trading core is
// written against. Two implementations exist: the quoting venue where maker
// orders rest (binance) and the reference venue used for price discovery and
// hedging (lighter).
package venue

import (
	"context"
	"time"
)

type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

type OrderKind string

const (
	// KindMaker rests on the book and must not cross.
	KindMaker OrderKind = "MAKER"
	// KindTaker executes immediately; adapters submit it as a marketable
	// IOC limit capped by the caller's price.
	KindTaker OrderKind = "TAKER"
)

// Snapshot is the top of book observed on one venue. A zero bid or ask means
// that side of the book was empty at observation time.
type Snapshot struct {
	Symbol     string
	BestBid    float64
	BestAsk    float64
	ObservedAt time.Time
}

func (s Snapshot) Empty() bool {
	return s.BestBid <= 0 || s.BestAsk <= 0
}

// Fill is a venue-reported execution of one of our orders.
type Fill struct {
	OrderID  string
	TradeID  string
	Symbol   string
	Side     Side
	Quantity float64
	Price    float64
	TimeMS   int64
}

// Key identifies a fill for dedup purposes. Venues redeliver execution
// reports after reconnects, so consumers must treat delivery as at-least-once.
func (f Fill) Key() string {
	return f.OrderID + ":" + f.TradeID
}

// OrderRequest describes a new order. Price is required for maker orders and
// acts as the slippage cap for taker orders. ClientID, when set, lets the
// venue (or the executor on top of it) deduplicate resubmissions.
type OrderRequest struct {
	Symbol   string
	Side     Side
	Kind     OrderKind
	Quantity float64
	Price    float64
	ClientID string
}

// Adapter is the connectivity capability the core consumes. Implementations
// own authentication, reconnects and rate limiting.
type Adapter interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error

	// OrderBook returns the current top of book. An empty book is a valid
	// result, reported via Snapshot.Empty, not an error.
	OrderBook(ctx context.Context, symbol string) (Snapshot, error)

	CreateOrder(ctx context.Context, req OrderRequest) (string, error)
	CancelOrder(ctx context.Context, symbol, orderID string) error

	// SubscribeFills delivers executions until ctx is canceled. Delivery is
	// at-least-once across reconnects; consumers dedup by Fill.Key.
	SubscribeFills(ctx context.Context, handler func(Fill)) error

	Balance(ctx context.Context, asset string) (float64, error)
}
