// Package lighter implements the reference venue adapter. The venue is an
// Ethereum L2: order placement and cancellation are signed transactions, an
// msgpack-encoded payload hashed with keccak and signed with a secp256k1 key.
package lighter

type OrderTx struct {
	MarketIndex      int64
	ClientOrderIndex uint64
	BaseAmount       int64
	Price            int64
	IsAsk            bool
	OrderType        OrderType
	TimeInForce      TimeInForce
	ReduceOnly       bool
	Nonce            uint64
}

type CancelTx struct {
	MarketIndex int64
	OrderIndex  int64
	Nonce       uint64
}

type OrderType string

const (
	OrderTypeLimit OrderType = "limit"
)

type TimeInForce string

const (
	// TifPostOnly rests on the book and is rejected if it would cross.
	TifPostOnly TimeInForce = "post_only"
	// TifIOC executes what it can against the book and cancels the rest.
	TifIOC TimeInForce = "ioc"
)

// Signature is the r/s/v form the venue expects on transaction submissions.
type Signature struct {
	R string `json:"r"`
	S string `json:"s"`
	V int    `json:"v"`
}

// market holds the per-symbol metadata needed to scale float prices and
// sizes into the integer units the signed transaction carries.
type market struct {
	Index         int64
	PriceDecimals int
	SizeDecimals  int
}
