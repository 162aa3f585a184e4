package strategy

// Params are the fee and margin fractions that shape maker quotes.
// All values are fractions, e.g. 0.001 means 0.1%.
type Params struct {
	MakerFee  float64
	TakerFee  float64
	MinProfit float64
}

// QuoteTarget is the pair of maker prices the quoting venue should be
// resting at, derived from the reference top of book.
type QuoteTarget struct {
	Bid float64
	Ask float64
}

// Spread is the relative width between the computed targets, useful for
// status reporting and recording.
func (q QuoteTarget) Spread() float64 {
	if q.Bid <= 0 {
		return 0
	}
	return (q.Ask - q.Bid) / q.Bid
}
