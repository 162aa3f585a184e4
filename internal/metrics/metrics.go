package metrics

type Counter interface {
	Inc()
}

type Metrics struct {
	QuotesPlaced    Counter
	QuotesReplaced  Counter
	QuotesCanceled  Counter
	QuotesFailed    Counter
	CyclesSkipped   Counter
	Fills           Counter
	HedgesSubmitted Counter
	HedgesConfirmed Counter
	HedgesFailed    Counter
}

type noopCounter struct{}

func (noopCounter) Inc() {}

func NewNoop() *Metrics {
	n := noopCounter{}
	return &Metrics{
		QuotesPlaced:    n,
		QuotesReplaced:  n,
		QuotesCanceled:  n,
		QuotesFailed:    n,
		CyclesSkipped:   n,
		Fills:           n,
		HedgesSubmitted: n,
		HedgesConfirmed: n,
		HedgesFailed:    n,
	}
}
