package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const promNamespace = "maker_arb_bot"

type promCounter struct {
	counter prometheus.Counter
}

func (p promCounter) Inc() {
	p.counter.Inc()
}

type Prometheus struct {
	Metrics *Metrics

	registry        *prometheus.Registry
	quotesPlaced    prometheus.Counter
	quotesReplaced  prometheus.Counter
	quotesCanceled  prometheus.Counter
	quotesFailed    prometheus.Counter
	cyclesSkipped   prometheus.Counter
	fills           prometheus.Counter
	hedgesSubmitted prometheus.Counter
	hedgesConfirmed prometheus.Counter
	hedgesFailed    prometheus.Counter
}

func NewPrometheus() *Prometheus {
	registry := prometheus.NewRegistry()
	quotesPlaced := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "quotes_placed_total",
		Help:      "Total number of maker quotes placed on the quoting venue.",
	})
	quotesReplaced := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "quotes_replaced_total",
		Help:      "Total number of maker quotes replaced after drifting from target.",
	})
	quotesCanceled := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "quotes_canceled_total",
		Help:      "Total number of maker quotes canceled.",
	})
	quotesFailed := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "quotes_failed_total",
		Help:      "Total number of failed quote place or cancel requests.",
	})
	cyclesSkipped := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "cycles_skipped_total",
		Help:      "Total number of refresh cycles skipped (empty book, stale data).",
	})
	fills := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "fills_total",
		Help:      "Total number of maker fills consumed.",
	})
	hedgesSubmitted := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "hedges_submitted_total",
		Help:      "Total number of hedge orders submitted to the reference venue.",
	})
	hedgesConfirmed := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "hedges_confirmed_total",
		Help:      "Total number of hedge orders confirmed.",
	})
	hedgesFailed := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "hedges_failed_total",
		Help:      "Total number of hedge failures leaving unhedged exposure.",
	})

	registry.MustRegister(quotesPlaced, quotesReplaced, quotesCanceled, quotesFailed,
		cyclesSkipped, fills, hedgesSubmitted, hedgesConfirmed, hedgesFailed)

	m := &Metrics{
		QuotesPlaced:    promCounter{quotesPlaced},
		QuotesReplaced:  promCounter{quotesReplaced},
		QuotesCanceled:  promCounter{quotesCanceled},
		QuotesFailed:    promCounter{quotesFailed},
		CyclesSkipped:   promCounter{cyclesSkipped},
		Fills:           promCounter{fills},
		HedgesSubmitted: promCounter{hedgesSubmitted},
		HedgesConfirmed: promCounter{hedgesConfirmed},
		HedgesFailed:    promCounter{hedgesFailed},
	}

	return &Prometheus{
		Metrics:         m,
		registry:        registry,
		quotesPlaced:    quotesPlaced,
		quotesReplaced:  quotesReplaced,
		quotesCanceled:  quotesCanceled,
		quotesFailed:    quotesFailed,
		cyclesSkipped:   cyclesSkipped,
		fills:           fills,
		hedgesSubmitted: hedgesSubmitted,
		hedgesConfirmed: hedgesConfirmed,
		hedgesFailed:    hedgesFailed,
	}
}

func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
