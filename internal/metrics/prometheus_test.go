package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusCounters(t *testing.T) {
	prom := NewPrometheus()
	prom.Metrics.QuotesPlaced.Inc()
	prom.Metrics.QuotesReplaced.Inc()
	prom.Metrics.QuotesCanceled.Inc()
	prom.Metrics.QuotesFailed.Inc()
	prom.Metrics.CyclesSkipped.Inc()
	prom.Metrics.Fills.Inc()
	prom.Metrics.HedgesSubmitted.Inc()
	prom.Metrics.HedgesConfirmed.Inc()
	prom.Metrics.HedgesFailed.Inc()

	assertCounter(t, prom.quotesPlaced, 1)
	assertCounter(t, prom.quotesReplaced, 1)
	assertCounter(t, prom.quotesCanceled, 1)
	assertCounter(t, prom.quotesFailed, 1)
	assertCounter(t, prom.cyclesSkipped, 1)
	assertCounter(t, prom.fills, 1)
	assertCounter(t, prom.hedgesSubmitted, 1)
	assertCounter(t, prom.hedgesConfirmed, 1)
	assertCounter(t, prom.hedgesFailed, 1)
}

func TestNoopMetricsAreSafe(t *testing.T) {
	m := NewNoop()
	m.QuotesPlaced.Inc()
	m.HedgesFailed.Inc()
}

func assertCounter(t *testing.T, counter prometheus.Counter, expected float64) {
	t.Helper()
	if got := testutil.ToFloat64(counter); got != expected {
		t.Fatalf("expected %v, got %v", expected, got)
	}
}
