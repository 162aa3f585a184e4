package strategy

import (
	"errors"
	"math"
	"testing"
)

func TestMakerQuotesScenario(t *testing.T) {
	p := Params{MakerFee: 0.001, TakerFee: 0.001, MinProfit: 0.001}
	q, err := MakerQuotes(100.00, 100.10, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantAsk := 100.10 * 1.002 / 0.999
	wantBid := 100.00 * 0.998 / 1.001
	if math.Abs(q.Ask-wantAsk) > 1e-9 {
		t.Fatalf("expected ask %.8f, got %.8f", wantAsk, q.Ask)
	}
	if math.Abs(q.Bid-wantBid) > 1e-9 {
		t.Fatalf("expected bid %.8f, got %.8f", wantBid, q.Bid)
	}
}

func TestMakerQuotesNeverCrossTouch(t *testing.T) {
	cases := []struct {
		name     string
		bid, ask float64
		p        Params
	}{
		{"zero fees", 100, 100.1, Params{}},
		{"typical", 100, 100.1, Params{MakerFee: 0.001, TakerFee: 0.001, MinProfit: 0.001}},
		{"wide margin", 50, 51, Params{MakerFee: 0.002, TakerFee: 0.0005, MinProfit: 0.01}},
		{"tiny prices", 0.0001, 0.000101, Params{MakerFee: 0.001, TakerFee: 0.001, MinProfit: 0.0005}},
		{"maker only", 2000, 2001, Params{MakerFee: 0.005}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q, err := MakerQuotes(tc.bid, tc.ask, tc.p)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if q.Ask < tc.ask {
				t.Fatalf("ask target %.8f quotes through reference ask %.8f", q.Ask, tc.ask)
			}
			if q.Bid > tc.bid {
				t.Fatalf("bid target %.8f quotes through reference bid %.8f", q.Bid, tc.bid)
			}
			if q.Bid >= q.Ask {
				t.Fatalf("targets crossed: bid %.8f >= ask %.8f", q.Bid, q.Ask)
			}
		})
	}
}

func TestMakerQuotesEmptyBook(t *testing.T) {
	if _, err := MakerQuotes(0, 100.1, Params{}); !errors.Is(err, ErrEmptyBook) {
		t.Fatalf("expected ErrEmptyBook, got %v", err)
	}
	if _, err := MakerQuotes(100, 0, Params{}); !errors.Is(err, ErrEmptyBook) {
		t.Fatalf("expected ErrEmptyBook, got %v", err)
	}
}

func TestMakerQuotesCrossedBook(t *testing.T) {
	if _, err := MakerQuotes(100.2, 100.1, Params{}); err == nil {
		t.Fatal("expected error for crossed reference book")
	}
}

func TestMakerQuotesInvalidParams(t *testing.T) {
	cases := []Params{
		{MakerFee: -0.001},
		{MakerFee: 1},
		{TakerFee: 1},
		{MinProfit: -0.1},
		{TakerFee: 0.6, MinProfit: 0.5},
	}
	for _, p := range cases {
		if _, err := MakerQuotes(100, 100.1, p); err == nil {
			t.Fatalf("expected error for params %+v", p)
		}
	}
}

func TestQuoteTargetSpread(t *testing.T) {
	q := QuoteTarget{Bid: 100, Ask: 101}
	if math.Abs(q.Spread()-0.01) > 1e-12 {
		t.Fatalf("expected spread 0.01, got %f", q.Spread())
	}
	if (QuoteTarget{}).Spread() != 0 {
		t.Fatal("zero target should report zero spread")
	}
}
