package strategy

import (
	"errors"
	"fmt"
)

var ErrEmptyBook = errors.New("reference book has no top of book")

// MakerQuotes derives the maker prices to rest on the quoting venue from the
// reference venue's top of book.
//
// Selling on the quoting venue is covered by a taker buy at the reference
// ask, so the maker ask must clear the reference ask plus taker fee plus the
// minimum profit, grossed up for the maker fee paid on the sell:
//
//	ask = refAsk * (1 + takerFee + minProfit) / (1 - makerFee)
//
// The maker bid is the mirror image against the reference bid:
//
//	bid = refBid * (1 - takerFee - minProfit) / (1 + makerFee)
//
// Both targets land strictly outside the reference touch for any valid fees
// and margin, so the strategy never quotes through the book it hedges into.
func MakerQuotes(refBid, refAsk float64, p Params) (QuoteTarget, error) {
	if refBid <= 0 || refAsk <= 0 {
		return QuoteTarget{}, ErrEmptyBook
	}
	if refBid >= refAsk {
		return QuoteTarget{}, fmt.Errorf("crossed reference book: bid %.8f >= ask %.8f", refBid, refAsk)
	}
	if err := validateParams(p); err != nil {
		return QuoteTarget{}, err
	}
	ask := refAsk * (1 + p.TakerFee + p.MinProfit) / (1 - p.MakerFee)
	bid := refBid * (1 - p.TakerFee - p.MinProfit) / (1 + p.MakerFee)
	if bid <= 0 {
		return QuoteTarget{}, fmt.Errorf("bid target collapsed to %.8f", bid)
	}
	return QuoteTarget{Bid: bid, Ask: ask}, nil
}

func validateParams(p Params) error {
	if p.MakerFee < 0 || p.MakerFee >= 1 {
		return fmt.Errorf("maker fee %.6f out of [0,1)", p.MakerFee)
	}
	if p.TakerFee < 0 || p.TakerFee >= 1 {
		return fmt.Errorf("taker fee %.6f out of [0,1)", p.TakerFee)
	}
	if p.MinProfit < 0 || p.MinProfit >= 1 {
		return fmt.Errorf("min profit %.6f out of [0,1)", p.MinProfit)
	}
	if p.TakerFee+p.MinProfit >= 1 {
		return fmt.Errorf("taker fee + min profit %.6f out of [0,1)", p.TakerFee+p.MinProfit)
	}
	return nil
}
