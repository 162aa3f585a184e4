package app

import (
	"context"
	"errors"
	"time"

	"maker-arb-bot/internal/orders"
	"maker-arb-bot/internal/strategy"
	"maker-arb-bot/internal/timescale"
	"maker-arb-bot/internal/venue"

	"go.uber.org/zap"
)

// refreshCycle reconciles both maker quotes against targets derived from the
// reference book. Per-side failures are absorbed: the tracker reverts the
// side and the next tick retries, so one bad request never stops quoting on
// the other side.
func (a *App) refreshCycle(ctx context.Context) error {
	start := time.Now()
	if a.isPaused() {
		a.cancelResting(ctx)
		return nil
	}

	snap, err := a.reference.OrderBook(ctx, a.cfg.Strategy.ReferenceSymbol)
	if err != nil {
		a.metrics.CyclesSkipped.Inc()
		return err
	}
	if snap.Empty() {
		a.metrics.CyclesSkipped.Inc()
		a.log.Debug("reference book empty, skipping cycle")
		return nil
	}
	target, err := strategy.MakerQuotes(snap.BestBid, snap.BestAsk, a.strategyParams())
	if err != nil {
		a.metrics.CyclesSkipped.Inc()
		if errors.Is(err, strategy.ErrEmptyBook) {
			return nil
		}
		return err
	}
	mid := (snap.BestBid + snap.BestAsk) / 2
	age := time.Since(snap.ObservedAt)
	if err := strategy.CheckQuote(a.riskLimits(), a.cfg.Strategy.OrderQuantity, mid, age); err != nil {
		a.metrics.CyclesSkipped.Inc()
		a.log.Warn("risk check blocked quoting", zap.Error(err))
		return nil
	}

	bidAction := a.tracker.Reconcile(orders.SideBid, target.Bid)
	a.applyAction(ctx, orders.SideBid, bidAction)
	askAction := a.tracker.Reconcile(orders.SideAsk, target.Ask)
	a.applyAction(ctx, orders.SideAsk, askAction)

	resting := a.tracker.Snapshot()
	a.tsdb.EnqueueCycle(timescale.QuoteCycle{
		Time:        start.UTC(),
		RefBid:      snap.BestBid,
		RefAsk:      snap.BestAsk,
		BidTarget:   target.Bid,
		AskTarget:   target.Ask,
		BidAction:   string(bidAction.Type),
		AskAction:   string(askAction.Type),
		BidResting:  resting[orders.SideBid].Price,
		AskResting:  resting[orders.SideAsk].Price,
		CycleTimeMS: time.Since(start).Milliseconds(),
	})
	return nil
}

func (a *App) applyAction(ctx context.Context, side orders.Side, action orders.Action) {
	switch action.Type {
	case orders.ActNoOp:
		return
	case orders.ActReplace:
		a.tracker.OnCancelSubmitted(side)
		if err := a.quoteExec.CancelOrder(ctx, a.cfg.Strategy.QuotingSymbol, action.CancelID); err != nil {
			a.tracker.OnCancelFailed(side)
			a.metrics.QuotesFailed.Inc()
			a.log.Warn("quote cancel failed",
				zap.String("side", string(side)),
				zap.String("order_id", action.CancelID),
				zap.Error(err),
			)
			return
		}
		a.tracker.OnCancelAck(side)
		a.metrics.QuotesCanceled.Inc()
		a.place(ctx, side, action.Price, true)
	case orders.ActPlace:
		a.place(ctx, side, action.Price, false)
	}
}

func (a *App) place(ctx context.Context, side orders.Side, price float64, replacing bool) {
	a.tracker.OnPlaceSubmitted(side, price)
	orderID, err := a.quoteExec.PlaceOrder(ctx, venue.OrderRequest{
		Symbol:   a.cfg.Strategy.QuotingSymbol,
		Side:     side.VenueSide(),
		Kind:     venue.KindMaker,
		Quantity: a.cfg.Strategy.OrderQuantity,
		Price:    price,
	})
	if err != nil {
		a.tracker.OnPlaceFailed(side)
		a.metrics.QuotesFailed.Inc()
		// A post-only rejection means the target crossed between computing
		// it and placing; the next cycle recomputes.
		a.log.Warn("quote place failed",
			zap.String("side", string(side)),
			zap.Float64("price", price),
			zap.Error(err),
		)
		return
	}
	a.tracker.OnAck(side, orderID, price)
	if replacing {
		a.metrics.QuotesReplaced.Inc()
	} else {
		a.metrics.QuotesPlaced.Inc()
	}
	a.log.Info("quote resting",
		zap.String("side", string(side)),
		zap.String("order_id", orderID),
		zap.Float64("price", price),
	)
}

// cancelResting pulls any live quote off the book, used when pausing and on
// shutdown. Filled slots are left alone; their hedges are still in flight.
func (a *App) cancelResting(ctx context.Context) {
	for side, resting := range a.tracker.Snapshot() {
		if resting.Status != orders.StatusLive || resting.OrderID == "" {
			continue
		}
		a.tracker.OnCancelSubmitted(side)
		if err := a.quoteExec.CancelOrder(ctx, a.cfg.Strategy.QuotingSymbol, resting.OrderID); err != nil {
			a.tracker.OnCancelFailed(side)
			a.metrics.QuotesFailed.Inc()
			a.log.Warn("resting quote cancel failed",
				zap.String("side", string(side)),
				zap.String("order_id", resting.OrderID),
				zap.Error(err),
			)
			continue
		}
		a.tracker.OnCancelAck(side)
		a.metrics.QuotesCanceled.Inc()
	}
}
