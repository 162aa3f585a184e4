package app

import (
	"context"
	"fmt"
	"time"

	"maker-arb-bot/internal/orders"
	"maker-arb-bot/internal/state"
	"maker-arb-bot/internal/strategy"
	"maker-arb-bot/internal/timescale"
	"maker-arb-bot/internal/venue"

	"go.uber.org/zap"
)

// handleFill consumes one maker fill from the quoting venue. Each fill owes
// an offsetting taker order on the reference venue; a fill that cannot be
// hedged is the one state this bot must never lose track of.
func (a *App) handleFill(ctx context.Context, fill venue.Fill) {
	a.metrics.Fills.Inc()
	intent, ok := a.tracker.OnFill(fill)
	if !ok {
		a.log.Debug("duplicate fill ignored", zap.String("fill_key", fill.Key()))
		return
	}
	a.log.Info("maker fill",
		zap.String("fill_key", intent.FillKey),
		zap.String("maker_side", string(fill.Side)),
		zap.Float64("quantity", intent.Quantity),
		zap.Float64("price", intent.FillPrice),
	)
	if err := a.submitHedge(ctx, intent); err != nil {
		a.log.Error("hedge failed",
			zap.String("fill_key", intent.FillKey),
			zap.Error(err),
		)
	}
}

func (a *App) submitHedge(ctx context.Context, intent orders.HedgeIntent) error {
	start := time.Now()
	machine := strategy.NewHedgeMachine()
	machine.Apply(strategy.EventSubmit)
	a.metrics.HedgesSubmitted.Inc()

	hctx, cancel := context.WithTimeout(ctx, a.cfg.Strategy.HedgeTimeout)
	defer cancel()

	price, err := a.hedgePrice(hctx, intent.Side)
	var hedgeErr error
	if err != nil {
		hedgeErr = err
	} else {
		_, hedgeErr = a.hedgeExec.PlaceOrder(hctx, venue.OrderRequest{
			Symbol:   a.cfg.Strategy.ReferenceSymbol,
			Side:     intent.Side,
			Kind:     venue.KindTaker,
			Quantity: intent.Quantity,
			Price:    price,
			ClientID: "hedge-" + intent.FillKey,
		})
	}

	makerSide := orders.SideFromVenue(intent.Side.Opposite())
	record := timescale.HedgeRecord{
		Time:        start.UTC(),
		FillKey:     intent.FillKey,
		MakerSide:   string(makerSide),
		HedgeSide:   string(intent.Side),
		Quantity:    intent.Quantity,
		FillPrice:   intent.FillPrice,
		HedgePrice:  price,
		HedgeTimeMS: time.Since(start).Milliseconds(),
	}

	if hedgeErr != nil {
		machine.Apply(strategy.EventFail)
		a.metrics.HedgesFailed.Inc()
		record.Outcome = "failed"
		a.tsdb.EnqueueHedge(record)
		a.noteHedgeOutcome(fmt.Sprintf("%s FAILED qty %.6f (%v)", intent.FillKey, intent.Quantity, hedgeErr))
		a.retainFailedHedge(ctx, intent, hedgeErr)
		return hedgeErr
	}

	machine.Apply(strategy.EventConfirm)
	a.metrics.HedgesConfirmed.Inc()
	if err := state.DeletePendingHedge(ctx, a.store, intent.FillKey); err != nil {
		a.log.Warn("pending hedge cleanup failed", zap.Error(err))
	}
	a.tracker.OnHedgeConfirmed(makerSide)
	record.Outcome = "confirmed"
	a.tsdb.EnqueueHedge(record)
	a.noteHedgeOutcome(fmt.Sprintf("%s confirmed qty %.6f @ %.6f", intent.FillKey, intent.Quantity, price))
	a.log.Info("hedge confirmed",
		zap.String("fill_key", intent.FillKey),
		zap.String("hedge_side", string(intent.Side)),
		zap.Float64("quantity", intent.Quantity),
		zap.Float64("limit_price", price),
	)
	return nil
}

// hedgePrice returns the marketable limit for an IOC hedge: the reference
// touch pushed through by the configured slippage cap. The cap bounds the
// worst fill, the IOC bounds the wait.
func (a *App) hedgePrice(ctx context.Context, side venue.Side) (float64, error) {
	snap, err := a.reference.OrderBook(ctx, a.cfg.Strategy.ReferenceSymbol)
	if err != nil {
		return 0, err
	}
	if snap.Empty() {
		return 0, venue.ErrEmptyBook
	}
	if side == venue.SideBuy {
		return snap.BestAsk * (1 + a.cfg.Strategy.HedgeSlippage), nil
	}
	return snap.BestBid * (1 - a.cfg.Strategy.HedgeSlippage), nil
}

// retainFailedHedge records the unhedged exposure durably and escalates. The
// record survives restarts; resumePendingHedges retries it on the next boot,
// and the operator is told immediately either way.
func (a *App) retainFailedHedge(ctx context.Context, intent orders.HedgeIntent, cause error) {
	pending := state.PendingHedge{
		FillKey:     intent.FillKey,
		Side:        string(intent.Side),
		Quantity:    intent.Quantity,
		FillPrice:   intent.FillPrice,
		Reason:      cause.Error(),
		Attempts:    1,
		UpdatedAtMS: time.Now().UnixMilli(),
	}
	if existing, err := state.LoadPendingHedges(ctx, a.store); err == nil {
		for _, h := range existing {
			if h.FillKey == intent.FillKey {
				pending.Attempts = h.Attempts + 1
				break
			}
		}
	}
	if err := state.SavePendingHedge(ctx, a.store, pending); err != nil {
		a.log.Error("failed to retain pending hedge", zap.Error(err))
	}
	msg := fmt.Sprintf("hedge failed for fill %s: %s %.6f on %s: %v",
		intent.FillKey, intent.Side, intent.Quantity, a.cfg.Strategy.ReferenceSymbol, cause)
	if err := a.alerts.SendCritical(ctx, msg); err != nil {
		a.log.Warn("critical alert send failed", zap.Error(err))
	}
}

// resumePendingHedges retries hedges that failed before the last shutdown.
// The executor's client-ID record makes the retry idempotent if the original
// submission actually reached the venue.
func (a *App) resumePendingHedges(ctx context.Context) {
	pending, err := state.LoadPendingHedges(ctx, a.store)
	if err != nil {
		a.log.Warn("pending hedge load failed", zap.Error(err))
		return
	}
	if len(pending) == 0 {
		return
	}
	a.log.Warn("retrying pending hedges", zap.Int("count", len(pending)))
	for _, h := range pending {
		intent := orders.HedgeIntent{
			Side:      venue.Side(h.Side),
			Quantity:  h.Quantity,
			FillKey:   h.FillKey,
			FillPrice: h.FillPrice,
		}
		if err := a.submitHedge(ctx, intent); err != nil {
			a.log.Error("pending hedge retry failed",
				zap.String("fill_key", h.FillKey),
				zap.Int("attempts", h.Attempts+1),
				zap.Error(err),
			)
		}
	}
}
