// Package orders owns the record of maker orders resting on the quoting
// venue, at most one per side, and arbitrates place/cancel/replace decisions
// against freshly computed targets.
package orders

import (
	"math"
	"sync"

	"maker-arb-bot/internal/venue"
)

type Side string

const (
	SideBid Side = "BID"
	SideAsk Side = "ASK"
)

// VenueSide maps a resting side to the order side sent to the quoting venue.
func (s Side) VenueSide() venue.Side {
	if s == SideBid {
		return venue.SideBuy
	}
	return venue.SideSell
}

func SideFromVenue(s venue.Side) Side {
	if s == venue.SideBuy {
		return SideBid
	}
	return SideAsk
}

type Status string

const (
	StatusNone            Status = "NONE"
	StatusPending         Status = "PENDING"
	StatusLive            Status = "LIVE"
	StatusCancelRequested Status = "CANCEL_REQUESTED"
	StatusFilled          Status = "FILLED"
)

// Resting is the tracked state of one side's maker order.
type Resting struct {
	Side      Side
	OrderID   string
	Price     float64
	Quantity  float64
	Remaining float64
	Status    Status
}

type ActionType string

const (
	ActNoOp    ActionType = "NOOP"
	ActPlace   ActionType = "PLACE"
	ActReplace ActionType = "REPLACE"
)

type Action struct {
	Type     ActionType
	Price    float64
	CancelID string
}

// HedgeIntent is the offsetting taker order owed on the reference venue for
// one maker fill. FillKey carries the fill identity for idempotent submission.
type HedgeIntent struct {
	Side      venue.Side
	Quantity  float64
	FillKey   string
	FillPrice float64
}

const (
	maxSeenFillKeys = 2000
	qtyEpsilon      = 1e-9
)

// Tracker serializes all mutations per side: a Reconcile and an OnFill for
// the same side never interleave. It is the single writer of the resting
// order records.
type Tracker struct {
	drift    float64
	quantity float64

	slots map[Side]*slot

	seenMu    sync.Mutex
	seenFills map[string]struct{}
	seenOrder []string
}

type slot struct {
	mu    sync.Mutex
	order Resting
}

// New builds a tracker with the given drift tolerance (a fraction, e.g.
// 0.0005 for 5 bps) and per-order quantity.
func New(drift, quantity float64) *Tracker {
	return &Tracker{
		drift:    drift,
		quantity: quantity,
		slots: map[Side]*slot{
			SideBid: {order: Resting{Side: SideBid, Status: StatusNone}},
			SideAsk: {order: Resting{Side: SideAsk, Status: StatusNone}},
		},
		seenFills: make(map[string]struct{}),
	}
}

// Reconcile decides what the refresh loop should do for one side given the
// freshly computed target price. A live order inside the drift tolerance is
// left alone to avoid cancel/replace churn; outside it, it is replaced. A
// slot that is mid-flight (pending, cancel requested) or awaiting its hedge
// (filled) yields NoOp until the in-flight operation settles.
func (t *Tracker) Reconcile(side Side, target float64) Action {
	s := t.slots[side]
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.order.Status {
	case StatusNone:
		return Action{Type: ActPlace, Price: target}
	case StatusLive:
		if s.order.Price <= 0 {
			return Action{Type: ActReplace, Price: target, CancelID: s.order.OrderID}
		}
		if math.Abs(s.order.Price-target)/s.order.Price > t.drift {
			return Action{Type: ActReplace, Price: target, CancelID: s.order.OrderID}
		}
		return Action{Type: ActNoOp}
	default:
		return Action{Type: ActNoOp}
	}
}

// OnPlaceSubmitted records that a place request is in flight.
func (t *Tracker) OnPlaceSubmitted(side Side, price float64) {
	t.update(side, func(r *Resting) {
		r.Status = StatusPending
		r.Price = price
		r.Quantity = t.quantity
		r.Remaining = t.quantity
		r.OrderID = ""
	})
}

// OnAck marks the resting order live once the venue acknowledged it.
func (t *Tracker) OnAck(side Side, orderID string, price float64) {
	t.update(side, func(r *Resting) {
		r.Status = StatusLive
		r.OrderID = orderID
		r.Price = price
	})
}

// OnPlaceFailed reverts a failed place; the next cycle retries.
func (t *Tracker) OnPlaceFailed(side Side) {
	t.update(side, func(r *Resting) {
		*r = Resting{Side: side, Status: StatusNone}
	})
}

// OnCancelSubmitted records that a cancel request is in flight.
func (t *Tracker) OnCancelSubmitted(side Side) {
	t.update(side, func(r *Resting) {
		r.Status = StatusCancelRequested
	})
}

// OnCancelAck clears the slot after the venue confirmed the cancel.
func (t *Tracker) OnCancelAck(side Side) {
	t.update(side, func(r *Resting) {
		*r = Resting{Side: side, Status: StatusNone}
	})
}

// OnCancelFailed reverts to the last known state; the order may still rest.
func (t *Tracker) OnCancelFailed(side Side) {
	t.update(side, func(r *Resting) {
		if r.Status == StatusCancelRequested {
			r.Status = StatusLive
		}
	})
}

// OnFill consumes a maker fill and returns the hedge owed for it. Duplicate
// deliveries of the same fill return ok=false and no intent. The slot stays
// in Filled until OnHedgeConfirmed, which keeps the refresh loop from
// re-quoting the side while its hedge is in flight. Partial fills keep the
// slot live with the remaining quantity; each partial still owes its own
// hedge.
func (t *Tracker) OnFill(fill venue.Fill) (HedgeIntent, bool) {
	if fill.Quantity <= 0 {
		return HedgeIntent{}, false
	}
	if !t.markFillSeen(fill.Key()) {
		return HedgeIntent{}, false
	}
	side := SideFromVenue(fill.Side)
	s := t.slots[side]
	s.mu.Lock()
	if s.order.OrderID == fill.OrderID && s.order.Status != StatusNone {
		s.order.Remaining -= fill.Quantity
		if s.order.Remaining <= qtyEpsilon {
			s.order.Remaining = 0
			s.order.Status = StatusFilled
		}
	}
	s.mu.Unlock()
	return HedgeIntent{
		Side:      fill.Side.Opposite(),
		Quantity:  fill.Quantity,
		FillKey:   fill.Key(),
		FillPrice: fill.Price,
	}, true
}

// OnHedgeConfirmed releases a filled slot for re-quoting.
func (t *Tracker) OnHedgeConfirmed(side Side) {
	t.update(side, func(r *Resting) {
		if r.Status == StatusFilled {
			*r = Resting{Side: side, Status: StatusNone}
		}
	})
}

// Snapshot returns a copy of both resting order records.
func (t *Tracker) Snapshot() map[Side]Resting {
	out := make(map[Side]Resting, 2)
	for side, s := range t.slots {
		s.mu.Lock()
		out[side] = s.order
		s.mu.Unlock()
	}
	return out
}

func (t *Tracker) update(side Side, fn func(*Resting)) {
	s := t.slots[side]
	s.mu.Lock()
	fn(&s.order)
	s.mu.Unlock()
}

// markFillSeen records a fill identity, bounded so long-running processes do
// not grow without limit. Returns false for duplicates.
func (t *Tracker) markFillSeen(key string) bool {
	t.seenMu.Lock()
	defer t.seenMu.Unlock()
	if _, ok := t.seenFills[key]; ok {
		return false
	}
	t.seenFills[key] = struct{}{}
	t.seenOrder = append(t.seenOrder, key)
	if len(t.seenOrder) > maxSeenFillKeys {
		oldest := t.seenOrder[0]
		t.seenOrder = t.seenOrder[1:]
		delete(t.seenFills, oldest)
	}
	return true
}
