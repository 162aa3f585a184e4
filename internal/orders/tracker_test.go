package orders

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"maker-arb-bot/internal/venue"
)

func TestReconcilePlacesOnEmptySlot(t *testing.T) {
	tr := New(0.0005, 0.5)
	action := tr.Reconcile(SideAsk, 100.30)
	if action.Type != ActPlace || action.Price != 100.30 {
		t.Fatalf("expected Place(100.30), got %+v", action)
	}
}

func TestReconcileDriftPolicy(t *testing.T) {
	tr := New(0.0005, 0.5)
	tr.OnPlaceSubmitted(SideAsk, 100.30)
	tr.OnAck(SideAsk, "7", 100.30)

	// Inside the tolerance: leave the order alone.
	if action := tr.Reconcile(SideAsk, 100.301); action.Type != ActNoOp {
		t.Fatalf("expected NoOp inside drift, got %+v", action)
	}
	// Idempotent: asking again with the same target changes nothing.
	if action := tr.Reconcile(SideAsk, 100.301); action.Type != ActNoOp {
		t.Fatalf("expected NoOp on repeat, got %+v", action)
	}
	// Just outside the tolerance: replace.
	action := tr.Reconcile(SideAsk, 100.40)
	if action.Type != ActReplace {
		t.Fatalf("expected Replace outside drift, got %+v", action)
	}
	if action.CancelID != "7" {
		t.Fatalf("expected cancel id 7, got %s", action.CancelID)
	}
}

func TestReconcileHoldsWhileInFlight(t *testing.T) {
	tr := New(0.0005, 0.5)
	tr.OnPlaceSubmitted(SideBid, 99.80)
	if action := tr.Reconcile(SideBid, 90); action.Type != ActNoOp {
		t.Fatalf("pending slot must reconcile to NoOp, got %+v", action)
	}
	tr.OnAck(SideBid, "11", 99.80)
	tr.OnCancelSubmitted(SideBid)
	if action := tr.Reconcile(SideBid, 90); action.Type != ActNoOp {
		t.Fatalf("cancel-requested slot must reconcile to NoOp, got %+v", action)
	}
}

func TestPlaceAndCancelRevertPaths(t *testing.T) {
	tr := New(0.0005, 0.5)
	tr.OnPlaceSubmitted(SideAsk, 100.30)
	tr.OnPlaceFailed(SideAsk)
	if got := tr.Snapshot()[SideAsk].Status; got != StatusNone {
		t.Fatalf("failed place must clear slot, got %s", got)
	}

	tr.OnPlaceSubmitted(SideAsk, 100.30)
	tr.OnAck(SideAsk, "7", 100.30)
	tr.OnCancelSubmitted(SideAsk)
	tr.OnCancelFailed(SideAsk)
	if got := tr.Snapshot()[SideAsk].Status; got != StatusLive {
		t.Fatalf("failed cancel must revert to live, got %s", got)
	}
	tr.OnCancelSubmitted(SideAsk)
	tr.OnCancelAck(SideAsk)
	if got := tr.Snapshot()[SideAsk].Status; got != StatusNone {
		t.Fatalf("acked cancel must clear slot, got %s", got)
	}
}

func TestOnFillReturnsOppositeHedge(t *testing.T) {
	tr := New(0.0005, 0.5)
	tr.OnPlaceSubmitted(SideAsk, 100.30)
	tr.OnAck(SideAsk, "7", 100.30)

	fill := venue.Fill{OrderID: "7", TradeID: "1", Side: venue.SideSell, Quantity: 0.5, Price: 100.30}
	intent, ok := tr.OnFill(fill)
	if !ok {
		t.Fatal("expected hedge intent for first delivery")
	}
	if intent.Side != venue.SideBuy {
		t.Fatalf("sell fill must hedge with a buy, got %s", intent.Side)
	}
	if intent.Quantity != 0.5 {
		t.Fatalf("expected hedge quantity 0.5, got %f", intent.Quantity)
	}
	if got := tr.Snapshot()[SideAsk].Status; got != StatusFilled {
		t.Fatalf("fully filled slot must be FILLED, got %s", got)
	}
}

func TestOnFillDeduplicates(t *testing.T) {
	tr := New(0.0005, 0.5)
	tr.OnPlaceSubmitted(SideAsk, 100.30)
	tr.OnAck(SideAsk, "7", 100.30)

	fill := venue.Fill{OrderID: "7", TradeID: "1", Side: venue.SideSell, Quantity: 0.5}
	intents := 0
	for i := 0; i < 5; i++ {
		if _, ok := tr.OnFill(fill); ok {
			intents++
		}
	}
	if intents != 1 {
		t.Fatalf("expected exactly one hedge intent for duplicate deliveries, got %d", intents)
	}
}

func TestPartialFillsKeepSlotLive(t *testing.T) {
	tr := New(0.0005, 1.0)
	tr.OnPlaceSubmitted(SideBid, 99.80)
	tr.OnAck(SideBid, "9", 99.80)

	first := venue.Fill{OrderID: "9", TradeID: "1", Side: venue.SideBuy, Quantity: 0.4}
	if _, ok := tr.OnFill(first); !ok {
		t.Fatal("expected intent for first partial")
	}
	snap := tr.Snapshot()[SideBid]
	if snap.Status != StatusLive {
		t.Fatalf("partially filled slot must stay LIVE, got %s", snap.Status)
	}
	if snap.Remaining != 0.6 {
		t.Fatalf("expected remaining 0.6, got %f", snap.Remaining)
	}
	second := venue.Fill{OrderID: "9", TradeID: "2", Side: venue.SideBuy, Quantity: 0.6}
	if _, ok := tr.OnFill(second); !ok {
		t.Fatal("expected intent for second partial")
	}
	if got := tr.Snapshot()[SideBid].Status; got != StatusFilled {
		t.Fatalf("exhausted slot must be FILLED, got %s", got)
	}
}

func TestFilledSlotBlocksRequoteUntilHedgeConfirmed(t *testing.T) {
	tr := New(0.0005, 0.5)
	tr.OnPlaceSubmitted(SideAsk, 100.30)
	tr.OnAck(SideAsk, "7", 100.30)
	tr.OnFill(venue.Fill{OrderID: "7", TradeID: "1", Side: venue.SideSell, Quantity: 0.5})

	if action := tr.Reconcile(SideAsk, 101); action.Type != ActNoOp {
		t.Fatalf("filled slot must hold re-quoting, got %+v", action)
	}
	tr.OnHedgeConfirmed(SideAsk)
	if action := tr.Reconcile(SideAsk, 101); action.Type != ActPlace {
		t.Fatalf("cleared slot must place again, got %+v", action)
	}
}

func TestFillForReplacedOrderStillHedged(t *testing.T) {
	tr := New(0.0005, 0.5)
	tr.OnPlaceSubmitted(SideAsk, 100.30)
	tr.OnAck(SideAsk, "7", 100.30)
	tr.OnCancelSubmitted(SideAsk)
	tr.OnCancelAck(SideAsk)

	// Cancel raced with a fill on the venue: the fill still owes a hedge.
	intent, ok := tr.OnFill(venue.Fill{OrderID: "7", TradeID: "1", Side: venue.SideSell, Quantity: 0.5})
	if !ok {
		t.Fatal("fill for replaced order must still produce a hedge intent")
	}
	if intent.Quantity != 0.5 {
		t.Fatalf("expected quantity 0.5, got %f", intent.Quantity)
	}
	if got := tr.Snapshot()[SideAsk].Status; got != StatusNone {
		t.Fatalf("empty slot must stay NONE for stale fill, got %s", got)
	}
}

func TestConcurrentReconcileAndFills(t *testing.T) {
	tr := New(0.0005, 0.5)
	tr.OnPlaceSubmitted(SideAsk, 100.30)
	tr.OnAck(SideAsk, "order-0", 100.30)

	var wg sync.WaitGroup
	var intentMu sync.Mutex
	intents := make(map[string]int)

	rng := rand.New(rand.NewSource(42))
	prices := make([]float64, 200)
	for i := range prices {
		prices[i] = 100 + rng.Float64()
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		for i, price := range prices {
			action := tr.Reconcile(SideAsk, price)
			switch action.Type {
			case ActPlace:
				tr.OnPlaceSubmitted(SideAsk, price)
				tr.OnAck(SideAsk, fmt.Sprintf("order-%d", i+1), price)
			case ActReplace:
				tr.OnCancelSubmitted(SideAsk)
				tr.OnCancelAck(SideAsk)
				tr.OnPlaceSubmitted(SideAsk, price)
				tr.OnAck(SideAsk, fmt.Sprintf("order-%d", i+1), price)
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			id := tr.Snapshot()[SideAsk].OrderID
			if id == "" {
				continue
			}
			fill := venue.Fill{OrderID: id, TradeID: fmt.Sprintf("t-%d", i), Side: venue.SideSell, Quantity: 0.5}
			if intent, ok := tr.OnFill(fill); ok {
				intentMu.Lock()
				intents[intent.FillKey]++
				intentMu.Unlock()
				tr.OnHedgeConfirmed(SideAsk)
			}
		}
	}()
	wg.Wait()

	for key, n := range intents {
		if n != 1 {
			t.Fatalf("fill %s hedged %d times", key, n)
		}
	}
	// Exactly one slot record per side survives whatever interleaving ran.
	snap := tr.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(snap))
	}
	if s := snap[SideAsk].Status; s != StatusNone && s != StatusLive && s != StatusFilled {
		t.Fatalf("unexpected terminal status %s", s)
	}
}
