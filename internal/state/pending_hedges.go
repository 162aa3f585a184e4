package state

import (
	"context"
	"encoding/json"
	"strings"
)

const pendingHedgePrefix = "hedge:pending:"

// PendingHedge is a hedge intent whose submission failed. It is retained
// durably so an operator, or a later retry, can act on it; losing one would
// mean silently carrying unhedged exposure.
type PendingHedge struct {
	FillKey     string  `json:"fill_key"`
	Side        string  `json:"side"`
	Quantity    float64 `json:"quantity"`
	FillPrice   float64 `json:"fill_price"`
	Reason      string  `json:"reason"`
	Attempts    int     `json:"attempts"`
	UpdatedAtMS int64   `json:"updated_at_ms"`
}

func SavePendingHedge(ctx context.Context, store Store, hedge PendingHedge) error {
	if store == nil {
		return nil
	}
	payload, err := json.Marshal(hedge)
	if err != nil {
		return err
	}
	return store.Set(ctx, pendingHedgePrefix+hedge.FillKey, string(payload))
}

func DeletePendingHedge(ctx context.Context, store Store, fillKey string) error {
	if store == nil {
		return nil
	}
	return store.Delete(ctx, pendingHedgePrefix+fillKey)
}

func LoadPendingHedges(ctx context.Context, store Store) ([]PendingHedge, error) {
	if store == nil {
		return nil, nil
	}
	keys, err := store.Keys(ctx, pendingHedgePrefix)
	if err != nil {
		return nil, err
	}
	var out []PendingHedge
	for _, key := range keys {
		raw, ok, err := store.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		var hedge PendingHedge
		if err := json.Unmarshal([]byte(raw), &hedge); err != nil {
			return nil, err
		}
		out = append(out, hedge)
	}
	return out, nil
}
