// Package exec wraps a venue adapter with retries and idempotent order
// placement. Orders carrying a client ID are placed at most once across
// retries and restarts: the resulting venue order ID is recorded in the
// state store under the client ID before it is ever reused.
package exec

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"maker-arb-bot/internal/state"
	"maker-arb-bot/internal/venue"

	"go.uber.org/zap"
)

const (
	maxAttempts    = 5
	initialBackoff = 200 * time.Millisecond
)

type Executor struct {
	adapter venue.Adapter
	store   state.Store
	log     *zap.Logger

	mu    sync.Mutex
	cache map[string]string
}

func New(adapter venue.Adapter, store state.Store, log *zap.Logger) *Executor {
	return &Executor{
		adapter: adapter,
		store:   store,
		log:     log,
		cache:   make(map[string]string),
	}
}

// PlaceOrder submits req, deduplicating by ClientID when one is set. Maker
// quote placements pass no ClientID and rely on the tracker's bookkeeping;
// hedge submissions always pass one derived from the fill identity.
func (e *Executor) PlaceOrder(ctx context.Context, req venue.OrderRequest) (string, error) {
	if req.ClientID == "" {
		return e.placeWithRetry(ctx, req)
	}
	cacheKey := "cloid:" + req.ClientID
	e.mu.Lock()
	if oid, ok := e.cache[cacheKey]; ok {
		e.mu.Unlock()
		return oid, nil
	}
	e.mu.Unlock()
	if e.store != nil {
		if oid, ok, err := e.store.Get(ctx, cacheKey); err != nil {
			return "", err
		} else if ok {
			e.mu.Lock()
			e.cache[cacheKey] = oid
			e.mu.Unlock()
			return oid, nil
		}
	}
	orderID, err := e.placeWithRetry(ctx, req)
	if err != nil {
		return "", err
	}
	if e.store != nil {
		if err := e.store.Set(ctx, cacheKey, orderID); err != nil {
			e.log.Warn("failed to persist order id", zap.Error(err))
		}
	}
	e.mu.Lock()
	e.cache[cacheKey] = orderID
	e.mu.Unlock()
	return orderID, nil
}

func (e *Executor) CancelOrder(ctx context.Context, symbol, orderID string) error {
	if orderID == "" {
		return errors.New("order id is required")
	}
	return e.retry(ctx, func() error {
		return e.adapter.CancelOrder(ctx, symbol, orderID)
	})
}

func (e *Executor) placeWithRetry(ctx context.Context, req venue.OrderRequest) (string, error) {
	var orderID string
	err := e.retry(ctx, func() error {
		var err error
		orderID, err = e.adapter.CreateOrder(ctx, req)
		return err
	})
	if err != nil {
		return "", err
	}
	if orderID == "" {
		return "", errors.New("empty order id")
	}
	return orderID, nil
}

func (e *Executor) retry(ctx context.Context, fn func() error) error {
	backoff := initialBackoff
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if errors.Is(err, venue.ErrOrderRejected) {
			// A rejection is deterministic; retrying the same request
			// only burns rate limit.
			return err
		}
		if attempt == maxAttempts-1 {
			return fmt.Errorf("retry failed: %w", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
			backoff *= 2
		}
	}
	return nil
}
