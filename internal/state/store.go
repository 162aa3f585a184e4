package state

import "context"

// Store is the durable KV surface the bot uses for hedge idempotency records
// and retained hedge intents. Keys survive restarts.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}
