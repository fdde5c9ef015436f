package cart

import "context"

// Storage is the durable key-value capability the store persists snapshots to.
// A nil Storage means the host has no durable storage; the store then keeps
// state in memory only.
type Storage interface {
	// Get returns the value for key and whether it exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// DefaultKey is the storage key the snapshot lives under.
const DefaultKey = "cart"
