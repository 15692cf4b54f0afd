package store

import (
	"github.com/ssargent/njord/pkg/codec"
)

// ProductStore is the durable mapping from product id to product.
// Implementations keep keys in ascending id order and make every
// mutation durable before returning.
type ProductStore interface {
	// Get returns the product stored under id, or false when absent.
	Get(id uint64) (*codec.Product, bool, error)

	// Put writes or overwrites the entry at the product's id. It is
	// unconditional; create-versus-update semantics belong to the caller.
	Put(p *codec.Product) error

	// Remove deletes the entry if present and returns the prior value.
	// An absent id returns false and leaves the store unchanged.
	Remove(id uint64) (*codec.Product, bool, error)

	// List returns every product in ascending id order.
	List() ([]*codec.Product, error)

	Close() error
}

// RecoveryResult describes what opening a log store found and repaired.
type RecoveryResult struct {
	EntriesReplayed int64 // valid log entries replayed into the index
	TruncatedBytes  int64 // bytes cut from a torn or corrupt tail
	LogSize         int64 // log size after recovery
}

// StoreStats holds statistics about a store.
type StoreStats struct {
	Products int
	DataSize int64
}

// StoreError represents a storage-layer error.
type StoreError struct {
	Message string
}

func (e *StoreError) Error() string {
	return e.Message
}

// ErrCorruption is returned when stored bytes fail integrity checks.
var ErrCorruption = &StoreError{"log corruption detected"}
