package store

import "context"

// ObjectStore is the durability boundary: a key/blob store with per-key
// atomic put/delete and paginated prefix listing, but no cross-key
// transactions. PutIfAbsent is the conditional primitive that closes the
// duplicate-creation race; a backend without it degrades to last-write-wins
// and must say so in its documentation.
type ObjectStore interface {
	// Get returns the blob at key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put writes the blob at key, overwriting any existing value.
	Put(ctx context.Context, key string, value []byte) error
	// PutIfAbsent writes the blob only if the key does not exist, returning
	// ErrConflict otherwise.
	PutIfAbsent(ctx context.Context, key string, value []byte) error
	// Delete removes the key. Deleting an absent key is a no-op.
	Delete(ctx context.Context, key string) error
	// List returns up to limit keys beginning with prefix, strictly after
	// the continuation token, in lexicographic order.
	List(ctx context.Context, prefix, token string, limit int) (ListPage, error)
}

// ListPage is one page of keys from List.
type ListPage struct {
	Keys      []string
	HasMore   bool
	NextToken string
}
