// Package tx defines the transaction boundary contract used by domain
// services. The postgres implementation lives in infrastructure/storage.
package tx

import "context"

// Manager runs a function inside a database transaction: commit when fn
// returns nil, rollback otherwise. A nested call joins the transaction
// already carried by the context.
type Manager interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager additionally offers read-only transactions for queries
// that must see a consistent snapshot without taking write locks.
type ReadOnlyManager interface {
	Manager

	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
