package engine

import (
	"context"

	"github.com/roach88/idauction/internal/ir"
)

// Store persists committed state and the receipt journal.
//
// Implemented by *store.Store (SQLite) and MemoryStore.
type Store interface {
	// Load returns the committed state and the seq of the last receipt
	// (0 for an empty journal).
	Load(ctx context.Context) (*ir.State, int64, error)

	// Commit writes every change in cs together with cs.Receipt as one
	// transaction. hook, when non-nil, runs inside the transaction after
	// the writes are staged; a hook error aborts the whole commit and is
	// returned unchanged (possibly wrapped).
	Commit(ctx context.Context, cs ir.Changeset, hook func(context.Context) error) error
}
