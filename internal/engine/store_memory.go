package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/roach88/idauction/internal/ir"
)

// MemoryStore is an in-process Store. Replay runs on it, and tests use it
// where durability is not under test.
type MemoryStore struct {
	mu       sync.RWMutex
	state    *ir.State
	receipts []ir.Receipt
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: ir.NewState()}
}

// Load implements Store.
func (m *MemoryStore) Load(ctx context.Context) (*ir.State, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var seq int64
	if n := len(m.receipts); n > 0 {
		seq = m.receipts[n-1].Seq
	}
	return m.state.Clone(), seq, nil
}

// Commit implements Store.
func (m *MemoryStore) Commit(ctx context.Context, cs ir.Changeset, hook func(context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if n := len(m.receipts); n > 0 && cs.Receipt.Seq <= m.receipts[n-1].Seq {
		return fmt.Errorf("receipt seq %d not after %d", cs.Receipt.Seq, m.receipts[n-1].Seq)
	}
	if hook != nil {
		if err := hook(ctx); err != nil {
			return err
		}
	}
	m.state.Apply(cs)
	m.receipts = append(m.receipts, cs.Receipt)
	return nil
}

// Receipts returns a copy of the journal in seq order.
func (m *MemoryStore) Receipts() []ir.Receipt {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ir.Receipt, len(m.receipts))
	copy(out, m.receipts)
	return out
}
