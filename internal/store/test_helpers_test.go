package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/idauction/internal/ir"
)

// createTestStore opens a fresh database in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// testReceipt builds a receipt for call with a content-addressed id.
func testReceipt(seq int64, call ir.Call, events ...ir.Event) ir.Receipt {
	return ir.Receipt{
		ID:     ir.MustReceiptID(call, events, seq),
		Seq:    seq,
		TxID:   "tx-" + string(call.Caller) + "-" + string(call.Op),
		Call:   call,
		Events: events,
	}
}

// emptyChangeset returns a changeset that rewrites base's singletons and
// carries r.
func emptyChangeset(base *ir.State, r ir.Receipt) ir.Changeset {
	return ir.Changeset{
		Receipt:    r,
		Round:      base.Round,
		Accounting: base.Accounting,
		Awards:     map[ir.Identifier]ir.RegistryEntry{},
		Deposits:   map[ir.Address]ir.Amount{},
		Whitelist:  map[ir.Identifier]bool{},
	}
}
