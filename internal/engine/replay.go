package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/idauction/internal/ir"
)

// Replay
//
// A journal is replayed by applying every receipt's call, in seq order, to
// a fresh engine on a MemoryStore. Calls carry their own ledger time, and
// the engine has no other input, so a faithful journal reproduces:
//
//   - the same receipt ids (ids cover op, args, time, value, events, seq)
//   - the same seq values (rejected calls are never journaled)
//   - the same state digest
//
// Replay never pays anyone: withdrawals run against a transferer that
// accepts without moving value.

// ReplayResult summarizes a replay run.
type ReplayResult struct {
	// Calls is the number of receipts applied.
	Calls int

	// Digest is the state digest after the last receipt.
	Digest string

	// Mismatches lists receipts that did not reproduce.
	Mismatches []ReplayMismatch

	// State is the replayed state.
	State *ir.State
}

// OK reports whether every receipt reproduced.
func (r *ReplayResult) OK() bool { return len(r.Mismatches) == 0 }

// ReplayMismatch describes a receipt that replayed differently.
type ReplayMismatch struct {
	Seq    int64
	WantID string
	GotID  string
	Err    error
}

func (m ReplayMismatch) String() string {
	if m.Err != nil {
		return fmt.Sprintf("seq %d: rejected on replay: %v", m.Seq, m.Err)
	}
	return fmt.Sprintf("seq %d: id %s, replayed %s", m.Seq, m.WantID, m.GotID)
}

// Replay re-executes receipts on a fresh engine configured with cfg.
//
// Returns an error only for infrastructure failures; divergence is
// reported through ReplayResult.Mismatches.
func Replay(ctx context.Context, cfg Config, receipts []ir.Receipt) (*ReplayResult, error) {
	txIDs := make([]string, len(receipts))
	for i, r := range receipts {
		txIDs[i] = r.TxID
	}

	e, err := New(ctx, NewMemoryStore(), cfg,
		WithTxIDGenerator(NewFixedGenerator(txIDs...)))
	if err != nil {
		return nil, err
	}

	res := &ReplayResult{}
	for _, want := range receipts {
		got, err := e.Apply(ctx, want.Call)
		res.Calls++
		if err != nil {
			if !IsRejection(err) {
				return nil, fmt.Errorf("replay seq %d: %w", want.Seq, err)
			}
			res.Mismatches = append(res.Mismatches, ReplayMismatch{Seq: want.Seq, WantID: want.ID, Err: err})
			// Keep the generator aligned with the journal.
			e.txGen.Generate()
			continue
		}
		if got.ID != want.ID || got.Seq != want.Seq {
			res.Mismatches = append(res.Mismatches, ReplayMismatch{Seq: want.Seq, WantID: want.ID, GotID: got.ID})
		}
	}

	res.State = e.State()
	res.Digest, err = ir.StateDigest(res.State)
	if err != nil {
		return nil, err
	}

	slog.Info("replay finished",
		"calls", res.Calls,
		"mismatches", len(res.Mismatches),
		"digest", res.Digest)
	return res, nil
}
