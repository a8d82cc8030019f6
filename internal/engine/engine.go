package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/idauction/internal/ir"
)

// Engine is the auction engine: the only writer of the round cursor,
// registry and deposit ledger.
//
// Every mutating call is one atomic transaction. It runs against a txn
// overlay of the committed state, and either commits all of its writes
// together with a journal receipt, or returns an error and leaves the
// committed state exactly as it was.
//
// Thread-safety model:
//   - All calls are serialized by an internal mutex, which gives the total
//     order a host ledger would impose.
//   - Views read the committed state under the same mutex.
//
// INVARIANTS:
//   - HighestBid is zero iff HighestBidder is none
//   - Round never decreases
//   - Call time never decreases across committed calls
//   - sum(deposits) + HighestBid + Proceeds == Received - Withdrawn
//   - Rejected calls consume no seq and write nothing
type Engine struct {
	mu sync.Mutex

	store    Store
	cfg      Config
	state    *ir.State
	clock    *Clock
	now      TimeSource
	txGen    TxIDGenerator
	transfer Transferer
}

// Option configures an Engine.
type Option func(*Engine)

// WithTimeSource sets the ledger time used by the convenience entry points.
//
// Default: SystemTime.
func WithTimeSource(ts TimeSource) Option {
	return func(e *Engine) { e.now = ts }
}

// WithTxIDGenerator sets the correlation token generator.
//
// Default: UUIDv7Generator.
func WithTxIDGenerator(g TxIDGenerator) Option {
	return func(e *Engine) { e.txGen = g }
}

// WithTransferer sets the value-transfer primitive used by Withdraw.
//
// Default: a transferer that accepts every payout without moving value,
// for hosts that settle withdrawals from the journal.
func WithTransferer(tr Transferer) Option {
	return func(e *Engine) { e.transfer = tr }
}

// New loads the committed state from s and returns an engine ready to
// accept calls. The logical clock resumes from the last journaled seq.
func New(ctx context.Context, s Store, cfg Config, opts ...Option) (*Engine, error) {
	state, seq, err := s.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}

	e := &Engine{
		store:    s,
		cfg:      cfg,
		state:    state,
		clock:    NewClockAt(seq),
		now:      SystemTime{},
		txGen:    UUIDv7Generator{},
		transfer: noTransfer{},
	}
	for _, opt := range opts {
		opt(e)
	}

	slog.Debug("engine loaded",
		"seq", seq,
		"round", state.Round.Round,
		"configured", state.Configured())
	return e, nil
}

// Apply executes one ledger call at call.Time. It is the single entry
// point behind every mutating operation, and the one replay uses.
func (e *Engine) Apply(ctx context.Context, call ir.Call) (*ir.Receipt, error) {
	var fn func(*txn, ir.Call) error
	switch call.Op {
	case ir.OpSetParameters:
		fn = e.setParameters
	case ir.OpWhitelist:
		fn = e.whitelist
	case ir.OpPause:
		fn = e.pause
	case ir.OpResume:
		fn = e.resume
	case ir.OpBid:
		fn = e.bid
	case ir.OpEndRound:
		fn = e.endRound
	case ir.OpWithdraw:
		fn = e.withdraw
	default:
		return nil, newError(ErrUnknownOperation, "unknown operation %q", call.Op)
	}
	// The none address marks "no bidder" in the round cursor, so it can
	// never hold a bid or a balance.
	if call.Caller.IsNone() {
		err := newError(ErrInvalidCaller, "%s call has no caller", call.Op)
		logRejection(call, err)
		return nil, err
	}
	return e.execute(ctx, call, fn)
}

// execute runs fn in a fresh overlay and commits the result.
//
// The seq is only claimed after the store commit succeeds, so a rejected
// call or a failed commit leaves the clock where it was.
func (e *Engine) execute(ctx context.Context, call ir.Call, fn func(*txn, ir.Call) error) (*ir.Receipt, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if call.Time < e.state.LastTime {
		err := newError(ErrTimeRegression, "call time %d is before last committed time %d", call.Time, e.state.LastTime).
			withDetail("last", fmt.Sprint(e.state.LastTime))
		logRejection(call, err)
		return nil, err
	}

	t := newTxn(e.state, call.Time)
	if err := fn(t, call); err != nil {
		logRejection(call, err)
		return nil, err
	}

	seq := e.clock.Current() + 1
	id, err := ir.ReceiptID(call, t.events, seq)
	if err != nil {
		return nil, fmt.Errorf("receipt id: %w", err)
	}
	receipt := ir.Receipt{
		ID:     id,
		Seq:    seq,
		TxID:   e.txGen.Generate(),
		Call:   call,
		Events: t.events,
	}

	cs := t.changeset(receipt)
	if err := e.store.Commit(ctx, cs, t.hook); err != nil {
		if IsRejection(err) {
			logRejection(call, err)
			return nil, err
		}
		slog.Error("commit failed",
			"op", call.Op,
			"caller", call.Caller,
			"seq", seq,
			"error", err)
		if t.paid.IsPositive() {
			// The transfer cannot be recalled. The balance is still on
			// the ledger and must be reconciled by hand before the
			// recipient withdraws again.
			slog.Error("withdrawal paid but not committed",
				"to", t.paidTo,
				"amount", t.paid.String(),
				"seq", seq,
				"tx_id", receipt.TxID)
		}
		return nil, fmt.Errorf("commit seq %d: %w", seq, err)
	}

	e.clock.Next()
	e.state.Apply(cs)

	slog.Info("call committed",
		"op", call.Op,
		"caller", call.Caller,
		"seq", seq,
		"round", e.state.Round.Round,
		"events", len(receipt.Events))
	return &receipt, nil
}

func logRejection(call ir.Call, err error) {
	slog.Debug("call rejected",
		"op", call.Op,
		"caller", call.Caller,
		"time", call.Time,
		"code", CodeOf(err),
		"error", err)
}

// SetParameters configures the auction. Supervisor only.
func (e *Engine) SetParameters(ctx context.Context, caller ir.Address, p ir.Parameters) (*ir.Receipt, error) {
	return e.Apply(ctx, ir.Call{Op: ir.OpSetParameters, Caller: caller, Time: e.now.Now(), Params: p})
}

// WhitelistIdentifier allows or disallows bidding on a reserved identifier.
// Supervisor only.
func (e *Engine) WhitelistIdentifier(ctx context.Context, caller ir.Address, id ir.Identifier, allowed bool) (*ir.Receipt, error) {
	return e.Apply(ctx, ir.Call{Op: ir.OpWhitelist, Caller: caller, Time: e.now.Now(), Identifier: id, Allowed: allowed})
}

// Pause blocks bidding. Supervisor only.
func (e *Engine) Pause(ctx context.Context, caller ir.Address) (*ir.Receipt, error) {
	return e.Apply(ctx, ir.Call{Op: ir.OpPause, Caller: caller, Time: e.now.Now()})
}

// Resume unblocks bidding and rolls over an expired round. Supervisor only.
func (e *Engine) Resume(ctx context.Context, caller ir.Address) (*ir.Receipt, error) {
	return e.Apply(ctx, ir.Call{Op: ir.OpResume, Caller: caller, Time: e.now.Now()})
}

// Bid offers price for id in expectedRound with value attached as
// collateral.
func (e *Engine) Bid(ctx context.Context, caller ir.Address, id ir.Identifier, price ir.Amount, expectedRound uint64, value ir.Amount) (*ir.Receipt, error) {
	return e.Apply(ctx, ir.Call{
		Op:         ir.OpBid,
		Caller:     caller,
		Time:       e.now.Now(),
		Value:      value,
		Identifier: id,
		Price:      price,
		Round:      expectedRound,
	})
}

// EndRound closes an expired round. Anyone may call it, paused or not.
func (e *Engine) EndRound(ctx context.Context, caller ir.Address) (*ir.Receipt, error) {
	return e.Apply(ctx, ir.Call{Op: ir.OpEndRound, Caller: caller, Time: e.now.Now()})
}

// Withdraw pays out and zeroes the caller's deposit balance.
func (e *Engine) Withdraw(ctx context.Context, caller ir.Address) (*ir.Receipt, error) {
	return e.Apply(ctx, ir.Call{Op: ir.OpWithdraw, Caller: caller, Time: e.now.Now()})
}
