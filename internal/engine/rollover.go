package engine

import "github.com/roach88/idauction/internal/ir"

// DefaultSupplyMeta is written to every registry entry at award time.
const DefaultSupplyMeta = ""

// finalization describes a round closed by rollover.
type finalization struct {
	Result ir.RoundResult
}

// maybeRollover advances the round cursor when its schedule has elapsed.
//
// It performs at most one step regardless of how many round durations have
// passed, and anchors the next schedule at now. It never moves value: the
// winner's committed funds become proceeds, and nobody is paid.
//
// Returns the cursor unchanged and a nil finalization when the auction is
// unconfigured or now < ScheduledEnd.
func maybeRollover(r ir.RoundState, p *ir.Parameters, now int64) (ir.RoundState, *finalization) {
	if p == nil || now < r.ScheduledEnd {
		return r, nil
	}

	fin := &finalization{Result: ir.RoundResult{
		Round:    r.Round,
		ClosedAt: now,
		Price:    ir.ZeroAmount,
	}}
	if r.HasBid() {
		fin.Result.Identifier = r.ActiveIdentifier
		fin.Result.Winner = r.HighestBidder
		fin.Result.Price = r.HighestBid
	}

	next := ir.RoundState{
		HighestBid:   ir.ZeroAmount,
		Round:        r.Round + 1,
		ScheduledEnd: now + p.RoundDuration,
		Paused:       r.Paused,
	}
	return next, fin
}

// rollover runs maybeRollover against the overlay and records its effects.
// Reports whether a round was closed.
func (t *txn) rollover() bool {
	next, fin := maybeRollover(t.round, t.params, t.now)
	if fin == nil {
		return false
	}

	res := fin.Result
	if !res.Winner.IsNone() {
		t.awards[res.Identifier] = ir.RegistryEntry{
			Owner:       res.Winner,
			CreatedTime: t.now,
			SupplyMeta:  DefaultSupplyMeta,
		}
		t.acct.Proceeds = t.acct.Proceeds.Add(res.Price)
	}
	t.results = append(t.results, res)
	t.round = next

	t.emit(ir.Event{
		Kind:       ir.EventRoundClosed,
		Round:      res.Round,
		Identifier: res.Identifier,
		Address:    res.Winner,
		Amount:     res.Price,
		At:         t.now,
	})
	t.emit(ir.Event{
		Kind:  ir.EventRoundOpened,
		Round: next.Round,
		At:    next.ScheduledEnd,
	})
	return true
}
