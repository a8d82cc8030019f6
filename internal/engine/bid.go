package engine

import (
	"strconv"

	"github.com/roach88/idauction/internal/ir"
)

// bid validates and applies a bid against the overlay.
//
// Checks run in a fixed order and the first failure wins: rollover,
// configured, paused, round, identifier availability, increment, collateral.
func (e *Engine) bid(t *txn, c ir.Call) error {
	t.rollover()

	if !t.configured() {
		return newError(ErrNotConfigured, "parameters have not been set")
	}
	r := t.round
	if r.Paused {
		return newError(ErrPaused, "bidding is paused")
	}
	if c.Round != r.Round {
		return newError(ErrInvalidRound, "expected round %d, active round is %d", c.Round, r.Round).
			withDetail("expected", strconv.FormatUint(c.Round, 10)).
			withDetail("actual", strconv.FormatUint(r.Round, 10))
	}
	if t.entry(c.Identifier).Awarded() {
		return newError(ErrIdentifierUnavailable, "identifier %d is already owned", c.Identifier)
	}
	if e.cfg.reserved(c.Identifier) && !t.whitelisted(c.Identifier) {
		return newError(ErrIdentifierUnavailable, "identifier %d is reserved and not whitelisted", c.Identifier)
	}

	if err := checkIncrement(r, c.Price, t.params.MinIncrementBp); err != nil {
		return err
	}

	selfRaise := r.HasBid() && r.HighestBidder == c.Caller
	required := c.Price
	if selfRaise {
		required = c.Price.Sub(r.HighestBid)
	}
	if !c.Value.Equal(required) {
		return newError(ErrCollateralMismatch, "attached %s, required %s", c.Value, required).
			withDetail("expected", required.String()).
			withDetail("actual", c.Value.String())
	}

	t.acct.Received = t.acct.Received.Add(c.Value)
	if r.HasBid() && !selfRaise {
		t.credit(r.HighestBidder, r.HighestBid)
		t.emit(ir.Event{
			Kind:    ir.EventDepositCredited,
			Round:   r.Round,
			Address: r.HighestBidder,
			Amount:  r.HighestBid,
		})
	}

	t.round.ActiveIdentifier = c.Identifier
	t.round.HighestBid = c.Price
	t.round.HighestBidder = c.Caller
	t.emit(ir.Event{
		Kind:       ir.EventBidPlaced,
		Round:      r.Round,
		Identifier: c.Identifier,
		Address:    c.Caller,
		Amount:     c.Price,
	})

	if window := t.params.ExtensionWindow; t.round.ScheduledEnd-t.now < window {
		t.round.ScheduledEnd = t.now + window
		t.emit(ir.Event{
			Kind:  ir.EventEndExtended,
			Round: r.Round,
			At:    t.round.ScheduledEnd,
		})
	}
	return nil
}

// checkIncrement enforces the minimum offer. The first bid of a round only
// needs to be positive; later bids must reach the ceiling of
// highestBid * (10000 + bp) / 10000.
func checkIncrement(r ir.RoundState, price ir.Amount, bp int64) error {
	if !r.HasBid() {
		if !price.IsPositive() {
			return newError(ErrInsufficientIncrement, "opening offer must be positive")
		}
		return nil
	}
	threshold := r.HighestBid.MinRaise(bp)
	if price.LessThan(threshold) {
		return newError(ErrInsufficientIncrement, "offer %s below required minimum %s", price, threshold).
			withDetail("expected", threshold.String()).
			withDetail("actual", price.String())
	}
	return nil
}
