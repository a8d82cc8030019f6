package engine

import (
	"strconv"

	"github.com/roach88/idauction/internal/ir"
)

func (e *Engine) requireSupervisor(c ir.Call) error {
	if !e.cfg.isSupervisor(c.Caller) {
		return newError(ErrUnauthorized, "%s is not the supervisor", c.Caller).
			withDetail("op", string(c.Op))
	}
	return nil
}

// ValidateParameters checks p against the protocol bounds.
func ValidateParameters(p ir.Parameters) error {
	switch {
	case p.MinIncrementBp < 1 || p.MinIncrementBp > ir.BasisPoints:
		return newError(ErrInvalidParameters, "min increment %d bp outside 1..%d", p.MinIncrementBp, ir.BasisPoints)
	case p.ExtensionWindow <= 0:
		return newError(ErrInvalidParameters, "extension window must be positive, got %d", p.ExtensionWindow)
	case p.RoundDuration < ir.MinRoundDuration:
		return newError(ErrInvalidParameters, "round duration %d below floor %d", p.RoundDuration, ir.MinRoundDuration).
			withDetail("floor", strconv.FormatInt(ir.MinRoundDuration, 10))
	case p.ExtensionWindow > p.RoundDuration:
		return newError(ErrInvalidParameters, "extension window %d exceeds round duration %d", p.ExtensionWindow, p.RoundDuration)
	}
	return nil
}

// setParameters stores new parameters. The first configuration opens
// round 0; later ones leave the running schedule alone and take effect at
// the next rollover or extension.
func (e *Engine) setParameters(t *txn, c ir.Call) error {
	if err := e.requireSupervisor(c); err != nil {
		return err
	}
	if err := ValidateParameters(c.Params); err != nil {
		return err
	}

	first := !t.configured()
	t.setParams(c.Params)
	t.emit(ir.Event{Kind: ir.EventParametersSet, Round: t.round.Round})

	if first {
		t.round.ScheduledEnd = t.now + c.Params.RoundDuration
		t.emit(ir.Event{
			Kind:  ir.EventRoundOpened,
			Round: t.round.Round,
			At:    t.round.ScheduledEnd,
		})
	}
	return nil
}

func (e *Engine) whitelist(t *txn, c ir.Call) error {
	if err := e.requireSupervisor(c); err != nil {
		return err
	}
	t.whitelist[c.Identifier] = c.Allowed
	t.emit(ir.Event{
		Kind:       ir.EventWhitelistSet,
		Round:      t.round.Round,
		Identifier: c.Identifier,
		Allowed:    c.Allowed,
	})
	return nil
}

// pause blocks bidding. Timing is untouched and no rollover runs.
func (e *Engine) pause(t *txn, c ir.Call) error {
	if err := e.requireSupervisor(c); err != nil {
		return err
	}
	t.round.Paused = true
	t.emit(ir.Event{Kind: ir.EventPaused, Round: t.round.Round})
	return nil
}

// resume unpauses, then rolls over so an auction that expired while paused
// advances exactly one round anchored at the resume time.
func (e *Engine) resume(t *txn, c ir.Call) error {
	if err := e.requireSupervisor(c); err != nil {
		return err
	}
	t.round.Paused = false
	t.emit(ir.Event{Kind: ir.EventResumed, Round: t.round.Round})
	t.rollover()
	return nil
}

func (e *Engine) endRound(t *txn, _ ir.Call) error {
	if !t.configured() {
		return newError(ErrNotConfigured, "parameters have not been set")
	}
	if t.now < t.round.ScheduledEnd {
		return newError(ErrNotExpired, "round %d ends at %d, now %d", t.round.Round, t.round.ScheduledEnd, t.now).
			withDetail("scheduled_end", strconv.FormatInt(t.round.ScheduledEnd, 10))
	}
	t.rollover()
	return nil
}
