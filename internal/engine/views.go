package engine

import "github.com/roach88/idauction/internal/ir"

// Views read committed state only. None of them roll over, so an expired
// round is reported as-is until a mutating call observes it.

// GetState returns the round cursor.
func (e *Engine) GetState() ir.RoundState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Round
}

// GetIdentifierInfo returns the registry entry for id, or the zero entry
// if it has not been awarded.
func (e *Engine) GetIdentifierInfo(id ir.Identifier) ir.RegistryEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Registry[id]
}

// IsPaused reports whether bidding is paused.
func (e *Engine) IsPaused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Round.Paused
}

// GetDeposit returns addr's withdrawable balance.
func (e *Engine) GetDeposit(addr ir.Address) ir.Amount {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Deposits[addr]
}

// GetParameters returns the current parameters and whether any were set.
func (e *Engine) GetParameters() (ir.Parameters, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Params == nil {
		return ir.Parameters{}, false
	}
	return *e.state.Params, true
}

// IsWhitelisted reports the whitelist flag for id.
func (e *Engine) IsWhitelisted(id ir.Identifier) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Whitelist[id]
}

// IsReserved reports whether id lies in a reserved range.
func (e *Engine) IsReserved(id ir.Identifier) bool {
	return e.cfg.reserved(id)
}

// GetAccounting returns the value totals.
func (e *Engine) GetAccounting() ir.Accounting {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Accounting
}

// GetRoundResult returns the outcome of a closed round.
func (e *Engine) GetRoundResult(round uint64) (ir.RoundResult, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.state.Results[round]
	return r, ok
}

// Seq returns the seq of the last committed call.
func (e *Engine) Seq() int64 {
	return e.clock.Current()
}

// State returns a deep copy of the committed state.
func (e *Engine) State() *ir.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// Digest returns the state digest of the committed state.
func (e *Engine) Digest() (string, error) {
	return ir.StateDigest(e.State())
}
