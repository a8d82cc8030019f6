package engine

import (
	"context"

	"github.com/roach88/idauction/internal/ir"
)

// txn is the working copy of one call. Reads fall through to the committed
// state; writes stay in the overlay until the changeset is committed. A
// rejected call simply drops its txn, which discards any rollover it ran.
type txn struct {
	base *ir.State
	now  int64

	round     ir.RoundState
	params    *ir.Parameters
	paramsSet bool
	acct      ir.Accounting

	awards    map[ir.Identifier]ir.RegistryEntry
	deposits  map[ir.Address]ir.Amount
	whitelist map[ir.Identifier]bool
	results   []ir.RoundResult
	events    []ir.Event

	hook func(context.Context) error

	// paid is set once the withdraw transfer has moved value, so a
	// commit that fails afterwards can be reported with the amount.
	paid   ir.Amount
	paidTo ir.Address
}

func newTxn(base *ir.State, now int64) *txn {
	t := &txn{
		base:      base,
		now:       now,
		round:     base.Round,
		acct:      base.Accounting,
		awards:    make(map[ir.Identifier]ir.RegistryEntry),
		deposits:  make(map[ir.Address]ir.Amount),
		whitelist: make(map[ir.Identifier]bool),
	}
	if base.Params != nil {
		p := *base.Params
		t.params = &p
	}
	return t
}

func (t *txn) configured() bool { return t.params != nil }

func (t *txn) setParams(p ir.Parameters) {
	t.params = &p
	t.paramsSet = true
}

func (t *txn) entry(id ir.Identifier) ir.RegistryEntry {
	if e, ok := t.awards[id]; ok {
		return e
	}
	return t.base.Registry[id]
}

func (t *txn) deposit(addr ir.Address) ir.Amount {
	if bal, ok := t.deposits[addr]; ok {
		return bal
	}
	return t.base.Deposits[addr]
}

func (t *txn) credit(addr ir.Address, amount ir.Amount) {
	t.deposits[addr] = t.deposit(addr).Add(amount)
}

func (t *txn) whitelisted(id ir.Identifier) bool {
	if ok, set := t.whitelist[id]; set {
		return ok
	}
	return t.base.Whitelist[id]
}

func (t *txn) emit(ev ir.Event) {
	t.events = append(t.events, ev)
}

// onCommit registers fn to run inside the store transaction.
func (t *txn) onCommit(fn func(context.Context) error) {
	t.hook = fn
}

func (t *txn) changeset(r ir.Receipt) ir.Changeset {
	cs := ir.Changeset{
		Receipt:    r,
		Round:      t.round,
		Accounting: t.acct,
		Awards:     t.awards,
		Deposits:   t.deposits,
		Whitelist:  t.whitelist,
		Results:    t.results,
	}
	if t.paramsSet {
		p := *t.params
		cs.Params = &p
	}
	return cs
}
