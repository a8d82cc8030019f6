package engine

import (
	"context"

	"github.com/roach88/idauction/internal/ir"
)

// withdraw zeroes the caller's ledger balance and pays it out. The payout
// runs inside the store transaction, so a failed transfer reverts the
// zeroing as well.
func (e *Engine) withdraw(t *txn, c ir.Call) error {
	bal := t.deposit(c.Caller)
	if !bal.IsPositive() {
		return newError(ErrNoBalance, "%s has no withdrawable balance", c.Caller)
	}

	t.deposits[c.Caller] = ir.ZeroAmount
	t.acct.Withdrawn = t.acct.Withdrawn.Add(bal)
	t.emit(ir.Event{
		Kind:    ir.EventWithdrawn,
		Round:   t.round.Round,
		Address: c.Caller,
		Amount:  bal,
	})

	to := c.Caller
	t.onCommit(func(ctx context.Context) error {
		if err := e.transfer.TransferOut(ctx, to, bal); err != nil {
			return &Error{
				Code:    ErrTransferFailed,
				Message: "transfer to " + string(to) + " failed: " + err.Error(),
				Details: map[string]string{"amount": bal.String()},
			}
		}
		t.paid, t.paidTo = bal, to
		return nil
	})
	return nil
}
