package engine

import (
	"context"

	"github.com/roach88/idauction/internal/ir"
)

// Transferer moves value out of the engine to a recipient.
//
// The primitive is all-or-nothing: a non-nil error means nothing moved.
// Only Withdraw calls it, and always from inside the commit, so a failed
// transfer leaves the deposit ledger untouched.
//
// The transfer runs before the store transaction commits. If that final
// commit fails after a successful transfer, value has left but the
// balance is still on the ledger, and a second withdraw would pay it
// again. The engine logs this at Error level with the recipient and
// amount. Hosts that cannot tolerate the window should settle from the
// journal instead (the default transferer) and pay only committed
// Withdrawn events.
type Transferer interface {
	TransferOut(ctx context.Context, to ir.Address, amount ir.Amount) error
}

// TransferFunc adapts a function to Transferer.
type TransferFunc func(ctx context.Context, to ir.Address, amount ir.Amount) error

// TransferOut implements Transferer.
func (f TransferFunc) TransferOut(ctx context.Context, to ir.Address, amount ir.Amount) error {
	return f(ctx, to, amount)
}

// noTransfer accepts every transfer without moving anything. It is the
// default when the host ledger settles withdrawals itself, and the
// transferer used by replay so journaled withdrawals are not paid twice.
type noTransfer struct{}

func (noTransfer) TransferOut(context.Context, ir.Address, ir.Amount) error { return nil }
