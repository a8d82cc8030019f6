package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/roach88/idauction/internal/ir"
)

// ErrTransferRefused is returned by RecordingTransferer for refused
// recipients.
var ErrTransferRefused = errors.New("transfer refused")

// Payout is one successful transfer.
type Payout struct {
	To     ir.Address
	Amount ir.Amount
}

// RecordingTransferer records payouts instead of moving value.
// Recipients marked with Refuse fail until Accept is called.
//
// Implements engine.Transferer.
type RecordingTransferer struct {
	mu      sync.Mutex
	payouts []Payout
	refused map[ir.Address]bool
}

// NewRecordingTransferer returns a transferer that accepts everyone.
func NewRecordingTransferer() *RecordingTransferer {
	return &RecordingTransferer{refused: make(map[ir.Address]bool)}
}

// TransferOut records the payout, or fails for refused recipients.
func (r *RecordingTransferer) TransferOut(ctx context.Context, to ir.Address, amount ir.Amount) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.refused[to] {
		return ErrTransferRefused
	}
	r.payouts = append(r.payouts, Payout{To: to, Amount: amount})
	return nil
}

// Refuse makes transfers to addr fail.
func (r *RecordingTransferer) Refuse(addr ir.Address) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refused[addr] = true
}

// Accept lifts a previous Refuse.
func (r *RecordingTransferer) Accept(addr ir.Address) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.refused, addr)
}

// Payouts returns a copy of the recorded payouts in order.
func (r *RecordingTransferer) Payouts() []Payout {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Payout, len(r.payouts))
	copy(out, r.payouts)
	return out
}

// Total returns the sum of all payouts to addr.
func (r *RecordingTransferer) Total(addr ir.Address) ir.Amount {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := ir.ZeroAmount
	for _, p := range r.payouts {
		if p.To == addr {
			total = total.Add(p.Amount)
		}
	}
	return total
}
