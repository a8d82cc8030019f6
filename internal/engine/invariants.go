package engine

import (
	"fmt"

	"github.com/roach88/idauction/internal/ir"
)

// CheckInvariants verifies the state-level invariants that must hold after
// every committed call. Used by tests, the harness, and replay checks.
func CheckInvariants(s *ir.State) error {
	r := s.Round
	if r.HighestBid.IsZero() != r.HighestBidder.IsNone() {
		return fmt.Errorf("highest bid %s with bidder %q", r.HighestBid, r.HighestBidder)
	}

	for id, entry := range s.Registry {
		if entry.Awarded() && entry.CreatedTime <= 0 {
			return fmt.Errorf("identifier %d awarded with created time %d", id, entry.CreatedTime)
		}
	}

	held := r.HighestBid.Add(s.Accounting.Proceeds)
	for _, bal := range s.Deposits {
		held = held.Add(bal)
	}
	if s.Accounting.Withdrawn.Cmp(s.Accounting.Received) > 0 {
		return fmt.Errorf("withdrawn %s exceeds received %s", s.Accounting.Withdrawn, s.Accounting.Received)
	}
	net := s.Accounting.Received.Sub(s.Accounting.Withdrawn)
	if !held.Equal(net) {
		return fmt.Errorf("conservation: held %s, received-withdrawn %s", held, net)
	}
	return nil
}
