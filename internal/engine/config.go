package engine

import "github.com/roach88/idauction/internal/ir"

// DefaultReserved is the reserved identifier range used when Config leaves
// Reserved nil.
var DefaultReserved = []ir.Range{{From: 0, To: 255}}

// Config holds the role and namespace settings fixed at engine start.
type Config struct {
	// Supervisor is the only address allowed to call admin entry points.
	Supervisor ir.Address

	// Reserved lists inclusive identifier ranges that are biddable only
	// while individually whitelisted. nil means DefaultReserved; an empty
	// non-nil slice reserves nothing.
	Reserved []ir.Range
}

func (c Config) reserved(id ir.Identifier) bool {
	ranges := c.Reserved
	if ranges == nil {
		ranges = DefaultReserved
	}
	for _, r := range ranges {
		if r.Contains(id) {
			return true
		}
	}
	return false
}

func (c Config) isSupervisor(addr ir.Address) bool {
	return !addr.IsNone() && addr == c.Supervisor
}
