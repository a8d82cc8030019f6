package ir

import "fmt"

// Op names a ledger entry point.
type Op string

const (
	OpSetParameters Op = "setParameters"
	OpWhitelist     Op = "whitelistIdentifier"
	OpPause         Op = "pause"
	OpResume        Op = "resume"
	OpBid           Op = "bid"
	OpEndRound      Op = "endRound"
	OpWithdraw      Op = "withdraw"
)

// ValidOps lists every mutating entry point.
var ValidOps = map[Op]bool{
	OpSetParameters: true,
	OpWhitelist:     true,
	OpPause:         true,
	OpResume:        true,
	OpBid:           true,
	OpEndRound:      true,
	OpWithdraw:      true,
}

// Call is one ledger transaction: an entry point invoked by Caller at ledger
// time Time with Value attached. Only the fields relevant to Op are used.
type Call struct {
	Op     Op      `json:"op" yaml:"call"`
	Caller Address `json:"caller" yaml:"caller"`
	Time   int64   `json:"time" yaml:"-"`
	Value  Amount  `json:"value" yaml:"value"`

	// bid
	Identifier Identifier `json:"identifier,omitempty" yaml:"identifier"`
	Price      Amount     `json:"price" yaml:"price"`
	Round      uint64     `json:"round,omitempty" yaml:"round"`

	// whitelistIdentifier
	Allowed bool `json:"allowed,omitempty" yaml:"allowed"`

	// setParameters
	Params Parameters `json:"params" yaml:"params"`
}

// Args returns the op-specific arguments as a canonical-JSON-ready map.
func (c Call) Args() map[string]any {
	switch c.Op {
	case OpBid:
		return map[string]any{
			"identifier": uint64(c.Identifier),
			"price":      c.Price.String(),
			"round":      c.Round,
		}
	case OpWhitelist:
		return map[string]any{
			"identifier": uint64(c.Identifier),
			"allowed":    c.Allowed,
		}
	case OpSetParameters:
		return map[string]any{
			"min_increment_bp": c.Params.MinIncrementBp,
			"extension_window": c.Params.ExtensionWindow,
			"round_duration":   c.Params.RoundDuration,
		}
	default:
		return map[string]any{}
	}
}

// String renders the call for logs and CLI output.
func (c Call) String() string {
	switch c.Op {
	case OpBid:
		return fmt.Sprintf("%s(%d, %s, round=%d) from %s value=%s @%d",
			c.Op, c.Identifier, c.Price, c.Round, c.Caller, c.Value, c.Time)
	case OpWhitelist:
		return fmt.Sprintf("%s(%d, %t) from %s @%d", c.Op, c.Identifier, c.Allowed, c.Caller, c.Time)
	case OpSetParameters:
		return fmt.Sprintf("%s(%d, %d, %d) from %s @%d", c.Op,
			c.Params.MinIncrementBp, c.Params.ExtensionWindow, c.Params.RoundDuration, c.Caller, c.Time)
	default:
		return fmt.Sprintf("%s() from %s @%d", c.Op, c.Caller, c.Time)
	}
}

// EventKind names a state transition recorded in a receipt.
type EventKind string

const (
	EventParametersSet   EventKind = "ParametersSet"
	EventWhitelistSet    EventKind = "WhitelistSet"
	EventPaused          EventKind = "Paused"
	EventResumed         EventKind = "Resumed"
	EventRoundClosed     EventKind = "RoundClosed"
	EventRoundOpened     EventKind = "RoundOpened"
	EventBidPlaced       EventKind = "BidPlaced"
	EventDepositCredited EventKind = "DepositCredited"
	EventEndExtended     EventKind = "EndExtended"
	EventWithdrawn       EventKind = "Withdrawn"
)

// Event is one observable effect of a committed call.
// Fields not meaningful for Kind are left zero.
type Event struct {
	Kind       EventKind  `json:"kind"`
	Round      uint64     `json:"round"`
	Identifier Identifier `json:"identifier,omitempty"`
	Address    Address    `json:"address,omitempty"`
	Amount     Amount     `json:"amount"`
	At         int64      `json:"at,omitempty"`
	Allowed    bool       `json:"allowed,omitempty"`
}

// Canonical returns the event as a canonical-JSON-ready map.
// Zero-valued optional fields are omitted.
func (e Event) Canonical() map[string]any {
	m := map[string]any{
		"kind":  string(e.Kind),
		"round": e.Round,
	}
	if e.Identifier != 0 {
		m["identifier"] = uint64(e.Identifier)
	}
	if !e.Address.IsNone() {
		m["address"] = string(e.Address)
	}
	if !e.Amount.IsZero() {
		m["amount"] = e.Amount.String()
	}
	if e.At != 0 {
		m["at"] = e.At
	}
	if e.Allowed {
		m["allowed"] = true
	}
	return m
}

// Receipt is the journal record of one committed call.
type Receipt struct {
	ID     string  `json:"id"`    // content-addressed, see ReceiptID
	Seq    int64   `json:"seq"`   // logical clock
	TxID   string  `json:"tx_id"` // correlation token
	Call   Call    `json:"call"`
	Events []Event `json:"events"`
}
