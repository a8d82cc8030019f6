package ir

// Identifier is the scarce, uniquely ownable key being auctioned.
type Identifier uint64

// Address identifies a ledger account. The empty address means "none".
type Address string

// NoAddress is the "none" address.
const NoAddress Address = ""

// IsNone reports whether the address is the empty "none" address.
func (a Address) IsNone() bool { return a == NoAddress }

// MinRoundDuration is the protocol floor for Parameters.RoundDuration, in
// seconds. Rounds shorter than this are rejected as degenerate.
const MinRoundDuration int64 = 300

// Parameters are the supervisor-configured auction constants.
// Durations are in seconds of ledger time.
type Parameters struct {
	MinIncrementBp  int64 `json:"min_increment_bp" yaml:"min_increment_bp"`
	ExtensionWindow int64 `json:"extension_window" yaml:"extension_window"`
	RoundDuration   int64 `json:"round_duration" yaml:"round_duration"`
}

// RoundState is the single mutable auction cursor.
//
// INVARIANTS:
//   - HighestBid is zero iff HighestBidder is none
//   - ActiveIdentifier is meaningful only while HighestBidder is set
//   - Round never decreases and grows by exactly one per rollover
type RoundState struct {
	ActiveIdentifier Identifier `json:"active_identifier"`
	HighestBid       Amount     `json:"highest_bid"`
	HighestBidder    Address    `json:"highest_bidder"`
	Round            uint64     `json:"round"`
	ScheduledEnd     int64      `json:"scheduled_end"`
	Paused           bool       `json:"paused"`
}

// HasBid reports whether the round currently has a highest bidder.
func (r RoundState) HasBid() bool { return !r.HighestBidder.IsNone() }

// RegistryEntry records ownership of an awarded identifier.
// An entry with no owner means the identifier has not been awarded.
type RegistryEntry struct {
	Owner       Address `json:"owner"`
	CreatedTime int64   `json:"created_time"`
	SupplyMeta  string  `json:"supply_meta"`
}

// Awarded reports whether the entry has an owner.
func (e RegistryEntry) Awarded() bool { return !e.Owner.IsNone() }

// RoundResult is the outcome of one closed round.
// Winner is none when the round closed without bids.
type RoundResult struct {
	Round      uint64     `json:"round"`
	Identifier Identifier `json:"identifier"`
	Winner     Address    `json:"winner"`
	Price      Amount     `json:"price"`
	ClosedAt   int64      `json:"closed_at"`
}

// Accounting tracks value that entered and left the engine.
//
// Conservation: sum(deposits) + HighestBid + Proceeds == Received - Withdrawn.
type Accounting struct {
	Received  Amount `json:"received"`
	Withdrawn Amount `json:"withdrawn"`
	Proceeds  Amount `json:"proceeds"`
}

// Range is an inclusive identifier range.
type Range struct {
	From Identifier `json:"from" yaml:"from"`
	To   Identifier `json:"to" yaml:"to"`
}

// Contains reports whether id lies within the range.
func (r Range) Contains(id Identifier) bool {
	return id >= r.From && id <= r.To
}

// State is the complete persisted engine state.
// It mirrors the persisted layout: round cursor, parameters, registry,
// deposit ledger, whitelist, plus accounting and round results.
type State struct {
	Round      RoundState
	Params     *Parameters // nil until first configured
	Registry   map[Identifier]RegistryEntry
	Deposits   map[Address]Amount
	Whitelist  map[Identifier]bool
	Results    map[uint64]RoundResult
	Accounting Accounting

	// LastTime is the ledger time of the newest committed call. It is
	// derived from the journal and is not part of the snapshot.
	LastTime int64
}

// NewState returns an empty, unconfigured state.
func NewState() *State {
	return &State{
		Registry:  make(map[Identifier]RegistryEntry),
		Deposits:  make(map[Address]Amount),
		Whitelist: make(map[Identifier]bool),
		Results:   make(map[uint64]RoundResult),
	}
}

// Configured reports whether parameters have ever been set.
func (s *State) Configured() bool { return s.Params != nil }

// Changeset is the set of writes produced by one committed call.
// Deposits with a zero amount are deletions.
type Changeset struct {
	Receipt    Receipt
	Round      RoundState
	Params     *Parameters
	Accounting Accounting
	Awards     map[Identifier]RegistryEntry
	Deposits   map[Address]Amount
	Whitelist  map[Identifier]bool
	Results    []RoundResult
}

// Clone returns a deep copy of s.
func (s *State) Clone() *State {
	c := &State{
		Round:      s.Round,
		Accounting: s.Accounting,
		LastTime:   s.LastTime,
		Registry:   make(map[Identifier]RegistryEntry, len(s.Registry)),
		Deposits:   make(map[Address]Amount, len(s.Deposits)),
		Whitelist:  make(map[Identifier]bool, len(s.Whitelist)),
		Results:    make(map[uint64]RoundResult, len(s.Results)),
	}
	if s.Params != nil {
		p := *s.Params
		c.Params = &p
	}
	for k, v := range s.Registry {
		c.Registry[k] = v
	}
	for k, v := range s.Deposits {
		c.Deposits[k] = v
	}
	for k, v := range s.Whitelist {
		c.Whitelist[k] = v
	}
	for k, v := range s.Results {
		c.Results[k] = v
	}
	return c
}

// Apply writes a committed changeset into s.
func (s *State) Apply(cs Changeset) {
	s.Round = cs.Round
	s.Accounting = cs.Accounting
	if cs.Receipt.Call.Time > s.LastTime {
		s.LastTime = cs.Receipt.Call.Time
	}
	if cs.Params != nil {
		p := *cs.Params
		s.Params = &p
	}
	for id, e := range cs.Awards {
		s.Registry[id] = e
	}
	for addr, bal := range cs.Deposits {
		if bal.IsZero() {
			delete(s.Deposits, addr)
			continue
		}
		s.Deposits[addr] = bal
	}
	for id, ok := range cs.Whitelist {
		if !ok {
			delete(s.Whitelist, id)
			continue
		}
		s.Whitelist[id] = true
	}
	for _, r := range cs.Results {
		s.Results[r.Round] = r
	}
}
