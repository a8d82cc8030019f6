package ir

import (
	"fmt"
	"sort"

	"github.com/fxamacker/cbor/v2"
)

// Snapshot is a flattened, order-independent view of State used for
// determinism checks. Maps become slices sorted by key.
type Snapshot struct {
	Round      snapshotRound      `cbor:"round"`
	Params     *Parameters        `cbor:"params"`
	Registry   []snapshotEntry    `cbor:"registry"`
	Deposits   []snapshotDeposit  `cbor:"deposits"`
	Whitelist  []uint64           `cbor:"whitelist"`
	Results    []snapshotResult   `cbor:"results"`
	Accounting snapshotAccounting `cbor:"accounting"`
}

type snapshotRound struct {
	ActiveIdentifier uint64 `cbor:"active_identifier"`
	HighestBid       string `cbor:"highest_bid"`
	HighestBidder    string `cbor:"highest_bidder"`
	Round            uint64 `cbor:"round"`
	ScheduledEnd     int64  `cbor:"scheduled_end"`
	Paused           bool   `cbor:"paused"`
}

type snapshotEntry struct {
	Identifier  uint64 `cbor:"identifier"`
	Owner       string `cbor:"owner"`
	CreatedTime int64  `cbor:"created_time"`
	SupplyMeta  string `cbor:"supply_meta"`
}

type snapshotDeposit struct {
	Address string `cbor:"address"`
	Balance string `cbor:"balance"`
}

type snapshotResult struct {
	Round      uint64 `cbor:"round"`
	Identifier uint64 `cbor:"identifier"`
	Winner     string `cbor:"winner"`
	Price      string `cbor:"price"`
	ClosedAt   int64  `cbor:"closed_at"`
}

type snapshotAccounting struct {
	Received  string `cbor:"received"`
	Withdrawn string `cbor:"withdrawn"`
	Proceeds  string `cbor:"proceeds"`
}

// TakeSnapshot flattens s. Zero deposits and false whitelist flags are
// dropped so that "deleted" and "never written" compare equal.
func TakeSnapshot(s *State) Snapshot {
	snap := Snapshot{
		Round: snapshotRound{
			ActiveIdentifier: uint64(s.Round.ActiveIdentifier),
			HighestBid:       s.Round.HighestBid.String(),
			HighestBidder:    string(s.Round.HighestBidder),
			Round:            s.Round.Round,
			ScheduledEnd:     s.Round.ScheduledEnd,
			Paused:           s.Round.Paused,
		},
		Params: s.Params,
		Accounting: snapshotAccounting{
			Received:  s.Accounting.Received.String(),
			Withdrawn: s.Accounting.Withdrawn.String(),
			Proceeds:  s.Accounting.Proceeds.String(),
		},
		Registry:  []snapshotEntry{},
		Deposits:  []snapshotDeposit{},
		Whitelist: []uint64{},
		Results:   []snapshotResult{},
	}

	for id, e := range s.Registry {
		snap.Registry = append(snap.Registry, snapshotEntry{
			Identifier:  uint64(id),
			Owner:       string(e.Owner),
			CreatedTime: e.CreatedTime,
			SupplyMeta:  e.SupplyMeta,
		})
	}
	sort.Slice(snap.Registry, func(i, j int) bool {
		return snap.Registry[i].Identifier < snap.Registry[j].Identifier
	})

	for addr, bal := range s.Deposits {
		if bal.IsZero() {
			continue
		}
		snap.Deposits = append(snap.Deposits, snapshotDeposit{Address: string(addr), Balance: bal.String()})
	}
	sort.Slice(snap.Deposits, func(i, j int) bool {
		return snap.Deposits[i].Address < snap.Deposits[j].Address
	})

	for id, ok := range s.Whitelist {
		if ok {
			snap.Whitelist = append(snap.Whitelist, uint64(id))
		}
	}
	sort.Slice(snap.Whitelist, func(i, j int) bool { return snap.Whitelist[i] < snap.Whitelist[j] })

	for _, r := range s.Results {
		snap.Results = append(snap.Results, snapshotResult{
			Round:      r.Round,
			Identifier: uint64(r.Identifier),
			Winner:     string(r.Winner),
			Price:      r.Price.String(),
			ClosedAt:   r.ClosedAt,
		})
	}
	sort.Slice(snap.Results, func(i, j int) bool { return snap.Results[i].Round < snap.Results[j].Round })

	return snap
}

// Digest returns SHA-256 over the Core Deterministic CBOR encoding of the
// snapshot. Equal states always produce equal digests.
func (s Snapshot) Digest() (string, error) {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return "", fmt.Errorf("snapshot digest: enc mode: %w", err)
	}
	data, err := em.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("snapshot digest: marshal: %w", err)
	}
	return hashWithDomain(DomainState, data), nil
}

// StateDigest is shorthand for TakeSnapshot(s).Digest().
func StateDigest(s *State) (string, error) {
	return TakeSnapshot(s).Digest()
}
