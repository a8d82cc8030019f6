// Package harness runs auction scenarios as executable conformance tests.
//
// A scenario drives a real engine, backed by a fresh in-memory SQLite
// store, through a list of ledger calls at controlled ledger times, then
// checks the final state.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	config:
//	  supervisor: supervisor
//	  reserved: [{from: 0, to: 255}]   # optional, this is the default
//	transfer:
//	  refuse: [b1]                     # optional, payouts to b1 fail
//	steps:
//	  - at: 0                          # absolute ledger time, seconds
//	    call: setParameters
//	    caller: supervisor
//	    params: {min_increment_bp: 500, extension_window: 300, round_duration: 604800}
//	  - advance: 8d                    # or relative: Go duration or days
//	    call: bid
//	    caller: b1
//	    identifier: 990
//	    price: 5
//	    round: 1
//	    value: 5
//	    expect: {error: InvalidRound}  # omit when the call must commit
//	assertions:
//	  - type: identifier
//	    identifier: 990
//	    expect: {owner: b1}
//
// # Assertion Types
//
//   - state: round cursor (round, active_identifier, highest_bid,
//     highest_bidder, scheduled_end, paused)
//   - identifier: registry entry (owner, created_time, supply_meta)
//   - deposit: withdrawable balance of an address (balance)
//   - accounting: received, withdrawn, proceeds
//   - result: closed round outcome (closed, identifier, winner, price, closed_at)
//   - whitelist: whitelist flag of an identifier (allowed)
//   - payout: successful withdraw transfers to an address (total, count)
//
// Expect maps are subset matches compared by string form.
//
// # Deterministic Testing
//
// The harness uses:
//   - A manual ledger clock starting at 0 (testutil.ManualClock)
//   - Sequential tx ids "tx-1", "tx-2", ... (engine.SequentialGenerator)
//   - A recording transferer (testutil.RecordingTransferer)
//   - In-memory SQLite database (isolated per run)
//
// State invariants are checked after every committed step. The canonical
// trace of a run is compared against testdata/golden/<name>.golden.
package harness
