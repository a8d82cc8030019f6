// Package engine implements the identifier auction engine.
//
// The engine owns the round cursor, the identifier registry and the
// deposit ledger. Callers drive it with ledger calls; it never sleeps,
// polls or runs timers.
//
// ARCHITECTURE:
//
// Lazy Rollover:
// Round boundaries are evaluated when a call observes them. bid, endRound
// and resume run maybeRollover first; it closes at most one expired round,
// awards the identifier to the highest bidder and anchors the next
// schedule at the call's time. Views never roll over.
//
// Atomic Calls:
// Each call runs in a txn overlay over the committed state. On success the
// overlay becomes an ir.Changeset committed with its receipt in one store
// transaction. On failure the overlay is dropped, including any rollover
// it performed.
//
// Pull Refunds:
// A displaced bidder is credited in the deposit ledger. Only Withdraw moves
// value out, through the Transferer, from inside the commit.
//
// CRITICAL PATTERNS:
//
// Logical Clock:
// Receipts are stamped with a monotonic seq from Clock. Ledger time is an
// input on every call and is never used for ordering.
//
// Deterministic Replay:
// Receipt ids are content addressed over canonical JSON, and state digests
// are computed over deterministic CBOR, so a journal replayed on a fresh
// engine can be checked receipt by receipt and state by state.
package engine
