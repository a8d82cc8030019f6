// Package store provides SQLite-backed durable storage for the auction
// state and its receipt journal.
//
// The store holds:
//   - round_state, parameters, accounting: singleton rows
//   - registry: awarded identifiers, written once
//   - deposits: non-zero withdrawable balances
//   - whitelist: whitelisted reserved identifiers
//   - round_results: one row per closed round
//   - receipts: append-only journal of committed calls
//
// # Critical Patterns
//
// One Transaction per Call:
//   - Commit writes every change of a call and its receipt in one SQL
//     transaction, then runs the commit hook before COMMIT
//   - A hook error (failed value transfer) rolls everything back
//
// Logical Ordering:
//   - Receipts are keyed and ordered by seq, NEVER by time
//   - Reads return rows ORDER BY seq ASC
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
