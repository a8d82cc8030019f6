// Package ir provides the canonical value types of the identifier auction.
//
// This package contains type definitions and pure helpers only. All other
// internal packages import ir; ir imports nothing internal. This keeps ir the
// foundational layer with no circular dependencies.
//
// Key design constraints:
//   - NO float types anywhere; currency is Amount (exact integer base units)
//   - Ledger time is int64 seconds supplied by the caller, never read here
//   - Content-addressed ids use canonical JSON with domain separation
//   - State digests use deterministic CBOR so equal states hash equal
package ir
