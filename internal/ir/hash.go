package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainReceipt = "idauction/receipt/v1"
	DomainState   = "idauction/state/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ReceiptID computes the content-addressed id of a committed call.
// The id covers what happened (op, caller, time, value, args, events, seq),
// not the correlation token, so a replay reproduces identical ids.
func ReceiptID(call Call, events []Event, seq int64) (string, error) {
	evs := make([]any, len(events))
	for i, e := range events {
		evs[i] = e.Canonical()
	}
	obj := map[string]any{
		"op":     string(call.Op),
		"caller": string(call.Caller),
		"time":   call.Time,
		"value":  call.Value.String(),
		"args":   call.Args(),
		"events": evs,
		"seq":    seq,
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("ReceiptID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainReceipt, canonical), nil
}

// MustReceiptID is like ReceiptID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustReceiptID(call Call, events []Event, seq int64) string {
	id, err := ReceiptID(call, events, seq)
	if err != nil {
		panic(err)
	}
	return id
}
