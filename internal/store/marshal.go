package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/idauction/internal/ir"
)

// identifierKey maps a uint64 identifier onto SQLite's signed INTEGER.
// The mapping is two's complement and round-trips through keyIdentifier.
func identifierKey(id ir.Identifier) int64 { return int64(id) }

func keyIdentifier(v int64) ir.Identifier { return ir.Identifier(uint64(v)) }

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// marshalJSON encodes v as compact JSON TEXT with HTML escaping disabled.
func marshalJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}

// marshalCall converts a call to JSON TEXT for the receipts table.
func marshalCall(c ir.Call) (string, error) {
	s, err := marshalJSON(c)
	if err != nil {
		return "", fmt.Errorf("marshal call: %w", err)
	}
	return s, nil
}

// marshalEvents converts events to JSON TEXT. A nil slice is stored as [].
func marshalEvents(events []ir.Event) (string, error) {
	if events == nil {
		events = []ir.Event{}
	}
	s, err := marshalJSON(events)
	if err != nil {
		return "", fmt.Errorf("marshal events: %w", err)
	}
	return s, nil
}

func unmarshalCall(data string) (ir.Call, error) {
	var c ir.Call
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		return ir.Call{}, fmt.Errorf("unmarshal call: %w", err)
	}
	return c, nil
}

func unmarshalEvents(data string) ([]ir.Event, error) {
	events := []ir.Event{}
	if err := json.Unmarshal([]byte(data), &events); err != nil {
		return nil, fmt.Errorf("unmarshal events: %w", err)
	}
	return events, nil
}

func parseAmount(column, s string) (ir.Amount, error) {
	a, err := ir.ParseAmount(s)
	if err != nil {
		return ir.Amount{}, fmt.Errorf("column %s: %w", column, err)
	}
	return a, nil
}
