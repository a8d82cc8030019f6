package ir

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// BasisPoints is the denominator for increment percentages (10000 = 100%).
const BasisPoints = 10000

var (
	decBasisPoints = decimal.NewFromInt(BasisPoints)
	decOne         = decimal.NewFromInt(1)
)

// Amount is a non-negative integer quantity of base currency units.
//
// Amounts are arbitrary precision; ledger units routinely exceed 64 bits
// (21 whole coins at 18 decimals is already past math.MaxUint64). The zero
// value is a valid zero amount.
type Amount struct {
	d decimal.Decimal
}

// ZeroAmount is the zero amount.
var ZeroAmount = Amount{}

// NewAmount returns an Amount for a non-negative int64.
// Panics on negative input; use ParseAmount for untrusted values.
func NewAmount(n int64) Amount {
	if n < 0 {
		panic(fmt.Sprintf("ir: negative amount %d", n))
	}
	return Amount{d: decimal.NewFromInt(n)}
}

// ParseAmount parses a base-10 integer string. A fraction of zeros
// ("5.000") is accepted as the integer it denotes. Exponent notation
// ("1e2"), fractional and negative values are rejected.
func ParseAmount(s string) (Amount, error) {
	if strings.ContainsAny(s, "eE") {
		return Amount{}, fmt.Errorf("parse amount %q: exponent notation is not allowed", s)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return amountFromDecimal(d)
}

// MustParseAmount is like ParseAmount but panics on error.
// Use only in tests or with literal inputs.
func MustParseAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

func amountFromDecimal(d decimal.Decimal) (Amount, error) {
	if d.IsNegative() {
		return Amount{}, fmt.Errorf("amount %s is negative", d.String())
	}
	if !d.Equal(d.Truncate(0)) {
		return Amount{}, fmt.Errorf("amount %s is not a whole number of base units", d.String())
	}
	return Amount{d: d.Truncate(0)}, nil
}

// IsZero reports whether the amount is zero.
func (a Amount) IsZero() bool { return a.d.IsZero() }

// IsPositive reports whether the amount is strictly greater than zero.
func (a Amount) IsPositive() bool { return a.d.IsPositive() }

// Cmp returns -1, 0 or +1 as a is less than, equal to or greater than b.
func (a Amount) Cmp(b Amount) int { return a.d.Cmp(b.d) }

// Equal reports whether a == b.
func (a Amount) Equal(b Amount) bool { return a.d.Equal(b.d) }

// LessThan reports whether a < b.
func (a Amount) LessThan(b Amount) bool { return a.d.LessThan(b.d) }

// Add returns a + b.
func (a Amount) Add(b Amount) Amount { return Amount{d: a.d.Add(b.d)} }

// Sub returns a - b. It panics if the result would be negative; callers
// compare first.
func (a Amount) Sub(b Amount) Amount {
	if a.d.LessThan(b.d) {
		panic(fmt.Sprintf("ir: amount underflow %s - %s", a.d.String(), b.d.String()))
	}
	return Amount{d: a.d.Sub(b.d)}
}

// MinRaise returns the smallest amount that beats a by at least bp basis
// points: ceil(a * (10000 + bp) / 10000).
//
// Rounding is always up, so an offer equal to the returned value is never
// below the true percentage increment.
func (a Amount) MinRaise(bp int64) Amount {
	num := a.d.Mul(decimal.NewFromInt(BasisPoints + bp))
	q, r := num.QuoRem(decBasisPoints, 0)
	if r.IsPositive() {
		q = q.Add(decOne)
	}
	return Amount{d: q}
}

// String returns the base-10 integer representation.
func (a Amount) String() string { return a.d.String() }

// MarshalJSON encodes the amount as a JSON string to keep full precision.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.d.String())
}

// UnmarshalJSON accepts a JSON string or integer.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		s = string(data)
	}
	parsed, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// UnmarshalYAML accepts a scalar integer or quoted integer string.
func (a *Amount) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: amount must be a scalar", node.Line)
	}
	parsed, err := ParseAmount(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*a = parsed
	return nil
}

// MarshalYAML encodes the amount as a string.
func (a Amount) MarshalYAML() (interface{}, error) {
	return a.d.String(), nil
}
