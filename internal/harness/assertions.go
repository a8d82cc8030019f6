package harness

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/idauction/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Target   string       // What was inspected, e.g. "identifier 990"
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEntry // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s", e.Type)
	if e.Target != "" {
		fmt.Fprintf(&buf, " (%s)", e.Target)
	}
	buf.WriteString("\n")

	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, entry := range e.Trace {
		outcome := fmt.Sprintf("seq=%d", entry.Seq)
		if !entry.Committed() {
			outcome = string(entry.Error)
		}
		fmt.Fprintf(&buf, "  [%d] %s -> %s\n", entry.Step, entry.Call, outcome)
	}

	return buf.String()
}

// EvaluateAssertions checks every assertion against the final state of
// result and returns one message per failure.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluateAssertion(result, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluateAssertion(result *Result, a Assertion) error {
	target, actual, err := observe(result, a)
	if err != nil {
		return err
	}
	return matchFields(a.Type, target, a.Expect, actual, result.Trace)
}

// observe renders the inspected piece of state as a flat field map.
func observe(result *Result, a Assertion) (string, map[string]string, error) {
	s := result.State
	if s == nil {
		return "", nil, fmt.Errorf("result has no state")
	}

	switch a.Type {
	case AssertState:
		r := s.Round
		return "round state", map[string]string{
			"active_identifier": strconv.FormatUint(uint64(r.ActiveIdentifier), 10),
			"highest_bid":       r.HighestBid.String(),
			"highest_bidder":    string(r.HighestBidder),
			"round":             strconv.FormatUint(r.Round, 10),
			"scheduled_end":     strconv.FormatInt(r.ScheduledEnd, 10),
			"paused":            strconv.FormatBool(r.Paused),
		}, nil

	case AssertIdentifier:
		e := s.Registry[*a.Identifier]
		return fmt.Sprintf("identifier %d", *a.Identifier), map[string]string{
			"owner":        string(e.Owner),
			"created_time": strconv.FormatInt(e.CreatedTime, 10),
			"supply_meta":  e.SupplyMeta,
		}, nil

	case AssertDeposit:
		bal, ok := s.Deposits[a.Address]
		if !ok {
			bal = ir.ZeroAmount
		}
		return "deposit " + string(a.Address), map[string]string{
			"balance": bal.String(),
		}, nil

	case AssertAccounting:
		acct := s.Accounting
		return "accounting", map[string]string{
			"received":  acct.Received.String(),
			"withdrawn": acct.Withdrawn.String(),
			"proceeds":  acct.Proceeds.String(),
		}, nil

	case AssertResult:
		res, ok := s.Results[*a.Round]
		fields := map[string]string{"closed": strconv.FormatBool(ok)}
		if ok {
			fields["identifier"] = strconv.FormatUint(uint64(res.Identifier), 10)
			fields["winner"] = string(res.Winner)
			fields["price"] = res.Price.String()
			fields["closed_at"] = strconv.FormatInt(res.ClosedAt, 10)
		}
		return fmt.Sprintf("round %d", *a.Round), fields, nil

	case AssertWhitelist:
		return fmt.Sprintf("whitelist %d", *a.Identifier), map[string]string{
			"allowed": strconv.FormatBool(s.Whitelist[*a.Identifier]),
		}, nil

	case AssertPayout:
		total := ir.ZeroAmount
		count := 0
		for _, p := range result.Payouts {
			if p.To == a.Address {
				total = total.Add(p.Amount)
				count++
			}
		}
		return "payout " + string(a.Address), map[string]string{
			"total": total.String(),
			"count": strconv.Itoa(count),
		}, nil
	}

	return "", nil, fmt.Errorf("unknown assertion type %q", a.Type)
}

// matchFields compares expected against actual with subset semantics.
// Expected values are compared by their string form, so YAML integers,
// quoted amounts and booleans all match their rendered state values.
func matchFields(typ, target string, expected map[string]any, actual map[string]string, trace []TraceEntry) error {
	keys := make([]string, 0, len(expected))
	for k := range expected {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var mismatches []string
	for _, k := range keys {
		got, ok := actual[k]
		if !ok {
			return &AssertionError{
				Type:     typ,
				Target:   target,
				Expected: fmt.Sprintf("field %q", k),
				Actual:   fmt.Sprintf("no such field (have %s)", strings.Join(sortedKeys(actual), ", ")),
				Trace:    trace,
			}
		}
		if want := fmt.Sprint(expected[k]); want != got {
			mismatches = append(mismatches, fmt.Sprintf("%s: want %s, got %s", k, want, got))
		}
	}
	if len(mismatches) == 0 {
		return nil
	}

	return &AssertionError{
		Type:     typ,
		Target:   target,
		Expected: formatExpected(keys, expected),
		Actual:   strings.Join(mismatches, "; "),
		Trace:    trace,
	}
}

func formatExpected(keys []string, expected map[string]any) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, expected[k])
	}
	return strings.Join(parts, " ")
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
