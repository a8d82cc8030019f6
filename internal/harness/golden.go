package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/idauction/internal/ir"
)

// TraceSnapshot captures the trace of a scenario execution.
// It holds only what happened: calls, seqs, rejection codes and events.
// Receipt ids, tx ids and digests are left out so a golden file reads as a
// story and does not churn when hashing changes.
type TraceSnapshot struct {
	ScenarioName string
	Trace        []TraceEntry
}

// toCanonicalMap converts a TraceSnapshot to a map[string]any for canonical
// JSON serialization.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, entry := range s.Trace {
		call := entry.Call
		entryMap := map[string]any{
			"step":   entry.Step,
			"op":     string(call.Op),
			"caller": string(call.Caller),
			"time":   call.Time,
			"args":   call.Args(),
		}
		if !call.Value.IsZero() {
			entryMap["value"] = call.Value.String()
		}
		if entry.Committed() {
			entryMap["seq"] = entry.Seq
			events := make([]any, len(entry.Events))
			for j, ev := range entry.Events {
				events[j] = ev.Canonical()
			}
			entryMap["events"] = events
		} else {
			entryMap["error"] = string(entry.Error)
		}
		traceList[i] = entryMap
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         traceList,
	}
}

// MarshalTrace renders the canonical trace of a result.
func MarshalTrace(scenarioName string, result *Result) ([]byte, error) {
	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		Trace:        result.Trace,
	}
	return ir.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if trace doesn't match golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the given result's trace against a golden file.
// This is useful when you've already run a scenario and want to compare
// the result against a golden file without re-running.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := MarshalTrace(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)

	return nil
}
