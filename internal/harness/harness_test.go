package harness

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/idauction/internal/engine"
	"github.com/roach88/idauction/internal/ir"
)

func loadTestScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
	require.NoError(t, err)
	return scenario
}

func TestScenarios_Golden(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		scenario, err := LoadScenario(file)
		require.NoError(t, err)

		t.Run(scenario.Name, func(t *testing.T) {
			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Empty(t, result.Errors)
		})
	}
}

func TestRun_Walkthrough(t *testing.T) {
	result, err := Run(loadTestScenario(t, "walkthrough"))
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	require.Len(t, result.Trace, 9)
	assert.True(t, result.Trace[1].Committed())
	assert.Equal(t, int64(2), result.Trace[1].Seq)
	assert.False(t, result.Trace[2].Committed())
	assert.Equal(t, engine.ErrNotExpired, result.Trace[2].Error)
	assert.Equal(t, int64(6*86400), result.Trace[2].Call.Time)

	// Seqs are dense over committed steps only.
	var seqs []int64
	for _, entry := range result.Trace {
		if entry.Committed() {
			seqs = append(seqs, entry.Seq)
		}
	}
	assert.Equal(t, []int64{1, 2, 3, 4, 5, 6}, seqs)

	require.Len(t, result.Receipts, 6)
	assert.Equal(t, "tx-1", result.Receipts[0].TxID)
	assert.Equal(t, "tx-6", result.Receipts[5].TxID)

	require.Len(t, result.Payouts, 1)
	assert.Equal(t, ir.Address("b2"), result.Payouts[0].To)
	assert.Equal(t, "21", result.Payouts[0].Amount.String())

	require.NoError(t, engine.CheckInvariants(result.State))
}

func TestRun_Deterministic(t *testing.T) {
	scenario := loadTestScenario(t, "pause_resume")

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	assert.Equal(t, first.Digest, second.Digest)
	require.Equal(t, len(first.Receipts), len(second.Receipts))
	for i := range first.Receipts {
		assert.Equal(t, first.Receipts[i].ID, second.Receipts[i].ID)
	}
}

func TestRun_JournalReplays(t *testing.T) {
	for _, name := range []string{"walkthrough", "anti_snipe", "pause_resume", "reserved_whitelist", "unconfigured"} {
		t.Run(name, func(t *testing.T) {
			scenario := loadTestScenario(t, name)
			result, err := Run(scenario)
			require.NoError(t, err)

			replayed, err := engine.Replay(context.Background(), scenario.Config.Engine(), result.Receipts)
			require.NoError(t, err)
			assert.True(t, replayed.OK(), "mismatches: %v", replayed.Mismatches)
			assert.Equal(t, result.Digest, replayed.Digest)
		})
	}
}

func TestRun_UnexpectedOutcomes(t *testing.T) {
	at := int64(0)
	scenario := &Scenario{
		Name:        "wrong_expectations",
		Description: "Every expectation is wrong",
		Config:      ScenarioConfig{Supervisor: "supervisor"},
		Steps: []Step{
			{
				At:     &at,
				Call:   ir.Call{Op: ir.OpBid, Caller: "b1", Identifier: 1000, Price: ir.NewAmount(1), Value: ir.NewAmount(1)},
				Expect: &ExpectClause{Error: engine.ErrPaused},
			},
			{
				Call: ir.Call{Op: ir.OpPause, Caller: "b1"},
			},
			{
				Call: ir.Call{Op: ir.OpSetParameters, Caller: "supervisor",
					Params: ir.Parameters{MinIncrementBp: 500, ExtensionWindow: 300, RoundDuration: 600}},
				Expect: &ExpectClause{Error: engine.ErrInvalidParameters},
			},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors[0], "expected AuctionPaused, got AuctionNotConfigured")
	assert.Contains(t, result.Errors[1], "unexpected rejection")
	assert.Contains(t, result.Errors[2], "expected InvalidParameters, call committed")
	assert.Len(t, result.Trace, 3)
}

func TestRun_ClockCannotMoveBackwards(t *testing.T) {
	late, early := int64(100), int64(50)
	scenario := &Scenario{
		Name:        "backwards",
		Description: "Time goes backwards",
		Config:      ScenarioConfig{Supervisor: "supervisor"},
		Steps: []Step{
			{At: &late, Call: ir.Call{Op: ir.OpPause, Caller: "supervisor"}},
			{At: &early, Call: ir.Call{Op: ir.OpResume, Caller: "supervisor"}},
		},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step 1")
	assert.Contains(t, err.Error(), "backwards")
}

func TestRun_FailedAssertion(t *testing.T) {
	scenario := loadTestScenario(t, "anti_snipe")
	scenario.Assertions = append(scenario.Assertions, Assertion{
		Type:   AssertState,
		Expect: map[string]any{"round": 7},
	})

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "round: want 7, got 1")
}
