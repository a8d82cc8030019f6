package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/idauction/internal/ir"
)

func TestStateJSON(t *testing.T) {
	dbPath := seedDatabase(t)

	out, err := runCLI(t, "--format", "json", "state", "--db", dbPath,
		"--identifier", "990,991,7", "--address", "b1,b2", "--result", "0")
	require.NoError(t, err)

	var view StateView
	resp := decodeResponse(t, out, &view)
	assert.Equal(t, "ok", resp.Status)

	assert.Equal(t, int64(5), view.Seq)
	assert.Len(t, view.Digest, 64)
	assert.True(t, view.Configured)
	require.NotNil(t, view.Parameters)
	assert.Equal(t, int64(500), view.Parameters.MinIncrementBp)

	assert.Equal(t, uint64(1), view.Round.Round)
	assert.Equal(t, int64(1304800), view.Round.ScheduledEnd)
	assert.Equal(t, ir.Identifier(991), view.Round.ActiveIdentifier)
	assert.Equal(t, ir.Address("b2"), view.Round.HighestBidder)
	assert.Equal(t, "1", view.Round.HighestBid.String())

	assert.Equal(t, "27", view.Accounting.Received.String())
	assert.Equal(t, "5", view.Accounting.Withdrawn.String())
	assert.Equal(t, "21", view.Accounting.Proceeds.String())

	require.Len(t, view.Identifiers, 3)
	assert.Equal(t, ir.Address("b2"), view.Identifiers[0].Owner)
	assert.Equal(t, int64(700000), view.Identifiers[0].CreatedTime)
	assert.True(t, view.Identifiers[1].Owner.IsNone())
	assert.True(t, view.Identifiers[2].Reserved)
	assert.False(t, view.Identifiers[2].Whitelisted)

	require.Len(t, view.Deposits, 2)
	assert.True(t, view.Deposits[0].Balance.IsZero(), "b1 withdrew")
	assert.True(t, view.Deposits[1].Balance.IsZero())

	require.Len(t, view.Results, 1)
	assert.Equal(t, ir.Identifier(990), view.Results[0].Identifier)
	assert.Equal(t, ir.Address("b2"), view.Results[0].Winner)
	assert.Equal(t, "21", view.Results[0].Price.String())
}

func TestStateText(t *testing.T) {
	dbPath := seedDatabase(t)

	out, err := runCLI(t, "state", "--db", dbPath, "--result", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "round:      1 (ends 1304800)")
	assert.Contains(t, out, "leader:     b2 bids 1 on 991")
	assert.Contains(t, out, "accounting: received=27 withdrawn=5 proceeds=21")
	assert.Contains(t, out, "round 0: 990 won by b2 for 21 at 700000")
}

func TestStateUnconfigured(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "empty.db")

	out, err := runCLI(t, "state", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "seq:        0")
	assert.Contains(t, out, "parameters: (not configured)")
	assert.Contains(t, out, "leader:     (no bids)")
}

func TestStateOpenRoundResult(t *testing.T) {
	dbPath := seedDatabase(t)

	_, err := runCLI(t, "state", "--db", dbPath, "--result", "1")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "round 1 has not closed")
}

func TestStateInvalidIdentifier(t *testing.T) {
	_, err := runCLI(t, "state", "--db", filepath.Join(t.TempDir(), "a.db"), "--identifier", "-1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestParseUints(t *testing.T) {
	got, err := parseUints("identifier", []string{"0", "18446744073709551615"})
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 18446744073709551615}, got)

	_, err = parseUints("identifier", []string{"x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `--identifier "x"`)
}
