package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/idauction/internal/ir"
	"github.com/roach88/idauction/internal/store"
)

func TestTraceListsJournal(t *testing.T) {
	dbPath := seedDatabase(t)

	out, err := runCLI(t, "--format", "json", "trace", "--db", dbPath)
	require.NoError(t, err)

	var result TraceResult
	decodeResponse(t, out, &result)
	require.Len(t, result.Receipts, 5)
	for i, r := range result.Receipts {
		assert.Equal(t, int64(i+1), r.Seq)
	}

	assert.Equal(t, 5, result.Stats.Receipts)
	assert.Equal(t, 9, result.Stats.Events)
	assert.Equal(t, 3, result.Stats.ByOp[ir.OpBid])
	assert.Equal(t, 1, result.Stats.ByOp[ir.OpWithdraw])
	assert.Equal(t, map[uint64]int{0: 1}, result.Stats.Rounds)
}

func TestTraceAfterAndLimit(t *testing.T) {
	dbPath := seedDatabase(t)

	out, err := runCLI(t, "--format", "json", "trace", "--db", dbPath, "--after", "2", "--limit", "2")
	require.NoError(t, err)

	var result TraceResult
	decodeResponse(t, out, &result)
	require.Len(t, result.Receipts, 2)
	assert.Equal(t, int64(3), result.Receipts[0].Seq)
	assert.Equal(t, int64(4), result.Receipts[1].Seq)
}

func TestTraceByCaller(t *testing.T) {
	dbPath := seedDatabase(t)

	out, err := runCLI(t, "--format", "json", "trace", "--db", dbPath, "--caller", "b2")
	require.NoError(t, err)

	var result TraceResult
	decodeResponse(t, out, &result)
	require.Len(t, result.Receipts, 2)
	assert.Equal(t, int64(3), result.Receipts[0].Seq)
	assert.Equal(t, int64(4), result.Receipts[1].Seq)

	out, err = runCLI(t, "--format", "json", "trace", "--db", dbPath, "--caller", "b2", "--after", "3")
	require.NoError(t, err)
	result = TraceResult{}
	decodeResponse(t, out, &result)
	require.Len(t, result.Receipts, 1)
	assert.Equal(t, int64(4), result.Receipts[0].Seq)
}

func TestTraceByTxID(t *testing.T) {
	dbPath := seedDatabase(t)

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	want, err := st.ReadReceipt(t.Context(), 4)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, err := runCLI(t, "--format", "json", "trace", "--db", dbPath, "--tx", want.TxID)
	require.NoError(t, err)

	var result TraceResult
	decodeResponse(t, out, &result)
	require.Len(t, result.Receipts, 1)
	assert.Equal(t, want.ID, result.Receipts[0].ID)
}

func TestTraceUnknownTxID(t *testing.T) {
	dbPath := seedDatabase(t)

	_, err := runCLI(t, "trace", "--db", dbPath, "--tx", "no-such-tx")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "no-such-tx")
}

func TestTraceTxAndCallerExclusive(t *testing.T) {
	dbPath := seedDatabase(t)

	_, err := runCLI(t, "trace", "--db", dbPath, "--tx", "a", "--caller", "b1")
	require.Error(t, err)
}

func TestTraceText(t *testing.T) {
	dbPath := seedDatabase(t)

	out, err := runCLI(t, "trace", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "#3 bid(990, 21, round=0) from b2 value=21 @20")
	assert.Contains(t, out, "DepositCredited round=0 b1 5")
	assert.Contains(t, out, "RoundClosed round=0 990 to b2 for 21 at=700000")
	assert.Contains(t, out, "RoundOpened round=1 ends=1304800")
	assert.Contains(t, out, "Withdrawn round=1 b1 5")
	assert.Contains(t, out, "5 receipt(s), 9 event(s)")
	assert.NotContains(t, out, "tx=")

	out, err = runCLI(t, "--verbose", "trace", "--db", dbPath, "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "id=")
	assert.Contains(t, out, "tx=")
}

func TestTraceEmptyDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "empty.db")

	out, err := runCLI(t, "trace", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "No receipts found.")
}

func TestTraceNonExistentDatabase(t *testing.T) {
	_, err := runCLI(t, "trace", "--db", "/nonexistent/path/test.db")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to open database")
}

func TestFormatEventNoBids(t *testing.T) {
	ev := ir.Event{Kind: ir.EventRoundClosed, Round: 3, At: 900}
	assert.Equal(t, "RoundClosed round=3 no bids at=900", formatEvent(ev))
}
