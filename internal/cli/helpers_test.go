package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// seedBatch configures the auction, closes round 0 with b2 as winner of
// 990 for 21, opens round 1 with b2 leading 991 at 1, and pays b1 its 5.
const seedBatch = `calls:
  - at: 0
    call: setParameters
    caller: supervisor
    params: {min_increment_bp: 500, extension_window: 300, round_duration: 604800}
  - at: 10
    call: bid
    caller: b1
    identifier: 990
    price: 5
    round: 0
    value: 5
  - at: 20
    call: bid
    caller: b2
    identifier: 990
    price: 21
    round: 0
    value: 21
  - at: 700000
    call: bid
    caller: b2
    identifier: 991
    price: 1
    round: 1
    value: 1
  - at: 700010
    call: withdraw
    caller: b1
`

// runCLI executes the root command with args and returns stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// seedDatabase applies seedBatch to a fresh database and returns its path.
func seedDatabase(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "auction.db")
	batch := writeFile(t, dir, "seed.yaml", seedBatch)

	_, err := runCLI(t, "exec", "--db", dbPath, batch)
	require.NoError(t, err)
	return dbPath
}

// decodeResponse parses a JSON CLI response, decoding Data into data.
func decodeResponse(t *testing.T, out string, data any) CLIResponse {
	t.Helper()
	var raw struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
		Error  *CLIError       `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &raw), "output: %s", out)
	if data != nil && len(raw.Data) > 0 {
		require.NoError(t, json.Unmarshal(raw.Data, data))
	}
	return CLIResponse{Status: raw.Status, Error: raw.Error}
}
