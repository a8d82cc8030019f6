package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/idauction/internal/ir"
)

func TestValidateValidConfig(t *testing.T) {
	out, err := runCLI(t, "--format", "json", "validate", "../config/testdata/valid.cue")
	require.NoError(t, err)

	var result ValidationResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, result.Valid)
	require.NotNil(t, result.Config)
	assert.Equal(t, ir.Address("0xsupervisor"), result.Config.Supervisor)
	assert.Equal(t, []ir.Range{{From: 0, To: 255}, {From: 1000, To: 1099}}, result.Config.Reserved)
	require.NotNil(t, result.Config.Parameters)
	assert.Equal(t, int64(604800), result.Config.Parameters.RoundDuration)
	assert.Equal(t, "auction.db", result.Config.Database)
}

func TestValidateText(t *testing.T) {
	out, err := runCLI(t, "validate", "../config/testdata/minimal.cue")
	require.NoError(t, err)
	assert.Contains(t, out, "is valid")
	assert.Contains(t, out, "supervisor: 0xsupervisor")
	assert.Contains(t, out, "reserved:   0-255")
	assert.Contains(t, out, "database:   idauction.db")
	assert.NotContains(t, out, "parameters:")
}

func TestValidateUsesConfigFlag(t *testing.T) {
	out, err := runCLI(t, "--config", "../config/testdata/minimal.cue", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "minimal.cue is valid")
}

func TestValidateInvalidConfig(t *testing.T) {
	out, err := runCLI(t, "--format", "json", "validate", "../config/testdata/short_round.cue")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var result ValidationResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeConfig, resp.Error.Code)
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "roundDuration", result.Errors[0].Field)
	assert.Positive(t, result.Errors[0].Line)
}

func TestValidateSyntaxError(t *testing.T) {
	path := writeFile(t, t.TempDir(), "broken.cue", "supervisor: \"x\"\nparameters: {\n")

	out, err := runCLI(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "is invalid")
}

func TestValidateUnknownField(t *testing.T) {
	path := writeFile(t, t.TempDir(), "extra.cue", "supervisor: \"x\"\nowner: \"y\"\n")

	_, err := runCLI(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestValidateNoFile(t *testing.T) {
	_, err := runCLI(t, "validate")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestValidateMissingFile(t *testing.T) {
	_, err := runCLI(t, "validate", "/nonexistent/auction.cue")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to read config")
}
