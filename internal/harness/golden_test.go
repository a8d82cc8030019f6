package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/idauction/internal/engine"
	"github.com/roach88/idauction/internal/ir"
)

func TestMarshalTrace_Canonical(t *testing.T) {
	result := NewResult()
	result.AddCommitted(0, &ir.Receipt{
		ID:   "ignored",
		Seq:  1,
		TxID: "also-ignored",
		Call: ir.Call{Op: ir.OpPause, Caller: "supervisor", Time: 20},
		Events: []ir.Event{
			{Kind: ir.EventPaused, Round: 3},
		},
	})
	result.AddRejected(1, ir.Call{
		Op: ir.OpBid, Caller: "b1", Time: 30,
		Identifier: 7, Price: ir.NewAmount(2), Round: 3, Value: ir.NewAmount(2),
	}, engine.ErrPaused)

	data, err := MarshalTrace("sample", result)
	require.NoError(t, err)

	want := `{"scenario_name":"sample","trace":[` +
		`{"args":{},"caller":"supervisor","events":[{"kind":"Paused","round":3}],"op":"pause","seq":1,"step":0,"time":20},` +
		`{"args":{"identifier":7,"price":"2","round":3},"caller":"b1","error":"AuctionPaused","op":"bid","step":1,"time":30,"value":"2"}` +
		`]}`
	assert.Equal(t, want, string(data))
	assert.NotContains(t, string(data), "ignored")
}

func TestMarshalTrace_Empty(t *testing.T) {
	data, err := MarshalTrace("empty", NewResult())
	require.NoError(t, err)
	assert.Equal(t, `{"scenario_name":"empty","trace":[]}`, string(data))
}
