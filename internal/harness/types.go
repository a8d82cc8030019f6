package harness

import (
	"github.com/roach88/idauction/internal/engine"
	"github.com/roach88/idauction/internal/ir"
	"github.com/roach88/idauction/internal/testutil"
)

// TraceEntry records one executed step: the call as applied and either its
// committed seq and events or the code it was rejected with.
type TraceEntry struct {
	Step   int              `json:"step"`
	Call   ir.Call          `json:"call"`
	Seq    int64            `json:"seq,omitempty"`
	Error  engine.ErrorCode `json:"error,omitempty"`
	Events []ir.Event       `json:"events,omitempty"`
}

// Committed reports whether the step produced a receipt.
func (e TraceEntry) Committed() bool { return e.Error == "" }

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every step met its expectation and every assertion held.
	Pass bool `json:"pass"`

	// Trace contains every step in execution order, committed or not.
	Trace []TraceEntry `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Digest is the state digest after the last step.
	Digest string `json:"digest"`

	// State is the committed state after the last step.
	State *ir.State `json:"-"`

	// Payouts lists successful withdraw transfers in order.
	Payouts []testutil.Payout `json:"-"`

	// Receipts is the journal written by the run, in seq order.
	Receipts []ir.Receipt `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEntry{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddCommitted adds a committed step to the trace.
func (r *Result) AddCommitted(step int, receipt *ir.Receipt) {
	r.Trace = append(r.Trace, TraceEntry{
		Step:   step,
		Call:   receipt.Call,
		Seq:    receipt.Seq,
		Events: receipt.Events,
	})
}

// AddRejected adds a rejected step to the trace.
func (r *Result) AddRejected(step int, call ir.Call, code engine.ErrorCode) {
	r.Trace = append(r.Trace, TraceEntry{
		Step:  step,
		Call:  call,
		Error: code,
	})
}
