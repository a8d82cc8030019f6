package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/idauction/internal/engine"
	"github.com/roach88/idauction/internal/store"
	"github.com/roach88/idauction/internal/testutil"
)

// Harness is the test execution engine.
// It runs scenarios with a manual ledger clock and sequential tx ids.
type Harness struct {
	store    *store.Store
	engine   *engine.Engine
	clock    *testutil.ManualClock
	transfer *testutil.RecordingTransferer
	logger   *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Create fresh in-memory database and engine
// 2. Execute steps, checking each against its expect clause
// 3. Check state invariants after every committed step
// 4. Evaluate assertions against the final state
//
// A returned error means the scenario could not be executed at all; a
// scenario that executed but failed reports it through Result.Pass.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()
	h, err := newHarness(ctx, scenario)
	if err != nil {
		return nil, err
	}
	defer h.store.Close()

	result := NewResult()
	if err := h.executeSteps(ctx, scenario.Steps, result); err != nil {
		return nil, fmt.Errorf("failed to execute steps: %w", err)
	}

	result.State = h.engine.State()
	result.Payouts = h.transfer.Payouts()
	result.Digest, err = h.engine.Digest()
	if err != nil {
		return nil, fmt.Errorf("failed to compute digest: %w", err)
	}
	result.Receipts, err = h.store.ListReceipts(ctx, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}

	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}

	return result, nil
}

// newHarness opens a fresh in-memory store and an engine wired to
// deterministic time, tx ids and transfers.
func newHarness(ctx context.Context, scenario *Scenario) (*Harness, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}

	clock := testutil.NewManualClock(0)
	transfer := testutil.NewRecordingTransferer()
	if scenario.Transfer != nil {
		for _, addr := range scenario.Transfer.Refuse {
			transfer.Refuse(addr)
		}
	}

	eng, err := engine.New(ctx, st, scenario.Config.Engine(),
		engine.WithTimeSource(clock),
		engine.WithTxIDGenerator(&engine.SequentialGenerator{Prefix: "tx"}),
		engine.WithTransferer(transfer),
	)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	return &Harness{
		store:    st,
		engine:   eng,
		clock:    clock,
		transfer: transfer,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, nil
}

// executeSteps runs all steps in order and validates expect clauses.
//
// Step outcomes that differ from the expectation are recorded as result
// errors and execution continues, so one failure does not hide the next.
func (h *Harness) executeSteps(ctx context.Context, steps []Step, result *Result) error {
	for i, step := range steps {
		if err := h.moveClock(step); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}

		call := step.Call
		call.Time = h.clock.Now()

		receipt, err := h.engine.Apply(ctx, call)
		switch {
		case err == nil:
			result.AddCommitted(i, receipt)
			if step.Expect != nil {
				result.AddError(fmt.Sprintf("step %d (%s): expected %s, call committed",
					i, call.Op, step.Expect.Error))
			}
			if err := engine.CheckInvariants(h.engine.State()); err != nil {
				result.AddError(fmt.Sprintf("step %d (%s): invariant violated: %v", i, call.Op, err))
			}
			h.logger.Info("step committed",
				"step", i,
				"op", call.Op,
				"seq", receipt.Seq,
				"events", len(receipt.Events))

		case engine.IsRejection(err):
			code := engine.CodeOf(err)
			result.AddRejected(i, call, code)
			switch {
			case step.Expect == nil:
				result.AddError(fmt.Sprintf("step %d (%s): unexpected rejection: %v", i, call.Op, err))
			case step.Expect.Error != code:
				result.AddError(fmt.Sprintf("step %d (%s): expected %s, got %s",
					i, call.Op, step.Expect.Error, code))
			}
			h.logger.Info("step rejected",
				"step", i,
				"op", call.Op,
				"code", code)

		default:
			return fmt.Errorf("step %d (%s): %w", i, call.Op, err)
		}
	}
	return nil
}

func (h *Harness) moveClock(step Step) error {
	switch {
	case step.At != nil:
		return h.clock.Set(*step.At)
	case step.Advance != "":
		d, err := ParseAdvance(step.Advance)
		if err != nil {
			return err
		}
		return h.clock.Advance(d)
	}
	return nil
}
