package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/idauction/internal/engine"
	"github.com/roach88/idauction/internal/ir"
)

// ExecOptions holds flags for the exec command.
type ExecOptions struct {
	*RootOptions
	Database string

	// TimeSource supplies the ledger time of calls without an explicit
	// "at" (for testing). If nil, defaults to engine.SystemTime.
	TimeSource engine.TimeSource

	// TxIDGenerator overrides the correlation token generator (for
	// testing). If nil, defaults to engine.UUIDv7Generator.
	TxIDGenerator engine.TxIDGenerator
}

// Batch is a file of ledger calls applied in order.
type Batch struct {
	Calls []BatchCall `yaml:"calls"`
}

// BatchCall is one call of a batch. At is the ledger time in seconds;
// when omitted the call runs at the current time.
type BatchCall struct {
	At      *int64 `yaml:"at,omitempty"`
	ir.Call `yaml:",inline"`
}

// ExecCallResult is the outcome of one call.
type ExecCallResult struct {
	Index   int        `json:"index"` // -1 for the bootstrap configuration
	Call    ir.Call    `json:"call"`
	Seq     int64      `json:"seq,omitempty"`
	ID      string     `json:"id,omitempty"`
	TxID    string     `json:"tx_id,omitempty"`
	Events  []ir.Event `json:"events,omitempty"`
	Code    string     `json:"code,omitempty"`
	Message string     `json:"message,omitempty"`
}

// ExecResult holds the outcome of a batch.
type ExecResult struct {
	Results   []ExecCallResult `json:"results"`
	Committed int              `json:"committed"`
	Rejected  int              `json:"rejected"`
}

func (r ExecResult) String() string {
	var b strings.Builder
	for _, c := range r.Results {
		label := fmt.Sprintf("[%d]", c.Index)
		if c.Index < 0 {
			label = "[config]"
		}
		if c.Code != "" {
			fmt.Fprintf(&b, "✗ %s %s: %s: %s\n", label, c.Call, c.Code, c.Message)
			continue
		}
		kinds := make([]string, len(c.Events))
		for i, ev := range c.Events {
			kinds[i] = string(ev.Kind)
		}
		fmt.Fprintf(&b, "✓ %s %s seq=%d events=%s\n", label, c.Call, c.Seq, strings.Join(kinds, ","))
	}
	fmt.Fprintf(&b, "\n%d committed, %d rejected", r.Committed, r.Rejected)
	return b.String()
}

// NewExecCommand creates the exec command.
func NewExecCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExecOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "exec <calls.yaml>",
		Short: "Apply a batch of ledger calls",
		Long: `Apply a batch of ledger calls to the database in file order.

Each call is one atomic transaction: it commits with a journal receipt
or is rejected without changing anything. Rejections do not stop the
batch. If the config carries parameters and the database has never been
configured, a setParameters call from the supervisor is applied first.

Batch format:
  calls:
    - at: 0
      call: bid
      caller: b1
      identifier: 990
      price: 5
      round: 0
      value: 5

Use "-" to read the batch from stdin.

Exit codes:
  0 - All calls committed
  1 - One or more calls were rejected
  2 - Command error (bad batch file, database, config)

Examples:
  idauction exec --db ./auction.db calls.yaml
  idauction exec --config auction.cue calls.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")

	return cmd
}

// LoadBatch parses a batch file. Unknown fields are rejected.
func LoadBatch(r io.Reader) (*Batch, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch: %w", err)
	}

	var batch Batch
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&batch); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	for i, c := range batch.Calls {
		if c.Op == "" {
			return nil, fmt.Errorf("calls[%d]: call is required", i)
		}
		if !ir.ValidOps[c.Op] {
			return nil, fmt.Errorf("calls[%d]: unknown call %q", i, c.Op)
		}
		if c.Caller.IsNone() {
			return nil, fmt.Errorf("calls[%d]: caller is required", i)
		}
		if c.At != nil && *c.At < 0 {
			return nil, fmt.Errorf("calls[%d]: at must be non-negative", i)
		}
	}
	return &batch, nil
}

func runExec(opts *ExecOptions, path string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	f := newFormatter(opts.RootOptions, cmd)

	batch, err := readBatch(path, cmd)
	if err != nil {
		_ = f.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid batch", err)
	}

	now := opts.TimeSource
	if now == nil {
		now = engine.SystemTime{}
	}
	var engineOpts []engine.Option
	engineOpts = append(engineOpts, engine.WithTimeSource(now))
	if opts.TxIDGenerator != nil {
		engineOpts = append(engineOpts, engine.WithTxIDGenerator(opts.TxIDGenerator))
	}

	s, err := openSession(ctx, opts.RootOptions, opts.Database, engineOpts...)
	if err != nil {
		_ = f.ErrorFrom(err)
		return err
	}
	defer s.Close()

	result := ExecResult{Results: []ExecCallResult{}}
	apply := func(index int, call ir.Call) error {
		res := ExecCallResult{Index: index, Call: call}
		receipt, err := s.engine.Apply(ctx, call)
		switch {
		case err == nil:
			res.Seq = receipt.Seq
			res.ID = receipt.ID
			res.TxID = receipt.TxID
			res.Events = receipt.Events
			result.Committed++
		case engine.IsRejection(err):
			res.Code = string(engine.CodeOf(err))
			res.Message = err.Error()
			var engErr *engine.Error
			if errors.As(err, &engErr) {
				res.Message = engErr.Message
			}
			result.Rejected++
		default:
			return err
		}
		result.Results = append(result.Results, res)
		f.VerboseLog("[%d] %s -> seq=%d code=%s", index, call, res.Seq, res.Code)
		return nil
	}

	if p := s.cfg.Parameters; p != nil {
		if _, configured := s.engine.GetParameters(); !configured {
			t := now.Now()
			if len(batch.Calls) > 0 && batch.Calls[0].At != nil {
				t = *batch.Calls[0].At
			}
			bootstrap := ir.Call{Op: ir.OpSetParameters, Caller: s.cfg.Supervisor, Time: t, Params: *p}
			if err := apply(-1, bootstrap); err != nil {
				return WrapExitError(ExitCommandError, "failed to apply configured parameters", err)
			}
		}
	}

	for i, bc := range batch.Calls {
		call := bc.Call
		call.Time = now.Now()
		if bc.At != nil {
			call.Time = *bc.At
		}
		if err := apply(i, call); err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("call %d failed", i), err)
		}
	}

	if result.Rejected > 0 {
		msg := fmt.Sprintf("%d call(s) rejected", result.Rejected)
		if err := f.Failure(result, ErrCodeRejected, msg); err != nil {
			return err
		}
		return NewExitError(ExitFailure, msg)
	}
	return f.Success(result)
}

func readBatch(path string, cmd *cobra.Command) (*Batch, error) {
	if path == "-" {
		return LoadBatch(cmd.InOrStdin())
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open batch file: %w", err)
	}
	defer file.Close()
	return LoadBatch(file)
}
